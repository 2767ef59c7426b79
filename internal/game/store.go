package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hanakoi.game.logic/internal/game/koikoi"
)

// Entry 存储条目: 对局聚合 + 活跃度/落库脏标记
// 聚合本身不加锁, 访问方必须持有该对局的按键互斥锁
type Entry struct {
	mu sync.RWMutex

	game       *koikoi.Game
	lastActive time.Time
	dirty      bool
}

// Game 返回对局聚合
func (e *Entry) Game() *koikoi.Game {
	return e.game
}

// Touch 更新活跃时间并标脏
func (e *Entry) Touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = time.Now()
	e.dirty = true
}

// IsDirty 是否有未落库的修改
func (e *Entry) IsDirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// MarkClean 标记为已落库
func (e *Entry) MarkClean() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = false
}

// LastActiveTime 最后活跃时间
func (e *Entry) LastActiveTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastActive
}

// Saver 落库接口 (持久层是滞后的尽力而为镜像, 只用于崩溃恢复和赛后查询)
type Saver interface {
	Save(ctx context.Context, game *koikoi.Game) error
}

// Store 对局存储
// 活跃对局的内存对象是唯一权威状态; 超过时限不活跃的对局先落库再淘汰
type Store struct {
	games sync.Map // gameId -> *Entry

	saver        Saver
	evictTimeout time.Duration
	evictTicker  *time.Ticker

	stopChan chan struct{}
	logger   *slog.Logger
}

// NewStore 创建对局存储
func NewStore(saver Saver, evictTimeout time.Duration) *Store {
	s := &Store{
		saver:        saver,
		evictTimeout: evictTimeout,
		evictTicker:  time.NewTicker(60 * time.Second),
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameStore"),
	}

	go s.evictLoop()

	return s
}

// Put 放入新对局
func (s *Store) Put(g *koikoi.Game) *Entry {
	entry := &Entry{
		game:       g,
		lastActive: time.Now(),
		dirty:      true,
	}
	s.games.Store(g.Id, entry)
	return entry
}

// Get 获取对局
func (s *Store) Get(gameId string) (*Entry, bool) {
	val, ok := s.games.Load(gameId)
	if !ok {
		return nil, false
	}
	return val.(*Entry), true
}

// Remove 移除对局
func (s *Store) Remove(gameId string) {
	s.games.Delete(gameId)
	s.logger.Info("Removed game", "gameId", gameId)
}

// Count 当前对局数
func (s *Store) Count() int {
	count := 0
	s.games.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// evictLoop 淘汰循环
func (s *Store) evictLoop() {
	for {
		select {
		case <-s.evictTicker.C:
			s.evictInactive()
		case <-s.stopChan:
			return
		}
	}
}

// evictInactive 淘汰不活跃的对局 (脏数据先落库)
func (s *Store) evictInactive() {
	now := time.Now()
	toEvict := []string{}

	s.games.Range(func(key, value interface{}) bool {
		gameId := key.(string)
		entry := value.(*Entry)

		if now.Sub(entry.LastActiveTime()) > s.evictTimeout {
			toEvict = append(toEvict, gameId)
		}

		return true
	})

	for _, gameId := range toEvict {
		if val, ok := s.games.Load(gameId); ok {
			entry := val.(*Entry)
			s.saveEntry(entry)
			s.Remove(gameId)
			s.logger.Info("Evicted inactive game", "gameId", gameId)
		}
	}
}

// saveEntry 落库单个条目 (失败只记日志, 不阻塞淘汰)
func (s *Store) saveEntry(entry *Entry) {
	if !entry.IsDirty() || s.saver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.saver.Save(ctx, entry.Game()); err != nil {
		s.logger.Warn("Failed to save game before eviction",
			"gameId", entry.Game().Id, "error", err)
		return
	}
	entry.MarkClean()
}

// Shutdown 关闭存储, 全部脏对局落库
func (s *Store) Shutdown(ctx context.Context) error {
	close(s.stopChan)
	s.evictTicker.Stop()

	s.games.Range(func(key, value interface{}) bool {
		s.saveEntry(value.(*Entry))
		return true
	})

	s.logger.Info("GameStore shutdown complete")
	return nil
}
