package timeout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"hanakoi.game.logic/internal/task"
)

// Family 定时器族
type Family string

const (
	FamilyAction      Family = "action"      // 动作超时 (按对局)
	FamilyDisconnect  Family = "disconnect"  // 断线超时 (按对局+玩家)
	FamilyIdle        Family = "idle"        // 闲置超时 (按对局+玩家)
	FamilyConfirm     Family = "confirm"     // 回合间继续确认超时 (按对局+玩家)
	FamilyAccelerated Family = "accelerated" // 加速超时, 驱动托管自动行动 (按对局+玩家)
)

// Config 各族默认时长
type Config struct {
	ActionSeconds int           `mapstructure:"action_seconds"` // 客户端可见的动作时限 (秒)
	ActionBuffer  time.Duration `mapstructure:"action_buffer"`  // 服务端附加缓冲
	Disconnect    time.Duration `mapstructure:"disconnect"`
	Idle          time.Duration `mapstructure:"idle"`
	Confirm       time.Duration `mapstructure:"confirm"`
	Accelerated   time.Duration `mapstructure:"accelerated"`
}

// DefaultConfig 默认时长
// 动作超时的服务端触发时刻 = 客户端可见时限 + 固定缓冲, 避免与客户端自身倒计时竞速
func DefaultConfig() Config {
	return Config{
		ActionSeconds: 30,
		ActionBuffer:  1500 * time.Millisecond,
		Disconnect:    60 * time.Second,
		Idle:          90 * time.Second,
		Confirm:       15 * time.Second,
		Accelerated:   3 * time.Second,
	}
}

// FireFunc 定时器触发回调
// 回调在调度器工作协程内执行, 必须自行重新获取对局锁后才能进入游戏逻辑
type FireFunc func(ctx context.Context, gameId, playerId string)

// armedTimer 已布防的定时器
type armedTimer struct {
	taskID     string
	slot       int
	generation int64
}

// Manager 超时管理器
// 五个独立定时器族共用一个时间轮调度器; 每次布防都先取消同键旧定时器
// 代数检查兜底: 即使时间轮删除竞态漏掉一次取消, 过期代数的触发也会被丢弃
type Manager struct {
	scheduler *task.Scheduler
	cfg       Config

	mu     sync.Mutex
	armed  map[string]*armedTimer // 键: family|gameId|playerId
	gens   map[string]int64
	seq    atomic.Int64
	logger *slog.Logger
}

// NewManager 创建超时管理器
func NewManager(scheduler *task.Scheduler, cfg Config) *Manager {
	return &Manager{
		scheduler: scheduler,
		cfg:       cfg,
		armed:     make(map[string]*armedTimer),
		gens:      make(map[string]int64),
		logger:    slog.Default().With("component", "TimeoutManager"),
	}
}

// Config 返回时长配置
func (m *Manager) Config() Config {
	return m.cfg
}

// ActionDuration 动作超时的服务端实际时长
func (m *Manager) ActionDuration() time.Duration {
	return time.Duration(m.cfg.ActionSeconds)*time.Second + m.cfg.ActionBuffer
}

// StartAction 布防动作超时 (同一对局同时至多一个)
func (m *Manager) StartAction(gameId, playerId string, fire FireFunc) {
	m.start(FamilyAction, gameId, playerId, m.ActionDuration(), fire)
}

// StartDisconnect 布防断线超时
func (m *Manager) StartDisconnect(gameId, playerId string, fire FireFunc) {
	m.start(FamilyDisconnect, gameId, playerId, m.cfg.Disconnect, fire)
}

// StartIdle 布防闲置超时
func (m *Manager) StartIdle(gameId, playerId string, fire FireFunc) {
	m.start(FamilyIdle, gameId, playerId, m.cfg.Idle, fire)
}

// StartConfirm 布防继续确认超时
func (m *Manager) StartConfirm(gameId, playerId string, fire FireFunc) {
	m.start(FamilyConfirm, gameId, playerId, m.cfg.Confirm, fire)
}

// StartAccelerated 布防加速超时
func (m *Manager) StartAccelerated(gameId, playerId string, fire FireFunc) {
	m.start(FamilyAccelerated, gameId, playerId, m.cfg.Accelerated, fire)
}

// Clear 取消指定定时器
func (m *Manager) Clear(family Family, gameId, playerId string) bool {
	key := timerKey(family, gameId, playerId)

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.clearLocked(key)
}

// ClearAllForGame 取消对局的全部定时器 (五个族一次性原子清理, 防止定时器泄漏)
func (m *Manager) ClearAllForGame(gameId string) {
	prefix := "|" + gameId + "|"

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.armed {
		if containsSegment(key, prefix) {
			m.clearLocked(key)
		}
	}

	m.logger.Debug("Cleared all timers for game", "gameId", gameId)
}

// start 布防定时器, 先取消同键旧定时器再布防新的
func (m *Manager) start(family Family, gameId, playerId string, delay time.Duration, fire FireFunc) {
	key := timerKey(family, gameId, playerId)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked(key)

	generation := m.gens[key] + 1
	m.gens[key] = generation

	taskID := fmt.Sprintf("%s#%d", key, m.seq.Add(1))

	t := task.NewTask(taskID, key, delay, func(ctx context.Context, _ string, _ map[string]any) error {
		if !m.consume(key, generation) {
			return nil // 已被取消或重新布防, 丢弃过期触发
		}
		fire(ctx, gameId, playerId)
		return nil
	})
	t.WithMetadata("family", string(family))

	slot, err := m.scheduler.AddTask(t)
	if err != nil {
		m.logger.Error("Failed to arm timer", "key", key, "error", err)
		return
	}

	m.armed[key] = &armedTimer{taskID: taskID, slot: slot, generation: generation}
}

// clearLocked 取消定时器 (调用方持有 m.mu)
func (m *Manager) clearLocked(key string) bool {
	armed, ok := m.armed[key]
	if !ok {
		return false
	}

	delete(m.armed, key)
	m.gens[key]++
	m.scheduler.RemoveTask(armed.taskID, armed.slot)
	return true
}

// consume 触发时的代数校验: 只有仍是当前代的定时器才允许执行
func (m *Manager) consume(key string, generation int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	armed, ok := m.armed[key]
	if !ok || armed.generation != generation {
		return false
	}

	delete(m.armed, key)
	return true
}

// timerKey 定时器键: family|gameId|playerId (动作族 playerId 为当前行动方, 仅作记录)
func timerKey(family Family, gameId, playerId string) string {
	if family == FamilyAction {
		return string(family) + "|" + gameId + "|"
	}
	return string(family) + "|" + gameId + "|" + playerId
}

// containsSegment 判断键中是否含有 |gameId| 段
func containsSegment(key, segment string) bool {
	for i := 0; i+len(segment) <= len(key); i++ {
		if key[i:i+len(segment)] == segment {
			return true
		}
	}
	return false
}
