package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/lock"
	"hanakoi.game.logic/internal/timeout"
)

// Repository 对局持久层端口 (滞后镜像: 崩溃恢复和赛后查询用)
type Repository interface {
	Save(ctx context.Context, g *koikoi.Game) error
	// Load 按ID加载对局快照, 不存在时返回 (nil, nil)
	Load(ctx context.Context, gameId string) (*koikoi.Game, error)
}

// IdGenerator 对局ID生成端口
type IdGenerator interface {
	NextString() string
}

// playerStatus 玩家的运行时状态 (连接/闲置/确认), 只在持有对局锁时访问
type playerStatus struct {
	connected       bool
	idleFlagged     bool
	awaitingConfirm bool
}

// gameRuntime 对局的运行时状态
type gameRuntime struct {
	players map[string]*playerStatus
}

func (rt *gameRuntime) status(playerId string) *playerStatus {
	st, ok := rt.players[playerId]
	if !ok {
		st = &playerStatus{connected: true}
		rt.players[playerId] = st
	}
	return st
}

// Service 对局用例服务
// 所有进入游戏逻辑的路径 (玩家指令 / 定时器回调 / 托管代打) 都必须先获取
// 该对局的协作锁, 锁内单线程推进状态机, 锁外只做事件扇出和异步落库
type Service struct {
	store    *game.Store
	locks    *lock.KeyedMutex
	timeouts *timeout.Manager
	bus      *event.Bus
	repo     Repository
	decks    *koikoi.DeckGenerator
	ids      IdGenerator

	rtMu     sync.Mutex
	runtimes map[string]*gameRuntime

	logger *slog.Logger
}

// NewService 创建对局用例服务
func NewService(
	store *game.Store,
	locks *lock.KeyedMutex,
	timeouts *timeout.Manager,
	bus *event.Bus,
	repo Repository,
	decks *koikoi.DeckGenerator,
	ids IdGenerator,
) *Service {
	return &Service{
		store:    store,
		locks:    locks,
		timeouts: timeouts,
		bus:      bus,
		repo:     repo,
		decks:    decks,
		ids:      ids,
		runtimes: make(map[string]*gameRuntime),
		logger:   slog.Default().With("component", "GameService"),
	}
}

// runtime 获取对局运行时状态, 不存在时初始化 (双方默认在线)
func (s *Service) runtime(gameId string) *gameRuntime {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()

	rt, ok := s.runtimes[gameId]
	if !ok {
		rt = &gameRuntime{players: make(map[string]*playerStatus)}
		s.runtimes[gameId] = rt
	}
	return rt
}

// dropRuntime 移除对局运行时状态
func (s *Service) dropRuntime(gameId string) {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	delete(s.runtimes, gameId)
}

// withGame 在对局锁内执行 fn
// 内存中没有对局时尝试从持久层恢复 (进程重启后的在途对局)
func (s *Service) withGame(ctx context.Context, gameId, playerId string, fn func(entry *game.Entry) error) error {
	return s.locks.WithLock(ctx, gameId, func() error {
		entry, ok := s.store.Get(gameId)
		if !ok {
			var err error
			entry, err = s.rehydrate(ctx, gameId)
			if err != nil {
				s.publishGameError(gameId, playerId, err)
				return err
			}
		}

		if err := fn(entry); err != nil {
			return err
		}
		entry.Touch()
		return nil
	})
}

// rehydrate 从持久层恢复对局到内存 (调用方持有对局锁)
func (s *Service) rehydrate(ctx context.Context, gameId string) (*game.Entry, error) {
	if s.repo == nil {
		return nil, ErrGameNotFound.WithContext("gameId", gameId)
	}

	g, err := s.repo.Load(ctx, gameId)
	if err != nil {
		return nil, ErrGameNotFound.WithCause(err).WithContext("gameId", gameId)
	}
	if g == nil || g.Status == koikoi.StatusFinished {
		return nil, ErrGameNotFound.WithContext("gameId", gameId)
	}

	// map 不保序, 反序列化后按对局的玩家顺序恢复回合内顺序
	if g.CurrentRound != nil {
		g.CurrentRound.RestorePlayerIds(g.PlayerIds())
	}

	entry := s.store.Put(g)
	s.runtime(gameId)
	s.logger.Info("Rehydrated game from repository", "gameId", gameId)

	// 恢复后的对局没有任何在途定时器, 重新布防
	if g.Status == koikoi.StatusInProgress && g.CurrentRound != nil {
		s.startTurnTimers(g)
	}

	return entry, nil
}

// guardTurn 回合操作的公共校验: 对局进行中 / 调用方是行动方 / 流程状态匹配
func (s *Service) guardTurn(g *koikoi.Game, playerId string, want koikoi.FlowState) error {
	if !g.HasPlayer(playerId) {
		return ErrNotAPlayer.WithContext("playerId", playerId)
	}
	if g.Status == koikoi.StatusFinished {
		return koikoi.ErrGameFinished
	}
	if g.Status != koikoi.StatusInProgress || g.CurrentRound == nil {
		return koikoi.ErrRoundNotActive
	}

	round := g.CurrentRound
	if round.ActivePlayerId != playerId {
		return koikoi.ErrWrongPlayer.WithContext("playerId", playerId)
	}
	if round.Flow != want {
		return koikoi.ErrInvalidState.
			WithContext("flowState", string(round.Flow)).
			WithContext("expected", string(want))
	}
	return nil
}

// reject 校验失败: 只回给出错方 TurnError 事件, 对局状态不变
func (s *Service) reject(gameId, playerId string, err error) error {
	var gameErr *koikoi.GameError
	if errors.As(err, &gameErr) {
		s.bus.Publish(event.TurnError{
			GameId:   gameId,
			PlayerId: playerId,
			Code:     gameErr.Code,
			Message:  gameErr.Message,
		})
	}
	return err
}

// publishGameError 对局级错误 (对局不存在等), 只回给出错方
func (s *Service) publishGameError(gameId, playerId string, err error) {
	var gameErr *koikoi.GameError
	if errors.As(err, &gameErr) {
		s.bus.Publish(event.GameError{
			GameId:   gameId,
			PlayerId: playerId,
			Code:     gameErr.Code,
			Message:  gameErr.Message,
		})
	}
}

// timeoutSeconds 客户端可见的动作时限
func (s *Service) timeoutSeconds() int {
	return s.timeouts.Config().ActionSeconds
}

// startTurnTimers 为当前行动方布防回合定时器
// 行动方断线/被标记闲置/是AI时追加加速定时器, 短时限内无响应即托管代打
func (s *Service) startTurnTimers(g *koikoi.Game) {
	round := g.CurrentRound
	if round == nil {
		return
	}

	active := round.ActivePlayerId
	s.timeouts.StartAction(g.Id, active, s.onActionTimeout)

	st := s.runtime(g.Id).status(active)
	player := g.PlayerOf(active)
	if !st.connected || st.idleFlagged || (player != nil && player.IsAI) {
		s.timeouts.StartAccelerated(g.Id, active, s.onAcceleratedTimeout)
	}
}

// clearTurnTimers 清除回合定时器 (动作族 + 双方加速族)
func (s *Service) clearTurnTimers(g *koikoi.Game) {
	s.timeouts.Clear(timeout.FamilyAction, g.Id, "")
	for _, id := range g.PlayerIds() {
		s.timeouts.Clear(timeout.FamilyAccelerated, g.Id, id)
	}
}

// genuineAction 玩家本人的真实操作: 重置闲置跟踪
// 托管代打不走这里, 持续被代打的玩家闲置定时器照常到期
func (s *Service) genuineAction(g *koikoi.Game, playerId string) {
	player := g.PlayerOf(playerId)
	if player == nil || player.IsAI {
		return
	}

	st := s.runtime(g.Id).status(playerId)
	st.idleFlagged = false
	s.timeouts.StartIdle(g.Id, playerId, s.onIdleTimeout)
}

// persistAsync 异步落库, 失败只记日志, 绝不阻塞对局推进
func (s *Service) persistAsync(g *koikoi.Game) {
	if s.repo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.Save(ctx, g); err != nil {
			s.logger.Warn("Failed to persist game", "gameId", g.Id, "error", err)
		}
	}()
}
