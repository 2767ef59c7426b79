package ai

import (
	"context"
	"log/slog"
	"sync"

	"hanakoi.game.logic/internal/event"
)

// Opponent AI对局跟踪通道
// 注册在事件总线上, 跟踪含AI玩家的对局; AI的行动本身由加速定时器驱动,
// 这里只负责监视: 策略打出非法操作 (TurnError 回给AI) 属于代码bug, 大声报错
type Opponent struct {
	mu    sync.Mutex
	games map[string]map[string]bool // gameId -> AI玩家集合

	logger *slog.Logger
}

// NewOpponent 创建AI对局跟踪通道
func NewOpponent() *Opponent {
	return &Opponent{
		games:  make(map[string]map[string]bool),
		logger: slog.Default().With("component", "AIOpponent"),
	}
}

// Name 实现 event.Sink
func (o *Opponent) Name() string {
	return "ai-opponent"
}

// Handle 实现 event.Sink
func (o *Opponent) Handle(_ context.Context, e event.Event) error {
	switch ev := e.(type) {
	case event.GameStarted:
		aiPlayers := make(map[string]bool)
		for _, p := range ev.Players {
			if p.IsAI {
				aiPlayers[p.Id] = true
			}
		}
		if len(aiPlayers) == 0 {
			return nil
		}

		o.mu.Lock()
		o.games[ev.GameId] = aiPlayers
		o.mu.Unlock()
		o.logger.Info("Tracking AI game", "gameId", ev.GameId, "aiCount", len(aiPlayers))

	case event.GameFinished:
		o.mu.Lock()
		delete(o.games, ev.GameId)
		o.mu.Unlock()

	case event.TurnError:
		if o.isAI(ev.GameId, ev.PlayerId) {
			o.logger.Error("AI strategy produced invalid move",
				"gameId", ev.GameId,
				"playerId", ev.PlayerId,
				"code", ev.Code,
				"message", ev.Message)
		}
	}

	return nil
}

// TrackedGames 当前跟踪的AI对局数
func (o *Opponent) TrackedGames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.games)
}

// isAI 判断玩家是否是被跟踪的AI
func (o *Opponent) isAI(gameId, playerId string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	aiPlayers, ok := o.games[gameId]
	return ok && aiPlayers[playerId]
}
