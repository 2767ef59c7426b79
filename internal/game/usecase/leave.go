package usecase

import (
	"context"

	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
)

// LeaveParams 离开对局参数
type LeaveParams struct {
	GameId   string
	PlayerId string
}

// Leave 主动离开对局: 对手立即判胜, 对局结束
func (s *Service) Leave(ctx context.Context, params LeaveParams) error {
	return s.withGame(ctx, params.GameId, params.PlayerId, func(entry *game.Entry) error {
		g := entry.Game()

		if !g.HasPlayer(params.PlayerId) {
			return s.reject(g.Id, params.PlayerId, ErrNotAPlayer.WithContext("playerId", params.PlayerId))
		}
		if g.Status == koikoi.StatusFinished {
			return s.reject(g.Id, params.PlayerId, koikoi.ErrGameFinished)
		}

		s.logger.Info("Player left game", "gameId", g.Id, "playerId", params.PlayerId)
		s.finishGame(entry, g.OpponentOf(params.PlayerId), FinishReasonOpponentLeft)
		return nil
	})
}
