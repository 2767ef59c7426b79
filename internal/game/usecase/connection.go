package usecase

import (
	"context"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/timeout"
)

// HandleDisconnect 玩家断线
// 对局不暂停: 布防断线判负定时器; 轮到断线方行动时由加速定时器驱动托管代打
func (s *Service) HandleDisconnect(ctx context.Context, gameId, playerId string) error {
	return s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		if !g.HasPlayer(playerId) {
			return ErrNotAPlayer.WithContext("playerId", playerId)
		}
		if g.Status == koikoi.StatusFinished {
			return nil
		}

		st := s.runtime(gameId).status(playerId)
		st.connected = false

		s.timeouts.StartDisconnect(gameId, playerId, s.onDisconnectTimeout)

		round := g.CurrentRound
		if round != nil && round.ActivePlayerId == playerId {
			s.timeouts.StartAccelerated(gameId, playerId, s.onAcceleratedTimeout)
		}

		s.logger.Info("Player disconnected", "gameId", gameId, "playerId", playerId)
		return nil
	})
}

// HandleReconnect 玩家重连: 取消断线/加速定时器并下发全量状态快照
// 动作超时定时器在断线期间从未暂停, 重连后继续生效
func (s *Service) HandleReconnect(ctx context.Context, gameId, playerId string) error {
	return s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		if !g.HasPlayer(playerId) {
			return ErrNotAPlayer.WithContext("playerId", playerId)
		}

		st := s.runtime(gameId).status(playerId)
		st.connected = true

		s.timeouts.Clear(timeout.FamilyDisconnect, gameId, playerId)
		s.timeouts.Clear(timeout.FamilyAccelerated, gameId, playerId)

		s.bus.Publish(s.buildSnapshot(g, playerId))

		s.logger.Info("Player reconnected", "gameId", gameId, "playerId", playerId)
		return nil
	})
}

// buildSnapshot 构建重连方视角的全量状态快照 (不含对手手牌)
func (s *Service) buildSnapshot(g *koikoi.Game, playerId string) event.GameSnapshotRestore {
	snapshot := event.GameSnapshotRestore{
		GameId:           g.Id,
		PlayerId:         playerId,
		Status:           g.Status,
		RoundsPlayed:     g.RoundsPlayed,
		TotalRounds:      g.TotalRounds,
		CumulativeScores: g.CumulativeScores,
	}

	round := g.CurrentRound
	if round == nil {
		return snapshot
	}

	snapshot.ActivePlayerId = round.ActivePlayerId
	snapshot.FlowState = round.Flow
	snapshot.Field = koikoi.Codes(round.Field)
	snapshot.DrawPileCount = len(round.DrawPile)
	snapshot.Hand = koikoi.Codes(round.HandOf(playerId))
	snapshot.OpponentHandSize = len(round.HandOf(round.OpponentOf(playerId)))
	snapshot.TimeoutSeconds = s.timeoutSeconds()

	depositories := make(map[string][]string, len(round.Players))
	for _, id := range round.PlayerIds() {
		depositories[id] = koikoi.Codes(round.DepositoryOf(id))
	}
	snapshot.Depositories = depositories

	// 选择/决策途中断线的恢复现场
	if round.ActivePlayerId == playerId {
		snapshot.Pending = round.Pending
		snapshot.AwaitingDecision = round.AwaitingDecision
	}

	return snapshot
}
