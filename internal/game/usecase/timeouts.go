package usecase

import (
	"context"

	"hanakoi.game.logic/internal/ai"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
)

// onActionTimeout 动作超时触发: 托管代打当前行动方
// 回调在调度器工作协程内执行, autoAct 重新获取对局锁后才进入游戏逻辑
func (s *Service) onActionTimeout(ctx context.Context, gameId, playerId string) {
	s.logger.Info("Action timeout fired", "gameId", gameId, "playerId", playerId)
	s.autoAct(ctx, gameId, playerId)
}

// onAcceleratedTimeout 加速超时触发: 断线/闲置/AI玩家的快速托管
func (s *Service) onAcceleratedTimeout(ctx context.Context, gameId, playerId string) {
	s.autoAct(ctx, gameId, playerId)
}

// onIdleTimeout 闲置超时触发: 标记玩家闲置
// 被标记后其回合改由加速定时器驱动, 下一个回合边界要求显式确认继续
func (s *Service) onIdleTimeout(ctx context.Context, gameId, playerId string) {
	err := s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		st := s.runtime(gameId).status(playerId)
		st.idleFlagged = true

		s.logger.Info("Player flagged idle", "gameId", gameId, "playerId", playerId)

		round := g.CurrentRound
		if round != nil && round.ActivePlayerId == playerId {
			s.timeouts.StartAccelerated(gameId, playerId, s.onAcceleratedTimeout)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Idle timeout handling failed", "gameId", gameId, "error", err)
	}
}

// onDisconnectTimeout 断线超时触发: 仍未重连则判负
func (s *Service) onDisconnectTimeout(ctx context.Context, gameId, playerId string) {
	err := s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		if g.Status == koikoi.StatusFinished {
			return nil
		}

		st := s.runtime(gameId).status(playerId)
		if st.connected {
			return nil // 判负前的最后时刻重连了
		}

		s.logger.Info("Disconnect timeout, forfeiting",
			"gameId", gameId, "playerId", playerId)
		s.finishGame(entry, g.OpponentOf(playerId), FinishReasonDisconnectTimeout)
		return nil
	})
	if err != nil {
		s.logger.Warn("Disconnect timeout handling failed", "gameId", gameId, "error", err)
	}
}

// onConfirmTimeout 继续确认超时触发: 未确认即视为离开
func (s *Service) onConfirmTimeout(ctx context.Context, gameId, playerId string) {
	err := s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		if g.Status == koikoi.StatusFinished {
			return nil
		}

		st := s.runtime(gameId).status(playerId)
		if !st.awaitingConfirm {
			return nil
		}

		s.logger.Info("Confirm timeout, forfeiting",
			"gameId", gameId, "playerId", playerId)
		s.finishGame(entry, g.OpponentOf(playerId), FinishReasonConfirmTimeout)
		return nil
	})
	if err != nil {
		s.logger.Warn("Confirm timeout handling failed", "gameId", gameId, "error", err)
	}
}

// autoAct 托管代打: 按当前流程状态用内置策略代行动一步
// 布防时的行动方和触发时的行动方可能已经不同 (竞态下的过期触发), 不同则直接丢弃
func (s *Service) autoAct(ctx context.Context, gameId, playerId string) {
	err := s.withGame(ctx, gameId, playerId, func(entry *game.Entry) error {
		g := entry.Game()
		round := g.CurrentRound
		if g.Status != koikoi.StatusInProgress || round == nil {
			return nil
		}
		if round.ActivePlayerId != playerId {
			return nil
		}

		switch round.Flow {
		case koikoi.FlowAwaitingHandPlay:
			cardCode, targetCode := ai.ChooseHandCard(round, playerId)
			return s.playHandCardLocked(entry, PlayHandCardParams{
				GameId:       gameId,
				PlayerId:     playerId,
				CardId:       cardCode,
				TargetCardId: targetCode,
			}, true)

		case koikoi.FlowAwaitingSelection:
			sourceCode, targetCode := ai.ChooseSelection(round.Pending)
			return s.selectTargetLocked(entry, SelectTargetParams{
				GameId:       gameId,
				PlayerId:     playerId,
				SourceCardId: sourceCode,
				TargetCardId: targetCode,
			}, true)

		case koikoi.FlowAwaitingDecision:
			return s.makeDecisionLocked(entry, MakeDecisionParams{
				GameId:   gameId,
				PlayerId: playerId,
				Decision: ai.ChooseDecision(),
			}, true)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Auto action failed", "gameId", gameId, "playerId", playerId, "error", err)
	}
}
