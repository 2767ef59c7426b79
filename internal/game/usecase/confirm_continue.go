package usecase

import (
	"context"

	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/timeout"
)

// 回合边界确认的决策
const (
	ConfirmChoiceContinue = "CONTINUE"
	ConfirmChoiceLeave    = "LEAVE"
)

// ConfirmContinueParams 回合边界确认参数
type ConfirmContinueParams struct {
	GameId   string
	PlayerId string
	Decision string // CONTINUE / LEAVE
}

// ConfirmContinue 回合边界确认: 被标记闲置的玩家选择继续或离开
// 全部待确认玩家都选择继续后才发下一回合
func (s *Service) ConfirmContinue(ctx context.Context, params ConfirmContinueParams) error {
	return s.withGame(ctx, params.GameId, params.PlayerId, func(entry *game.Entry) error {
		g := entry.Game()

		if !g.HasPlayer(params.PlayerId) {
			return s.reject(g.Id, params.PlayerId, ErrNotAPlayer.WithContext("playerId", params.PlayerId))
		}

		st := s.runtime(g.Id).status(params.PlayerId)
		if !st.awaitingConfirm {
			return s.reject(g.Id, params.PlayerId, ErrNoConfirmPending)
		}

		s.timeouts.Clear(timeout.FamilyConfirm, g.Id, params.PlayerId)

		switch params.Decision {
		case ConfirmChoiceLeave:
			s.logger.Info("Player left at round boundary",
				"gameId", g.Id, "playerId", params.PlayerId)
			s.finishGame(entry, g.OpponentOf(params.PlayerId), FinishReasonOpponentLeft)
			return nil

		case ConfirmChoiceContinue:
			st.awaitingConfirm = false
			st.idleFlagged = false
			s.genuineAction(g, params.PlayerId)

			// 对手也在等确认时继续等
			rt := s.runtime(g.Id)
			for _, id := range g.PlayerIds() {
				if rt.status(id).awaitingConfirm {
					return nil
				}
			}

			s.dealRound(entry)
			return nil

		default:
			s.timeouts.StartConfirm(g.Id, params.PlayerId, s.onConfirmTimeout)
			return s.reject(g.Id, params.PlayerId,
				ErrInvalidDecision.WithContext("decision", params.Decision))
		}
	})
}
