package usecase

import (
	"context"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/timeout"
)

// 役成立后的决策
const (
	DecisionKoiKoi   = "KOI_KOI"   // 宣告こいこい继续, 放弃当前入账换取翻倍机会
	DecisionEndRound = "END_ROUND" // 结束回合, 按当前成立役计分
)

// MakeDecisionParams こいこい决策参数
type MakeDecisionParams struct {
	GameId   string
	PlayerId string
	Decision string // KOI_KOI / END_ROUND
}

// MakeDecision 决策阶段: こいこい继续或结束计分
func (s *Service) MakeDecision(ctx context.Context, params MakeDecisionParams) error {
	return s.withGame(ctx, params.GameId, params.PlayerId, func(entry *game.Entry) error {
		return s.makeDecisionLocked(entry, params, false)
	})
}

// makeDecisionLocked 决策核心逻辑 (调用方持有对局锁)
func (s *Service) makeDecisionLocked(entry *game.Entry, params MakeDecisionParams, auto bool) error {
	g := entry.Game()

	if err := s.guardTurn(g, params.PlayerId, koikoi.FlowAwaitingDecision); err != nil {
		return s.reject(g.Id, params.PlayerId, err)
	}

	round := g.CurrentRound
	s.timeouts.Clear(timeout.FamilyAction, g.Id, "")

	switch params.Decision {
	case DecisionKoiKoi:
		tr := koikoi.ValidateTransition(round.Flow, koikoi.ActionDecideKoiKoi)
		round.Flow = tr.NextState

		player := round.Players[params.PlayerId]
		player.TimesContinued++
		round.AwaitingDecision = nil

		next := round.OpponentOf(params.PlayerId)
		round.ActivePlayerId = next

		if !auto {
			s.genuineAction(g, params.PlayerId)
		}

		s.bus.Publish(event.DecisionMade{
			GameId:         g.Id,
			PlayerId:       params.PlayerId,
			Decision:       DecisionKoiKoi,
			TimesContinued: player.TimesContinued,
			NextPlayerId:   next,
			TimeoutSeconds: s.timeoutSeconds(),
			Auto:           auto,
		})

		s.startTurnTimers(g)
		return nil

	case DecisionEndRound:
		// 结束回合销毁 Round 本身, 在状态机之外处理
		yaku := round.AwaitingDecision
		round.AwaitingDecision = nil

		if !auto {
			s.genuineAction(g, params.PlayerId)
		}

		s.bus.Publish(event.DecisionMade{
			GameId:   g.Id,
			PlayerId: params.PlayerId,
			Decision: DecisionEndRound,
			Auto:     auto,
		})

		s.endRoundScored(entry, params.PlayerId, yaku)
		return nil

	default:
		s.startTurnTimers(g)
		return s.reject(g.Id, params.PlayerId,
			ErrInvalidDecision.WithContext("decision", params.Decision))
	}
}
