package usecase

import (
	"context"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/timeout"
)

// PlayHandCardParams 出牌参数
type PlayHandCardParams struct {
	GameId       string
	PlayerId     string
	CardId       string // 4位牌编码
	TargetCardId string // 场上同月2张时必填
}

// PlayHandCard 手牌阶段: 出牌 → 结算匹配 → 抽牌 → 按分支推进
func (s *Service) PlayHandCard(ctx context.Context, params PlayHandCardParams) error {
	return s.withGame(ctx, params.GameId, params.PlayerId, func(entry *game.Entry) error {
		return s.playHandCardLocked(entry, params, false)
	})
}

// playHandCardLocked 出牌核心逻辑 (调用方持有对局锁; 托管代打复用, auto=true)
func (s *Service) playHandCardLocked(entry *game.Entry, params PlayHandCardParams, auto bool) error {
	g := entry.Game()

	if err := s.guardTurn(g, params.PlayerId, koikoi.FlowAwaitingHandPlay); err != nil {
		return s.reject(g.Id, params.PlayerId, err)
	}

	round := g.CurrentRound
	s.timeouts.Clear(timeout.FamilyAction, g.Id, "")

	// 抽牌前的役快照: 本次操作"新成立役"差分的基线
	baseline := koikoi.DetectYaku(round.DepositoryOf(params.PlayerId), g.Rules)

	result, err := round.ApplyHandCard(params.PlayerId, params.CardId, params.TargetCardId)
	if err != nil {
		// 校验失败不消耗回合, 重新布防定时器
		s.startTurnTimers(g)
		return s.reject(g.Id, params.PlayerId, err)
	}

	if err := round.ApplyDraw(params.PlayerId, baseline, result); err != nil {
		s.logger.Error("Draw failed after hand play",
			"gameId", g.Id, "playerId", params.PlayerId, "error", err)
		s.publishGameError(g.Id, params.PlayerId, err)
		return err
	}

	if !auto {
		s.genuineAction(g, params.PlayerId)
	}

	view := event.NewMoveView(result)

	if result.NeedsSelection {
		// 抽牌双匹配: 同一玩家继续选择捕获目标
		tr := koikoi.ValidateTransition(round.Flow, koikoi.ActionDoubleMatchOnDraw)
		round.Flow = tr.NextState

		s.bus.Publish(event.SelectionRequired{
			GameId:         g.Id,
			PlayerId:       params.PlayerId,
			Move:           view,
			DrawnCard:      round.Pending.DrawnCard.Code(),
			Options:        koikoi.Codes(round.Pending.Options),
			TimeoutSeconds: s.timeoutSeconds(),
		})

		s.startTurnTimers(g)
		return nil
	}

	return s.finishTurn(entry, params.PlayerId, baseline, view, nil, auto)
}
