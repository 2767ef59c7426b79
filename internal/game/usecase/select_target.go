package usecase

import (
	"context"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/timeout"
)

// SelectTargetParams 双匹配选择参数
type SelectTargetParams struct {
	GameId       string
	PlayerId     string
	SourceCardId string // 待处理的抽牌
	TargetCardId string // 选中的场牌
}

// SelectTarget 选择阶段: 用待处理的抽牌捕获指定目标, 然后按分支推进
func (s *Service) SelectTarget(ctx context.Context, params SelectTargetParams) error {
	return s.withGame(ctx, params.GameId, params.PlayerId, func(entry *game.Entry) error {
		return s.selectTargetLocked(entry, params, false)
	})
}

// selectTargetLocked 选择核心逻辑 (调用方持有对局锁)
func (s *Service) selectTargetLocked(entry *game.Entry, params SelectTargetParams, auto bool) error {
	g := entry.Game()

	if err := s.guardTurn(g, params.PlayerId, koikoi.FlowAwaitingSelection); err != nil {
		return s.reject(g.Id, params.PlayerId, err)
	}

	round := g.CurrentRound
	if round.Pending == nil {
		return s.reject(g.Id, params.PlayerId, koikoi.ErrNoPendingSelection)
	}

	s.timeouts.Clear(timeout.FamilyAction, g.Id, "")

	// 役差分基线沿用出牌时的快照 (ResolveSelection 会清掉 Pending, 先取出)
	baseline := round.Pending.YakuBefore
	drawnCode := round.Pending.DrawnCard.Code()

	captured, err := round.ResolveSelection(params.PlayerId, params.SourceCardId, params.TargetCardId)
	if err != nil {
		s.startTurnTimers(g)
		return s.reject(g.Id, params.PlayerId, err)
	}

	if !auto {
		s.genuineAction(g, params.PlayerId)
	}

	view := event.MoveView{
		DrawnCard:     drawnCode,
		DrawnCaptures: koikoi.Codes(captured),
	}

	return s.finishTurn(entry, params.PlayerId, baseline, view, koikoi.Codes(captured), auto)
}
