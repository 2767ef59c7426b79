package usecase

import (
	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
)

// finishTurn 出牌/选择结算后的公共分支推进
// 新役成立且还有手牌 → 等待こいこい决策; 新役成立且手牌打完 → 自动入账计分;
// 无新役且双方手牌打完 → 流局; 其余 → 轮到对手
// selectionCaptured 非空表示从选择路径进入, 进度事件用选择结算变体
func (s *Service) finishTurn(
	entry *game.Entry,
	playerId string,
	baseline []koikoi.Yaku,
	view event.MoveView,
	selectionCaptured []string,
	auto bool,
) error {
	g := entry.Game()
	round := g.CurrentRound

	current := koikoi.DetectYaku(round.DepositoryOf(playerId), g.Rules)
	newYaku := koikoi.DetectNewYaku(baseline, current)
	handEmpty := len(round.HandOf(playerId)) == 0

	if len(newYaku) > 0 {
		if handEmpty {
			// 最后一张手牌成役: 没有继续的余地, 自动入账计分
			s.publishProgress(g, playerId, view, selectionCaptured, "", round.Flow, true, auto)
			s.endRoundScored(entry, playerId, current)
			return nil
		}

		tr := koikoi.ValidateTransition(round.Flow, koikoi.ActionYakuFormed)
		round.Flow = tr.NextState
		round.AwaitingDecision = current

		s.publishProgress(g, playerId, view, selectionCaptured, "", round.Flow, false, auto)
		s.bus.Publish(event.DecisionRequired{
			GameId:         g.Id,
			PlayerId:       playerId,
			Move:           view,
			NewYaku:        newYaku,
			ActiveYaku:     current,
			BaseScore:      koikoi.TotalYakuPoints(current),
			TimeoutSeconds: s.timeoutSeconds(),
		})

		s.startTurnTimers(g)
		return nil
	}

	if round.HandsExhausted() {
		// 双方手牌打完且无人成役入账: 流局
		s.publishProgress(g, playerId, view, selectionCaptured, "", round.Flow, true, auto)
		s.endRound(entry, koikoi.RoundOutcome{Reason: koikoi.RoundEndDrawn})
		return nil
	}

	tr := koikoi.ValidateTransition(round.Flow, koikoi.ActionTurnComplete)
	round.Flow = tr.NextState
	next := round.OpponentOf(playerId)
	round.ActivePlayerId = next

	s.publishProgress(g, playerId, view, selectionCaptured, next, round.Flow, false, auto)
	s.startTurnTimers(g)
	return nil
}

// publishProgress 发布回合进度事件 (出牌路径和选择路径各自的变体)
func (s *Service) publishProgress(
	g *koikoi.Game,
	playerId string,
	view event.MoveView,
	selectionCaptured []string,
	nextPlayerId string,
	flow koikoi.FlowState,
	isFinalMove bool,
	auto bool,
) {
	if selectionCaptured != nil {
		s.bus.Publish(event.TurnProgressAfterSelection{
			GameId:         g.Id,
			PlayerId:       playerId,
			Captured:       selectionCaptured,
			NextPlayerId:   nextPlayerId,
			FlowState:      flow,
			TimeoutSeconds: s.timeoutSeconds(),
			IsFinalMove:    isFinalMove,
		})
		return
	}

	s.bus.Publish(event.TurnCompleted{
		GameId:         g.Id,
		PlayerId:       playerId,
		Move:           view,
		NextPlayerId:   nextPlayerId,
		FlowState:      flow,
		TimeoutSeconds: s.timeoutSeconds(),
		IsFinalMove:    isFinalMove,
		Auto:           auto,
	})
}
