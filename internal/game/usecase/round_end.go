package usecase

import (
	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
)

// 对局结束原因
const (
	FinishReasonCompleted         = "COMPLETED"          // 回合数打满
	FinishReasonOpponentLeft      = "OPPONENT_LEFT"      // 对手主动离开
	FinishReasonDisconnectTimeout = "DISCONNECT_TIMEOUT" // 对手断线超时
	FinishReasonConfirmTimeout    = "CONFIRM_TIMEOUT"    // 对手未确认继续
)

// endRoundScored 宣告结束计分: 役基础分 × こいこい倍率 × 高分翻倍
func (s *Service) endRoundScored(entry *game.Entry, winnerId string, yaku []koikoi.Yaku) {
	g := entry.Game()
	round := g.CurrentRound

	base := koikoi.TotalYakuPoints(yaku)
	score := koikoi.CalculateFinalScore(base, round.AnyoneCalledKoiKoi())

	s.endRound(entry, koikoi.RoundOutcome{
		Reason:   koikoi.RoundEndScored,
		WinnerId: winnerId,
		Yaku:     yaku,
		Score:    &score,
	})
}

// endRound 结束当前回合: 累计得分 → 广播结算 → 决定下一步
func (s *Service) endRound(entry *game.Entry, outcome koikoi.RoundOutcome) {
	g := entry.Game()

	s.clearTurnTimers(g)
	g.EndRound(outcome)

	s.bus.Publish(event.RoundEnded{
		GameId:           g.Id,
		Reason:           outcome.Reason,
		WinnerId:         outcome.WinnerId,
		Yaku:             outcome.Yaku,
		Score:            outcome.Score,
		Special:          outcome.Special,
		CumulativeScores: g.CumulativeScores,
		RoundsPlayed:     g.RoundsPlayed,
	})

	s.logger.Info("Round ended",
		"gameId", g.Id,
		"reason", outcome.Reason,
		"winnerId", outcome.WinnerId,
		"roundsPlayed", g.RoundsPlayed)

	s.persistAsync(g)
	s.afterRoundEnd(entry)
}

// afterRoundEnd 回合边界处理
// 对局打满即结束; 有闲置玩家时暂停发牌, 要求其在时限内确认继续; 否则直接发下一回合
func (s *Service) afterRoundEnd(entry *game.Entry) {
	g := entry.Game()

	if g.Status == koikoi.StatusFinished {
		s.finishGame(entry, g.LeaderId(), FinishReasonCompleted)
		return
	}

	rt := s.runtime(g.Id)
	pending := false
	for _, id := range g.PlayerIds() {
		st := rt.status(id)
		if !st.idleFlagged {
			continue
		}

		pending = true
		st.awaitingConfirm = true
		s.timeouts.StartConfirm(g.Id, id, s.onConfirmTimeout)
		s.bus.Publish(event.ContinueRequired{
			GameId:         g.Id,
			PlayerId:       id,
			TimeoutSeconds: int(s.timeouts.Config().Confirm.Seconds()),
		})
	}

	if pending {
		s.logger.Info("Round boundary paused for continue confirmation", "gameId", g.Id)
		return
	}

	s.dealRound(entry)
}

// finishGame 结束对局并清理: 全部定时器原子清除, 运行时状态移除, 最终状态落库
func (s *Service) finishGame(entry *game.Entry, winnerId, reason string) {
	g := entry.Game()
	g.Finish()

	s.bus.Publish(event.GameFinished{
		GameId:           g.Id,
		WinnerId:         winnerId,
		CumulativeScores: g.CumulativeScores,
		Reason:           reason,
	})

	s.timeouts.ClearAllForGame(g.Id)
	s.dropRuntime(g.Id)
	s.persistAsync(g)
	s.store.Remove(g.Id)

	s.logger.Info("Game finished",
		"gameId", g.Id,
		"winnerId", winnerId,
		"reason", reason,
		"scores", g.CumulativeScores)
}
