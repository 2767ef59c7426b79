package usecase

import (
	"context"

	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
)

// StartGameParams 开局参数
type StartGameParams struct {
	GameId  string          // 为空时由ID生成器分配
	Players []koikoi.Player // 固定两人, 首元素为首回合先手
	Rules   *koikoi.Ruleset // 为空时使用标准规则
}

// StartGame 创建对局并发出第一回合
func (s *Service) StartGame(ctx context.Context, params StartGameParams) (*koikoi.Game, error) {
	if len(params.Players) != koikoi.PlayerCount {
		return nil, koikoi.ErrInvalidPlayerCount.WithContext("count", len(params.Players))
	}
	if params.Players[0].Id == params.Players[1].Id {
		return nil, koikoi.ErrInvalidPlayerCount.WithContext("playerId", params.Players[0].Id)
	}

	gameId := params.GameId
	if gameId == "" {
		gameId = s.ids.NextString()
	}

	rules := koikoi.DefaultRuleset()
	if params.Rules != nil {
		rules = *params.Rules
	}

	var g *koikoi.Game
	err := s.locks.WithLock(ctx, gameId, func() error {
		if _, exists := s.store.Get(gameId); exists {
			return ErrGameAlreadyExists.WithContext("gameId", gameId)
		}

		g = koikoi.NewGame(gameId, params.Players, rules)
		entry := s.store.Put(g)
		rt := s.runtime(gameId)
		for _, p := range params.Players {
			rt.status(p.Id)
		}

		s.bus.Publish(event.GameStarted{
			GameId:      gameId,
			Players:     g.Players,
			TotalRounds: g.TotalRounds,
		})

		// 开局即开始闲置跟踪 (AI玩家不跟踪)
		for _, p := range params.Players {
			if !p.IsAI {
				s.timeouts.StartIdle(gameId, p.Id, s.onIdleTimeout)
			}
		}

		s.dealRound(entry)
		entry.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Game started",
		"gameId", gameId,
		"players", g.PlayerIds(),
		"totalRounds", g.TotalRounds)

	return g, nil
}

// dealRound 发出新回合: 洗牌 → 发牌 → 特殊规则判定 → 布防定时器
// 特殊规则触发时回合即时结束, 继续发下一回合 (或结束对局)
func (s *Service) dealRound(entry *game.Entry) {
	g := entry.Game()

	deck := koikoi.FullDeck()
	s.decks.Shuffle(deck)
	deal, err := s.decks.Deal(deck, g.PlayerIds())
	if err != nil {
		// 全牌洗切后发牌不可能失败, 到这里说明代码有bug
		s.logger.Error("Deal failed", "gameId", g.Id, "error", err)
		return
	}

	round := g.BeginRound(deal)

	hands := make(map[string][]string, len(g.Players))
	for _, id := range g.PlayerIds() {
		hands[id] = koikoi.Codes(round.HandOf(id))
	}

	s.bus.Publish(event.RoundDealt{
		GameId:         g.Id,
		RoundNumber:    g.RoundsPlayed + 1,
		FirstPlayerId:  g.FirstPlayerId,
		Field:          koikoi.Codes(round.Field),
		Hands:          hands,
		DrawPileCount:  len(round.DrawPile),
		TimeoutSeconds: s.timeoutSeconds(),
	})

	special := koikoi.CheckSpecialRules(round, g.Rules)
	if special.Triggered {
		s.logger.Info("Special rule triggered",
			"gameId", g.Id,
			"rule", special.Type,
			"winnerId", special.WinnerId)

		s.endRound(entry, koikoi.RoundOutcome{
			Reason:   koikoi.RoundEndInstant,
			WinnerId: special.WinnerId,
			Special:  &special,
		})
		return
	}

	s.startTurnTimers(g)
}
