// Package ai 内置对手策略: 贪心选牌, 托管代打与AI对局共用
package ai

import (
	"hanakoi.game.logic/internal/game/koikoi"
)

// ChooseHandCard 贪心选择出牌
// 优先打能捕获的牌, 捕获目标里挑牌型价值最高的; 场上无匹配时打价值最低的手牌少损失
// 返回牌编码和目标编码 (恰有2张同月场牌时目标必填, 其余为空)
func ChooseHandCard(round *koikoi.Round, playerId string) (cardCode, targetCode string) {
	hand := round.HandOf(playerId)
	if len(hand) == 0 {
		return "", ""
	}

	bestIdx := -1
	var bestTarget koikoi.Card
	bestValue := -1

	for i, card := range hand {
		matches := koikoi.CardsByMonth(round.Field, card.Month)
		if len(matches) == 0 {
			continue
		}

		target := pickBest(matches)
		value := cardValue(card) + cardValue(target)
		if value > bestValue {
			bestIdx = i
			bestTarget = target
			bestValue = value
		}
	}

	if bestIdx < 0 {
		// 无匹配: 弃掉价值最低的牌
		worst := 0
		for i := 1; i < len(hand); i++ {
			if cardValue(hand[i]) < cardValue(hand[worst]) {
				worst = i
			}
		}
		return hand[worst].Code(), ""
	}

	card := hand[bestIdx]
	if len(koikoi.CardsByMonth(round.Field, card.Month)) == 2 {
		return card.Code(), bestTarget.Code()
	}
	return card.Code(), ""
}

// ChooseSelection 双匹配选择: 挑牌型价值最高的目标
func ChooseSelection(pending *koikoi.PendingSelection) (sourceCode, targetCode string) {
	if pending == nil {
		return "", ""
	}
	return pending.DrawnCard.Code(), pickBest(pending.Options).Code()
}

// ChooseDecision 役成立后的决策: 始终落袋为安
// こいこい的期望收益依赖对手手牌推断, 保守策略直接结束计分
func ChooseDecision() string {
	return "END_ROUND"
}

// pickBest 返回牌型价值最高的牌
func pickBest(cards []koikoi.Card) koikoi.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cardValue(c) > cardValue(best) {
			best = c
		}
	}
	return best
}

// cardValue 牌型价值: 光 > 种 > 短册 > カス
func cardValue(c koikoi.Card) int {
	switch c.Type {
	case koikoi.CardTypeBright:
		return 4
	case koikoi.CardTypeAnimal:
		return 3
	case koikoi.CardTypeRibbon:
		return 2
	default:
		return 1
	}
}
