package koikoi

import (
	"math/rand"
	"time"
)

const (
	// DeckSize 标准牌堆大小
	DeckSize = 48

	// HandSize 每名玩家初始手牌数
	HandSize = 8

	// FieldSize 初始场牌数
	FieldSize = 8

	// DrawPileSize 初始抽牌堆大小
	DrawPileSize = 24

	// PlayerCount 对局玩家数
	PlayerCount = 2
)

// DealResult 发牌结果
// 发牌顺序固定: 先玩家1手牌, 再玩家2手牌, 再场牌, 其余为抽牌堆
// 给定同一副已洗的牌, 发牌结果完全可复现
type DealResult struct {
	Hands    map[string][]Card // playerId -> 手牌
	Field    []Card            // 场牌
	DrawPile []Card            // 抽牌堆
}

// DeckGenerator 牌局生成器
type DeckGenerator struct {
	rand *rand.Rand
}

// NewDeckGenerator 创建牌局生成器
func NewDeckGenerator() *DeckGenerator {
	return &DeckGenerator{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededDeckGenerator 创建指定种子的牌局生成器 (用于复现牌局)
func NewSeededDeckGenerator(seed int64) *DeckGenerator {
	return &DeckGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Shuffle 洗牌 (Fisher-Yates, 原地乱序, 不改变牌的身份和数量)
func (d *DeckGenerator) Shuffle(cards []Card) {
	d.rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Deal 发牌
// 48张牌分为: 两份8张手牌, 8张场牌, 24张抽牌堆
func (d *DeckGenerator) Deal(deck []Card, playerIds []string) (*DealResult, error) {
	if len(deck) != DeckSize {
		return nil, ErrInvalidDeckSize.WithContext("size", len(deck))
	}
	if len(playerIds) != PlayerCount {
		return nil, ErrInvalidPlayerCount.WithContext("count", len(playerIds))
	}

	result := &DealResult{
		Hands: make(map[string][]Card, PlayerCount),
	}

	index := 0
	for _, playerId := range playerIds {
		hand := make([]Card, HandSize)
		copy(hand, deck[index:index+HandSize])
		result.Hands[playerId] = hand
		index += HandSize
	}

	field := make([]Card, FieldSize)
	copy(field, deck[index:index+FieldSize])
	result.Field = field
	index += FieldSize

	drawPile := make([]Card, DeckSize-index)
	copy(drawPile, deck[index:])
	result.DrawPile = drawPile

	return result, nil
}

// IsValidDeck 校验牌堆: 恰好48张, 无重复, 全部属于标准全集
func IsValidDeck(deck []Card) bool {
	if len(deck) != DeckSize {
		return false
	}

	seen := make(map[string]bool, DeckSize)
	for _, c := range deck {
		if !inUniverse(c) {
			return false
		}
		code := c.Code()
		if seen[code] {
			return false
		}
		seen[code] = true
	}

	return true
}
