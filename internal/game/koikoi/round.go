package koikoi

// PlayerRoundState 玩家的回合内状态
type PlayerRoundState struct {
	Hand           []Card `json:"hand"`           // 手牌
	Depository     []Card `json:"depository"`     // 得点堆 (役判定的依据)
	TimesContinued int    `json:"timesContinued"` // こいこい宣告次数
}

// PendingSelection 抽牌双匹配时的待选择状态
// 携带抽牌前的役快照, 作为本次操作"新成立役"差分的基线 (断线重连时需要恢复)
type PendingSelection struct {
	DrawnCard  Card   `json:"drawnCard"`  // 抽到的牌
	Options    []Card `json:"options"`    // 场上可选的目标牌
	YakuBefore []Yaku `json:"yakuBefore"` // 回合开始时的役快照
}

// MoveResult 一次出牌操作的结果
type MoveResult struct {
	PlayedCard     Card   `json:"playedCard"`
	PlayedCaptures []Card `json:"playedCaptures,omitempty"` // 手牌阶段捕获 (含打出的牌), 空则置于场上
	DrawnCard      *Card  `json:"drawnCard,omitempty"`
	DrawnCaptures  []Card `json:"drawnCaptures,omitempty"` // 抽牌阶段捕获 (含抽到的牌)
	NeedsSelection bool   `json:"needsSelection,omitempty"` // 抽牌双匹配, 进入选择
}

// Round 单个回合聚合
// 不变量: 两份手牌 ∪ 两份得点堆 ∪ 场牌 ∪ 抽牌堆 的多重集始终等于48张全集
type Round struct {
	Field          []Card                       `json:"field"`
	DrawPile       []Card                       `json:"drawPile"`
	Players        map[string]*PlayerRoundState `json:"players"`
	ActivePlayerId string                       `json:"activePlayerId"`
	Flow           FlowState                    `json:"flow"`
	Pending        *PendingSelection            `json:"pending,omitempty"`

	// AwaitingDecision 决策时刻的成立役快照 (重连恢复用)
	AwaitingDecision []Yaku `json:"awaitingDecision,omitempty"`

	playerIds []string // 固定顺序的玩家ID
}

// NewRound 从发牌结果创建回合
func NewRound(deal *DealResult, playerIds []string, firstPlayerId string) *Round {
	players := make(map[string]*PlayerRoundState, len(playerIds))
	for _, id := range playerIds {
		players[id] = &PlayerRoundState{
			Hand:       deal.Hands[id],
			Depository: []Card{},
		}
	}

	return &Round{
		Field:          deal.Field,
		DrawPile:       deal.DrawPile,
		Players:        players,
		ActivePlayerId: firstPlayerId,
		Flow:           FlowAwaitingHandPlay,
		playerIds:      append([]string(nil), playerIds...),
	}
}

// PlayerIds 返回固定顺序的玩家ID列表
func (r *Round) PlayerIds() []string {
	return r.playerIds
}

// RestorePlayerIds 反序列化后恢复玩家顺序 (map不保序)
func (r *Round) RestorePlayerIds(ids []string) {
	r.playerIds = append([]string(nil), ids...)
}

// OpponentOf 返回对手ID
func (r *Round) OpponentOf(playerId string) string {
	for _, id := range r.playerIds {
		if id != playerId {
			return id
		}
	}
	return ""
}

// HandOf 返回玩家手牌
func (r *Round) HandOf(playerId string) []Card {
	if p, ok := r.Players[playerId]; ok {
		return p.Hand
	}
	return nil
}

// DepositoryOf 返回玩家得点堆
func (r *Round) DepositoryOf(playerId string) []Card {
	if p, ok := r.Players[playerId]; ok {
		return p.Depository
	}
	return nil
}

// AnyoneCalledKoiKoi 是否有任一方宣告过こいこい
// 倍率是全回合共享的: 任一方宣告过即触发, 不按玩家各自叠乘
func (r *Round) AnyoneCalledKoiKoi() bool {
	for _, p := range r.Players {
		if p.TimesContinued > 0 {
			return true
		}
	}
	return false
}

// HandsExhausted 双方手牌是否已打完
func (r *Round) HandsExhausted() bool {
	for _, p := range r.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// ApplyHandCard 手牌阶段: 打出一张手牌并结算与场牌的匹配
// 匹配规则: 同月0张→置于场上; 1张→捕获一对; 2张→必须指定目标; 3张→全部捕获
func (r *Round) ApplyHandCard(playerId, cardCode, targetCode string) (*MoveResult, error) {
	player, ok := r.Players[playerId]
	if !ok {
		return nil, ErrWrongPlayer.WithContext("playerId", playerId)
	}

	handIndex := FindCard(player.Hand, cardCode)
	if handIndex < 0 {
		return nil, ErrCardNotInHand.WithContext("cardId", cardCode)
	}

	played := player.Hand[handIndex]
	player.Hand = RemoveCardAt(player.Hand, handIndex)

	captured, err := r.resolveMatch(played, targetCode)
	if err != nil {
		// 回滚手牌, 校验失败不留任何状态变化
		player.Hand = append(player.Hand, played)
		return nil, err
	}

	result := &MoveResult{PlayedCard: played}
	if len(captured) > 0 {
		player.Depository = append(player.Depository, captured...)
		result.PlayedCaptures = captured
	}

	return result, nil
}

// ApplyDraw 抽牌阶段: 翻开抽牌堆顶并结算匹配
// 场上恰有2张同月牌时不自动结算, 记录待选择状态并返回 NeedsSelection
func (r *Round) ApplyDraw(playerId string, yakuBaseline []Yaku, result *MoveResult) error {
	player, ok := r.Players[playerId]
	if !ok {
		return ErrWrongPlayer.WithContext("playerId", playerId)
	}
	if len(r.DrawPile) == 0 {
		return ErrDrawPileEmpty
	}

	drawn := r.DrawPile[0]
	r.DrawPile = r.DrawPile[1:]
	result.DrawnCard = &drawn

	matches := CardsByMonth(r.Field, drawn.Month)
	if len(matches) == 2 {
		r.Pending = &PendingSelection{
			DrawnCard:  drawn,
			Options:    matches,
			YakuBefore: yakuBaseline,
		}
		result.NeedsSelection = true
		return nil
	}

	captured, err := r.resolveMatch(drawn, "")
	if err != nil {
		return err
	}

	if len(captured) > 0 {
		player.Depository = append(player.Depository, captured...)
		result.DrawnCaptures = captured
	}

	return nil
}

// ResolveSelection 选择阶段: 用待处理的抽牌捕获指定的目标牌
func (r *Round) ResolveSelection(playerId, sourceCode, targetCode string) ([]Card, error) {
	player, ok := r.Players[playerId]
	if !ok {
		return nil, ErrWrongPlayer.WithContext("playerId", playerId)
	}
	if r.Pending == nil {
		return nil, ErrNoPendingSelection
	}
	if r.Pending.DrawnCard.Code() != sourceCode {
		return nil, ErrInvalidSelection.WithContext("sourceCardId", sourceCode)
	}

	optionIndex := FindCard(r.Pending.Options, targetCode)
	if optionIndex < 0 {
		return nil, ErrInvalidSelection.WithContext("targetCardId", targetCode)
	}

	fieldIndex := FindCard(r.Field, targetCode)
	if fieldIndex < 0 {
		return nil, ErrTargetNotOnField.WithContext("targetCardId", targetCode)
	}

	target := r.Field[fieldIndex]
	r.Field = RemoveCardAt(r.Field, fieldIndex)

	captured := []Card{r.Pending.DrawnCard, target}
	player.Depository = append(player.Depository, captured...)
	r.Pending = nil

	return captured, nil
}

// resolveMatch 结算一张牌与场牌的匹配, 返回捕获的牌 (含打出/抽到的牌本身)
func (r *Round) resolveMatch(card Card, targetCode string) ([]Card, error) {
	matches := CardsByMonth(r.Field, card.Month)

	switch len(matches) {
	case 0:
		r.Field = append(r.Field, card)
		return nil, nil

	case 1:
		r.removeFromField(matches[0])
		return []Card{card, matches[0]}, nil

	case 2:
		if targetCode == "" {
			return nil, ErrTargetRequired.WithContext("month", card.Month)
		}
		targetIndex := FindCard(matches, targetCode)
		if targetIndex < 0 {
			if FindCard(r.Field, targetCode) < 0 {
				return nil, ErrTargetNotOnField.WithContext("targetCardId", targetCode)
			}
			return nil, ErrTargetMonthMismatch.WithContext("targetCardId", targetCode)
		}
		target := matches[targetIndex]
		r.removeFromField(target)
		return []Card{card, target}, nil

	default:
		// 3张同月: 月份凑齐, 全部捕获
		captured := []Card{card}
		for _, m := range matches {
			r.removeFromField(m)
			captured = append(captured, m)
		}
		return captured, nil
	}
}

// removeFromField 从场上移除一张牌
func (r *Round) removeFromField(card Card) {
	if i := FindCard(r.Field, card.Code()); i >= 0 {
		r.Field = RemoveCardAt(r.Field, i)
	}
}

// AllCards 返回回合内全部牌的多重集 (不变量校验用)
func (r *Round) AllCards() []Card {
	all := make([]Card, 0, DeckSize)
	all = append(all, r.Field...)
	all = append(all, r.DrawPile...)
	for _, id := range r.playerIds {
		p := r.Players[id]
		all = append(all, p.Hand...)
		all = append(all, p.Depository...)
	}
	if r.Pending != nil {
		all = append(all, r.Pending.DrawnCard)
	}
	return all
}
