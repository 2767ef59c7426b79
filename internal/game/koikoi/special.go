package koikoi

// SpecialRuleType 特殊规则类型
type SpecialRuleType string

const (
	SpecialRuleTeshi    SpecialRuleType = "TESHI"          // 手四: 初始手牌4张同月
	SpecialRuleKuttsuki SpecialRuleType = "FIELD_KUTTSUKI" // くっつき: 初始场牌4对同月
)

// SpecialRuleResult 特殊规则判定结果
type SpecialRuleResult struct {
	Triggered        bool            `json:"triggered"`
	Type             SpecialRuleType `json:"type,omitempty"`
	AffectedPlayerId string          `json:"affectedPlayerId,omitempty"` // 持有手四的玩家
	AwardedPoints    int             `json:"awardedPoints"`
	WinnerId         string          `json:"winnerId,omitempty"` // くっつき时为空 (流局)
	Month            int8            `json:"month,omitempty"`    // 触发的月份
}

// CheckSpecialRules 开局特殊规则判定
// 手四优先于くっつき: 手四成立即短路返回
// 规则在设置中关闭时无论牌面如何都不触发
func CheckSpecialRules(round *Round, rules Ruleset) SpecialRuleResult {
	if rules.TeshiEnabled {
		for _, playerId := range round.PlayerIds() {
			if month, ok := findFourOfMonth(round.HandOf(playerId)); ok {
				// 手四判给对手: 四张同月几乎锁死该月的配对, 持有方牌面严重受限
				return SpecialRuleResult{
					Triggered:        true,
					Type:             SpecialRuleTeshi,
					AffectedPlayerId: playerId,
					AwardedPoints:    TeshiAwardPoints,
					WinnerId:         round.OpponentOf(playerId),
					Month:            month,
				}
			}
		}
	}

	if rules.KuttsukiEnabled && isAllPairs(round.Field) {
		return SpecialRuleResult{
			Triggered: true,
			Type:      SpecialRuleKuttsuki,
		}
	}

	return SpecialRuleResult{}
}

// findFourOfMonth 查找手牌中恰好4张同月的月份
func findFourOfMonth(hand []Card) (int8, bool) {
	counts := make(map[int8]int, len(hand))
	for _, c := range hand {
		counts[c.Month]++
	}
	for month, count := range counts {
		if count == 4 {
			return month, true
		}
	}
	return 0, false
}

// isAllPairs 判断8张场牌是否构成4对同月
func isAllPairs(field []Card) bool {
	if len(field) != FieldSize {
		return false
	}
	counts := make(map[int8]int, len(field))
	for _, c := range field {
		counts[c.Month]++
	}
	if len(counts) != 4 {
		return false
	}
	for _, count := range counts {
		if count != 2 {
			return false
		}
	}
	return true
}
