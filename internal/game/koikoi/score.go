package koikoi

// FinalScore 最终得分明细
type FinalScore struct {
	BaseScore     int  `json:"baseScore"`     // 役基础分合计
	KoiMultiplier int  `json:"koiMultiplier"` // こいこい倍率 (1或2)
	IsDoubled     bool `json:"isDoubled"`     // 是否触发7分翻倍
	Final         int  `json:"final"`         // 最终得分
}

// CalculateFinalScore 计算最终得分
// 两个倍率相互独立, 同时满足时叠乘:
// final = base × (任一方宣告过こいこい ? 2 : 1) × (base >= 7 ? 2 : 1)
func CalculateFinalScore(baseScore int, anyoneCalledKoiKoi bool) FinalScore {
	score := FinalScore{
		BaseScore:     baseScore,
		KoiMultiplier: 1,
		Final:         baseScore,
	}

	if anyoneCalledKoiKoi {
		score.KoiMultiplier = KoiKoiMultiplier
		score.Final *= KoiKoiMultiplier
	}

	if baseScore >= DoubleThreshold {
		score.IsDoubled = true
		score.Final *= 2
	}

	return score
}
