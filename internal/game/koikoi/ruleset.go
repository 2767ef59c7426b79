package koikoi

// YakuType 役种
type YakuType string

const (
	YakuGoko        YakuType = "GOKO"        // 五光
	YakuShiko       YakuType = "SHIKO"       // 四光 (无雨)
	YakuAmeshiko    YakuType = "AMESHIKO"    // 雨四光
	YakuSanko       YakuType = "SANKO"       // 三光 (不含雨光)
	YakuInoshikacho YakuType = "INOSHIKACHO" // 猪鹿蝶
	YakuAkatan      YakuType = "AKATAN"      // 赤短
	YakuAotan       YakuType = "AOTAN"       // 青短
	YakuTsukimi     YakuType = "TSUKIMI"     // 月见酒
	YakuHanami      YakuType = "HANAMI"      // 花见酒
	YakuTane        YakuType = "TANE"        // 种 (5张以上)
	YakuTan         YakuType = "TAN"         // 短册 (5张以上)
	YakuKasu        YakuType = "KASU"        // 滓 (10张以上)
)

// 特殊规则常量
const (
	// TeshiAwardPoints 手四的固定得分 (不走役种计分表)
	TeshiAwardPoints = 6

	// KoiKoiMultiplier 任一方宣告过こいこい时的倍率
	KoiKoiMultiplier = 2

	// DoubleThreshold 基础分达到该值时翻倍
	DoubleThreshold = 7
)

// Ruleset 对局规则: 役种计分表 + 特殊规则开关
type Ruleset struct {
	YakuPoints      map[YakuType]int `json:"yakuPoints"`      // 役种基础分
	TeshiEnabled    bool             `json:"teshiEnabled"`    // 手四规则开关
	KuttsukiEnabled bool             `json:"kuttsukiEnabled"` // くっつき规则开关
	TotalRounds     int              `json:"totalRounds"`     // 总回合数
}

// DefaultRuleset 返回标准规则
func DefaultRuleset() Ruleset {
	return Ruleset{
		YakuPoints: map[YakuType]int{
			YakuGoko:        10,
			YakuShiko:       8,
			YakuAmeshiko:    7,
			YakuSanko:       5,
			YakuInoshikacho: 5,
			YakuAkatan:      5,
			YakuAotan:       5,
			YakuTsukimi:     5,
			YakuHanami:      5,
			YakuTane:        1,
			YakuTan:         1,
			YakuKasu:        1,
		},
		TeshiEnabled:    true,
		KuttsukiEnabled: true,
		TotalRounds:     12,
	}
}

// PointsFor 返回役种的基础分, 未配置的役种为0
func (r Ruleset) PointsFor(t YakuType) int {
	return r.YakuPoints[t]
}
