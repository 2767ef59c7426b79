package koikoi

// Yaku 成立的役
type Yaku struct {
	Type   YakuType `json:"type"`   // 役种
	Points int      `json:"points"` // 得分 (阈值役含超出部分加分)
	Cards  []string `json:"cards"`  // 构成役的牌编码
}

// 固定组合役的构成牌
var (
	inoshikachoCards = []string{CodeBoar, CodeDeer, CodeButterfly}
	akatanCards      = []string{"0130", "0230", "0330"} // 松梅樱的诗短册
	aotanCards       = []string{"0630", "0930", "1030"} // 牡丹菊枫的青短册
	tsukimiCards     = []string{CodeMoon, CodeSakeCup}
	hanamiCards      = []string{CodeCurtain, CodeSakeCup}
)

// 阈值役的门槛
const (
	taneThreshold = 5  // 种: 5张起
	tanThreshold  = 5  // 短册: 5张起
	kasuThreshold = 10 // 滓: 10张起
)

// DetectYaku 役判定
// 纯函数: 只取决于得点堆的内容和规则, 对同一输入重复调用结果一致
func DetectYaku(depository []Card, rules Ruleset) []Yaku {
	var result []Yaku

	// 光役: 同一组光牌只计最高役, 需先于其他役单独判定
	if y, ok := detectBrightYaku(depository, rules); ok {
		result = append(result, y)
	}

	// 固定组合役
	for _, def := range []struct {
		t     YakuType
		cards []string
	}{
		{YakuInoshikacho, inoshikachoCards},
		{YakuAkatan, akatanCards},
		{YakuAotan, aotanCards},
		{YakuTsukimi, tsukimiCards},
		{YakuHanami, hanamiCards},
	} {
		if containsAll(depository, def.cards) {
			result = append(result, Yaku{
				Type:   def.t,
				Points: rules.PointsFor(def.t),
				Cards:  def.cards,
			})
		}
	}

	// 阈值役: N张起, 每多一张加1分
	for _, def := range []struct {
		t         YakuType
		cardType  CardType
		threshold int
	}{
		{YakuTane, CardTypeAnimal, taneThreshold},
		{YakuTan, CardTypeRibbon, tanThreshold},
		{YakuKasu, CardTypePlain, kasuThreshold},
	} {
		count := CountByType(depository, def.cardType)
		if count >= def.threshold {
			result = append(result, Yaku{
				Type:   def.t,
				Points: rules.PointsFor(def.t) + (count - def.threshold),
				Cards:  codesOfType(depository, def.cardType),
			})
		}
	}

	return result
}

// detectBrightYaku 光役判定
// 三光是带排除规则的特例: 雨光(柳)不计入, 其余4张光牌中任意3张即成立
// 五光/四光/雨四光使用同一张牌池但计入规则不同, 只取最高一档
func detectBrightYaku(depository []Card, rules Ruleset) (Yaku, bool) {
	var brights []string
	hasRain := false

	for _, c := range depository {
		if c.Type != CardTypeBright {
			continue
		}
		code := c.Code()
		brights = append(brights, code)
		if code == CodeRainMan {
			hasRain = true
		}
	}

	dryCount := len(brights)
	if hasRain {
		dryCount--
	}

	switch {
	case len(brights) == 5:
		return Yaku{Type: YakuGoko, Points: rules.PointsFor(YakuGoko), Cards: brights}, true
	case len(brights) == 4 && !hasRain:
		return Yaku{Type: YakuShiko, Points: rules.PointsFor(YakuShiko), Cards: brights}, true
	case len(brights) == 4 && hasRain:
		return Yaku{Type: YakuAmeshiko, Points: rules.PointsFor(YakuAmeshiko), Cards: brights}, true
	case dryCount >= 3:
		dry := make([]string, 0, dryCount)
		for _, code := range brights {
			if code != CodeRainMan {
				dry = append(dry, code)
			}
		}
		return Yaku{Type: YakuSanko, Points: rules.PointsFor(YakuSanko), Cards: dry}, true
	}

	return Yaku{}, false
}

// DetectNewYaku 按役种身份求差集: current 中有而 previous 中没有的役
// 用于判断一次操作是否"新"成立了役 (已成立役的再次确认不触发决策)
func DetectNewYaku(previous, current []Yaku) []Yaku {
	prevTypes := make(map[YakuType]bool, len(previous))
	for _, y := range previous {
		prevTypes[y.Type] = true
	}

	var fresh []Yaku
	for _, y := range current {
		if !prevTypes[y.Type] {
			fresh = append(fresh, y)
		}
	}
	return fresh
}

// TotalYakuPoints 役的基础分合计
func TotalYakuPoints(yaku []Yaku) int {
	total := 0
	for _, y := range yaku {
		total += y.Points
	}
	return total
}

// containsAll 判断得点堆是否包含全部指定编码
func containsAll(cards []Card, codes []string) bool {
	for _, code := range codes {
		if !ContainsCode(cards, code) {
			return false
		}
	}
	return true
}

// codesOfType 返回指定类型的牌编码
func codesOfType(cards []Card, t CardType) []string {
	var out []string
	for _, c := range cards {
		if c.Type == t {
			out = append(out, c.Code())
		}
	}
	return out
}
