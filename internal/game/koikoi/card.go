package koikoi

import (
	"fmt"
	"strconv"
)

// CardType 花札牌类型
type CardType int8

const (
	CardTypeBright CardType = iota + 1 // 光牌 (20点)
	CardTypeAnimal                     // 种牌 (10点)
	CardTypeRibbon                     // 短册 (5点)
	CardTypePlain                      // 滓牌 (1点)
)

// String 返回牌类型的字符串表示
func (t CardType) String() string {
	switch t {
	case CardTypeBright:
		return "光"
	case CardTypeAnimal:
		return "种"
	case CardTypeRibbon:
		return "短册"
	case CardTypePlain:
		return "滓"
	default:
		return "未知"
	}
}

// Card 花札牌
// 身份由4位编码 MMTI 唯一确定: 月份(01-12) + 类型 + 序号
// 编码在所有接口上作为牌的标准标识，值不可变，相等性按编码判断
type Card struct {
	Month int8     `json:"month"` // 月份 (1-12)
	Type  CardType `json:"type"`  // 类型
	Index int8     `json:"index"` // 同月同类型内的序号 (0起)
}

// Code 返回牌的4位标准编码 (如 "0110" = 1月光牌)
func (c Card) Code() string {
	return fmt.Sprintf("%02d%d%d", c.Month, c.Type, c.Index)
}

// String 返回牌的字符串表示
func (c Card) String() string {
	return c.Code()
}

// Equal 判断两张牌是否相同
func (c Card) Equal(other Card) bool {
	return c.Month == other.Month && c.Type == other.Type && c.Index == other.Index
}

// ParseCard 解析4位编码为牌
// 只接受标准48张牌全集中存在的编码
func ParseCard(code string) (Card, error) {
	if len(code) != 4 {
		return Card{}, ErrInvalidCardCode.WithContext("code", code)
	}

	month, err := strconv.Atoi(code[0:2])
	if err != nil || month < 1 || month > 12 {
		return Card{}, ErrInvalidCardCode.WithContext("code", code)
	}

	typeDigit := int(code[2] - '0')
	index := int(code[3] - '0')

	card := Card{
		Month: int8(month),
		Type:  CardType(typeDigit),
		Index: int8(index),
	}

	if !inUniverse(card) {
		return Card{}, ErrInvalidCardCode.WithContext("code", code)
	}

	return card, nil
}

// 特殊牌编码
const (
	CodeCrane     = "0110" // 1月 松上鹤
	CodeCurtain   = "0310" // 3月 樱上幕帘
	CodeMoon      = "0810" // 8月 芒上月
	CodeRainMan   = "1110" // 11月 柳间小野道风 (雨光)
	CodePhoenix   = "1210" // 12月 桐上凤凰
	CodeBoar      = "0720" // 7月 萩间野猪
	CodeDeer      = "1020" // 10月 枫间鹿
	CodeButterfly = "0620" // 6月 牡丹蝶
	CodeSakeCup   = "0920" // 9月 菊上杯
	CodeGeese     = "0820" // 8月 芒上雁
)

// universeSpec 每月的牌面构成: 每项为 (类型, 张数)
// 全集共48张: 光5 种9 短册10 滓24
var universeSpec = [12][]struct {
	Type  CardType
	Count int8
}{
	{{CardTypeBright, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 1月 松
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 2月 梅
	{{CardTypeBright, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 3月 樱
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 4月 藤
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 5月 菖蒲
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 6月 牡丹
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 7月 萩
	{{CardTypeBright, 1}, {CardTypeAnimal, 1}, {CardTypePlain, 2}}, // 8月 芒
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 9月 菊
	{{CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 2}}, // 10月 枫
	{{CardTypeBright, 1}, {CardTypeAnimal, 1}, {CardTypeRibbon, 1}, {CardTypePlain, 1}}, // 11月 柳
	{{CardTypeBright, 1}, {CardTypePlain, 3}}, // 12月 桐
}

// FullDeck 返回标准48张牌全集 (固定顺序: 月份升序, 类型升序, 序号升序)
func FullDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for m := int8(1); m <= 12; m++ {
		for _, entry := range universeSpec[m-1] {
			for i := int8(0); i < entry.Count; i++ {
				deck = append(deck, Card{Month: m, Type: entry.Type, Index: i})
			}
		}
	}
	return deck
}

// inUniverse 判断牌是否属于标准48张全集
func inUniverse(c Card) bool {
	if c.Month < 1 || c.Month > 12 {
		return false
	}
	for _, entry := range universeSpec[c.Month-1] {
		if entry.Type == c.Type {
			return c.Index >= 0 && c.Index < entry.Count
		}
	}
	return false
}

// FindCard 在牌列表中查找指定编码的牌, 返回索引, 未找到返回 -1
func FindCard(cards []Card, code string) int {
	for i, c := range cards {
		if c.Code() == code {
			return i
		}
	}
	return -1
}

// RemoveCardAt 删除列表中指定索引的牌, 返回新列表
func RemoveCardAt(cards []Card, index int) []Card {
	out := make([]Card, 0, len(cards)-1)
	out = append(out, cards[:index]...)
	out = append(out, cards[index+1:]...)
	return out
}

// CardsByMonth 返回列表中指定月份的所有牌
func CardsByMonth(cards []Card, month int8) []Card {
	var out []Card
	for _, c := range cards {
		if c.Month == month {
			out = append(out, c)
		}
	}
	return out
}

// CountByType 统计列表中指定类型的牌数
func CountByType(cards []Card, t CardType) int {
	count := 0
	for _, c := range cards {
		if c.Type == t {
			count++
		}
	}
	return count
}

// ContainsCode 判断列表中是否包含指定编码的牌
func ContainsCode(cards []Card, code string) bool {
	return FindCard(cards, code) >= 0
}

// Codes 返回牌列表的编码列表
func Codes(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}
