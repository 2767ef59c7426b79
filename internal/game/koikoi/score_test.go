package koikoi

import "testing"

// TestCalculateFinalScore 测试最终得分计算
func TestCalculateFinalScore(t *testing.T) {
	cases := []struct {
		name       string
		base       int
		koikoi     bool
		wantFinal  int
		wantKoiMul int
		wantDouble bool
	}{
		{"无倍率", 5, false, 5, 1, false},
		{"こいこい倍率", 5, true, 10, 2, false},
		{"7分翻倍", 7, false, 14, 1, true},
		{"双倍率叠乘", 7, true, 28, 2, true},
		{"6分不触发翻倍", 6, false, 6, 1, false},
		{"零分", 0, true, 0, 2, false},
	}

	for _, tc := range cases {
		score := CalculateFinalScore(tc.base, tc.koikoi)

		if score.Final != tc.wantFinal {
			t.Errorf("%s: 期望 Final = %d, 实际 = %d", tc.name, tc.wantFinal, score.Final)
		}
		if score.KoiMultiplier != tc.wantKoiMul {
			t.Errorf("%s: 期望 KoiMultiplier = %d, 实际 = %d", tc.name, tc.wantKoiMul, score.KoiMultiplier)
		}
		if score.IsDoubled != tc.wantDouble {
			t.Errorf("%s: 期望 IsDoubled = %v, 实际 = %v", tc.name, tc.wantDouble, score.IsDoubled)
		}
		if score.BaseScore != tc.base {
			t.Errorf("%s: 期望 BaseScore = %d, 实际 = %d", tc.name, tc.base, score.BaseScore)
		}
	}
}
