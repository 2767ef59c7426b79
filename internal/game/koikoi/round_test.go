package koikoi

import (
	"errors"
	"testing"
)

// buildRoundWithPile 构造带抽牌堆的回合
func buildRoundWithPile(t *testing.T, hand1, hand2, field, pile []Card) *Round {
	t.Helper()

	deal := &DealResult{
		Hands:    map[string][]Card{"p1": hand1, "p2": hand2},
		Field:    field,
		DrawPile: pile,
	}
	return NewRound(deal, []string{"p1", "p2"}, "p1")
}

// TestApplyHandCardNoMatch 测试无匹配: 牌置于场上
func TestApplyHandCardNoMatch(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0220"),
		mustCards(t, "0340", "0440"),
		mustCards(t, "0520"),
	)

	result, err := round.ApplyHandCard("p1", "0110", "")
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}

	if len(result.PlayedCaptures) != 0 {
		t.Errorf("期望捕获 0 张, 实际 = %d", len(result.PlayedCaptures))
	}
	if !ContainsCode(round.Field, "0110") {
		t.Error("期望打出的牌留在场上")
	}
	if len(round.HandOf("p1")) != 0 {
		t.Errorf("期望手牌 0 张, 实际 = %d", len(round.HandOf("p1")))
	}
}

// TestApplyHandCardSingleMatch 测试单匹配: 捕获一对
func TestApplyHandCardSingleMatch(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0220"),
		mustCards(t, "0130", "0440"),
		mustCards(t, "0520"),
	)

	result, err := round.ApplyHandCard("p1", "0110", "")
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}

	if len(result.PlayedCaptures) != 2 {
		t.Fatalf("期望捕获 2 张, 实际 = %d", len(result.PlayedCaptures))
	}
	if len(round.DepositoryOf("p1")) != 2 {
		t.Errorf("期望得点堆 2 张, 实际 = %d", len(round.DepositoryOf("p1")))
	}
	if ContainsCode(round.Field, "0130") {
		t.Error("期望目标牌已离场")
	}
}

// TestApplyHandCardDoubleMatchRequiresTarget 测试双匹配必须指定目标
// 校验失败不留任何状态变化
func TestApplyHandCardDoubleMatchRequiresTarget(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0230"),
		mustCards(t, "0110"),
		mustCards(t, "0240", "0241", "0440"),
		mustCards(t, "0520"),
	)

	_, err := round.ApplyHandCard("p1", "0230", "")
	if !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("期望 ErrTargetRequired, 实际 = %v", err)
	}

	// 回滚校验
	if !ContainsCode(round.HandOf("p1"), "0230") {
		t.Error("期望手牌回滚")
	}
	if len(round.Field) != 3 {
		t.Errorf("期望场牌 3 张, 实际 = %d", len(round.Field))
	}

	// 指定非同月目标
	_, err = round.ApplyHandCard("p1", "0230", "0440")
	if !errors.Is(err, ErrTargetMonthMismatch) {
		t.Fatalf("期望 ErrTargetMonthMismatch, 实际 = %v", err)
	}

	// 指定合法目标
	result, err := round.ApplyHandCard("p1", "0230", "0241")
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}
	if len(result.PlayedCaptures) != 2 {
		t.Errorf("期望捕获 2 张, 实际 = %d", len(result.PlayedCaptures))
	}
	if !ContainsCode(round.Field, "0240") {
		t.Error("期望未选中的同月牌留在场上")
	}
}

// TestApplyHandCardTripleMatch 测试三匹配: 月份凑齐全部捕获
func TestApplyHandCardTripleMatch(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "1210"),
		mustCards(t, "0110"),
		mustCards(t, "1240", "1241", "1242", "0440"),
		mustCards(t, "0520"),
	)

	result, err := round.ApplyHandCard("p1", "1210", "")
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}

	if len(result.PlayedCaptures) != 4 {
		t.Fatalf("期望捕获 4 张, 实际 = %d", len(result.PlayedCaptures))
	}
	if len(round.Field) != 1 {
		t.Errorf("期望场牌 1 张, 实际 = %d", len(round.Field))
	}
}

// TestApplyHandCardNotInHand 测试出不在手里的牌
func TestApplyHandCardNotInHand(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0220"),
		mustCards(t, "0440"),
		mustCards(t, "0520"),
	)

	if _, err := round.ApplyHandCard("p1", "0330", ""); !errors.Is(err, ErrCardNotInHand) {
		t.Errorf("期望 ErrCardNotInHand, 实际 = %v", err)
	}
	if _, err := round.ApplyHandCard("nobody", "0110", ""); !errors.Is(err, ErrWrongPlayer) {
		t.Errorf("期望 ErrWrongPlayer, 实际 = %v", err)
	}
}

// TestApplyDrawDoubleMatchPending 测试抽牌双匹配进入待选择
func TestApplyDrawDoubleMatchPending(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0330"),
		mustCards(t, "0240", "0241", "0440"),
		mustCards(t, "0220"),
	)

	result := &MoveResult{PlayedCard: mustCards(t, "0110")[0]}
	if err := round.ApplyDraw("p1", nil, result); err != nil {
		t.Fatalf("抽牌失败: %v", err)
	}

	if !result.NeedsSelection {
		t.Fatal("期望进入待选择")
	}
	if round.Pending == nil {
		t.Fatal("期望 Pending 已记录")
	}
	if round.Pending.DrawnCard.Code() != "0220" {
		t.Errorf("期望抽到 0220, 实际 = %s", round.Pending.DrawnCard.Code())
	}
	if len(round.Pending.Options) != 2 {
		t.Errorf("期望可选目标 2 张, 实际 = %d", len(round.Pending.Options))
	}
	if len(round.DrawPile) != 0 {
		t.Errorf("期望抽牌堆 0 张, 实际 = %d", len(round.DrawPile))
	}
}

// TestResolveSelection 测试选择结算
func TestResolveSelection(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0330"),
		mustCards(t, "0240", "0241", "0440"),
		mustCards(t, "0220"),
	)

	result := &MoveResult{PlayedCard: mustCards(t, "0110")[0]}
	if err := round.ApplyDraw("p1", nil, result); err != nil {
		t.Fatalf("抽牌失败: %v", err)
	}

	// 源牌不是待处理的抽牌
	if _, err := round.ResolveSelection("p1", "0110", "0240"); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("期望 ErrInvalidSelection, 实际 = %v", err)
	}

	// 目标不在可选列表
	if _, err := round.ResolveSelection("p1", "0220", "0440"); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("期望 ErrInvalidSelection, 实际 = %v", err)
	}

	captured, err := round.ResolveSelection("p1", "0220", "0241")
	if err != nil {
		t.Fatalf("选择失败: %v", err)
	}

	if len(captured) != 2 {
		t.Errorf("期望捕获 2 张, 实际 = %d", len(captured))
	}
	if round.Pending != nil {
		t.Error("期望 Pending 已清空")
	}
	if !ContainsCode(round.Field, "0240") {
		t.Error("期望未选中的同月牌留在场上")
	}

	// 没有待选择时再调用
	if _, err := round.ResolveSelection("p1", "0220", "0240"); !errors.Is(err, ErrNoPendingSelection) {
		t.Errorf("期望 ErrNoPendingSelection, 实际 = %v", err)
	}
}

// TestRoundMultisetInvariant 测试回合全程的多重集不变量
// 每步操作后手牌 ∪ 得点堆 ∪ 场牌 ∪ 抽牌堆 (∪ 待选择抽牌) 保持不变
func TestRoundMultisetInvariant(t *testing.T) {
	hand1 := mustCards(t, "0110", "0230")
	hand2 := mustCards(t, "0330")
	field := mustCards(t, "0130", "0140", "0141", "0520")
	pile := mustCards(t, "0220", "0630")

	var initial []Card
	initial = append(initial, hand1...)
	initial = append(initial, hand2...)
	initial = append(initial, field...)
	initial = append(initial, pile...)

	round := buildRoundWithPile(t, hand1, hand2, field, pile)
	assertSameMultiset(t, initial, round.AllCards())

	// 三匹配捕获
	result, err := round.ApplyHandCard("p1", "0110", "")
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}
	assertSameMultiset(t, initial, round.AllCards())

	// 抽牌
	if err := round.ApplyDraw("p1", nil, result); err != nil {
		t.Fatalf("抽牌失败: %v", err)
	}
	assertSameMultiset(t, initial, round.AllCards())
}

// TestAnyoneCalledKoiKoi 测试こいこい宣告标记
func TestAnyoneCalledKoiKoi(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0220"),
		mustCards(t, "0440"),
		mustCards(t, "0520"),
	)

	if round.AnyoneCalledKoiKoi() {
		t.Error("期望初始无宣告")
	}

	round.Players["p2"].TimesContinued = 1
	if !round.AnyoneCalledKoiKoi() {
		t.Error("期望任一方宣告后为真")
	}
}

// TestHandsExhausted 测试手牌打完判定
func TestHandsExhausted(t *testing.T) {
	round := buildRoundWithPile(t,
		mustCards(t, "0110"),
		mustCards(t, "0220"),
		mustCards(t, "0440"),
		mustCards(t, "0520", "0630"),
	)

	if round.HandsExhausted() {
		t.Error("期望尚未打完")
	}

	if _, err := round.ApplyHandCard("p1", "0110", ""); err != nil {
		t.Fatalf("出牌失败: %v", err)
	}
	if round.HandsExhausted() {
		t.Error("期望 p2 还有手牌")
	}

	if _, err := round.ApplyHandCard("p2", "0220", ""); err != nil {
		t.Fatalf("出牌失败: %v", err)
	}
	if !round.HandsExhausted() {
		t.Error("期望双方手牌已打完")
	}
}
