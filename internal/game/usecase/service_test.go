package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hanakoi.game.logic/internal/ai"
	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/game"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/lock"
	"hanakoi.game.logic/internal/task"
	"hanakoi.game.logic/internal/timeout"
)

// captureSink 记录总线投递的事件 (测试用)
type captureSink struct {
	mu  sync.Mutex
	got []event.Event
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Handle(ctx context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return nil
}

func (s *captureSink) ofType(typ event.Type) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []event.Event
	for _, e := range s.got {
		if e.EventType() == typ {
			matched = append(matched, e)
		}
	}
	return matched
}

// waitForEvent 轮询等待指定类型的事件到达
func (s *captureSink) waitForEvent(t *testing.T, typ event.Type) event.Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if matched := s.ofType(typ); len(matched) > 0 {
			return matched[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("期望收到事件 %s", typ)
	return nil
}

// waitForAny 轮询等待任一指定类型的事件到达
func (s *captureSink) waitForAny(t *testing.T, types ...event.Type) event.Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, typ := range types {
			if matched := s.ofType(typ); len(matched) > 0 {
				return matched[0]
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("期望收到事件 %v 之一", types)
	return nil
}

// waitForCount 轮询等待指定类型的事件达到数量
func (s *captureSink) waitForCount(t *testing.T, typ event.Type, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.ofType(typ)) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("期望收到 %d 个 %s 事件, 实际 = %d", want, typ, len(s.ofType(typ)))
}

// seqIds 递增ID生成器 (测试用)
type seqIds struct{ n atomic.Int64 }

func (f *seqIds) NextString() string {
	return fmt.Sprintf("game-%d", f.n.Add(1))
}

// longTimeouts 全部定时器拉到远超测试生命周期的时长
func longTimeouts() timeout.Config {
	return timeout.Config{
		ActionSeconds: 30,
		ActionBuffer:  0,
		Disconnect:    30 * time.Second,
		Idle:          30 * time.Second,
		Confirm:       30 * time.Second,
		Accelerated:   30 * time.Second,
	}
}

// newTestService 构建带真实调度器和总线的用例服务
// 定时器时长拉到远超测试生命周期, 测试内不会有定时器触发
func newTestService(t *testing.T, seed int64) (*Service, *captureSink) {
	t.Helper()
	return newTimedTestService(t, seed, longTimeouts())
}

// newTimedTestService 构建指定定时器时长的用例服务 (测试超时驱动的流程)
func newTimedTestService(t *testing.T, seed int64, cfg timeout.Config) (*Service, *captureSink) {
	t.Helper()

	scheduler := task.NewScheduler(10*time.Millisecond, 4096, 4)
	if err := scheduler.Start(); err != nil {
		t.Fatalf("启动调度器失败: %v", err)
	}
	t.Cleanup(scheduler.Stop)

	timeouts := timeout.NewManager(scheduler, cfg)

	sink := &captureSink{}
	bus := event.NewBus()
	bus.Register(sink)
	bus.Start()
	t.Cleanup(bus.Stop)

	store := game.NewStore(nil, time.Hour)
	t.Cleanup(func() { _ = store.Shutdown(context.Background()) })

	svc := NewService(
		store,
		lock.NewKeyedMutex(),
		timeouts,
		bus,
		nil,
		koikoi.NewSeededDeckGenerator(seed),
		&seqIds{},
	)
	return svc, sink
}

// quietRules 关闭特殊规则的测试规则集 (任意种子发牌后回合必然进入出牌阶段)
func quietRules() *koikoi.Ruleset {
	rules := koikoi.DefaultRuleset()
	rules.TeshiEnabled = false
	rules.KuttsukiEnabled = false
	return &rules
}

func startTestGame(t *testing.T, svc *Service) *koikoi.Game {
	t.Helper()

	g, err := svc.StartGame(context.Background(), StartGameParams{
		Players: []koikoi.Player{{Id: "p1"}, {Id: "p2"}},
		Rules:   quietRules(),
	})
	if err != nil {
		t.Fatalf("开局失败: %v", err)
	}
	return g
}

// TestStartGameDealsFirstRound 测试开局发出第一回合
func TestStartGameDealsFirstRound(t *testing.T) {
	svc, sink := newTestService(t, 42)

	g := startTestGame(t, svc)

	if _, ok := svc.store.Get(g.Id); !ok {
		t.Fatal("期望对局已入存储")
	}
	if g.Status != koikoi.StatusInProgress {
		t.Errorf("期望状态 = %s, 实际 = %s", koikoi.StatusInProgress, g.Status)
	}

	started := sink.waitForEvent(t, event.TypeGameStarted).(event.GameStarted)
	if started.GameId != g.Id {
		t.Errorf("期望 gameId = %s, 实际 = %s", g.Id, started.GameId)
	}

	dealt := sink.waitForEvent(t, event.TypeRoundDealt).(event.RoundDealt)
	if dealt.RoundNumber != 1 {
		t.Errorf("期望回合号 = 1, 实际 = %d", dealt.RoundNumber)
	}
	if len(dealt.Field) != koikoi.FieldSize {
		t.Errorf("期望场牌 %d 张, 实际 = %d", koikoi.FieldSize, len(dealt.Field))
	}
	if dealt.DrawPileCount != koikoi.DrawPileSize {
		t.Errorf("期望抽牌堆 %d 张, 实际 = %d", koikoi.DrawPileSize, dealt.DrawPileCount)
	}
	for _, id := range []string{"p1", "p2"} {
		if len(dealt.Hands[id]) != koikoi.HandSize {
			t.Errorf("期望 %s 手牌 %d 张, 实际 = %d", id, koikoi.HandSize, len(dealt.Hands[id]))
		}
	}
	if dealt.FirstPlayerId != "p1" {
		t.Errorf("期望先手 = p1, 实际 = %s", dealt.FirstPlayerId)
	}
}

// TestStartGameRejectsInvalidPlayers 测试开局参数校验
func TestStartGameRejectsInvalidPlayers(t *testing.T) {
	svc, _ := newTestService(t, 42)

	_, err := svc.StartGame(context.Background(), StartGameParams{
		Players: []koikoi.Player{{Id: "p1"}},
	})
	if !errors.Is(err, koikoi.ErrInvalidPlayerCount) {
		t.Errorf("期望 ErrInvalidPlayerCount, 实际 = %v", err)
	}

	_, err = svc.StartGame(context.Background(), StartGameParams{
		Players: []koikoi.Player{{Id: "p1"}, {Id: "p1"}},
	})
	if !errors.Is(err, koikoi.ErrInvalidPlayerCount) {
		t.Errorf("期望重复玩家被拒, 实际 = %v", err)
	}
}

// TestStartGameRejectsDuplicateId 测试重复对局ID被拒
func TestStartGameRejectsDuplicateId(t *testing.T) {
	svc, _ := newTestService(t, 42)

	_, err := svc.StartGame(context.Background(), StartGameParams{
		GameId:  "dup-game",
		Players: []koikoi.Player{{Id: "p1"}, {Id: "p2"}},
		Rules:   quietRules(),
	})
	if err != nil {
		t.Fatalf("开局失败: %v", err)
	}

	_, err = svc.StartGame(context.Background(), StartGameParams{
		GameId:  "dup-game",
		Players: []koikoi.Player{{Id: "p3"}, {Id: "p4"}},
		Rules:   quietRules(),
	})
	if !errors.Is(err, ErrGameAlreadyExists) {
		t.Errorf("期望 ErrGameAlreadyExists, 实际 = %v", err)
	}
}

// TestPlayHandCardWrongPlayer 测试非行动方出牌被拒
// 校验失败只回 TurnError 事件, 对局状态不变
func TestPlayHandCardWrongPlayer(t *testing.T) {
	svc, sink := newTestService(t, 42)

	g := startTestGame(t, svc)
	waiting := g.CurrentRound.OpponentOf(g.CurrentRound.ActivePlayerId)

	err := svc.PlayHandCard(context.Background(), PlayHandCardParams{
		GameId:   g.Id,
		PlayerId: waiting,
		CardId:   "0110",
	})
	if !errors.Is(err, koikoi.ErrWrongPlayer) {
		t.Fatalf("期望 ErrWrongPlayer, 实际 = %v", err)
	}

	turnErr := sink.waitForEvent(t, event.TypeTurnError).(event.TurnError)
	if turnErr.PlayerId != waiting {
		t.Errorf("期望错误只回给 %s, 实际 = %s", waiting, turnErr.PlayerId)
	}
	if g.CurrentRound.Flow != koikoi.FlowAwaitingHandPlay {
		t.Errorf("期望流程状态不变, 实际 = %s", g.CurrentRound.Flow)
	}
}

// TestPlayHandCardAdvancesTurn 测试合法出牌推进回合
// 用托管策略挑选合法手牌, 任意种子下验证三个分支之一成立
func TestPlayHandCardAdvancesTurn(t *testing.T) {
	svc, sink := newTestService(t, 7)

	g := startTestGame(t, svc)
	round := g.CurrentRound
	active := round.ActivePlayerId
	opponent := round.OpponentOf(active)

	cardCode, targetCode := ai.ChooseHandCard(round, active)
	err := svc.PlayHandCard(context.Background(), PlayHandCardParams{
		GameId:       g.Id,
		PlayerId:     active,
		CardId:       cardCode,
		TargetCardId: targetCode,
	})
	if err != nil {
		t.Fatalf("出牌失败: %v", err)
	}

	switch {
	case round.Pending != nil:
		if round.Flow != koikoi.FlowAwaitingSelection {
			t.Errorf("期望流程 = %s, 实际 = %s", koikoi.FlowAwaitingSelection, round.Flow)
		}
		sink.waitForEvent(t, event.TypeSelectionRequired)

	case round.AwaitingDecision != nil:
		if round.Flow != koikoi.FlowAwaitingDecision {
			t.Errorf("期望流程 = %s, 实际 = %s", koikoi.FlowAwaitingDecision, round.Flow)
		}
		sink.waitForEvent(t, event.TypeDecisionRequired)

	default:
		completed := sink.waitForEvent(t, event.TypeTurnCompleted).(event.TurnCompleted)
		if completed.NextPlayerId != opponent {
			t.Errorf("期望下一位 = %s, 实际 = %s", opponent, completed.NextPlayerId)
		}
		if round.ActivePlayerId != opponent {
			t.Errorf("期望行动方轮换到 %s, 实际 = %s", opponent, round.ActivePlayerId)
		}
		if len(round.HandOf(active)) != koikoi.HandSize-1 {
			t.Errorf("期望手牌 %d 张, 实际 = %d", koikoi.HandSize-1, len(round.HandOf(active)))
		}
	}
}

// TestMakeDecisionWrongFlow 测试出牌阶段的决策请求被拒
func TestMakeDecisionWrongFlow(t *testing.T) {
	svc, sink := newTestService(t, 42)

	g := startTestGame(t, svc)
	active := g.CurrentRound.ActivePlayerId

	err := svc.MakeDecision(context.Background(), MakeDecisionParams{
		GameId:   g.Id,
		PlayerId: active,
		Decision: DecisionKoiKoi,
	})
	if !errors.Is(err, koikoi.ErrInvalidState) {
		t.Fatalf("期望 ErrInvalidState, 实际 = %v", err)
	}

	sink.waitForEvent(t, event.TypeTurnError)
}

// TestSelectTargetWithoutPending 测试无待选择时的选择请求被拒
func TestSelectTargetWithoutPending(t *testing.T) {
	svc, _ := newTestService(t, 42)

	g := startTestGame(t, svc)
	active := g.CurrentRound.ActivePlayerId

	err := svc.SelectTarget(context.Background(), SelectTargetParams{
		GameId:       g.Id,
		PlayerId:     active,
		SourceCardId: "0110",
		TargetCardId: "0220",
	})
	if !errors.Is(err, koikoi.ErrInvalidState) {
		t.Errorf("期望 ErrInvalidState, 实际 = %v", err)
	}
}

// TestLeaveFinishesGame 测试主动离开判负
// 对手立即判胜, 对局出存储, 定时器全部清除
func TestLeaveFinishesGame(t *testing.T) {
	svc, sink := newTestService(t, 42)

	g := startTestGame(t, svc)

	if err := svc.Leave(context.Background(), LeaveParams{GameId: g.Id, PlayerId: "p1"}); err != nil {
		t.Fatalf("离开失败: %v", err)
	}

	finished := sink.waitForEvent(t, event.TypeGameFinished).(event.GameFinished)
	if finished.WinnerId != "p2" {
		t.Errorf("期望胜者 = p2, 实际 = %s", finished.WinnerId)
	}
	if finished.Reason != FinishReasonOpponentLeft {
		t.Errorf("期望结束原因 = %s, 实际 = %s", FinishReasonOpponentLeft, finished.Reason)
	}

	if g.Status != koikoi.StatusFinished {
		t.Errorf("期望状态 = %s, 实际 = %s", koikoi.StatusFinished, g.Status)
	}
	if _, ok := svc.store.Get(g.Id); ok {
		t.Error("期望结束的对局已出存储")
	}
}

// TestUnknownGame 测试不存在的对局
func TestUnknownGame(t *testing.T) {
	svc, sink := newTestService(t, 42)

	err := svc.PlayHandCard(context.Background(), PlayHandCardParams{
		GameId:   "no-such-game",
		PlayerId: "p1",
		CardId:   "0110",
	})
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("期望 ErrGameNotFound, 实际 = %v", err)
	}

	gameErr := sink.waitForEvent(t, event.TypeGameError).(event.GameError)
	if gameErr.PlayerId != "p1" {
		t.Errorf("期望错误只回给 p1, 实际 = %s", gameErr.PlayerId)
	}
}

// TestDisconnectTimeoutForfeits 测试断线超时判负
// 时限内未重连, 对手判胜, 对局结束出存储
func TestDisconnectTimeoutForfeits(t *testing.T) {
	cfg := longTimeouts()
	cfg.Disconnect = 60 * time.Millisecond
	svc, sink := newTimedTestService(t, 42, cfg)

	g := startTestGame(t, svc)
	if err := svc.HandleDisconnect(context.Background(), g.Id, "p2"); err != nil {
		t.Fatalf("断线处理失败: %v", err)
	}

	finished := sink.waitForEvent(t, event.TypeGameFinished).(event.GameFinished)
	if finished.WinnerId != "p1" {
		t.Errorf("期望胜者 = p1, 实际 = %s", finished.WinnerId)
	}
	if finished.Reason != FinishReasonDisconnectTimeout {
		t.Errorf("期望结束原因 = %s, 实际 = %s", FinishReasonDisconnectTimeout, finished.Reason)
	}

	// 结束清理在定时器协程内完成, 轮询等待出存储
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := svc.store.Get(g.Id); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Error("期望结束的对局已出存储")
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestReconnectCancelsForfeit 测试重连取消断线判负并下发快照
func TestReconnectCancelsForfeit(t *testing.T) {
	cfg := longTimeouts()
	cfg.Disconnect = 150 * time.Millisecond
	svc, sink := newTimedTestService(t, 42, cfg)

	g := startTestGame(t, svc)
	ctx := context.Background()

	if err := svc.HandleDisconnect(ctx, g.Id, "p2"); err != nil {
		t.Fatalf("断线处理失败: %v", err)
	}
	if err := svc.HandleReconnect(ctx, g.Id, "p2"); err != nil {
		t.Fatalf("重连处理失败: %v", err)
	}

	snap := sink.waitForEvent(t, event.TypeGameSnapshotRestore).(event.GameSnapshotRestore)
	if snap.PlayerId != "p2" {
		t.Errorf("期望快照发给 p2, 实际 = %s", snap.PlayerId)
	}
	if len(snap.Hand) != koikoi.HandSize {
		t.Errorf("期望快照手牌 %d 张, 实际 = %d", koikoi.HandSize, len(snap.Hand))
	}
	if snap.OpponentHandSize != koikoi.HandSize {
		t.Errorf("期望对手手牌数 = %d, 实际 = %d", koikoi.HandSize, snap.OpponentHandSize)
	}
	if snap.FlowState != koikoi.FlowAwaitingHandPlay {
		t.Errorf("期望流程 = %s, 实际 = %s", koikoi.FlowAwaitingHandPlay, snap.FlowState)
	}

	// 断线判负定时器已取消, 原时限过后对局仍在进行
	time.Sleep(400 * time.Millisecond)
	if n := len(sink.ofType(event.TypeGameFinished)); n != 0 {
		t.Errorf("期望重连后不判负, 实际收到 %d 个结束事件", n)
	}
	if _, ok := svc.store.Get(g.Id); !ok {
		t.Error("期望对局仍在存储中")
	}
}

// TestAcceleratedTimeoutDrivesAutoPlay 测试断线方的加速托管
// 轮到断线方行动时加速定时器短时限内代打一步, 对局不因断线停滞
func TestAcceleratedTimeoutDrivesAutoPlay(t *testing.T) {
	cfg := longTimeouts()
	cfg.Accelerated = 40 * time.Millisecond
	svc, sink := newTimedTestService(t, 7, cfg)

	g := startTestGame(t, svc)
	active := g.CurrentRound.ActivePlayerId

	if err := svc.HandleDisconnect(context.Background(), g.Id, active); err != nil {
		t.Fatalf("断线处理失败: %v", err)
	}

	sink.waitForAny(t,
		event.TypeTurnCompleted,
		event.TypeSelectionRequired,
		event.TypeDecisionRequired)

	if n := len(sink.ofType(event.TypeTurnError)); n != 0 {
		t.Errorf("期望托管代打全部合法, 实际收到 %d 个回合错误", n)
	}
}

// TestConfirmTimeoutForfeits 测试回合边界确认超时判负
// 被标记闲置的玩家在回合边界必须确认继续; p1 确认而 p2 沉默, p2 判负
func TestConfirmTimeoutForfeits(t *testing.T) {
	cfg := longTimeouts()
	cfg.Idle = 40 * time.Millisecond
	cfg.Confirm = 250 * time.Millisecond
	svc, sink := newTimedTestService(t, 42, cfg)

	g := startTestGame(t, svc)
	time.Sleep(120 * time.Millisecond) // 双方闲置定时器到期, 都被标记

	// 以流局收束当前回合, 触发回合边界
	ctx := context.Background()
	err := svc.withGame(ctx, g.Id, "p1", func(entry *game.Entry) error {
		svc.endRound(entry, koikoi.RoundOutcome{Reason: koikoi.RoundEndDrawn})
		return nil
	})
	if err != nil {
		t.Fatalf("收束回合失败: %v", err)
	}

	sink.waitForCount(t, event.TypeContinueRequired, 2)
	if n := len(sink.ofType(event.TypeRoundDealt)); n != 1 {
		t.Fatalf("期望确认前不发下一回合, 实际发了 %d 回合", n)
	}

	if err := svc.ConfirmContinue(ctx, ConfirmContinueParams{
		GameId:   g.Id,
		PlayerId: "p1",
		Decision: ConfirmChoiceContinue,
	}); err != nil {
		t.Fatalf("确认继续失败: %v", err)
	}

	finished := sink.waitForEvent(t, event.TypeGameFinished).(event.GameFinished)
	if finished.WinnerId != "p1" {
		t.Errorf("期望胜者 = p1, 实际 = %s", finished.WinnerId)
	}
	if finished.Reason != FinishReasonConfirmTimeout {
		t.Errorf("期望结束原因 = %s, 实际 = %s", FinishReasonConfirmTimeout, finished.Reason)
	}
}

// TestConfirmContinueResumesDeal 测试双方确认继续后发下一回合
func TestConfirmContinueResumesDeal(t *testing.T) {
	cfg := longTimeouts()
	cfg.Idle = 40 * time.Millisecond
	svc, sink := newTimedTestService(t, 42, cfg)

	g := startTestGame(t, svc)
	time.Sleep(120 * time.Millisecond)

	ctx := context.Background()
	err := svc.withGame(ctx, g.Id, "p1", func(entry *game.Entry) error {
		svc.endRound(entry, koikoi.RoundOutcome{Reason: koikoi.RoundEndDrawn})
		return nil
	})
	if err != nil {
		t.Fatalf("收束回合失败: %v", err)
	}

	sink.waitForCount(t, event.TypeContinueRequired, 2)

	for _, id := range []string{"p1", "p2"} {
		if err := svc.ConfirmContinue(ctx, ConfirmContinueParams{
			GameId:   g.Id,
			PlayerId: id,
			Decision: ConfirmChoiceContinue,
		}); err != nil {
			t.Fatalf("%s 确认继续失败: %v", id, err)
		}
	}

	sink.waitForCount(t, event.TypeRoundDealt, 2)
	dealt := sink.ofType(event.TypeRoundDealt)[1].(event.RoundDealt)
	if dealt.RoundNumber != 2 {
		t.Errorf("期望回合号 = 2, 实际 = %d", dealt.RoundNumber)
	}
}
