package timeout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"hanakoi.game.logic/internal/task"
)

func testManager(t *testing.T, cfg Config) *Manager {
	t.Helper()

	scheduler := task.NewScheduler(10*time.Millisecond, 64, 4)
	if err := scheduler.Start(); err != nil {
		t.Fatalf("启动调度器失败: %v", err)
	}
	t.Cleanup(scheduler.Stop)

	return NewManager(scheduler, cfg)
}

func fastConfig() Config {
	return Config{
		ActionSeconds: 0,
		ActionBuffer:  50 * time.Millisecond,
		Disconnect:    50 * time.Millisecond,
		Idle:          50 * time.Millisecond,
		Confirm:       50 * time.Millisecond,
		Accelerated:   50 * time.Millisecond,
	}
}

// TestActionDuration 测试动作超时的服务端实际时长
// 服务端触发时刻 = 客户端可见时限 + 固定缓冲
func TestActionDuration(t *testing.T) {
	m := NewManager(nil, DefaultConfig())

	want := 30*time.Second + 1500*time.Millisecond
	if got := m.ActionDuration(); got != want {
		t.Errorf("期望 %v, 实际 = %v", want, got)
	}
}

// TestTimerFires 测试定时器触发
func TestTimerFires(t *testing.T) {
	m := testManager(t, fastConfig())

	done := make(chan struct{})
	m.StartDisconnect("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		if gameId != "g1" || playerId != "p1" {
			t.Errorf("期望 (g1, p1), 实际 = (%s, %s)", gameId, playerId)
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("期望定时器在时限内触发")
	}
}

// TestClearPreventsFire 测试取消后不触发
func TestClearPreventsFire(t *testing.T) {
	m := testManager(t, fastConfig())

	var fired atomic.Int32
	m.StartIdle("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		fired.Add(1)
	})

	if !m.Clear(FamilyIdle, "g1", "p1") {
		t.Fatal("期望取消成功")
	}

	time.Sleep(300 * time.Millisecond)

	if fired.Load() != 0 {
		t.Errorf("期望不触发, 实际触发 %d 次", fired.Load())
	}
}

// TestRestartCancelsPrevious 测试重新布防取消旧定时器
// 同键定时器重新布防后只有最新一代会触发
func TestRestartCancelsPrevious(t *testing.T) {
	m := testManager(t, fastConfig())

	var firstFired, secondFired atomic.Int32

	m.StartConfirm("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		firstFired.Add(1)
	})
	m.StartConfirm("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		secondFired.Add(1)
	})

	time.Sleep(300 * time.Millisecond)

	if firstFired.Load() != 0 {
		t.Errorf("期望旧定时器不触发, 实际触发 %d 次", firstFired.Load())
	}
	if secondFired.Load() != 1 {
		t.Errorf("期望新定时器触发 1 次, 实际 = %d", secondFired.Load())
	}
}

// TestFamiliesIndependent 测试不同族互不干扰
func TestFamiliesIndependent(t *testing.T) {
	m := testManager(t, fastConfig())

	var idleFired atomic.Int32
	done := make(chan struct{})

	m.StartIdle("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		idleFired.Add(1)
	})
	m.StartDisconnect("g1", "p1", func(ctx context.Context, gameId, playerId string) {
		close(done)
	})

	m.Clear(FamilyIdle, "g1", "p1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("期望断线定时器仍触发")
	}

	if idleFired.Load() != 0 {
		t.Errorf("期望闲置定时器不触发, 实际触发 %d 次", idleFired.Load())
	}
}

// TestClearAllForGame 测试对局定时器原子清理
// 五个族一次性清除, 其他对局不受影响
func TestClearAllForGame(t *testing.T) {
	m := testManager(t, fastConfig())

	var fired atomic.Int32
	otherDone := make(chan struct{})

	noop := func(ctx context.Context, gameId, playerId string) { fired.Add(1) }

	m.StartAction("g1", "p1", noop)
	m.StartDisconnect("g1", "p1", noop)
	m.StartIdle("g1", "p2", noop)
	m.StartConfirm("g1", "p2", noop)
	m.StartAccelerated("g1", "p1", noop)

	m.StartDisconnect("g2", "p3", func(ctx context.Context, gameId, playerId string) {
		close(otherDone)
	})

	m.ClearAllForGame("g1")

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("期望其他对局的定时器仍触发")
	}

	time.Sleep(100 * time.Millisecond)

	if fired.Load() != 0 {
		t.Errorf("期望 g1 定时器全部取消, 实际触发 %d 次", fired.Load())
	}
}
