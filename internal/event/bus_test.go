package event

import (
	"context"
	"sync"
	"testing"
	"time"
)

// captureSink 记录收到的事件 (测试用)
type captureSink struct {
	name string
	mu   sync.Mutex
	got  []Event
}

func (s *captureSink) Name() string { return s.name }

func (s *captureSink) Handle(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return nil
}

func (s *captureSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.got...)
}

// panicSink 处理任何事件都 panic (测试用)
type panicSink struct{}

func (panicSink) Name() string                            { return "panic-sink" }
func (panicSink) Handle(ctx context.Context, e Event) error { panic("boom") }

// waitFor 轮询等待条件成立
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// TestBusFanOut 测试多通道扇出与顺序投递
func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := &captureSink{name: "sink-a"}
	b := &captureSink{name: "sink-b"}
	bus.Register(a)
	bus.Register(b)
	bus.Start()
	defer bus.Stop()

	bus.Publish(GameStarted{GameId: "g1", TotalRounds: 3})
	bus.Publish(RoundEnded{GameId: "g1", CumulativeScores: map[string]int{"p1": 5}})

	waitFor(t, func() bool {
		return len(a.events()) == 2 && len(b.events()) == 2
	}, "期望两个通道各收到 2 个事件")

	for _, sink := range []*captureSink{a, b} {
		got := sink.events()
		if got[0].EventType() != TypeGameStarted {
			t.Errorf("%s: 期望第一个事件 = %s, 实际 = %s", sink.name, TypeGameStarted, got[0].EventType())
		}
		if got[1].EventType() != TypeRoundEnded {
			t.Errorf("%s: 期望第二个事件 = %s, 实际 = %s", sink.name, TypeRoundEnded, got[1].EventType())
		}
	}
}

// TestBusPanicIsolation 测试单通道 panic 不影响其他通道
func TestBusPanicIsolation(t *testing.T) {
	bus := NewBus()
	healthy := &captureSink{name: "healthy"}
	bus.Register(panicSink{})
	bus.Register(healthy)
	bus.Start()
	defer bus.Stop()

	bus.Publish(GameStarted{GameId: "g1"})
	bus.Publish(GameFinished{GameId: "g1", Reason: "COMPLETED"})

	waitFor(t, func() bool {
		return len(healthy.events()) == 2
	}, "期望健康通道仍收到全部事件")
}

// TestBusRegisterAfterStart 测试启动后注册被拒绝
func TestBusRegisterAfterStart(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	late := &captureSink{name: "late"}
	bus.Register(late)

	bus.Publish(GameStarted{GameId: "g1"})
	time.Sleep(50 * time.Millisecond)

	if len(late.events()) != 0 {
		t.Errorf("期望晚注册的通道收不到事件, 实际 = %d", len(late.events()))
	}
}
