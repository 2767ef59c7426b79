package event

import (
	"context"
	"log/slog"
	"sync"
)

// Sink 事件消费通道 (客户端推送 / AI对手 / 回放日志)
type Sink interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Bus 事件扇出总线
// 每个通道独立串行消费: 单个通道的失败或阻塞不影响其他通道;
// 同一对局的事件按发布顺序投递 (发布方在对局锁内按序调用 Publish,
// 每个通道单协程顺序消费, 顺序得以保持)
type Bus struct {
	sinks  []Sink
	queues []chan Event

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewBus 创建事件总线
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default().With("component", "EventBus"),
	}
}

// Register 注册消费通道 (必须在 Start 之前)
func (b *Bus) Register(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		b.logger.Error("Cannot register sink after bus started", "sink", sink.Name())
		return
	}
	b.sinks = append(b.sinks, sink)
}

// Start 启动总线, 每个通道一个消费协程
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}
	b.started = true

	b.queues = make([]chan Event, len(b.sinks))
	for i, sink := range b.sinks {
		queue := make(chan Event, 256)
		b.queues[i] = queue

		b.wg.Add(1)
		go b.consume(sink, queue)
	}

	b.logger.Info("Event bus started", "sinkCount", len(b.sinks))
}

// consume 单通道消费循环 (panic 恢复, 失败只记日志)
func (b *Bus) consume(sink Sink, queue chan Event) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return

		case e := <-queue:
			b.deliver(sink, e)
		}
	}
}

// deliver 投递单个事件到通道
func (b *Bus) deliver(sink Sink, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Sink panicked",
				"sink", sink.Name(),
				"eventType", e.EventType(),
				"panic", r)
		}
	}()

	if err := sink.Handle(b.ctx, e); err != nil {
		b.logger.Warn("Sink failed to handle event",
			"sink", sink.Name(),
			"eventType", e.EventType(),
			"gameId", e.Game(),
			"error", err)
	}
}

// Publish 发布事件到所有通道
// 某个通道队列已满时丢弃该通道的这条事件并告警, 绝不阻塞对局推进
func (b *Bus) Publish(e Event) {
	for i, queue := range b.queues {
		select {
		case queue <- e:
		default:
			b.logger.Warn("Sink queue full, dropping event",
				"sink", b.sinks[i].Name(),
				"eventType", e.EventType(),
				"gameId", e.Game())
		}
	}
}

// Stop 停止总线
func (b *Bus) Stop() {
	b.cancel()
	b.wg.Wait()
	b.logger.Info("Event bus stopped")
}
