package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// UpstreamCommand 上行指令信封
type UpstreamCommand struct {
	Type         string          `json:"type"`
	AccessNodeId string          `json:"access_node_id"`
	PlayerId     string          `json:"player_id"`
	Payload      json.RawMessage `json:"payload"`
}

// CommandHandler 上行指令处理器接口
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd *UpstreamCommand)
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 指令缓冲区大小
}

// CommandSubscriber 上行指令订阅器
// 队列组订阅实现多实例负载均衡; Worker Pool 并发消费,
// 同一对局的并发指令由对局锁串行化
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建上行指令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 64
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 4096
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "CommandSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	sub, err := s.nc.QueueSubscribe(SubjectLogicUpstream, QueueGroupLogic, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Command buffer full, dropping command", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("Command subscriber started",
		"subject", SubjectLogicUpstream,
		"workers", s.config.WorkerCount)
	return nil
}

// worker 消费循环
func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-s.msgChan:
			s.dispatch(ctx, msg)
		}
	}
}

// dispatch 解析并分发单条指令
func (s *CommandSubscriber) dispatch(ctx context.Context, msg *nats.Msg) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Command handler panicked", "panic", r)
		}
	}()

	var cmd UpstreamCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Warn("Failed to unmarshal upstream command", "error", err)
		return
	}

	s.handler.HandleCommand(ctx, &cmd)
}

// Stop 停止订阅
func (s *CommandSubscriber) Stop() {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", "error", err)
		}
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()

	s.logger.Info("Command subscriber stopped")
}
