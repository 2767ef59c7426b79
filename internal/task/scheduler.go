package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Scheduler 任务调度器
// 单个时间轮 + 工作协程池, 所有定时任务统一走这一条触发管线
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建任务调度器
func NewScheduler(tick time.Duration, slotCount, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(tick, slotCount),
		workerPool: NewWorkerPool(workerCount),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default(),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return fmt.Errorf("调度器已经在运行中")
	}
	s.running = true
	s.runningMu.Unlock()

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("任务调度器已启动")

	return nil
}

// tickLoop 时钟循环协程
func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := s.wheel.GetTicker()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.onTick()
		}
	}
}

// onTick 时钟触发处理
func (s *Scheduler) onTick() {
	tasks := s.wheel.Tick()

	if len(tasks) == 0 {
		return
	}

	s.logger.Debug("时钟触发",
		"currentSlot", s.wheel.GetCurrentSlot(),
		"taskCount", len(tasks))

	s.workerPool.SubmitBatch(tasks)
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.wheel.Stop()
	s.workerPool.Stop()

	s.logger.Info("任务调度器已停止")
}

// AddTask 添加任务, 返回所在槽位索引 (RemoveTask 时需要)
func (s *Scheduler) AddTask(task *Task) (int, error) {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return 0, fmt.Errorf("调度器未运行")
	}

	if task == nil {
		return 0, fmt.Errorf("任务不能为空")
	}

	if task.ID == "" {
		return 0, fmt.Errorf("任务ID不能为空")
	}

	slot := s.wheel.AddTask(task)

	s.logger.Debug("添加任务",
		"taskID", task.ID,
		"key", task.Key,
		"delay", task.Delay,
		"slot", slot)

	return slot, nil
}

// RemoveTask 从指定槽位删除任务
func (s *Scheduler) RemoveTask(taskID string, slot int) bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return false
	}

	return s.wheel.RemoveTask(taskID, slot)
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// GetStats 获取调度器统计信息
func (s *Scheduler) GetStats() map[string]any {
	return map[string]any{
		"running":        s.IsRunning(),
		"currentSlot":    s.wheel.GetCurrentSlot(),
		"totalTaskCount": s.wheel.GetTotalTaskCount(),
		"workerCount":    s.workerPool.workerCount,
	}
}
