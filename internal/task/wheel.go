package task

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTick 默认时间轮精度
	// 动作超时的服务端缓冲不足1秒, 精度必须小于1秒
	DefaultTick = 250 * time.Millisecond

	// DefaultSlotCount 默认槽位数量 (250ms × 512 ≈ 128秒跨度)
	DefaultSlotCount = 512
)

// TimeWheel 单层时间轮
type TimeWheel struct {
	slots       []*Slot
	tick        time.Duration // 每槽跨度
	currentSlot int           // 当前槽位索引
	slotMu      sync.RWMutex  // 当前槽位索引锁
	ticker      *time.Ticker
	logger      *slog.Logger
}

// NewTimeWheel 创建时间轮
func NewTimeWheel(tick time.Duration, slotCount int) *TimeWheel {
	if tick <= 0 {
		tick = DefaultTick
	}
	if slotCount <= 1 {
		slotCount = DefaultSlotCount
	}

	tw := &TimeWheel{
		slots:  make([]*Slot, slotCount),
		tick:   tick,
		ticker: time.NewTicker(tick),
		logger: slog.Default(),
	}

	for i := 0; i < slotCount; i++ {
		tw.slots[i] = NewSlot()
	}

	return tw
}

// delayToTicks 延迟时长转换为槽位偏移, 限制在 [1, slotCount-1]
// 上限是 slotCount-1: 偏移等于 slotCount 会落回当前槽, 下一次推进就触发
// 超出跨度的延迟截断到上限并告警: 会提前触发, 说明时间轮配置偏小
func (tw *TimeWheel) delayToTicks(delay time.Duration) int {
	ticks := int((delay + tw.tick - 1) / tw.tick)
	if ticks < 1 {
		ticks = 1
	}
	if maxTicks := len(tw.slots) - 1; ticks > maxTicks {
		tw.logger.Warn("任务延迟超出时间轮跨度, 截断到最大偏移",
			"delay", delay,
			"span", tw.tick*time.Duration(maxTicks))
		ticks = maxTicks
	}
	return ticks
}

// AddTask 添加任务到时间轮, 返回任务所在的槽位索引 (删除时需要)
func (tw *TimeWheel) AddTask(task *Task) int {
	ticks := tw.delayToTicks(task.Delay)

	tw.slotMu.RLock()
	targetSlot := (tw.currentSlot + ticks) % len(tw.slots)
	tw.slotMu.RUnlock()

	tw.slots[targetSlot].Add(task)

	return targetSlot
}

// RemoveTask 从指定槽位删除任务
func (tw *TimeWheel) RemoveTask(taskID string, slot int) bool {
	if slot < 0 || slot >= len(tw.slots) {
		return false
	}
	return tw.slots[slot].Remove(taskID)
}

// Tick 推进时间轮 (由调度器调用)
func (tw *TimeWheel) Tick() []*Task {
	tw.slotMu.Lock()
	tw.currentSlot = (tw.currentSlot + 1) % len(tw.slots)
	currentSlot := tw.currentSlot
	tw.slotMu.Unlock()

	return tw.slots[currentSlot].Drain()
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.slotMu.RLock()
	defer tw.slotMu.RUnlock()

	return tw.currentSlot
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	tw.ticker.Stop()
}

// GetTicker 获取定时器
func (tw *TimeWheel) GetTicker() *time.Ticker {
	return tw.ticker
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	total := 0
	for _, slot := range tw.slots {
		total += slot.Count()
	}
	return total
}
