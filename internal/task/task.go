package task

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context, key string, metadata map[string]any) error

// Task 定时任务
type Task struct {
	ID        string         `json:"id"`        // 任务唯一ID
	Key       string         `json:"key"`       // 操作对象标识
	Delay     time.Duration  `json:"delay"`     // 延迟时长
	Fn        TaskFunc       `json:"-"`         // 执行函数
	Metadata  map[string]any `json:"metadata"`  // 元数据
	CreatedAt time.Time      `json:"createdAt"` // 创建时间
}

// NewTask 创建新任务
func NewTask(id, key string, delay time.Duration, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Key:       key,
		Delay:     delay,
		Fn:        fn,
		Metadata:  make(map[string]any),
		CreatedAt: time.Now(),
	}
}

// WithMetadata 添加元数据
func (t *Task) WithMetadata(key string, value any) *Task {
	t.Metadata[key] = value
	return t
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Key, t.Metadata)
}
