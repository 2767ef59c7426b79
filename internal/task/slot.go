package task

import "sync"

// Slot 时间轮槽位
// 同槽任务按任务ID索引: 推进到本槽时整批取出, 布防取消时按ID单点摘除
type Slot struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewSlot 创建空槽位
func NewSlot() *Slot {
	return &Slot{tasks: make(map[string]*Task)}
}

// Add 放入任务, 同ID重复放入时覆盖旧任务
func (s *Slot) Add(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task
}

// Remove 按ID摘除任务, 返回任务是否存在
func (s *Slot) Remove(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)
	return true
}

// Drain 取出全部任务并清空槽位
// 底层 map 原地复用: 槽位随时间轮整圈反复命中, 不必每圈重新分配
func (s *Slot) Drain() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}

	drained := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		drained = append(drained, task)
	}
	clear(s.tasks)

	return drained
}

// Count 槽内任务数
func (s *Slot) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}
