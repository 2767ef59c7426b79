package lock

import (
	"context"
	"sync"
)

// KeyedMutex 按键互斥锁
// 同一对局的并发请求 (玩家操作与定时器触发) 必须串行进入回合结算逻辑,
// 不同对局之间互不阻塞; 引用计数保证空闲键的条目及时回收
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{} // 容量1, 持有令牌者拥有锁
	refs int
}

// NewKeyedMutex 创建按键互斥锁
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock 获取指定键的锁, 支持 ctx 取消
func (m *KeyedMutex) Lock(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, e)
		return ctx.Err()
	}
}

// Unlock 释放指定键的锁
func (m *KeyedMutex) Unlock(key string) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return
	}

	<-e.ch
	m.release(key, e)
}

// WithLock 在锁内执行 fn (定时器回调和请求处理共用的临界区入口)
func (m *KeyedMutex) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := m.Lock(ctx, key); err != nil {
		return err
	}
	defer m.Unlock(key)

	return fn()
}

// release 减少引用计数, 归零时删除条目
func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs <= 0 {
		delete(m.entries, key)
	}
}

// Len 当前持有条目的键数量 (测试用)
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}
