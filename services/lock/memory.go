// Package locksvc serializes the mutations of a proposition, within one process or across
// processes through redis.
package locksvc

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/admission/core/workflow"
)

// DefaultWait is how long Lock waits for a key held by someone else.
const DefaultWait = 5 * time.Second

type Memory struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
	wait time.Duration
}

var _ workflow.Locker = (*Memory)(nil) // interface compliance check

func NewMemory(wait time.Duration) *Memory {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Memory{keys: make(map[string]chan struct{}), wait: wait}
}

func (m *Memory) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.keys[key] = ch
	}
	return ch
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	ch := m.slot(key)
	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, workflow.ErrBusy
	}
}
