package locksvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core/workflow"
)

func TestMemory_Lock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(20 * time.Millisecond)

	unlock, err := m.Lock(ctx, "proposition:1")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err = m.Lock(ctx, "proposition:1"); !errors.Is(err, workflow.ErrBusy) {
		t.Errorf("Lock(held) error = %v, want %v", err, workflow.ErrBusy)
	}

	other, err := m.Lock(ctx, "proposition:2")
	if err != nil {
		t.Fatalf("Lock(other key) error = %v", err)
	}
	other()

	unlock()
	unlock() // releasing twice is harmless
	again, err := m.Lock(ctx, "proposition:1")
	if err != nil {
		t.Fatalf("Lock(released) error = %v", err)
	}
	again()
}

func TestMemory_Lock_serializes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Second)

	var (
		wg      sync.WaitGroup
		holders int
		peak    int
		mu      sync.Mutex
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "k")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			mu.Lock()
			holders++
			if holders > peak {
				peak = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Errorf("peak concurrent holders = %d, want 1", peak)
	}
}

func TestMemory_Lock_cancelled(t *testing.T) {
	m := NewMemory(time.Second)
	unlock, _ := m.Lock(context.Background(), "k")
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Lock() error = %v, want %v", err, context.Canceled)
	}
}
