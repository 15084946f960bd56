package engine

import (
	"sync/atomic"
	"testing"

	"github.com/agilex/piper-can/frame"
)

func TestHookRegistryInvokesAllRegistered(t *testing.T) {
	var r hookRegistry
	var a, b atomic.Int64
	r.Register(func(f frame.Frame) { a.Add(int64(f.ID)) })
	r.Register(func(f frame.Frame) { b.Add(1) })

	r.Invoke(frame.New(0x123, nil))
	r.Invoke(frame.New(0x123, nil))

	if got := a.Load(); got != 0x123*2 {
		t.Fatalf("hook a accumulated %d, want %d", got, 0x123*2)
	}
	if got := b.Load(); got != 2 {
		t.Fatalf("hook b invoked %d times, want 2", got)
	}
}

func TestHookRegistrySkipsWhenRegisterHoldsLock(t *testing.T) {
	var r hookRegistry
	r.mu.Lock()
	defer r.mu.Unlock()

	called := false
	r.hooks = append(r.hooks, func(frame.Frame) { called = true })
	r.Invoke(frame.New(0x1, nil))
	if called {
		t.Fatal("Invoke should have skipped while the registry lock was held")
	}
}
