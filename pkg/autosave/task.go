package autosave

import (
	"sync"
	"time"
)

// task is a cancellable, one-shot scheduled function.
type task struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
	fired     bool
}

// schedule runs fn after d unless the task is cancelled first.
func schedule(d time.Duration, fn func()) *task {
	t := &task{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Cancel stops the task. It reports false if fn already started.
func (t *task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return false
	}
	t.cancelled = true
	t.timer.Stop()
	return true
}
