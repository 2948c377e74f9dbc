package session

import (
	"context"
	"sync"
	"time"
)

// TaskRegistry owns the engine's timed background work. Every task is keyed,
// so scheduling a key again replaces the previous task, and every task is
// cancellable as a group when the session resets.
type TaskRegistry struct {
	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	cancel context.CancelFunc
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*task)}
}

// Every runs fn once per interval until the task is cancelled.
// fn receives the task context and must re-check it after acquiring any lock.
func (r *TaskRegistry) Every(key string, interval time.Duration, fn func(ctx context.Context)) {
	r.start(key, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

// After runs fn once after delay unless the task is cancelled first.
func (r *TaskRegistry) After(key string, delay time.Duration, fn func(ctx context.Context)) {
	r.start(key, func(ctx context.Context) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			fn(ctx)
		}
	})
}

func (r *TaskRegistry) start(key string, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.tasks[key]; ok {
		prev.cancel()
	}
	r.tasks[key] = t
	r.mu.Unlock()

	go func() {
		run(ctx)
		cancel()

		r.mu.Lock()
		if r.tasks[key] == t {
			delete(r.tasks, key)
		}
		r.mu.Unlock()
	}()
}

// Cancel stops the task under key. It reports whether a task was found.
func (r *TaskRegistry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[key]
	if !ok {
		return false
	}
	t.cancel()
	delete(r.tasks, key)
	return true
}

// CancelAll stops every task and returns how many were running.
func (r *TaskRegistry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.tasks)
	for key, t := range r.tasks {
		t.cancel()
		delete(r.tasks, key)
	}
	return n
}

// Has reports whether a task is scheduled under key.
func (r *TaskRegistry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[key]
	return ok
}

// Len returns the number of scheduled tasks.
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
