package catalog

import "sync"

// Handler receives the result of a product request.
type Handler func(Product, error)

// Task is the handle for one outstanding product request. Releasing it drops
// interest in the result: the handler will not be started afterwards. A
// handler already running is not waited for.
type Task struct {
	mu       sync.Mutex
	handler  Handler
	done     chan struct{}
	finished bool
}

// NewTask returns a pending task that delivers its result to handler.
func NewTask(handler Handler) *Task {
	return &Task{handler: handler, done: make(chan struct{})}
}

// Complete delivers the result. Only the first call on an unreleased task
// reaches the handler.
func (t *Task) Complete(p Product, err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	handler := t.handler
	t.handler = nil
	t.mu.Unlock()

	if handler != nil {
		handler(p, err)
	}
	close(t.done)
}

// Release drops interest in the result. It never blocks.
func (t *Task) Release() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	t.handler = nil
	close(t.done)
}

// Done is closed once the handler has returned or the task was released.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
