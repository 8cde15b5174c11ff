// Package component runs stateful views on their own message loop so that
// every state change of an instance happens on a single goroutine.
package component

import (
	"context"
	"errors"
	"html/template"
	"sync"
	"sync/atomic"
)

// ErrUnmounted is returned for work submitted to a scope that has stopped.
var ErrUnmounted = errors.New("component: unmounted")

// Component is a view driven by messages.
type Component[M any] interface {
	// Update applies msg and reports whether the view should re-render.
	Update(msg M) bool
	// View renders the current state. It must not mutate state.
	View() (template.HTML, error)
}

// Destroyer is implemented by components that hold resources until unmount.
type Destroyer interface {
	Destroy()
}

// Link lets a component and its collaborators post messages back to the
// component's own loop.
type Link[M any] struct {
	send func(M)
}

// SendMessage queues msg for the owning instance. Messages sent after
// unmount are dropped.
func (l Link[M]) SendMessage(msg M) {
	if l.send != nil {
		l.send(msg)
	}
}

type envelope[M any, C any] struct {
	msg   M
	fn    func(C)
	reply chan error
}

// Scope owns one mounted component instance and its message loop.
type Scope[M any, C Component[M]] struct {
	mu      sync.Mutex
	backlog []envelope[M, C]
	closing bool

	notify  chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	comp    C
	renders atomic.Uint64
}

// Mount constructs the component with create and starts its loop. Messages
// sent from create are processed first, before any Do or Render call.
func Mount[M any, C Component[M]](create func(Link[M]) C) *Scope[M, C] {
	s := &Scope[M, C]{
		notify:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.comp = create(Link[M]{send: s.Send})
	go s.loop()
	return s
}

// Send queues msg without blocking.
func (s *Scope[M, C]) Send(msg M) {
	_ = s.enqueue(envelope[M, C]{msg: msg})
}

// Do runs fn on the loop, after every message queued before it.
func (s *Scope[M, C]) Do(ctx context.Context, fn func(C)) error {
	reply := make(chan error, 1)
	if err := s.enqueue(envelope[M, C]{fn: fn, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render returns the current view of the component.
func (s *Scope[M, C]) Render(ctx context.Context) (template.HTML, error) {
	type result struct {
		html template.HTML
		err  error
	}
	out := make(chan result, 1)
	if err := s.Do(ctx, func(c C) {
		html, err := c.View()
		out <- result{html: html, err: err}
	}); err != nil {
		return "", err
	}
	res := <-out
	return res.html, res.err
}

// Renders counts updates that asked for a re-render.
func (s *Scope[M, C]) Renders() uint64 {
	return s.renders.Load()
}

// Unmount stops the loop. Pending work is rejected with ErrUnmounted and the
// component is destroyed. Safe to call more than once and from the loop.
func (s *Scope[M, C]) Unmount() {
	s.once.Do(func() { close(s.quit) })
}

// Done is closed after the loop has stopped and the component was destroyed.
func (s *Scope[M, C]) Done() <-chan struct{} {
	return s.stopped
}

func (s *Scope[M, C]) enqueue(env envelope[M, C]) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrUnmounted
	}
	s.backlog = append(s.backlog, env)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scope[M, C]) next() (envelope[M, C], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.backlog) == 0 {
		return envelope[M, C]{}, false
	}
	env := s.backlog[0]
	s.backlog[0] = envelope[M, C]{}
	s.backlog = s.backlog[1:]
	return env, true
}

func (s *Scope[M, C]) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.quit:
			s.teardown()
			return
		default:
		}
		env, ok := s.next()
		if !ok {
			select {
			case <-s.quit:
				s.teardown()
				return
			case <-s.notify:
			}
			continue
		}
		s.handle(env)
	}
}

func (s *Scope[M, C]) handle(env envelope[M, C]) {
	if env.fn != nil {
		env.fn(s.comp)
		env.reply <- nil
		return
	}
	if s.comp.Update(env.msg) {
		s.renders.Add(1)
	}
}

func (s *Scope[M, C]) teardown() {
	s.mu.Lock()
	s.closing = true
	pending := s.backlog
	s.backlog = nil
	s.mu.Unlock()

	for _, env := range pending {
		if env.reply != nil {
			env.reply <- ErrUnmounted
		}
	}
	if d, ok := any(s.comp).(Destroyer); ok {
		d.Destroy()
	}
}
