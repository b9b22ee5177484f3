// Package submit decides when a root's pending structural operations are
// flushed. Every implementation guarantees one flush per logical tick and
// never calls the flush re-entrantly.
package submit

import (
	"errors"
	"sync"
)

// FlushFunc applies all pending operations of the bound root.
type FlushFunc func() error

var (
	ErrUnbound      = errors.New("submit: scheduler not bound to a root")
	ErrAlreadyBound = errors.New("submit: scheduler already bound")
	ErrClosed       = errors.New("submit: scheduler closed")
	// ErrFlushSkipped is wrapped by a FlushFunc that returned without
	// touching the pending operations.
	ErrFlushSkipped = errors.New("submit: flush skipped")
)

// Scheduler is owned by the host loop and handed to exactly one root.
type Scheduler interface {
	// Bind is called once by the root taking ownership of the scheduler.
	Bind(flush FlushFunc) error
	// EndOfTick is called by the root after every engine has stepped.
	EndOfTick() error
	// Due reports whether a tick ended without its flush having run yet.
	Due() bool
	Close()
}

type binding struct {
	mu     sync.Mutex
	flush  FlushFunc
	closed bool
}

func (b *binding) Bind(flush FlushFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.flush != nil {
		return ErrAlreadyBound
	}
	b.flush = flush
	return nil
}

func (b *binding) fn() (FlushFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if b.flush == nil {
		return nil, ErrUnbound
	}
	return b.flush, nil
}

func (b *binding) Close() {
	b.mu.Lock()
	b.closed = true
	b.flush = nil
	b.mu.Unlock()
}

// Immediate flushes at the end of every tick.
type Immediate struct {
	binding
}

func NewImmediate() *Immediate { return &Immediate{} }

func (s *Immediate) EndOfTick() error {
	flush, err := s.fn()
	if err != nil {
		return err
	}
	return flush()
}

func (s *Immediate) Due() bool { return false }

// Pump defers the flush to an external trigger such as a frame pump. The
// tick end only marks a flush as due; Pump runs it.
type Pump struct {
	binding
	due bool
}

func NewPump() *Pump { return &Pump{} }

func (s *Pump) EndOfTick() error {
	if _, err := s.fn(); err != nil {
		return err
	}
	s.mu.Lock()
	s.due = true
	s.mu.Unlock()
	return nil
}

func (s *Pump) Due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.due
}

// Pump flushes if a tick has ended since the last flush and reports whether
// a flush ran. A skipped flush leaves the tick due.
func (s *Pump) Pump() (bool, error) {
	flush, err := s.fn()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	due := s.due
	s.mu.Unlock()
	if !due {
		return false, nil
	}
	err = flush()
	if errors.Is(err, ErrFlushSkipped) {
		return false, err
	}
	// a failed Apply still consumed the queue
	s.mu.Lock()
	s.due = false
	s.mu.Unlock()
	return true, err
}
