// Package shutdown wires termination signals and collects close errors.
package shutdown

import (
	"context"
	"os/signal"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Context is cancelled on the first termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Stack runs close functions in reverse order of registration, once.
type Stack struct {
	mu   sync.Mutex
	fns  []namedCloser
	done bool
}

type namedCloser struct {
	name string
	fn   func() error
}

func (s *Stack) Push(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, namedCloser{name, fn})
}

// Close runs every registered function even when some fail and returns
// the combined error.
func (s *Stack) Close() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()

	var result *multierror.Error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i].fn(); err != nil {
			result = multierror.Append(result, &closeError{name: fns[i].name, err: err})
		}
	}
	return result.ErrorOrNil()
}

type closeError struct {
	name string
	err  error
}

func (e *closeError) Error() string { return e.name + ": " + e.err.Error() }
func (e *closeError) Unwrap() error { return e.err }
