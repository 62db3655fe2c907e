package hotkey

import (
	"sync"
	"time"
)

// Fake is a Source driven by the caller. It can be reused across
// Reconfigure, and records every key it was created for.
type Fake struct {
	events chan Edge

	mu       sync.Mutex
	keys     []Key
	running  bool
	StartErr error
}

func NewFake() *Fake {
	return &Fake{events: make(chan Edge, 16)}
}

func (f *Fake) Factory(k Key) (Source, error) {
	f.mu.Lock()
	f.keys = append(f.keys, k)
	f.mu.Unlock()
	return f, nil
}

func (f *Fake) Start() error {
	if f.StartErr != nil {
		return f.StartErr
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *Fake) Events() <-chan Edge { return f.events }

func (f *Fake) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Keys lists the keys passed to Factory, oldest first.
func (f *Fake) Keys() []Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Key(nil), f.keys...)
}

func (f *Fake) Down(at time.Time) { f.events <- Edge{Down: true, At: at} }
func (f *Fake) Up(at time.Time)   { f.events <- Edge{Down: false, At: at} }
