package hotkey

import (
	"sync"
	"time"
)

// MinHold is the shortest press that counts as a recording.
const MinHold = 100 * time.Millisecond

// Gate is consulted on every edge. AcceptPress reports whether a new
// recording may start; Recording reports whether one is in progress.
type Gate interface {
	AcceptPress() bool
	Recording() bool
}

type Release struct {
	Committed bool
	Elapsed   time.Duration
}

type Handler interface {
	Pressed(at time.Time)
	Released(r Release)
}

// Monitor turns raw key edges into press/release calls on a Handler. All
// handler calls happen on the monitor's event goroutine.
type Monitor struct {
	factory Factory
	gate    Gate
	handler Handler
	now     func() time.Time

	mu   sync.Mutex
	key  Key
	src  Source
	quit chan struct{}
	done chan struct{}

	// owned by the event goroutine
	held    bool
	pressed bool
	pressAt time.Time
}

func NewMonitor(key Key, factory Factory, gate Gate, handler Handler) *Monitor {
	return &Monitor{
		key:     key,
		factory: factory,
		gate:    gate,
		handler: handler,
		now:     time.Now,
	}
}

func (m *Monitor) Key() Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *Monitor) startLocked() error {
	if m.src != nil {
		return nil
	}
	src, err := m.factory(m.key)
	if err != nil {
		return err
	}
	if err := src.Start(); err != nil {
		return err
	}
	m.src = src
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.held, m.pressed = false, false
	go m.run(src.Events(), m.quit, m.done)
	return nil
}

// Reconfigure switches to a new key. The old source is stopped and its
// goroutine has exited before the new source starts.
func (m *Monitor) Reconfigure(key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	running := m.src != nil
	m.stopLocked()
	m.key = key
	if !running {
		return nil
	}
	return m.startLocked()
}

// Stop releases the OS subscription. No handler call happens after Stop
// returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.src == nil {
		return
	}
	close(m.quit)
	m.src.Stop()
	<-m.done
	m.src = nil
}

func (m *Monitor) run(events <-chan Edge, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			select {
			case <-quit:
				return
			default:
			}
			m.handle(e)
		}
	}
}

func (m *Monitor) handle(e Edge) {
	at := e.At
	if at.IsZero() {
		at = m.now()
	}

	if e.Down {
		// key repeat
		if m.held {
			return
		}
		m.held = true
		if !m.gate.AcceptPress() {
			return
		}
		m.pressed = true
		m.pressAt = at
		m.handler.Pressed(at)
		return
	}

	if !m.held {
		return
	}
	m.held = false
	if !m.pressed {
		return
	}
	m.pressed = false
	if !m.gate.Recording() {
		return
	}
	elapsed := at.Sub(m.pressAt)
	m.handler.Released(Release{Committed: elapsed >= MinHold, Elapsed: elapsed})
}
