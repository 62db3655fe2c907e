//go:build !linux

package hotkey

import (
	"fmt"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// libuiohook virtual key codes
var vcCodes = map[Key]uint16{
	CmdL:  0x0E5B,
	CmdR:  0x0E5C,
	AltL:  0x0038,
	AltR:  0x0E38,
	CtrlL: 0x001D,
	CtrlR: 0x0E1D,
}

type hookSource struct {
	code   uint16
	events chan Edge
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewSource installs a global keyboard hook filtered on key. Only one hook
// may run at a time.
func NewSource(key Key) (Source, error) {
	code, ok := vcCodes[key]
	if !ok {
		return nil, fmt.Errorf("unknown hotkey %q", key)
	}
	return &hookSource{code: code, events: make(chan Edge, 16)}, nil
}

func (h *hookSource) Start() error {
	raw := hook.Start()
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go h.readEvents(raw)
	return nil
}

func (h *hookSource) readEvents(raw chan hook.Event) {
	defer close(h.done)
	held := false
	for {
		var ev hook.Event
		select {
		case <-h.stop:
			return
		case e, ok := <-raw:
			if !ok {
				return
			}
			ev = e
		}
		if ev.Keycode != h.code {
			continue
		}

		var edge Edge
		switch {
		case (ev.Kind == hook.KeyHold || ev.Kind == hook.KeyDown) && !held:
			held = true
			edge = Edge{Down: true, At: time.Now()}
		case ev.Kind == hook.KeyUp && held:
			held = false
			edge = Edge{Down: false, At: time.Now()}
		default:
			continue
		}

		select {
		case h.events <- edge:
		case <-h.stop:
			return
		}
	}
}

func (h *hookSource) Stop() {
	h.once.Do(func() {
		if h.stop == nil {
			return
		}
		close(h.stop)
		hook.End()
		<-h.done
	})
}

func (h *hookSource) Events() <-chan Edge {
	return h.events
}

func Diagnose() (string, error) {
	return "global key hook available (grant Accessibility/Input Monitoring if keys are not seen)", nil
}
