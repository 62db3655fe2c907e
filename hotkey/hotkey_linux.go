//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// evdev key codes from linux/input-event-codes.h
var evdevCodes = map[Key]uint16{
	CmdL:  125, // KEY_LEFTMETA
	CmdR:  126, // KEY_RIGHTMETA
	AltL:  56,  // KEY_LEFTALT
	AltR:  100, // KEY_RIGHTALT
	CtrlL: 29,  // KEY_LEFTCTRL
	CtrlR: 97,  // KEY_RIGHTCTRL
}

const inputEventSize = 24

type evdevSource struct {
	code   uint16
	events chan Edge
	files  []*os.File
	stop   chan struct{}
	once   sync.Once
}

// NewSource watches every keyboard under /dev/input for key.
func NewSource(key Key) (Source, error) {
	code, ok := evdevCodes[key]
	if !ok {
		return nil, fmt.Errorf("unknown hotkey %q", key)
	}
	return &evdevSource{code: code, events: make(chan Edge, 16)}, nil
}

func (h *evdevSource) Start() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (h *evdevSource) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	held := false

	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey || evCode != h.code {
				continue
			}

			// value 2 is autorepeat
			var edge Edge
			switch {
			case evValue == keyPress && !held:
				held = true
				edge = Edge{Down: true, At: time.Now()}
			case evValue == keyRelease && held:
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
}

func (h *evdevSource) Stop() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevSource) Events() <-chan Edge {
	return h.events
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose reports whether a keyboard can be opened, for the -setup screen.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
}
