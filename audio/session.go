package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"voiceptt/encoder"
)

// Warmup is how long Open waits for the stream to settle before the first
// useful frame.
const Warmup = 100 * time.Millisecond

// Session is one press-to-release recording. Frames are appended by the
// backend callback only while the session is active.
type Session struct {
	ctx    Context
	cfg    CaptureConfig
	warmup time.Duration
	sleep  func(time.Duration)

	mu        sync.Mutex
	device    CaptureDevice
	active    bool
	startedAt time.Time
	frames    [][]byte
}

func NewSession(ctx Context, cfg CaptureConfig) *Session {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = encoder.SampleRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = encoder.Channels
	}
	return &Session{ctx: ctx, cfg: cfg, warmup: Warmup, sleep: time.Sleep}
}

// SetWarmup overrides the settle delay; tests use zero.
func (s *Session) SetWarmup(d time.Duration) { s.warmup = d }

// Open starts capturing from the device at index. Any failure leaves the
// session inactive and is reported as a *DeviceError.
func (s *Session) Open(index int) error {
	devices, err := s.ctx.Devices()
	if err != nil {
		return &DeviceError{Device: index, Err: err}
	}
	info, ok := FindDevice(devices, index)
	if !ok {
		return &DeviceError{Device: index, Err: fmt.Errorf("no input device at index %d", index)}
	}
	if info.InputChannels <= 0 {
		return &DeviceError{Device: index, Err: errors.New("device has no input channels")}
	}

	dev, err := s.ctx.NewCapture(info, s.cfg)
	if err != nil {
		return &DeviceError{Device: index, Err: err}
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		dev.Close()
		return &DeviceError{Device: index, Err: errors.New("session already open")}
	}
	s.frames = nil
	s.device = dev
	s.active = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	dev.SetCallback(s.onData)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		s.mu.Lock()
		s.device = nil
		s.active = false
		s.frames = nil
		s.mu.Unlock()
		return &DeviceError{Device: index, Err: err}
	}

	if s.warmup > 0 {
		s.sleep(s.warmup)
	}
	return nil
}

func (s *Session) onData(data []byte, _ uint32) {
	if len(data) == 0 {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)

	s.mu.Lock()
	if s.active {
		s.frames = append(s.frames, chunk)
	}
	s.mu.Unlock()
}

// Close stops the stream and hands the recorded frames to the caller. The
// session keeps no reference to them. Closing an inactive session returns nil.
func (s *Session) Close() [][]byte {
	s.mu.Lock()
	dev := s.device
	s.device = nil
	s.active = false
	frames := s.frames
	s.frames = nil
	s.mu.Unlock()

	if dev != nil {
		dev.ClearCallback()
		dev.Stop()
		dev.Close()
	}
	return frames
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartedAt is the time of the last successful Open.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Join concatenates frames in capture order.
func Join(frames [][]byte) []byte {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
