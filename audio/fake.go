package audio

import (
	"errors"
	"os"
	"sync"
	"time"

	"voiceptt/encoder"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays a fixed PCM buffer to every capture it creates. With
// no buffer it feeds nothing, which models a microphone that never delivers.
type FakeContext struct {
	Devs     []DeviceInfo
	OpenErr  error
	StartErr error

	pcm      []byte
	realtime bool

	mu       sync.Mutex
	captures int
}

// NewFakeContext loads PCM from a WAV file. An empty path gives a context
// with no audio.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	f := &FakeContext{
		Devs:     []DeviceInfo{{Index: 0, ID: "fake-0", Name: "Fake Microphone", InputChannels: 1}},
		realtime: realtime,
	}
	if wavPath == "" {
		return f, nil
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > encoder.WAVHeaderSize {
		data = data[encoder.WAVHeaderSize:]
	}
	f.pcm = data
	return f, nil
}

// NewFakeContextPCM feeds raw S16LE mono samples.
func NewFakeContextPCM(pcm []byte, devices ...DeviceInfo) *FakeContext {
	return &FakeContext{Devs: devices, pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.Devs, nil }
func (f *FakeContext) Close()                         {}

// Captures reports how many capture streams were created.
func (f *FakeContext) Captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.mu.Lock()
	f.captures++
	f.mu.Unlock()
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, startErr: f.StartErr}, nil
}

type FakeCapture struct {
	pcm      []byte
	realtime bool
	startErr error

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

var errAlreadyStarted = errors.New("fake capture already started")

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	if f.stopCh != nil {
		return errAlreadyStarted
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	// Instant mode delivers everything before Start returns.
	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		close(f.feedDone)
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(encoder.SampleRate)
	go func() {
		defer close(f.feedDone)
		pos := 0
		for pos < len(f.pcm) {
			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
			if cb := f.callback(); cb != nil {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		<-f.stopCh
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {}
