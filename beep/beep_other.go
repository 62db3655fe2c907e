//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type output struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	// read by the device callback
	samples atomic.Pointer[[]byte]
	pos     atomic.Uint32
	mu      sync.Mutex
}

func newOutput() (*output, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	o := &output{ctx: ctx}
	if err := o.initDevice(); err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, err
	}
	return o, nil
}

func (o *output) initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	device, err := malgo.InitDevice(o.ctx.Context, config, malgo.DeviceCallbacks{Data: o.dataCallback})
	if err != nil {
		return err
	}
	o.device = device
	return nil
}

func (o *output) dataCallback(pOutput, _ []byte, frameCount uint32) {
	samples := o.samples.Load()
	if samples == nil {
		clear(pOutput)
		return
	}

	pos := o.pos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		o.samples.Store(nil)
		clear(pOutput)
		return
	}

	n := min(frameCount*2, remaining)
	copy(pOutput[:n], (*samples)[pos:pos+n])
	o.pos.Store(pos + n)
	clear(pOutput[n:])
}

func (o *output) play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.device.Stop()
	o.pos.Store(0)
	o.samples.Store(&buf)

	if err := o.device.Start(); err != nil {
		// recreate after sleep/wake
		o.device.Uninit()
		if err := o.initDevice(); err != nil {
			o.samples.Store(nil)
			return
		}
		if err := o.device.Start(); err != nil {
			o.samples.Store(nil)
		}
	}
}

func (o *output) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.device != nil {
		o.device.Uninit()
	}
	o.ctx.Uninit()
	o.ctx.Free()
}
