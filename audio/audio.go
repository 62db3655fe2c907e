package audio

import (
	"fmt"
	"strings"
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	Index         int    // position in the enumeration, persisted in settings
	ID            string // opaque platform-specific identifier
	Name          string
	InputChannels int
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// DeviceError means the input device could not be opened.
type DeviceError struct {
	Device int
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("input device %d: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// InputDevices keeps devices that can record.
func InputDevices(devices []DeviceInfo) []DeviceInfo {
	var out []DeviceInfo
	for _, d := range devices {
		if d.InputChannels > 0 {
			out = append(out, d)
		}
	}
	return out
}

// FindDevice returns the device with the given enumeration index.
func FindDevice(devices []DeviceInfo, index int) (*DeviceInfo, bool) {
	for i := range devices {
		if devices[i].Index == index {
			return &devices[i], true
		}
	}
	return nil, false
}

const maxNameLen = 30

// DisplayName shortens long device names for menus.
func DisplayName(name string) string {
	r := []rune(name)
	if len(r) <= maxNameLen {
		return name
	}
	return string(r[:maxNameLen]) + "..."
}
