package audio

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultSampleRate = 16000
	DefaultChunk      = 100 * time.Millisecond
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether the input is a headset
// running over a bluetooth hands-free profile.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives one fixed-size chunk of mono samples in [-1, 1].
// The slice is only valid for the duration of the call.
type DataCallback func(chunk []float32)

type CaptureConfig struct {
	SampleRate    uint32
	ChunkDuration time.Duration
}

func (c CaptureConfig) withDefaults() CaptureConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = DefaultChunk
	}
	return c
}

// ChunkFrames is the number of samples delivered per callback.
func (c CaptureConfig) ChunkFrames() int {
	c = c.withDefaults()
	return int(time.Duration(c.SampleRate) * c.ChunkDuration / time.Second)
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	// Stop halts delivery. Safe to call more than once or before Start.
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
	// Err reports a failure the stream hit after Start returned.
	Err() error
}

// FindDevice returns the device whose name or ID equals name.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, &DeviceError{Op: "enumerate", Err: err}
	}
	for i := range devices {
		if devices[i].Name == name || devices[i].ID == name {
			return &devices[i], nil
		}
	}
	return nil, &DeviceError{Op: "find", Err: fmt.Errorf("no input device named %q", name)}
}

type defaultDevicer interface {
	DefaultDevice() (*DeviceInfo, error)
}

// DefaultDevice returns the backend's default input, when it can tell.
func DefaultDevice(ctx Context) (*DeviceInfo, error) {
	d, ok := ctx.(defaultDevicer)
	if !ok {
		return nil, fmt.Errorf("backend cannot report a default device")
	}
	return d.DefaultDevice()
}
