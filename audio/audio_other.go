//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &DeviceError{Op: "connect", Err: err}
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) DefaultDevice() (*DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	for _, d := range devices {
		if d.IsDefault != 0 {
			return &DeviceInfo{ID: hex.EncodeToString(d.ID.Pointer()[:]), Name: d.Name()}, nil
		}
	}
	return nil, errors.New("no default capture device")
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	config = config.withDefaults()
	c := &malgoCapture{device: device, chunker: newChunker(config.ChunkFrames())}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = config.SampleRate
	deviceConfig.PeriodSizeInFrames = uint32(config.ChunkFrames())

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			c.onData(data, frameCount)
		},
		Stop: func() {
			if !c.stopping.Load() {
				err := errors.New("capture stopped by the backend")
				c.err.Store(&err)
			}
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: err}
	}
	c.dev = dev
	return c, nil
}

func (m *malgoContext) Close() {
	_ = m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	dev      *malgo.Device
	device   *DeviceInfo
	callback atomic.Pointer[DataCallback]
	chunker  *chunker
	scratch  []float32

	mu       sync.Mutex
	started  bool
	stopping atomic.Bool
	err      atomic.Pointer[error]
}

func (c *malgoCapture) onData(data []byte, frameCount uint32) {
	n := int(frameCount)
	if len(data) < n*4 {
		n = len(data) / 4
	}
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	samples := c.scratch[:n]
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	var emit DataCallback
	if cb := c.callback.Load(); cb != nil {
		emit = *cb
	}
	c.chunker.write(samples, emit)
}

func (c *malgoCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err.Store(nil)
	c.stopping.Store(false)
	c.chunker.reset()
	if err := c.dev.Start(); err != nil {
		return err
	}
	c.started = true
	return nil
}

func (c *malgoCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.stopping.Store(true)
	_ = c.dev.Stop()
	c.started = false
}

func (c *malgoCapture) Close() {
	c.Stop()
	c.dev.Uninit()
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *malgoCapture) Err() error {
	if p := c.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *malgoCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
