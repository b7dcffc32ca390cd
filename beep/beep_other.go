//go:build !linux

package beep

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"murmur/log"
)

// malgoOutput keeps one playback device and swaps the active sample slice
// into its callback.
type malgoOutput struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	samples atomic.Pointer[[]float32]
	pos     atomic.Uint32
}

func newOutput() output {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: audio context: %v", err)
		return nil
	}
	o := &malgoOutput{ctx: ctx}
	if err := o.initDevice(); err != nil {
		log.Warnf("beep: playback device: %v", err)
		_ = ctx.Uninit()
		ctx.Free()
		return nil
	}
	return o
}

func (o *malgoOutput) initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	dev, err := malgo.InitDevice(o.ctx.Context, config, malgo.DeviceCallbacks{Data: o.onData})
	if err != nil {
		return err
	}
	o.device = dev
	return nil
}

func (o *malgoOutput) onData(out, _ []byte, frameCount uint32) {
	clear(out)
	sp := o.samples.Load()
	if sp == nil {
		return
	}
	samples := *sp
	pos := o.pos.Load()
	n := min(frameCount, uint32(len(samples))-pos)
	for i := uint32(0); i < n; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(samples[pos+i]))
	}
	o.pos.Store(pos + n)
	if pos+n >= uint32(len(samples)) {
		o.samples.Store(nil)
	}
}

func (o *malgoOutput) play(samples []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_ = o.device.Stop()
	o.pos.Store(0)
	o.samples.Store(&samples)

	if err := o.device.Start(); err != nil {
		// The device goes stale across sleep/wake on macOS.
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

func (o *malgoOutput) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.device.Uninit()
	_ = o.ctx.Uninit()
	o.ctx.Free()
}
