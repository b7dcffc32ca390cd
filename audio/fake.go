package audio

import (
	"fmt"
	"sync"
	"time"
)

// FakeContext serves canned samples through FakeCapture devices. Set the
// exported fields before calling NewCapture.
type FakeContext struct {
	samples  []float32
	rate     uint32
	realtime bool

	StartErr  error         // returned by every Start
	StreamErr error         // reported by Err once started
	StopDelay time.Duration // added to every Stop before it returns

	mu   sync.Mutex
	last *FakeCapture
}

// NewFakeContext loads a WAV fixture. In realtime mode chunks are paced at
// the chunk interval and silence follows the fixture; otherwise the whole
// fixture is delivered inside Start.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	samples, rate, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{samples: samples, rate: rate, realtime: realtime}, nil
}

// NewFakeSamples serves samples instead of a fixture file.
func NewFakeSamples(samples []float32, realtime bool) *FakeContext {
	return &FakeContext{samples: samples, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) DefaultDevice() (*DeviceInfo, error) {
	return &DeviceInfo{ID: "fake", Name: "fake"}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	config = config.withDefaults()
	if f.rate != 0 && f.rate != config.SampleRate {
		return nil, fmt.Errorf("fixture sample rate %d, want %d", f.rate, config.SampleRate)
	}
	c := &FakeCapture{
		samples:   f.samples,
		chunk:     config.ChunkFrames(),
		interval:  config.ChunkDuration,
		realtime:  f.realtime,
		startErr:  f.StartErr,
		streamErr: f.StreamErr,
		stopDelay: f.StopDelay,
		audioDone: make(chan struct{}),
	}
	f.mu.Lock()
	f.last = c
	f.mu.Unlock()
	return c, nil
}

// Capture returns the most recently created device.
func (f *FakeContext) Capture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type FakeCapture struct {
	samples   []float32
	chunk     int
	interval  time.Duration
	realtime  bool
	startErr  error
	streamErr error
	stopDelay time.Duration

	mu        sync.Mutex
	cb        DataCallback
	running   bool
	starts    int
	stops     int
	audioDone chan struct{}
	stopCh    chan struct{}
	feedDone  chan struct{}
}

// AudioDone is closed once the fixture has been fully delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
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

func (f *FakeCapture) DeviceName() string { return "fake" }

// Feed delivers chunk through the callback as the device would.
func (f *FakeCapture) Feed(chunk []float32) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(chunk)
	}
}

// Starts and Stops count completed calls.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *FakeCapture) feedFixture(from int) int {
	end := min(from+f.chunk, len(f.samples))
	chunk := make([]float32, f.chunk)
	copy(chunk, f.samples[from:end])
	f.Feed(chunk)
	return end
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return f.startErr
	}
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.starts++
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	audioDone, stopCh, feedDone := f.audioDone, f.stopCh, f.feedDone
	f.mu.Unlock()

	if !f.realtime {
		for pos := 0; pos < len(f.samples); {
			pos = f.feedFixture(pos)
		}
		close(audioDone)
		close(feedDone)
		return nil
	}

	go func() {
		defer close(feedDone)
		silence := make([]float32, f.chunk)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		pos := 0
		finished := false
		for {
			if pos < len(f.samples) {
				pos = f.feedFixture(pos)
			} else {
				if !finished {
					finished = true
					close(audioDone)
				}
				f.Feed(silence)
			}
			select {
			case <-stopCh:
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	close(f.stopCh)
	feedDone := f.feedDone
	f.mu.Unlock()

	<-feedDone
	if f.stopDelay > 0 {
		time.Sleep(f.stopDelay)
	}

	f.mu.Lock()
	f.stops++
	f.audioDone = make(chan struct{}) // reset for replay
	f.mu.Unlock()
}

func (f *FakeCapture) Close() { f.Stop() }

func (f *FakeCapture) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.starts > 0 {
		return f.streamErr
	}
	return nil
}
