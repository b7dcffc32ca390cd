//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("murmur"))
	if err != nil {
		return nil, &DeviceError{Op: "connect", Err: fmt.Errorf("pulse: %w", err)}
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sources {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

// DefaultDevice returns the server's default source.
func (p *pulseContext) DefaultDevice() (*DeviceInfo, error) {
	s, err := p.client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("pulse default source: %w", err)
	}
	return &DeviceInfo{ID: s.ID(), Name: s.Name()}, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	config = config.withDefaults()
	return &pulseCapture{
		client:  p.client,
		device:  device,
		config:  config,
		chunker: newChunker(config.ChunkFrames()),
	}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client   *pulse.Client
	device   *DeviceInfo
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]
	chunker  *chunker

	mu     sync.Mutex
	stream atomic.Pointer[pulse.RecordStream]
	stop   chan struct{}
	done   chan struct{}
	err    atomic.Pointer[error]
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err.Store(nil)
	c.chunker.reset()

	// The writer runs on the pulse client's goroutine; only the chunker and
	// the callback pointer are touched here.
	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		var emit DataCallback
		if cb := c.callback.Load(); cb != nil {
			emit = *cb
		}
		c.chunker.write(buf, emit)
		return len(buf), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(c.config.SampleRate)),
		pulse.RecordLatency(0.05),
		pulse.RecordMediaName("murmur dictation"),
	}
	if c.device != nil {
		source, err := c.client.SourceByID(c.device.ID)
		if err != nil {
			return fmt.Errorf("pulse source %q: %w", c.device.Name, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	stream, err := c.client.NewRecord(writer, opts...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", err)
	}

	c.stream.Store(stream)
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		stream.Start()
		<-c.stop
		stream.Stop()
		if err := stream.Error(); err != nil {
			c.err.Store(&err)
		}
		stream.Close()
	}()

	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		select {
		case <-c.stop:
		default:
			close(c.stop)
		}
		<-c.done
	}
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *pulseCapture) Err() error {
	if p := c.err.Load(); p != nil {
		return *p
	}
	if stream := c.stream.Load(); stream != nil {
		return stream.Error()
	}
	return nil
}

func (c *pulseCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
