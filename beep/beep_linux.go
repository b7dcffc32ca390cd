//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"

	"murmur/log"
)

// pulseOutput opens a short-lived playback stream per cue. Cues that arrive
// while one is playing wait their turn.
type pulseOutput struct {
	mu sync.Mutex
}

func newOutput() output { return &pulseOutput{} }

func (o *pulseOutput) play(samples []float32) {
	go o.playSync(samples)
}

func (o *pulseOutput) playSync(samples []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, err := pulse.NewClient(pulse.ClientApplicationName("murmur"))
	if err != nil {
		log.Warnf("beep: pulse client: %v", err)
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		log.Warnf("beep: pulse playback: %v", err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func (o *pulseOutput) close() {}
