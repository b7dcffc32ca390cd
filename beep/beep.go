// Package beep plays short synthesized cues for recording transitions.
package beep

import (
	"math"
	"sync/atomic"
)

const sampleRate = 44100

type Cue int

const (
	Start  Cue = iota // recording began
	Stop              // recording ended, processing
	Reject            // nothing to transcribe
	Error             // session failed
)

type tone struct {
	freq     float64
	volume   float64
	decay    float64
	duration float64
	repeat   int     // extra copies after the first
	gap      float64 // seconds between copies
}

var tones = map[Cue]tone{
	Start:  {freq: 1200, volume: 0.5, decay: 60, duration: 0.2},
	Stop:   {freq: 900, volume: 0.5, decay: 40, duration: 0.2},
	Reject: {freq: 600, volume: 0.4, decay: 50, duration: 0.12},
	Error:  {freq: 350, volume: 0.6, decay: 30, duration: 0.08, repeat: 1, gap: 0.05},
}

// render builds mono samples for t at the given rate.
func render(t tone, rate int) []float32 {
	n := int(float64(rate) * t.duration)
	gap := int(float64(rate) * t.gap)
	out := make([]float32, 0, n*(t.repeat+1)+gap*t.repeat)
	for r := 0; r <= t.repeat; r++ {
		if r > 0 {
			out = append(out, make([]float32, gap)...)
		}
		for i := 0; i < n; i++ {
			x := float64(i) / float64(rate)
			env := math.Exp(-x * t.decay)
			out = append(out, float32(math.Sin(2*math.Pi*t.freq*x)*t.volume*env))
		}
	}
	return out
}

// Player plays cues without blocking the caller. The zero value is unusable;
// use New.
type Player struct {
	enabled atomic.Bool
	out     output
	samples map[Cue][]float32
}

func New(enabled bool) *Player {
	p := &Player{samples: make(map[Cue][]float32, len(tones))}
	for c, t := range tones {
		p.samples[c] = render(t, sampleRate)
	}
	p.enabled.Store(enabled)
	if enabled {
		p.out = newOutput()
	}
	return p
}

func (p *Player) Enabled() bool { return p.enabled.Load() && p.out != nil }

func (p *Player) Play(c Cue) {
	if !p.Enabled() {
		return
	}
	p.out.play(p.samples[c])
}

func (p *Player) Close() {
	p.enabled.Store(false)
	if p.out != nil {
		p.out.close()
	}
}

type output interface {
	play(samples []float32)
	close()
}
