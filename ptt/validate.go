package ptt

import "math"

// Validation thresholds.
const (
	MinDuration = 0.2   // seconds
	SilenceRMS  = 0.001 // below this RMS and SilencePeak the take is silent
	SilencePeak = 0.01
)

// Rejection explains why a session produced nothing to type. Rejections are
// outcomes, not errors: the controller returns to Ready through a warning.
type Rejection int

const (
	Accepted Rejection = iota
	RejectTooShort
	RejectSilence
	RejectNoText
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectTooShort:
		return "too_short"
	case RejectSilence:
		return "silence"
	case RejectNoText:
		return "no_text"
	}
	return "unknown"
}

// Sample is a validated recording. Duration, RMS and Peak describe the
// signal before normalization.
type Sample struct {
	Samples  []float32
	Duration float64
	RMS      float64
	Peak     float64
}

// Validate measures samples and decides whether they are worth sending to
// the engine. Accepted samples are peak-normalized into a new slice; the
// input is never modified. Validate is pure.
func Validate(samples []float32, sampleRate int) (Sample, Rejection) {
	s := Sample{}
	if sampleRate > 0 {
		s.Duration = float64(len(samples)) / float64(sampleRate)
	}

	var sumSq float64
	for _, x := range samples {
		v := float64(x)
		sumSq += v * v
		s.Peak = max(s.Peak, math.Abs(v))
	}
	if len(samples) > 0 {
		s.RMS = math.Sqrt(sumSq / float64(len(samples)))
	}

	if s.Duration < MinDuration {
		return s, RejectTooShort
	}
	if s.RMS < SilenceRMS && s.Peak < SilencePeak {
		return s, RejectSilence
	}

	s.Samples = normalize(samples, s.Peak)
	return s, Accepted
}

// normalize scales samples so the loudest one is at full scale. Dividing
// rather than multiplying by the reciprocal keeps the peak at exactly 1,
// which makes a second pass a no-op.
func normalize(samples []float32, peak float64) []float32 {
	out := make([]float32, len(samples))
	if peak == 0 || peak == 1 {
		copy(out, samples)
		return out
	}
	for i, x := range samples {
		out[i] = float32(float64(x) / peak)
	}
	return out
}
