package ptt

import (
	"math"
	"slices"
	"testing"
)

func constant(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestValidateThresholds(t *testing.T) {
	withPeak := func(n int, base, peak float32) []float32 {
		s := constant(n, base)
		s[n/2] = peak
		return s
	}
	tests := []struct {
		name    string
		samples []float32
		want    Rejection
	}{
		{"empty", nil, RejectTooShort},
		{"just under min duration", constant(3199, 0.5), RejectTooShort},
		{"exactly min duration", constant(3200, 0.5), Accepted},
		{"all zero", make([]float32, 16000), RejectSilence},
		{"quiet and low peak", withPeak(8000, 0.0005, 0.005), RejectSilence},
		{"quiet with a click above peak floor", withPeak(8000, 0.0005, 0.011), Accepted},
		{"low peak but steady energy", constant(8000, 0.002), Accepted},
		{"speech level", constant(16000, 0.3), Accepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Validate(tt.samples, 16000)
			if got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateStats(t *testing.T) {
	s := make([]float32, 16000)
	for i := range s {
		if i%2 == 0 {
			s[i] = 0.25
		} else {
			s[i] = -0.25
		}
	}
	s[100] = -0.5

	got, rej := Validate(s, 16000)
	if rej != Accepted {
		t.Fatalf("rejected: %v", rej)
	}
	if got.Duration != 1.0 {
		t.Errorf("Duration = %v, want 1", got.Duration)
	}
	if got.Peak != 0.5 {
		t.Errorf("Peak = %v, want 0.5", got.Peak)
	}
	if math.Abs(got.RMS-0.25) > 1e-3 {
		t.Errorf("RMS = %v, want ~0.25", got.RMS)
	}
}

func TestValidateNormalizes(t *testing.T) {
	in := constant(16000, 0.1)
	in[10] = 0.5
	orig := slices.Clone(in)

	got, rej := Validate(in, 16000)
	if rej != Accepted {
		t.Fatalf("rejected: %v", rej)
	}
	if got.Samples[10] != 1 {
		t.Errorf("peak sample = %v, want 1", got.Samples[10])
	}
	if math.Abs(float64(got.Samples[0])-0.2) > 1e-6 {
		t.Errorf("sample 0 = %v, want 0.2", got.Samples[0])
	}
	if !slices.Equal(in, orig) {
		t.Error("Validate modified its input")
	}
}

func TestValidateNegativePeak(t *testing.T) {
	in := constant(16000, 0.1)
	in[0] = -0.8
	got, _ := Validate(in, 16000)
	if got.Samples[0] != -1 {
		t.Fatalf("sample 0 = %v, want -1", got.Samples[0])
	}
}

func TestNormalizationIdempotent(t *testing.T) {
	in := make([]float32, 16000)
	for i := range in {
		in[i] = float32(0.37 * math.Sin(float64(i)/7))
	}
	first, _ := Validate(in, 16000)
	second, _ := Validate(first.Samples, 16000)
	if !slices.Equal(first.Samples, second.Samples) {
		t.Fatal("normalizing twice changed the samples")
	}
}

func TestValidateDeterministic(t *testing.T) {
	in := constant(8000, 0.03)
	a, ra := Validate(in, 16000)
	b, rb := Validate(in, 16000)
	if ra != rb || a.RMS != b.RMS || a.Peak != b.Peak || !slices.Equal(a.Samples, b.Samples) {
		t.Fatal("Validate is not deterministic")
	}
}
