package encoder

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/mewkiz/flac"
)

func sine(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return s
}

func TestFlacRoundTrip(t *testing.T) {
	samples := sine(BlockSize*2 + 100)
	enc, err := NewFlac(16000)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	data, err := Encode(enc, samples)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("flac.New: %v", err)
	}
	defer stream.Close()
	if stream.Info.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", stream.Info.SampleRate)
	}

	want := PCM16(samples)
	var got []int32
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ParseNext: %v", err)
		}
		got = append(got, f.Subframes[0].Samples...)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != int32(want[i]) {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac(16000)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	data, err := Encode(enc, nil)
	if err != nil {
		t.Fatalf("Encode on empty input: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(data) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestPCM16Clips(t *testing.T) {
	got := PCM16([]float32{0, 1, -1, 2, -2, 0.5})
	want := []int16{0, 32767, -32767, 32767, -32768, 16384}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PCM16[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
