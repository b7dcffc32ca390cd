package audio

import (
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func ramp(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i%100) / 100
	}
	return s
}

func newTestRecorder(t *testing.T, ctx *FakeContext) (*Recorder, *FakeCapture) {
	t.Helper()
	dev, err := ctx.NewCapture(nil, CaptureConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return NewRecorder(dev), dev.(*FakeCapture)
}

func TestRecorderCapturesFixtureInOrder(t *testing.T) {
	samples := ramp(3200) // two chunks
	rec, _ := newTestRecorder(t, NewFakeSamples(samples, false))

	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	got, err := rec.Stop(200 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Acked {
		t.Error("stop was not acknowledged")
	}
	if !slices.Equal(got.Samples, samples) {
		t.Fatalf("got %d samples, want the %d fixture samples in order", len(got.Samples), len(samples))
	}
}

func TestRecorderPadsLastChunk(t *testing.T) {
	rec, _ := newTestRecorder(t, NewFakeSamples(ramp(2000), false))
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	got, _ := rec.Stop(200 * time.Millisecond)
	if len(got.Samples) != 3200 {
		t.Fatalf("got %d samples, want 3200", len(got.Samples))
	}
}

func TestRecorderIgnoresChunksOutsideSession(t *testing.T) {
	rec, dev := newTestRecorder(t, NewFakeSamples(nil, false))

	dev.Feed([]float32{9, 9})
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Feed([]float32{1, 2})
	dev.Feed([]float32{3})
	got, err := rec.Stop(200 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	dev.Feed([]float32{7})

	if !slices.Equal(got.Samples, []float32{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got.Samples)
	}
}

func TestRecorderGraceBoundsSlowStop(t *testing.T) {
	ctx := NewFakeSamples(nil, false)
	ctx.StopDelay = 500 * time.Millisecond
	rec, dev := newTestRecorder(t, ctx)

	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Feed([]float32{1})

	start := time.Now()
	got, err := rec.Stop(50 * time.Millisecond)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if got.Acked {
		t.Error("expected an unacknowledged stop")
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("Stop blocked for %v", elapsed)
	}
	if !slices.Equal(got.Samples, []float32{1}) {
		t.Errorf("got %v", got.Samples)
	}

	// A press while the device is still stopping waits at most the grace.
	start = time.Now()
	err = rec.Start()
	elapsed = time.Since(start)
	var devErr *DeviceError
	if !errors.As(err, &devErr) || !errors.Is(err, ErrStopPending) {
		t.Fatalf("Start during slow stop err = %v, want ErrStopPending", err)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("Start blocked for %v", elapsed)
	}
	if rec.Recording() {
		t.Error("recording flag set after refused start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for dev.Stops() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("slow stop never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("Start after the stop finished: %v", err)
	}
	rec.Abort()
}

func TestRecorderKeepsChunkInFlightAtStop(t *testing.T) {
	ctx := NewFakeSamples(nil, false)
	ctx.StopDelay = 100 * time.Millisecond
	rec, dev := newTestRecorder(t, ctx)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	var admitted atomic.Int32
	rec.admitted = func() {
		if admitted.Add(1) == 3 {
			close(inFlight)
			<-release
		}
	}

	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Feed([]float32{1, 2})
	dev.Feed([]float32{3})
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		dev.Feed([]float32{4, 5})
	}()
	<-inFlight

	// The chunk passed the recording check before Stop; it lands during the
	// grace wait.
	go func() {
		time.Sleep(30 * time.Millisecond)
		close(release)
	}()
	got, err := rec.Stop(200 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	<-fed
	if !got.Acked {
		t.Error("expected the stop to be acknowledged within the grace")
	}
	if want := []float32{1, 2, 3, 4, 5}; !slices.Equal(got.Samples, want) {
		t.Fatalf("got %v, want %v", got.Samples, want)
	}
}

func TestRecorderErrDuringSession(t *testing.T) {
	ctx := NewFakeSamples(ramp(1600), false)
	ctx.StreamErr = errors.New("unplugged")
	rec, _ := newTestRecorder(t, ctx)

	if err := rec.Err(); err != nil {
		t.Fatalf("Err while idle = %v", err)
	}
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	var devErr *DeviceError
	if err := rec.Err(); !errors.As(err, &devErr) || devErr.Op != "stream" {
		t.Fatalf("Err during session = %v, want stream *DeviceError", err)
	}
	rec.Abort()
	if err := rec.Err(); err != nil {
		t.Fatalf("Err after abort = %v", err)
	}
}

func TestRecorderStopIsIdempotent(t *testing.T) {
	rec, dev := newTestRecorder(t, NewFakeSamples(ramp(1600), false))

	if got, err := rec.Stop(time.Millisecond); err != nil || len(got.Samples) != 0 {
		t.Fatalf("Stop before Start = %v, %v", got, err)
	}
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	if err := rec.Start(); !errors.Is(err, ErrRecording) {
		t.Fatalf("second Start err = %v, want ErrRecording", err)
	}
	rec.Stop(time.Second)
	rec.Stop(time.Second)
	if dev.Stops() != 1 {
		t.Fatalf("device stopped %d times, want 1", dev.Stops())
	}
}

func TestRecorderStartFailure(t *testing.T) {
	ctx := NewFakeSamples(nil, false)
	ctx.StartErr = errors.New("device busy")
	rec, _ := newTestRecorder(t, ctx)

	err := rec.Start()
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Start err = %v, want *DeviceError", err)
	}
	if rec.Recording() {
		t.Fatal("recording flag left set after failed start")
	}
}

func TestRecorderStreamFailure(t *testing.T) {
	ctx := NewFakeSamples(ramp(1600), false)
	ctx.StreamErr = errors.New("unplugged")
	rec, _ := newTestRecorder(t, ctx)

	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	_, err := rec.Stop(100 * time.Millisecond)
	var devErr *DeviceError
	if !errors.As(err, &devErr) || devErr.Op != "stream" {
		t.Fatalf("Stop err = %v, want stream *DeviceError", err)
	}
}

func TestFakeRealtimeSignalsAudioDone(t *testing.T) {
	ctx := NewFakeSamples(ramp(1600), true)
	dev, err := ctx.NewCapture(nil, CaptureConfig{ChunkDuration: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	fc := dev.(*FakeCapture)
	rec := NewRecorder(dev)
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fc.AudioDone():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fixture playback")
	}
	got, _ := rec.Stop(time.Second)
	if len(got.Samples) < 1600 {
		t.Fatalf("got %d samples, want at least 1600", len(got.Samples))
	}
}
