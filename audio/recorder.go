package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrRecording   = errors.New("recorder already running")
	ErrStopPending = errors.New("device still finishing the previous stop")
)

// defaultStartWait bounds how long Start waits for a slow previous stop when
// the last Stop gave no grace of its own.
const defaultStartWait = 200 * time.Millisecond

// Recording is the result of one capture session.
type Recording struct {
	Samples []float32
	// Acked is false when the device did not confirm the stop within the
	// grace wait and the buffer was sealed without it.
	Acked bool
}

// Recorder drives one CaptureDevice through start/stop sessions. The device
// callback only consults an atomic flag and the session Buffer; it never
// touches the caller's locks.
type Recorder struct {
	dev       CaptureDevice
	buf       Buffer
	recording atomic.Bool

	mu        sync.Mutex
	active    bool
	stopped   chan struct{} // closed once the last device stop returned
	startWait time.Duration

	// admitted runs after a chunk passed the recording check and before it
	// is buffered. Tests use it to hold a chunk in flight across Stop.
	admitted func()
}

func NewRecorder(dev CaptureDevice) *Recorder {
	r := &Recorder{dev: dev, startWait: defaultStartWait}
	dev.SetCallback(r.onChunk)
	return r
}

func (r *Recorder) onChunk(chunk []float32) {
	if !r.recording.Load() {
		return
	}
	if r.admitted != nil {
		r.admitted()
	}
	r.buf.Append(chunk)
}

// Start resets the buffer and starts capture. If the device is still
// finishing a previous stop, Start waits for it at most as long as that
// Stop's grace, then fails with ErrStopPending.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrRecording
	}
	if r.stopped != nil {
		timer := time.NewTimer(r.startWait)
		select {
		case <-r.stopped:
			timer.Stop()
			r.stopped = nil
		case <-timer.C:
			return &DeviceError{Op: "start", Err: ErrStopPending}
		}
	}

	r.buf.Reset()
	r.recording.Store(true)
	if err := r.dev.Start(); err != nil {
		r.recording.Store(false)
		return &DeviceError{Op: "start", Err: err}
	}
	r.active = true
	return nil
}

// Stop clears the recording flag and stops the device, waiting at most grace
// for the device to confirm. The buffer is then sealed and returned. Calling
// Stop while idle returns an empty Recording.
func (r *Recorder) Stop(grace time.Duration) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return Recording{Acked: true}, nil
	}
	r.active = false
	r.recording.Store(false)
	r.startWait = grace
	if grace <= 0 {
		r.startWait = defaultStartWait
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.dev.Stop()
	}()
	r.stopped = done

	acked := true
	if grace <= 0 {
		select {
		case <-done:
		default:
			acked = false
		}
	} else {
		timer := time.NewTimer(grace)
		select {
		case <-done:
		case <-timer.C:
			acked = false
		}
		timer.Stop()
	}

	rec := Recording{Samples: r.buf.Seal(), Acked: acked}
	if err := r.dev.Err(); err != nil {
		return rec, &DeviceError{Op: "stream", Err: err}
	}
	return rec, nil
}

// Abort stops capture without waiting and discards the buffer.
func (r *Recorder) Abort() {
	_, _ = r.Stop(0)
}

// Err reports a device failure during the current session. It is nil
// while idle.
func (r *Recorder) Err() error {
	if !r.recording.Load() {
		return nil
	}
	if err := r.dev.Err(); err != nil {
		return &DeviceError{Op: "stream", Err: err}
	}
	return nil
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Close waits for any pending stop and releases the device.
func (r *Recorder) Close() {
	r.Abort()
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
	r.dev.ClearCallback()
	r.dev.Close()
}

func (r *Recorder) DeviceName() string { return r.dev.DeviceName() }
