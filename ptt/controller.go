// Package ptt is the push-to-talk controller: it turns trigger key presses
// into recording sessions, sends accepted recordings for transcription and
// types the result.
package ptt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"murmur/audio"
	"murmur/hotkey"
	"murmur/log"
	"murmur/status"
	"murmur/transcriber"
)

const (
	DefaultGrace   = 200 * time.Millisecond
	DefaultHold    = time.Second
	DefaultTimeout = 60 * time.Second

	// watchEvery is how often a held session polls the device for failure.
	watchEvery = 50 * time.Millisecond
)

type Recorder interface {
	Start() error
	Stop(grace time.Duration) (audio.Recording, error)
	Abort()
	// Err reports a device failure in the running session.
	Err() error
}

type Transcriber interface {
	Transcribe(ctx context.Context, req transcriber.Request) (string, error)
}

type Injector interface {
	Type(text string) error
}

type Config struct {
	Trigger    hotkey.Key
	Exit       hotkey.Key
	SampleRate int
	Language   string
	// Grace bounds how long key-up waits for the device to confirm the stop.
	Grace time.Duration
	// Hold is how long rejection and error labels stay up before Ready.
	Hold    time.Duration
	Timeout time.Duration
}

func (c *Config) setDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	if c.Hold <= 0 {
		c.Hold = DefaultHold
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Exit.IsZero() {
		c.Exit = hotkey.Named("esc")
	}
}

type Stats struct {
	Sessions    int
	Transcribed int
	Rejected    int
	Failed      int
}

// Controller is driven by a single key-event goroutine through OnPress and
// OnRelease. Transcription and injection run on a goroutine per session so
// the key path never waits for the engine.
type Controller struct {
	cfg    Config
	m      machine
	rec    Recorder
	engine Transcriber
	inj    Injector
	sink   status.Sink
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	exitCh chan struct{}
	wg     sync.WaitGroup

	srcMu sync.Mutex
	src   hotkey.Source

	session string // owned by the key goroutine

	sessions, transcribed, rejected, failed atomic.Int64
}

func New(cfg Config, rec Recorder, engine Transcriber, inj Injector, sink status.Sink) *Controller {
	cfg.setDefaults()
	if sink == nil {
		sink = status.Discard
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:    cfg,
		rec:    rec,
		engine: engine,
		inj:    inj,
		sink:   sink,
		log:    log.With("ptt"),
		ctx:    ctx,
		cancel: cancel,
		exitCh: make(chan struct{}),
	}
}

func (c *Controller) State() State { return c.m.current() }

func (c *Controller) Stats() Stats {
	return Stats{
		Sessions:    int(c.sessions.Load()),
		Transcribed: int(c.transcribed.Load()),
		Rejected:    int(c.rejected.Load()),
		Failed:      int(c.failed.Load()),
	}
}

// Done is closed once the exit key was pressed or Exit was called.
func (c *Controller) Done() <-chan struct{} { return c.exitCh }

// Run listens on src until the exit key, ctx cancellation or a source
// failure, then waits for in-flight sessions to finish. A clean exit returns
// nil.
func (c *Controller) Run(ctx context.Context, src hotkey.Source) error {
	c.srcMu.Lock()
	c.src = src
	c.srcMu.Unlock()

	c.sink.SetStatus(status.Ready, status.Idle)

	go func() {
		select {
		case <-ctx.Done():
			c.Exit()
		case <-c.exitCh:
		}
	}()

	err := src.Listen(c.OnPress, c.OnRelease)
	c.Exit()
	c.wg.Wait()
	return err
}

// Exit force-stops any recording, abandons in-flight sessions and stops the
// key source. Safe to call from any goroutine, any number of times.
func (c *Controller) Exit() {
	if !c.m.exit() {
		return
	}
	c.log.Info().Msg("exit requested")
	c.rec.Abort()
	c.cancel()
	close(c.exitCh)

	c.srcMu.Lock()
	src := c.src
	c.srcMu.Unlock()
	if src != nil {
		src.Stop()
	}
}

func (c *Controller) OnPress(k hotkey.Key) {
	if c.cfg.Exit.Matches(k) {
		c.Exit()
		return
	}
	if !c.cfg.Trigger.Matches(k) {
		return
	}
	// Auto-repeat and presses during processing land here and are dropped.
	if !c.m.transition(Ready, Recording) {
		return
	}

	c.session = uuid.NewString()
	n := c.sessions.Add(1)
	if err := c.rec.Start(); err != nil {
		c.fail(c.session, err)
		return
	}
	if c.m.done() {
		c.rec.Abort()
		return
	}
	c.log.Debug().Str("session", c.session).Msg("recording")
	c.sink.SetStatus(status.Recording, status.Active)

	c.wg.Add(1)
	go c.watch(c.session, n)
}

// watch fails session n as soon as the device reports an error, instead of
// waiting for the key to be released. It returns once the session leaves
// Recording.
func (c *Controller) watch(id string, n int64) {
	defer c.wg.Done()
	t := time.NewTicker(watchEvery)
	defer t.Stop()
	for {
		select {
		case <-c.exitCh:
			return
		case <-t.C:
		}
		if c.sessions.Load() != n || c.m.current() != Recording {
			return
		}
		if err := c.rec.Err(); err != nil {
			if c.m.transition(Recording, Error) {
				c.enterError(id, err)
			}
			return
		}
	}
}

func (c *Controller) OnRelease(k hotkey.Key) {
	if !c.cfg.Trigger.Matches(k) {
		return
	}
	if !c.m.transition(Recording, Processing) {
		return
	}
	c.sink.SetStatus(status.Processing, status.Active)

	id := c.session
	rec, err := c.rec.Stop(c.cfg.Grace)
	if err != nil {
		c.fail(id, err)
		return
	}
	if c.m.done() {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.process(id, rec)
	}()
}

func (c *Controller) process(id string, rec audio.Recording) {
	sample, rej := Validate(rec.Samples, c.cfg.SampleRate)
	log.Recording(id, sample.Duration, sample.RMS, sample.Peak, rec.Acked)
	if rej != Accepted {
		c.reject(id, rej)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.Timeout)
	text, err := c.engine.Transcribe(ctx, transcriber.Request{
		ID:         id,
		Samples:    sample.Samples,
		SampleRate: c.cfg.SampleRate,
		Language:   c.cfg.Language,
	})
	cancel()
	if c.m.done() {
		return
	}
	if err != nil {
		c.fail(id, &TranscriptionError{Session: id, Err: err})
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.reject(id, RejectNoText)
		return
	}

	c.transcribed.Add(1)
	log.TranscriptionText(text)
	if err := c.inj.Type(text); err != nil {
		c.log.Error().Err(&InjectionError{Session: id, Err: err}).Msg("injection failed")
	}
	if c.m.transition(Processing, Ready) {
		c.sink.SetStatus(status.Ready, status.Idle)
	}
}

var rejectLabels = map[Rejection]string{
	RejectTooShort: status.TooShort,
	RejectSilence:  status.Silence,
	RejectNoText:   status.NoText,
}

// reject shows why nothing was typed, holds the label, then re-arms.
func (c *Controller) reject(id string, r Rejection) {
	c.rejected.Add(1)
	log.Rejected(id, r.String())
	c.sink.SetStatus(rejectLabels[r], status.Warn)
	if c.sleep(c.cfg.Hold) && c.m.transition(Processing, Ready) {
		c.sink.SetStatus(status.Ready, status.Idle)
	}
}

// fail moves to Error, stops capture, and schedules recovery to Ready
// after the hold. It never blocks the caller for the hold.
func (c *Controller) fail(id string, err error) {
	if _, ok := c.m.fail(); !ok {
		return
	}
	c.enterError(id, err)
}

// enterError runs once the machine is in Error.
func (c *Controller) enterError(id string, err error) {
	c.failed.Add(1)
	c.rec.Abort()

	ev := c.log.Error().Str("session", id).Err(err)
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		ev = ev.Str("kind", "device")
	} else {
		ev = ev.Str("kind", "transcription")
	}
	ev.Msg("session failed")
	c.sink.SetStatus(status.Failed, status.Error)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.sleep(c.cfg.Hold) && c.m.transition(Error, Ready) {
			c.sink.SetStatus(status.Ready, status.Idle)
		}
	}()
}

// sleep waits d and reports false if the controller exited meanwhile.
func (c *Controller) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.exitCh:
		return false
	}
}
