// Package doctor runs interactive checks of everything a dictation session
// touches: key source, microphone, transcription and text injection.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"murmur/audio"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/ptt"
	"murmur/shutdown"
	"murmur/transcriber"
)

const testPhrase = "murmur doctor test"

// errSkipped marks a check that could not run because an earlier one failed.
var errSkipped = errors.New("skipped")

type Options struct {
	Backend     string
	Trigger     hotkey.Key
	Device      string
	Capture     audio.CaptureConfig
	Transcriber transcriber.Config
	Language    string
	Inject      inject.Options
}

type check struct {
	title string
	run   func(ctx context.Context) error
}

type runner struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer

	keyTimeout time.Duration
	recordFor  time.Duration
	countdown  int

	diagnoseKeys      func(backend string) (string, error)
	diagnoseClipboard func() (string, error)
	newSource         func(backend string, trigger hotkey.Key) (hotkey.Source, error)
	newRecorder       func() (ptt.Recorder, func(), error)
	newEngine         func(transcriber.Config) (transcriber.Transcriber, error)
	newInjector       func(inject.Options) (inject.Injector, error)

	// set by the microphone check for the transcription check
	sample *ptt.Sample
}

func newRunner(opts Options, in io.Reader, out io.Writer) *runner {
	r := &runner{
		opts:        opts,
		in:          bufio.NewReader(in),
		out:         out,
		keyTimeout:  10 * time.Second,
		recordFor:   3 * time.Second,
		countdown:   5,
		newSource:   hotkey.New,
		newEngine:   transcriber.New,
		newInjector: inject.New,

		diagnoseKeys:      hotkey.Diagnose,
		diagnoseClipboard: inject.Diagnose,
	}
	r.newRecorder = r.openMic
	return r
}

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	ctx, stop := shutdown.OnSignal(context.Background(), func() { os.Exit(1) })
	defer stop()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")
	r := newRunner(opts, os.Stdin, os.Stdout)
	return r.run(ctx, r.checks())
}

func (r *runner) checks() []check {
	return []check{
		{"Key source", r.checkKeys},
		{"Microphone", r.checkMic},
		{"Transcription", r.checkTranscription},
		{"Text injection", r.checkInjection},
	}
}

func (r *runner) run(ctx context.Context, checks []check) int {
	failed := 0
	for i, c := range checks {
		fmt.Fprintf(r.out, "\n[%d/%d] %s\n", i+1, len(checks), c.title)
		if ctx.Err() != nil {
			fmt.Fprintln(r.out, "  SKIP: interrupted")
			failed++
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintln(r.out, "  PASS")
		case errors.Is(err, errSkipped):
			fmt.Fprintln(r.out, "  SKIP: needs the previous check")
			failed++
		default:
			fmt.Fprintf(r.out, "  FAIL: %v\n", err)
			failed++
		}
	}

	fmt.Fprintln(r.out)
	if failed == 0 {
		fmt.Fprintln(r.out, "All checks passed!")
		return 0
	}
	fmt.Fprintf(r.out, "%d of %d checks did not pass. See details above.\n", failed, len(checks))
	return 1
}

func (r *runner) checkKeys(ctx context.Context) error {
	msg, err := r.diagnoseKeys(r.opts.Backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "  %s\n", msg)

	src, err := r.newSource(r.opts.Backend, r.opts.Trigger)
	if err != nil {
		return err
	}
	pressed := make(chan struct{}, 1)
	released := make(chan struct{}, 1)
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- src.Listen(
			func(k hotkey.Key) {
				if k.Matches(r.opts.Trigger) {
					notify(pressed)
				}
			},
			func(k hotkey.Key) {
				if k.Matches(r.opts.Trigger) {
					notify(released)
				}
			},
		)
	}()
	defer func() {
		src.Stop()
		resetTerminal()
	}()

	fmt.Fprintf(r.out, "  Press and release %s...\n", r.opts.Trigger.Label())
	timeout := time.After(r.keyTimeout)
	for _, step := range []struct {
		ch   chan struct{}
		what string
	}{{pressed, "press"}, {released, "release"}} {
		select {
		case <-step.ch:
		case err := <-listenErr:
			if err == nil {
				err = errors.New("key source stopped")
			}
			return err
		case <-timeout:
			return fmt.Errorf("timeout waiting for %s %s", r.opts.Trigger.Label(), step.what)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// openMic opens the configured device. The returned func releases it.
func (r *runner) openMic() (ptt.Recorder, func(), error) {
	actx, err := audio.NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to audio: %w", err)
	}
	var dev *audio.DeviceInfo
	if r.opts.Device != "" {
		if dev, err = audio.FindDevice(actx, r.opts.Device); err != nil {
			actx.Close()
			return nil, nil, err
		}
	}
	capture, err := actx.NewCapture(dev, r.opts.Capture)
	if err != nil {
		actx.Close()
		return nil, nil, err
	}
	rec := audio.NewRecorder(capture)
	fmt.Fprintf(r.out, "  Using device: %s\n", rec.DeviceName())
	return rec, func() { rec.Close(); actx.Close() }, nil
}

func (r *runner) checkMic(ctx context.Context) error {
	rec, release, err := r.newRecorder()
	if err != nil {
		return err
	}
	defer release()

	fmt.Fprintf(r.out, "  Press Enter and speak for %.0f seconds...", r.recordFor.Seconds())
	r.in.ReadString('\n')

	if err := rec.Start(); err != nil {
		return err
	}
	fmt.Fprint(r.out, "  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	timer := time.NewTimer(r.recordFor)
wait:
	for {
		select {
		case <-ticker.C:
			fmt.Fprint(r.out, ".")
		case <-timer.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}
	ticker.Stop()
	timer.Stop()
	fmt.Fprintln(r.out, " done")

	take, err := rec.Stop(ptt.DefaultGrace)
	if err != nil {
		return err
	}
	sample, rej := ptt.Validate(take.Samples, r.sampleRate())
	fmt.Fprintf(r.out, "  %.2fs captured, rms %.4f, peak %.4f, stop acknowledged: %v\n",
		sample.Duration, sample.RMS, sample.Peak, take.Acked)

	switch rej {
	case ptt.RejectTooShort:
		return errors.New("almost no audio arrived; is the device delivering samples?")
	case ptt.RejectSilence:
		return errors.New("only silence captured; check the input device and its volume")
	}
	r.sample = &sample
	return nil
}

func (r *runner) sampleRate() int {
	if r.opts.Capture.SampleRate == 0 {
		return audio.DefaultSampleRate
	}
	return int(r.opts.Capture.SampleRate)
}

func (r *runner) checkTranscription(ctx context.Context) error {
	if r.sample == nil {
		return errSkipped
	}
	engine, err := r.newEngine(r.opts.Transcriber)
	if err != nil {
		return err
	}
	if err := engine.Load(ctx); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "  Sending %.1fs to %s...\n", r.sample.Duration, engine.Name())
	timeout := r.opts.Transcriber.Timeout
	if timeout <= 0 {
		timeout = ptt.DefaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	text, err := engine.Transcribe(tctx, transcriber.Request{
		ID:         "doctor",
		Samples:    r.sample.Samples,
		SampleRate: r.sampleRate(),
		Language:   r.opts.Language,
	})
	if err != nil {
		return err
	}
	if text == "" {
		text = "(no speech recognized)"
	}
	fmt.Fprintf(r.out, "  %q in %s\n", text, time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *runner) checkInjection(ctx context.Context) error {
	if msg, err := r.diagnoseClipboard(); err != nil {
		fmt.Fprintf(r.out, "  Warning: clipboard: %v\n", err)
	} else {
		fmt.Fprintf(r.out, "  %s\n", msg)
	}

	inj, err := r.newInjector(r.opts.Inject)
	if err != nil {
		fmt.Fprintln(r.out, "  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return err
	}

	fmt.Fprintln(r.out, "  Focus a text editor window...")
	for i := r.countdown; i > 0; i-- {
		fmt.Fprintf(r.out, "  %d...\n", i)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := inj.Type(testPhrase); err != nil {
		return err
	}

	resetTerminal()
	fmt.Fprintf(r.out, "\n  Did %q appear? [y/n]: ", testPhrase)
	answer, _ := r.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errors.New("typed text not confirmed")
}
