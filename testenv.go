package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/ptt"
	"murmur/status"
	"murmur/transcriber"
)

const testWaitTimeout = 30 * time.Second

// lockedWriter serializes status lines, transcripts and harness output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// printInjector writes transcripts to the test harness instead of typing.
type printInjector struct{ w io.Writer }

func (p printInjector) Type(text string) error {
	_, err := fmt.Fprintf(p.w, "TYPED %s\n", text)
	return err
}

// runTestMode replays wavPath as the microphone and drives the trigger from
// line commands on in: KEYDOWN, KEYUP, WAIT, WAIT_AUDIO_DONE, SLEEP <ms>,
// EXIT (the exit key) and QUIT. End of input behaves like QUIT.
func runTestMode(cfg *config.Config, wavPath string, in io.Reader, out io.Writer) int {
	out = &lockedWriter{w: out}
	if err := log.Init(); err != nil {
		fmt.Fprintf(out, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	fake, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		return fatal("loading WAV", err)
	}
	capture, err := fake.NewCapture(nil, cfg.Capture())
	if err != nil {
		return fatal("creating capture", err)
	}
	rec := audio.NewRecorder(capture)
	defer rec.Close()

	engine, err := transcriber.New(cfg.Transcriber())
	if err != nil {
		return fatal("transcriber", err)
	}
	if err := engine.Load(context.Background()); err != nil {
		return fatal("loading transcriber", err)
	}

	pcfg := cfg.PTT()
	keys := hotkey.NewFake()
	log.SessionStart(pcfg.Trigger.String(), "fake", engine.Name(), cfg.Engine.Model)

	queue := status.NewQueue(statusQueueSize)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		queue.Run(context.Background(), status.NewLogDisplay(out))
	}()

	ctl := ptt.New(pcfg, rec, engine, printInjector{out}, queue)
	runErr := make(chan error, 1)
	go func() { runErr <- ctl.Run(context.Background(), keys) }()
	<-keys.Listening()

	commands := make(chan string)
	stopReading := make(chan struct{})
	defer close(stopReading)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case commands <- strings.TrimSpace(scanner.Text()):
			case <-stopReading:
				return
			}
		}
	}()

loop:
	for {
		var cmd string
		select {
		case <-ctl.Done():
			break loop
		case c, ok := <-commands:
			if !ok {
				ctl.Exit()
				break loop
			}
			cmd = c
		}

		switch {
		case cmd == "" || strings.HasPrefix(cmd, "#"):
		case cmd == "KEYDOWN":
			keys.Press(pcfg.Trigger)
		case cmd == "KEYUP":
			keys.Release(pcfg.Trigger)
		case cmd == "EXIT":
			keys.Press(pcfg.Exit)
		case cmd == "QUIT":
			ctl.Exit()
		case cmd == "WAIT":
			if !waitIdle(ctl, testWaitTimeout) {
				fmt.Fprintln(out, "WAIT timed out")
			}
		case cmd == "WAIT_AUDIO_DONE":
			if c := fake.Capture(); c != nil {
				<-c.AudioDone()
			}
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimSpace(cmd[6:])); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}

	err = <-runErr
	queue.Close()
	<-drained

	st := ctl.Stats()
	log.SessionEnd(log.Stats{
		Sessions:    st.Sessions,
		Transcribed: st.Transcribed,
		Rejected:    st.Rejected,
		Failed:      st.Failed,
	})
	fmt.Fprintf(out, "DONE sessions=%d transcribed=%d rejected=%d failed=%d\n",
		st.Sessions, st.Transcribed, st.Rejected, st.Failed)
	if err != nil {
		return fatal("key source", err)
	}
	return 0
}

// waitIdle blocks until every started session has finished and the
// controller is back to Ready.
func waitIdle(ctl *ptt.Controller, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st := ctl.Stats()
		if ctl.State() == ptt.Ready && st.Transcribed+st.Rejected+st.Failed >= st.Sessions {
			return true
		}
		select {
		case <-ctl.Done():
			return true
		case <-time.After(10 * time.Millisecond):
		}
	}
	return false
}
