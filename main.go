package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/doctor"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/ptt"
	"murmur/shutdown"
	"murmur/status"
	"murmur/transcriber"
)

var version = "dev"

// statusQueueSize bounds pending display updates; older ones are dropped.
const statusQueueSize = 32

type options struct {
	cfg     *config.Config
	setup   bool
	doctor  bool
	testWAV string
}

// parseOptions handles flags, logging setup and config loading. It returns
// ok=false with the exit code when the process should stop right away.
func parseOptions(args []string) (o *options, code int, ok bool) {
	fs := flag.NewFlagSet("murmur", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Config file (default: ./config.yaml, then the user config dir)")
	triggerFlag := fs.String("trigger", "", "Push-to-talk key, e.g. ctrl_r, f9, alt_r")
	deviceFlag := fs.String("device", "", "Use named microphone device")
	setupFlag := fs.Bool("setup", false, "Pick the microphone interactively and remember it")
	logPathFlag := fs.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	uiFlag := fs.String("ui", "", "Display: tui, log or gui")
	langFlag := fs.String("lang", "", "Language code for transcription (e.g., en, es). Empty = auto-detect")
	providerFlag := fs.String("provider", "", "Transcription provider: groq, openai or fake")
	doctorFlag := fs.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	testFlag := fs.String("test", "", "Test mode: replay a WAV file, driven by commands on stdin")
	profileFlag := fs.String("profile", "", "Enable pprof profiling server (e.g., localhost:6060)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0, false
		}
		return nil, 1, false
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		return nil, 0, false
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return nil, 1, false
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	// Only flags given on the command line override the config file.
	overrides := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trigger":
			overrides["trigger"] = *triggerFlag
		case "device":
			overrides["audio.device"] = *deviceFlag
		case "ui":
			overrides["ui.mode"] = *uiFlag
		case "lang":
			overrides["engine.language"] = *langFlag
		case "provider":
			overrides["engine.provider"] = *providerFlag
		}
	})

	cfg, err := config.Load(*configFlag, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, 1, false
	}
	return &options{
		cfg:     cfg,
		setup:   *setupFlag,
		doctor:  *doctorFlag,
		testWAV: *testFlag,
	}, 0, true
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// run wires the dictation loop and blocks until the exit key or a signal.
// display is only set when the GUI owns the main thread.
func run(o *options, display status.Display) int {
	cfg := o.cfg
	if o.doctor {
		return doctor.Run(doctor.Options{
			Backend:     cfg.Input.Backend,
			Trigger:     cfg.PTT().Trigger,
			Device:      cfg.Audio.Device,
			Capture:     cfg.Capture(),
			Transcriber: cfg.Transcriber(),
			Language:    cfg.Engine.Language,
			Inject:      cfg.InjectOptions(),
		})
	}
	if o.testWAV != "" {
		return runTestMode(cfg, o.testWAV, os.Stdin, os.Stdout)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	ctx, stopSignals := shutdown.OnSignal(context.Background(), func() { os.Exit(1) })
	defer stopSignals()

	actx, err := audio.NewContext()
	if err != nil {
		return fatal("initializing audio", err)
	}
	defer actx.Close()

	device, err := pickDevice(o, actx)
	if err != nil {
		return fatal("selecting microphone", err)
	}
	capture, err := actx.NewCapture(device, cfg.Capture())
	if err != nil {
		return fatal("opening microphone", err)
	}
	rec := audio.NewRecorder(capture)
	defer rec.Close()

	engine, err := transcriber.New(cfg.Transcriber())
	if err != nil {
		return fatal("transcriber", err)
	}
	if err := engine.Load(ctx); err != nil {
		return fatal("loading transcriber", err)
	}

	inj, err := inject.New(cfg.InjectOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return fatal("text injection", err)
	}

	pcfg := cfg.PTT()
	src, err := hotkey.New(cfg.Input.Backend, pcfg.Trigger)
	if err != nil {
		return fatal("key source", err)
	}

	player := beep.New(cfg.UI.Beep)
	defer player.Close()

	b := banner{
		trigger:  pcfg.Trigger,
		exit:     pcfg.Exit,
		device:   rec.DeviceName(),
		engine:   engine.Name(),
		model:    cfg.Engine.Model,
		language: cfg.Engine.Language,
	}
	if display == nil && cfg.UI.Mode == "tui" {
		t := newTUI(b)
		go t.run()
		display = t
	} else {
		b.print(os.Stdout)
		if display == nil {
			display = status.NewLogDisplay(os.Stdout)
		}
	}

	log.SessionStart(pcfg.Trigger.String(), rec.DeviceName(), engine.Name(), cfg.Engine.Model)

	queue := status.NewQueue(statusQueueSize)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		queue.Run(context.Background(), display)
	}()

	ctl := ptt.New(pcfg, rec, engine, inj, status.WithCues(queue, player))
	if q, ok := display.(quitter); ok {
		go func() {
			select {
			case <-q.Quitting():
				ctl.Exit()
			case <-ctl.Done():
			}
		}()
	}

	runErr := ctl.Run(ctx, src)

	queue.Close()
	<-drained
	display.Close()

	st := ctl.Stats()
	log.SessionEnd(log.Stats{
		Sessions:    st.Sessions,
		Transcribed: st.Transcribed,
		Rejected:    st.Rejected,
		Failed:      st.Failed,
	})
	if runErr != nil {
		return fatal("key source", runErr)
	}
	return 0
}

// quitter is implemented by displays that can ask the app to exit.
type quitter interface {
	Quitting() <-chan struct{}
}

// pickDevice resolves -setup and audio.device. nil means the system default.
func pickDevice(o *options, actx audio.Context) (*audio.DeviceInfo, error) {
	if o.setup {
		dev, err := audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
			return nil, nil
		}
		if path, err := o.cfg.SaveDevice(dev.Name); err != nil {
			log.Warnf("could not save device choice: %v", err)
		} else {
			fmt.Printf("Saved microphone to %s\n", path)
		}
		return dev, nil
	}
	if o.cfg.Audio.Device == "" {
		return nil, nil
	}
	return audio.FindDevice(actx, o.cfg.Audio.Device)
}

func fatal(what string, err error) int {
	log.Errorf("%s: %v", what, err)
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	return 1
}

// banner is the startup summary shown above the status line.
type banner struct {
	trigger  hotkey.Key
	exit     hotkey.Key
	device   string
	engine   string
	model    string
	language string
}

func (b banner) lines() []string {
	engine := b.engine
	if b.model != "" {
		engine += " (" + b.model + ")"
	}
	if b.language != "" {
		engine += " [" + b.language + "]"
	}
	mic := b.device
	if mic == "" {
		mic = "system default"
	}
	if audio.IsBluetooth(mic) {
		mic += "  (headset profile, lower quality)"
	}
	return []string{
		fmt.Sprintf("Hold %s to talk, release to transcribe. %s quits.", b.trigger.Label(), b.exit.Label()),
		"Mic:    " + mic,
		"Engine: " + engine,
	}
}

func (b banner) print(w io.Writer) {
	fmt.Fprintf(w, "murmur %s\n", version)
	for _, l := range b.lines() {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w)
}
