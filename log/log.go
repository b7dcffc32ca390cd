// Package log writes the diagnostics log and the transcript log. Every
// function is a no-op until Init succeeds, so packages can log freely from
// tests and from the doctor.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	appName = "murmur"
	// EnvDir overrides the log directory when -logpath is not given.
	EnvDir = "MURMUR_LOG_PATH"
)

var (
	diagLog        = zerolog.Nop()
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// Metrics describes one completed transcription request.
type Metrics struct {
	Provider   string
	Model      string
	AudioS     float64
	UploadKB   float64
	EncodeMs   float64
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	TextRunes  int
}

// Stats summarizes a process run at exit.
type Stats struct {
	Sessions    int
	Transcribed int
	Rejected    int
	Failed      int
}

func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absPath(flagPath)
	}
	if envPath := os.Getenv(EnvDir); envPath != "" {
		return absPath(envPath)
	}
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func newLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	return zerolog.New(out).With().Timestamp().Int("pid", pid).Logger()
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	transcribeFile, err = os.OpenFile(filepath.Join(dir, "transcribe_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	diagLog = newLogger()
	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	diagLog = zerolog.Nop()
	logReady = false
}

func logger() *zerolog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	l := diagLog
	return &l
}

// With returns a logger tagged with component, for packages that log
// structured fields of their own.
func With(component string) zerolog.Logger {
	return logger().With().Str("component", component).Logger()
}

func Info(msg string) {
	logger().Info().Msg(msg)
}

func Infof(format string, args ...any) {
	logger().Info().Msg(fmt.Sprintf(format, args...))
}

func Error(msg string) {
	logger().Error().Msg(msg)
}

func Errorf(format string, args ...any) {
	logger().Error().Msg(fmt.Sprintf(format, args...))
}

func Warn(msg string) {
	logger().Warn().Msg(msg)
}

func Warnf(format string, args ...any) {
	logger().Warn().Msg(fmt.Sprintf(format, args...))
}

func SessionStart(trigger, device, provider, model string) {
	logger().Info().
		Str("trigger", trigger).
		Str("device", device).
		Str("provider", provider).
		Str("model", model).
		Msg("session_start")
}

func SessionEnd(s Stats) {
	logger().Info().
		Int("recordings", s.Sessions).
		Int("transcribed", s.Transcribed).
		Int("rejected", s.Rejected).
		Int("failed", s.Failed).
		Msg("session_end")
}

// Recording logs the measured signal of one finished recording.
func Recording(id string, durationS, rms, peak float64, acked bool) {
	logger().Info().
		Str("session", id).
		Float64("duration_s", durationS).
		Float64("rms", rms).
		Float64("peak", peak).
		Bool("stop_acked", acked).
		Msg("recording")
}

func Rejected(id, reason string) {
	logger().Info().
		Str("session", id).
		Str("reason", reason).
		Msg("rejected")
}

func Transcription(id string, m Metrics) {
	ev := logger().Info().
		Str("session", id).
		Str("provider", m.Provider).
		Str("model", m.Model).
		Float64("audio_s", m.AudioS).
		Float64("upload_kb", m.UploadKB).
		Float64("encode_ms", m.EncodeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Int("runes", m.TextRunes)
	if m.ConnReused {
		ev = ev.Str("conn", "reused")
	} else {
		ev = ev.Str("conn", "new").
			Float64("dns_ms", m.DNSMs).
			Float64("tls_ms", m.TLSMs)
	}
	ev.Msg("transcription")
}

// TranscriptionText appends text to the transcript log.
func TranscriptionText(text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady || transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}
