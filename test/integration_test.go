//go:build integration

package test_test

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	testBinary string
	speechWAV  string
	silenceWAV string
)

func TestMain(m *testing.M) {
	testBinary = os.Getenv("MURMUR_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "MURMUR_TEST_BIN not set; build murmur and point MURMUR_TEST_BIN at it")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "murmur-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	speechWAV = filepath.Join(dir, "tone.wav")
	silenceWAV = filepath.Join(dir, "silence.wav")
	if err := generateWAV(speechWAV, 16000, 2.0, 0.5); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	if err := generateWAV(silenceWAV, 16000, 2.0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// generateWAV writes a mono 16-bit 440Hz tone; amplitude 0 gives silence.
func generateWAV(path string, sampleRate int, durationS, amplitude float64) error {
	n := int(float64(sampleRate) * durationS)
	data := make([]int, n)
	for i := range data {
		data[i] = int(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runMurmur runs the binary in test mode against the fake provider, in an
// empty working directory and home so no user config leaks in.
func runMurmur(t *testing.T, stdin string, args ...string) (out, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	home := t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-provider", "fake"}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Dir = t.TempDir()
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+filepath.Join(home, ".config"))

	b, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("murmur exited with error: %v\noutput: %s", err, b)
	}
	return string(b), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireLine(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
}

func TestDictation(t *testing.T) {
	out, logDir := runMurmur(t, cmds("KEYDOWN", "SLEEP 600", "KEYUP", "WAIT", "QUIT"), "-test", speechWAV)
	requireLine(t, out, "TYPED the quick brown fox")
	requireLine(t, out, "DONE sessions=1 transcribed=1 rejected=0 failed=0")

	if text := readLog(t, logDir, "transcribe_log.txt"); !strings.Contains(text, "the quick brown fox") {
		t.Errorf("transcribe_log.txt missing transcript: %q", text)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "duration_s=", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics_log.txt missing %q", want)
		}
	}
}

func TestRepeatedSessions(t *testing.T) {
	out, _ := runMurmur(t, cmds(
		"KEYDOWN", "SLEEP 400", "KEYUP", "WAIT",
		"KEYDOWN", "SLEEP 400", "KEYUP", "WAIT",
		"QUIT"), "-test", speechWAV)
	if n := strings.Count(out, "TYPED "); n != 2 {
		t.Errorf("got %d transcripts, want 2:\n%s", n, out)
	}
	requireLine(t, out, "DONE sessions=2 transcribed=2")
}

func TestSilenceRejected(t *testing.T) {
	out, _ := runMurmur(t, cmds("KEYDOWN", "SLEEP 800", "KEYUP", "WAIT", "QUIT"), "-test", silenceWAV)
	requireLine(t, out, "Silence")
	requireLine(t, out, "DONE sessions=1 transcribed=0 rejected=1 failed=0")
	if strings.Contains(out, "TYPED") {
		t.Errorf("silence should not be typed:\n%s", out)
	}
}

func TestTapTooShort(t *testing.T) {
	out, _ := runMurmur(t, cmds("KEYDOWN", "KEYUP", "WAIT", "QUIT"), "-test", speechWAV)
	requireLine(t, out, "Too short")
	requireLine(t, out, "rejected=1")
}

func TestExitKeyWhileRecording(t *testing.T) {
	out, _ := runMurmur(t, cmds("KEYDOWN", "SLEEP 300", "EXIT"), "-test", speechWAV)
	requireLine(t, out, "DONE sessions=1")
	if strings.Contains(out, "TYPED") {
		t.Errorf("exit key should discard the recording:\n%s", out)
	}
}

func TestEndOfInputQuits(t *testing.T) {
	out, _ := runMurmur(t, "", "-test", speechWAV)
	requireLine(t, out, "DONE sessions=0")
}
