package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
)

func tone(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		if i%20 < 10 {
			s[i] = 0.3
		} else {
			s[i] = -0.3
		}
	}
	return s
}

type upload struct {
	path, auth, model, language, filename string
	fileHead                              []byte
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, chan upload) {
	t.Helper()
	got := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		u := upload{
			path:     r.URL.Path,
			auth:     r.Header.Get("Authorization"),
			model:    r.FormValue("model"),
			language: r.FormValue("language"),
		}
		if f, hdr, err := r.FormFile("file"); err == nil {
			u.filename = hdr.Filename
			u.fileHead = make([]byte, 4)
			io.ReadFull(f, u.fileHead)
			f.Close()
		}
		got <- u
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRemoteTranscribe(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"text":"  hello world \n"}`)

	tr, err := New(Config{Provider: "groq", APIKey: "k", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	text, err := tr.Transcribe(context.Background(), Request{ID: "s1", Samples: tone(8000), SampleRate: 16000, Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want trimmed %q", text, "hello world")
	}

	u := <-got
	if !strings.HasSuffix(u.path, "/audio/transcriptions") {
		t.Errorf("path = %q", u.path)
	}
	if u.auth != "Bearer k" {
		t.Errorf("Authorization = %q", u.auth)
	}
	if u.model != "whisper-large-v3-turbo" {
		t.Errorf("model = %q, want groq default", u.model)
	}
	if u.language != "en" {
		t.Errorf("language = %q", u.language)
	}
	if u.filename != "audio.flac" || string(u.fileHead) != "fLaC" {
		t.Errorf("file = %q %q, want FLAC upload", u.filename, u.fileHead)
	}
}

func TestRemoteOmitsLanguageForAutoDetect(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"text":"bonjour"}`)
	tr, err := New(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Transcribe(context.Background(), Request{Samples: tone(4000), SampleRate: 16000}); err != nil {
		t.Fatal(err)
	}
	u := <-got
	if u.language != "" {
		t.Errorf("language = %q, want empty for auto-detect", u.language)
	}
	if u.model != "whisper-1" {
		t.Errorf("model = %q, want openai default", u.model)
	}
}

func TestRemoteAPIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	tr, err := New(Config{Provider: "openai", APIKey: "bad", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = tr.Transcribe(context.Background(), Request{Samples: tone(4000), SampleRate: 16000})
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *openai.Error", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	if _, err := New(Config{Provider: "groq"}); err == nil {
		t.Fatal("expected error without an API key")
	}
	t.Setenv("GROQ_API_KEY", "from-env")
	if _, err := New(Config{Provider: "groq"}); err != nil {
		t.Fatalf("key from env: %v", err)
	}
	if _, err := New(Config{Provider: "nope", APIKey: "k"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRequestDuration(t *testing.T) {
	r := Request{Samples: make([]float32, 8000), SampleRate: 16000}
	if r.Duration() != 500*time.Millisecond {
		t.Errorf("Duration() = %v", r.Duration())
	}
	if (Request{}).Duration() != 0 {
		t.Error("zero request should have zero duration")
	}
}

func TestFakeGate(t *testing.T) {
	f := NewFake("hi", nil)
	f.Gate = make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Transcribe(ctx, Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline", err)
	}
	close(f.Gate)
	if text, err := f.Transcribe(context.Background(), Request{}); err != nil || text != "hi" {
		t.Fatalf("got %q, %v", text, err)
	}
	if len(f.Calls()) != 2 {
		t.Fatalf("Calls() = %d", len(f.Calls()))
	}
}

func TestTraceMiddlewareRecordsTimings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	client := newHTTPClient()
	send := func() NetworkMetrics {
		t.Helper()
		var m NetworkMetrics
		req, err := http.NewRequestWithContext(withMetrics(context.Background(), &m), http.MethodPost, srv.URL, strings.NewReader(strings.Repeat("x", 64<<10)))
		if err != nil {
			t.Fatal(err)
		}
		resp, err := traceMiddleware(req, client.Do)
		if err != nil {
			t.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return m
	}

	first := send()
	if first.Total <= 0 {
		t.Errorf("Total = %v, want > 0", first.Total)
	}
	if first.ConnReused {
		t.Error("first request reported a reused connection")
	}
	if second := send(); !second.ConnReused {
		t.Error("second request did not reuse the connection")
	}
}

func TestTraceMiddlewareWithoutMetrics(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "http://example.invalid", nil)
	_, err := traceMiddleware(req, func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	if err != nil || !called {
		t.Fatalf("called = %v, err = %v", called, err)
	}
}
