// Package transcriber turns recorded speech into text through a hosted
// speech-to-text API.
package transcriber

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Request is one recording to transcribe. Samples are mono floats in
// [-1, 1]. An empty Language asks the engine to detect it.
type Request struct {
	ID         string
	Samples    []float32
	SampleRate int
	Language   string
}

func (r Request) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

type Transcriber interface {
	Name() string
	// Load runs once at startup: credential checks and connection warm-up.
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, req Request) (string, error)
}

// FakeText is what the "fake" provider answers for every request.
const FakeText = "the quick brown fox"

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

type provider struct {
	baseURL string
	model   string
	keyEnv  string
}

var providers = map[string]provider{
	"groq":   {baseURL: "https://api.groq.com/openai/v1/", model: "whisper-large-v3-turbo", keyEnv: "GROQ_API_KEY"},
	"openai": {baseURL: "https://api.openai.com/v1/", model: "whisper-1", keyEnv: "OPENAI_API_KEY"},
}

// New builds the transcriber for cfg.Provider, filling unset fields from the
// provider defaults and its API key variable.
func New(cfg Config) (Transcriber, error) {
	if cfg.Provider == "fake" {
		return NewFake(FakeText, nil), nil
	}
	p, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.baseURL
	}
	if cfg.Model == "" {
		cfg.Model = p.model
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(p.keyEnv)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: set %s or engine.api_key", cfg.Provider, p.keyEnv)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return newRemote(cfg), nil
}
