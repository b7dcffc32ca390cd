package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"murmur/encoder"
	"murmur/log"
)

// remote talks to any OpenAI-compatible transcription endpoint; Groq serves
// the same API under its own base URL.
type remote struct {
	cfg    Config
	http   *http.Client
	client openai.Client
}

func newRemote(cfg Config) *remote {
	hc := newHTTPClient()
	return &remote{
		cfg:  cfg,
		http: hc,
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(hc),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMiddleware(traceMiddleware),
		),
	}
}

func (r *remote) Name() string { return r.cfg.Provider }

func (r *remote) Load(ctx context.Context) error {
	if r.cfg.APIKey == "" {
		return fmt.Errorf("%s: missing API key", r.cfg.Provider)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tlsTime, err := warm(ctx, r.http, r.cfg.BaseURL)
	if err != nil {
		// Offline at startup is not fatal; the first request will retry the dial.
		log.Warnf("%s: connection warm-up failed: %v", r.cfg.Provider, err)
		return nil
	}
	l := log.With("transcriber")
	l.Info().
		Str("provider", r.cfg.Provider).
		Dur("tls", tlsTime).
		Msg("connection warmed")
	return nil
}

func (r *remote) Transcribe(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	enc, err := encoder.NewFlac(uint32(req.SampleRate))
	if err != nil {
		return "", err
	}
	data, err := encoder.Encode(enc, req.Samples)
	if err != nil {
		return "", fmt.Errorf("encoding audio: %w", err)
	}
	encodeTime := time.Since(start)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "audio."+enc.Ext(), enc.ContentType()),
		Model: openai.AudioModel(r.cfg.Model),
	}
	if req.Language != "" {
		params.Language = openai.String(req.Language)
	}

	metrics := &NetworkMetrics{}
	resp, err := r.client.Audio.Transcriptions.New(withMetrics(ctx, metrics), params)
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", r.cfg.Provider, err)
	}
	text := strings.TrimSpace(resp.Text)

	log.Transcription(req.ID, log.Metrics{
		Provider:   r.cfg.Provider,
		Model:      r.cfg.Model,
		AudioS:     req.Duration().Seconds(),
		UploadKB:   float64(len(data)) / 1024,
		EncodeMs:   float64(encodeTime.Milliseconds()),
		DNSMs:      float64(metrics.DNS.Milliseconds()),
		TLSMs:      float64(metrics.TLS.Milliseconds()),
		TTFBMs:     float64(metrics.TTFB.Milliseconds()),
		TotalMs:    float64(metrics.Total.Milliseconds()),
		ConnReused: metrics.ConnReused,
		TextRunes:  utf8.RuneCountInString(text),
	})
	return text, nil
}
