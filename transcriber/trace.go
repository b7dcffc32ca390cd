package transcriber

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/openai/openai-go/v3/option"
)

type NetworkMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqHeaders time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Total      time.Duration
	ConnReused bool
}

type metricsKey struct{}

func withMetrics(ctx context.Context, m *NetworkMetrics) context.Context {
	return context.WithValue(ctx, metricsKey{}, m)
}

// requestTrace collects timings from httptrace hooks. The hooks run on the
// transport's dial, write and read goroutines, so every field is guarded.
type requestTrace struct {
	mu sync.Mutex
	m  NetworkMetrics

	getConn, dnsStart, tcpStart, tlsStart time.Time
	gotConn, wroteHeaders, wroteRequest   time.Time
}

func (t *requestTrace) record(f func(now time.Time)) {
	now := time.Now()
	t.mu.Lock()
	f(now)
	t.mu.Unlock()
}

func (t *requestTrace) hooks() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(_ string) { t.record(func(now time.Time) { t.getConn = now }) },
		GotConn: func(info httptrace.GotConnInfo) {
			t.record(func(now time.Time) {
				t.gotConn = now
				t.m.ConnWait = now.Sub(t.getConn)
				t.m.ConnReused = info.Reused
			})
		},
		DNSStart: func(_ httptrace.DNSStartInfo) { t.record(func(now time.Time) { t.dnsStart = now }) },
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			t.record(func(now time.Time) { t.m.DNS = now.Sub(t.dnsStart) })
		},
		ConnectStart: func(_, _ string) { t.record(func(now time.Time) { t.tcpStart = now }) },
		ConnectDone: func(_, _ string, _ error) {
			t.record(func(now time.Time) { t.m.TCP = now.Sub(t.tcpStart) })
		},
		TLSHandshakeStart: func() { t.record(func(now time.Time) { t.tlsStart = now }) },
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			t.record(func(now time.Time) { t.m.TLS = now.Sub(t.tlsStart) })
		},
		WroteHeaders: func() {
			t.record(func(now time.Time) {
				t.wroteHeaders = now
				t.m.ReqHeaders = now.Sub(t.gotConn)
			})
		},
		WroteRequest: func(_ httptrace.WroteRequestInfo) {
			t.record(func(now time.Time) {
				t.wroteRequest = now
				t.m.ReqBody = now.Sub(t.wroteHeaders)
			})
		},
		GotFirstResponseByte: func() {
			t.record(func(now time.Time) {
				if !t.wroteRequest.IsZero() {
					t.m.TTFB = now.Sub(t.wroteRequest)
				}
			})
		},
	}
}

func (t *requestTrace) snapshot() NetworkMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m
}

// traceMiddleware fills the NetworkMetrics carried by the request context,
// if any, with connection timings. Hooks that fire after the response has
// returned do not reach the caller's copy.
func traceMiddleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	metrics, ok := req.Context().Value(metricsKey{}).(*NetworkMetrics)
	if !ok {
		return next(req)
	}

	rt := &requestTrace{}
	start := time.Now()
	resp, err := next(req.WithContext(httptrace.WithClientTrace(req.Context(), rt.hooks())))
	*metrics = rt.snapshot()
	metrics.Total = time.Since(start)
	return resp, err
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// warm opens a connection to url so the first transcription skips the TLS
// handshake. It returns how long the handshake took.
func warm(ctx context.Context, client *http.Client, url string) (time.Duration, error) {
	rt := &requestTrace{}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, rt.hooks()), http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return rt.snapshot().TLS, nil
}
