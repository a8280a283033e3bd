package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpgate/pkg/requestcontext"
)

func captureRequestID(t *testing.T, header string) (ctxID, respID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestcontext.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return ctxID, w.Header().Get("X-Request-ID")
}

func TestRequestID(t *testing.T) {
	t.Run("generates a UUID when absent", func(t *testing.T) {
		ctxID, respID := captureRequestID(t, "")
		assert.Len(t, ctxID, 36)
		assert.Equal(t, ctxID, respID)
	})

	t.Run("keeps a safe client id", func(t *testing.T) {
		ctxID, respID := captureRequestID(t, "trace.span_1234")
		assert.Equal(t, "trace.span_1234", ctxID)
		assert.Equal(t, "trace.span_1234", respID)
	})

	for name, bad := range map[string]string{
		"too long":  strings.Repeat("a", MaxRequestIDLength+1),
		"newline":   "abc\ninjected",
		"spaces":    "has spaces",
		"semicolon": "a;b",
	} {
		t.Run("replaces "+name, func(t *testing.T) {
			ctxID, _ := captureRequestID(t, bad)
			assert.NotEqual(t, bad, ctxID)
			assert.Len(t, ctxID, 36)
		})
	}
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct peer", "192.168.1.1:5000", "", "192.168.1.1"},
		{"untrusted peer cannot forward", "192.168.1.1:5000", "203.0.113.9", "192.168.1.1"},
		{"trusted proxy forwards first hop", "10.1.2.3:5000", "203.0.113.9, 10.1.2.3", "203.0.113.9"},
		{"trusted proxy with garbage header", "10.1.2.3:5000", "not-an-ip", "10.1.2.3"},
		{"ipv6 peer", "[2001:db8::1]:443", "", "2001:db8::1"},
		{"unparseable peer", "pipe", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := ClientIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = requestcontext.ClientIP(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/sessions/stats", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestLoggerAnonymizesClientAddress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil)
	req = req.WithContext(requestcontext.WithClientIP(req.Context(), "203.0.113.77"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":202`)
	assert.Contains(t, out, `"remote_addr_prefix":"203.0.113.0"`)
	assert.NotContains(t, out, "203.0.113.77")

	t.Run("healthy probes are not logged", func(t *testing.T) {
		buf.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Empty(t, buf.String())
	})
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100))))
	require.NoError(t, readErr)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 101))))
	require.Error(t, readErr)
}

func TestContentTypeJSON(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	tests := []struct {
		method, contentType string
		want                int
	}{
		{http.MethodPost, "application/json; charset=utf-8", http.StatusNoContent},
		{http.MethodPost, "", http.StatusNoContent},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodDelete, "text/plain", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %q", tt.method, tt.contentType)
	}
}

func TestLatencyUsesRoutePattern(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Delete("/admin/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {})

	for _, sessionID := range []string{"mcp_a", "mcp_b", "mcp_c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/admin/sessions/"+sessionID, nil))
	}

	assert.Equal(t, 1, promtestutil.CollectAndCount(m.EndpointLatency))
}
