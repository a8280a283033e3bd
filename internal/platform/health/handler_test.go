package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (int, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestReadiness(t *testing.T) {
	h := New("test")
	h.RegisterCheck("database", func(context.Context) error { return nil })

	code, body := serve(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	code, body = serve(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "up", checks["database"])
	assert.Equal(t, "down: connection refused", checks["redis"])
}

func TestReadinessCheckHonoursTimeout(t *testing.T) {
	h := New("test")
	h.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, _ := serve(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("staging")

	code, body := serve(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])

	code, body = serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "staging", body["environment"])
	assert.Equal(t, Version, body["version"])
}
