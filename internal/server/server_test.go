package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"fitness-coach/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		ping   error
		status int
	}{
		{"health", "/health", errors.New("db down"), http.StatusOK},
		{"ready", "/ready", nil, http.StatusOK},
		{"not ready", "/ready", errors.New("db down"), http.StatusServiceUnavailable},
		{"unknown", "/metrics", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(pingFunc(func(context.Context) error { return tt.ping }), logger.NewNop())
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
