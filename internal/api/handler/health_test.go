package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestHealthHandler_Health(t *testing.T) {
	app := createTestApp()
	handler := NewHealthHandler(nil, func() int { return 3 })
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result HealthResponse
	decode(t, resp.Body, &result)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, Version, result.Version)
	require.NotNil(t, result.Gallery)
	assert.Equal(t, 3, *result.Gallery)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		want       string
	}{
		{"no database", nil, 200, "ready"},
		{"database up", pingerFunc(func(context.Context) error { return nil }), 200, "ready"},
		{"database down", pingerFunc(func(context.Context) error { return errors.New("connection refused") }), 503, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createTestApp()
			app.Get("/ready", NewHealthHandler(tt.db, nil).Ready)

			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result HealthResponse
			decode(t, resp.Body, &result)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}
