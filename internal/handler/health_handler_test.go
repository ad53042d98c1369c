package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return assert.AnError })

	tests := []struct {
		name       string
		database   Pinger
		cache      Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "all up", database: up, cache: up, wantStatus: http.StatusOK, wantBody: `{"status":"ok","database":"up","cache":"up"}`},
		{name: "cache down", database: up, cache: down, wantStatus: http.StatusOK, wantBody: `{"status":"ok","database":"up","cache":"down"}`},
		{name: "no cache", database: up, wantStatus: http.StatusOK, wantBody: `{"status":"ok","database":"up","cache":"down"}`},
		{name: "database down", database: down, cache: up, wantStatus: http.StatusServiceUnavailable, wantBody: `{"status":"unavailable","database":"down","cache":"up"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.database, tt.cache)
			c, rec := newContext(http.MethodGet, "/healthz", "")

			require.NoError(t, h.Health(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
