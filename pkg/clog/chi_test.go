package clog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogChiMiddlewareStampsRequestID(t *testing.T) {
	var handlerCtx context.Context
	handler := SlogChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCtx = r.Context()
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	headerID := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, headerID)

	// the same id is available to handler-side logging
	assert.Equal(t, headerID, GetAttribute[string](handlerCtx, "request_id"))
	assert.Equal(t, http.MethodGet, GetAttribute[string](handlerCtx, "method"))
	assert.Equal(t, "/api/tasks", GetAttribute[string](handlerCtx, "path"))
}

func TestSlogChiMiddlewareRequestIDsAreUnique(t *testing.T) {
	handler := SlogChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	seen := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		if _, ok := seen[id]; ok {
			t.Fatalf("request id %q issued twice", id)
		}
		seen[id] = struct{}{}
	}
}
