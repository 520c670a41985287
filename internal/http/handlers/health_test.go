package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecksDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var down error
	h := NewHealthHandler(map[string]Pinger{
		"ephemeral": pingFunc(func(context.Context) error { return down }),
	}, "test")

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz", h.Liveness)

	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/health"))
	assert.Equal(t, http.StatusOK, get("/readyz"))

	down = errors.New("redis gone")
	assert.Equal(t, http.StatusServiceUnavailable, get("/health"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/healthz"))
}
