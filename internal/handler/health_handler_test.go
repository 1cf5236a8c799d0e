package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/config"
	"github.com/noah-isme/khazandria-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Khazandria API", AppEnv: "test"}
	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp := doRequest(t, app, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readEnvelope(t, resp)
	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.True(t, body.Success)
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, cfg.AppName, payload.Service)
	require.Equal(t, cfg.AppEnv, payload.Environment)
	require.WithinDuration(t, time.Now().UTC(), payload.Timestamp, 2*time.Second)
}

func TestHealthCheckReportsFailingDependency(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{},
		handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }},
		handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	))

	resp := doRequest(t, app, http.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(readEnvelope(t, resp).Data, &payload))
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, map[string]string{"database": "up", "redis": "down"}, payload.Dependencies)
}
