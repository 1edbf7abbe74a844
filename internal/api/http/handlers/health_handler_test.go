package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-core/internal/api/http/handlers"
	"github.com/spec-kit/support-core/internal/observability"
)

func TestHealthLive(t *testing.T) {
	app := fiber.New()
	h := handlers.NewHealthHandler("support-core", "test", nil, nil, nil)
	app.Get("/health/live", h.Live)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthReadyWithoutBackends(t *testing.T) {
	app := fiber.New()
	h := handlers.NewHealthHandler("support-core", "test", nil, nil, nil)
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	// In-memory deployments have no backends and must still report ready.
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "not configured", body.Dependencies["postgres"])
	assert.Equal(t, "not configured", body.Dependencies["redis"])
}

func TestHealthMetrics(t *testing.T) {
	app := fiber.New()
	metrics := observability.NewMetrics()
	metrics.RecordRequest("/tickets", "POST", 201, 12*time.Millisecond)
	metrics.RecordError("/tickets", "POST", "CONFLICT")

	h := handlers.NewHealthHandler("support-core", "test", nil, nil, metrics)
	app.Get("/health/metrics", h.Metrics)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Requests map[string]int64 `json:"requests"`
		Errors   map[string]int64 `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Requests["/tickets|POST|201"])
	assert.Equal(t, int64(1), body.Errors["/tickets|POST|CONFLICT"])
}
