package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectorRecord(t *testing.T) {
	collector := NewMetricsCollector()

	collector.Record(200, 10*time.Millisecond)
	collector.Record(404, 20*time.Millisecond)
	collector.Record(500, 30*time.Millisecond)

	snap := collector.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.InDelta(t, 1.0/3.0, snap.ErrorRate, 0.001)
	assert.InDelta(t, 20.0, snap.AvgLatencyMs, 0.001)
	assert.InDelta(t, 30.0, snap.MaxLatencyMs, 0.001)
	assert.Equal(t, int64(1), snap.StatusClasses["2xx"])
	assert.Equal(t, int64(1), snap.StatusClasses["4xx"])
	assert.Equal(t, int64(1), snap.StatusClasses["5xx"])
}

func TestMetricsCollectorEmptySnapshot(t *testing.T) {
	snap := NewMetricsCollector().Snapshot()
	assert.Equal(t, int64(0), snap.TotalRequests)
	assert.Equal(t, 0.0, snap.ErrorRate)
	assert.Equal(t, 0.0, snap.AvgLatencyMs)
}

func TestCollectMetricsMiddleware(t *testing.T) {
	before := Metrics.Snapshot()

	app := fiber.New()
	app.Use(CollectMetrics())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	after := Metrics.Snapshot()
	assert.Equal(t, before.TotalRequests+2, after.TotalRequests)
	assert.Equal(t, before.StatusClasses["4xx"]+1, after.StatusClasses["4xx"])
}
