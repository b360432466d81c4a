package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// MetricsCollector accumulates in-process request statistics. Counters reset
// on restart; there is no external metrics backend.
type MetricsCollector struct {
	mu            sync.Mutex
	startTime     time.Time
	totalRequests int64
	totalErrors   int64
	statusClasses map[string]int64
	totalLatency  time.Duration
	maxLatency    time.Duration
}

// Metrics is the process-wide collector the middleware and the metrics
// endpoints share.
var Metrics = NewMetricsCollector()

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:     time.Now(),
		statusClasses: make(map[string]int64),
	}
}

func (m *MetricsCollector) Record(status int, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if status >= 500 {
		m.totalErrors++
	}
	m.statusClasses[fmt.Sprintf("%dxx", status/100)]++
	m.totalLatency += latency
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
}

type MetricsSnapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	TotalRequests int64            `json:"total_requests"`
	TotalErrors   int64            `json:"total_errors"`
	ErrorRate     float64          `json:"error_rate"`
	AvgLatencyMs  float64          `json:"avg_latency_ms"`
	MaxLatencyMs  float64          `json:"max_latency_ms"`
	StatusClasses map[string]int64 `json:"status_classes"`
}

func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		UptimeSeconds: time.Since(m.startTime).Seconds(),
		TotalRequests: m.totalRequests,
		TotalErrors:   m.totalErrors,
		MaxLatencyMs:  float64(m.maxLatency) / float64(time.Millisecond),
		StatusClasses: make(map[string]int64, len(m.statusClasses)),
	}
	if m.totalRequests > 0 {
		snap.ErrorRate = float64(m.totalErrors) / float64(m.totalRequests)
		snap.AvgLatencyMs = float64(m.totalLatency) / float64(m.totalRequests) / float64(time.Millisecond)
	}
	for class, count := range m.statusClasses {
		snap.StatusClasses[class] = count
	}
	return snap
}

// CollectMetrics records status and latency for every request passing
// through the app.
func CollectMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		Metrics.Record(status, time.Since(start))
		return err
	}
}
