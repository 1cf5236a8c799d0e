package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/observability"
)

// Observability counts and times every /api/ request and writes one log line
// per request. Health probes are skipped.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Path()
		if !strings.HasPrefix(path, "/api/") || strings.HasSuffix(path, "/health") {
			return err
		}

		elapsed := time.Since(start)
		route := routeTemplate(c)
		status := c.Response().StatusCode()
		recordRequest(c.Method(), route, status, elapsed)

		event := requestEvent(logger, status)
		event.Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Float64("latency_ms", float64(elapsed)/float64(time.Millisecond)).
			Str("latency_bucket", latencyBucket(elapsed))
		if actor := ActorFromContext(c); actor.Role != "" {
			event.Str("actor_role", actor.Role).Str("actor_id", actor.ID.String())
		}
		if activityID, ok := c.Locals(LocalActivityID).(uuid.UUID); ok {
			event.Str("activity_id", activityID.String())
		}
		event.Msg("request handled")

		return err
	}
}

func recordRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	observability.APIRequests().WithLabelValues(method, route, code).Inc()
	observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status >= fiber.StatusBadRequest {
		observability.APIErrors().WithLabelValues(method, route, code).Inc()
	}
}

func requestEvent(logger zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error()
	case status >= fiber.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Info()
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}

var latencyBuckets = []struct {
	limit time.Duration
	label string
}{
	{25 * time.Millisecond, "<=25ms"},
	{50 * time.Millisecond, "<=50ms"},
	{100 * time.Millisecond, "<=100ms"},
	{250 * time.Millisecond, "<=250ms"},
	{500 * time.Millisecond, "<=500ms"},
}

func latencyBucket(elapsed time.Duration) string {
	for _, bucket := range latencyBuckets {
		if elapsed <= bucket.limit {
			return bucket.label
		}
	}
	return ">500ms"
}
