package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/observability"
)

// ReportInvalidator drops cached reports after grading data changes.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, activityID uuid.UUID)
}

// ReportCache stores rendered reports in Redis. Keys embed a per-activity
// generation counter, so bumping the counter retires every report of the
// activity without scanning keys. A nil client disables caching.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewReportCache constructs the report cache.
func NewReportCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "report_cache").Logger(),
	}
}

// Invalidate bumps the activity's generation counter.
func (c *ReportCache) Invalidate(ctx context.Context, activityID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, generationKey(activityID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("activity_id", activityID.String()).Msg("failed to invalidate report cache")
	}
}

func (c *ReportCache) key(ctx context.Context, report string, activityID uuid.UUID, subject uuid.UUID, window dto.DateRange) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}

	generation, err := c.client.Get(ctx, generationKey(activityID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("failed to read report cache generation")
		return "", false
	}

	return fmt.Sprintf("reports:%s:%s:g%d:%s:%s", report, activityID, generation, subject, windowKey(window)), true
}

func (c *ReportCache) load(ctx context.Context, report, key string, target interface{}) bool {
	cached, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("report", report).Msg("failed to read report cache")
		}
		observability.ReportCacheLookups().WithLabelValues(report, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(cached, target); err != nil {
		observability.ReportCacheLookups().WithLabelValues(report, "miss").Inc()
		return false
	}

	observability.ReportCacheLookups().WithLabelValues(report, "hit").Inc()
	return true
}

func (c *ReportCache) store(ctx context.Context, report, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("report", report).Msg("failed to store report cache")
	}
}

func generationKey(activityID uuid.UUID) string {
	return fmt.Sprintf("reports:activity:%s:generation", activityID)
}

func windowKey(window dto.DateRange) string {
	start, end := "-", "-"
	if window.Start != nil {
		start = window.Start.UTC().Format(time.RFC3339Nano)
	}
	if window.End != nil {
		end = window.End.UTC().Format(time.RFC3339Nano)
	}
	return start + "_" + end
}

func reportInvalidatorOrNoop(reports ReportInvalidator) ReportInvalidator {
	if reports == nil {
		return (*ReportCache)(nil)
	}
	return reports
}
