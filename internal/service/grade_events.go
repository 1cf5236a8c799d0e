package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Grade event types.
const (
	EventSessionUpdated = "session.updated"
	EventSessionDeleted = "session.deleted"
	EventGlobalUpdated  = "global.updated"
)

// GradeEvent announces a change to a student's marks.
type GradeEvent struct {
	Source           string     `json:"source"`
	Type             string     `json:"type"`
	ActivityID       uuid.UUID  `json:"activity_id"`
	StudentID        *uuid.UUID `json:"student_id,omitempty"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	TotalSessionMark *float64   `json:"total_session_mark,omitempty"`
	TotalFinalMark   *float64   `json:"total_final_mark,omitempty"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// EventPublisher fans grade events out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event GradeEvent)
}

type gradeEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsPrefix   string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewEventPublisher publishes on Redis pub/sub and NATS. Either transport may be nil.
// With channelBase "grading" events go to the Redis channel "grading:events" and to
// NATS subjects such as "grading.session.updated".
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	prefix := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		prefix = strings.ReplaceAll(channelBase, ":", ".")
	}

	return &gradeEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsPrefix:   prefix,
		logger:       logger.With().Str("component", "grade_events").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *gradeEventPublisher) Publish(ctx context.Context, event GradeEvent) {
	event.Source = p.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to encode grade event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish grade event to redis")
		}
	}

	if p.nats != nil && p.natsPrefix != "" {
		if err := p.nats.Publish(p.natsPrefix+"."+event.Type, payload); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish grade event to nats")
		}
	}
}

func floatRef(v float64) *float64 {
	return &v
}

func uuidRef(id uuid.UUID) *uuid.UUID {
	return &id
}

func eventPublisherOrNoop(events EventPublisher, logger zerolog.Logger) EventPublisher {
	if events == nil {
		return NewEventPublisher(nil, nil, "", logger)
	}
	return events
}
