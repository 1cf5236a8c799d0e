package service

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/repository"
)

// Options carries the optional infrastructure behind the services. A nil
// Redis client disables report caching and Pub/Sub events; a nil NATS
// connection disables broker events.
type Options struct {
	Redis          *redis.Client
	NATS           *nats.Conn
	EventsChannel  string
	ReportCacheTTL time.Duration
}

// Services bundles every service used by the HTTP layer and the seed command.
type Services struct {
	Audit        AuditService
	Access       AccessService
	Activities   ActivityService
	Groups       GroupService
	Students     StudentService
	Enrollments  EnrollmentService
	Sessions     SessionService
	GlobalGrades GlobalGradeService
	Reports      ReportService
}

// NewServices wires the services on top of the repositories.
func NewServices(repos repository.Repositories, opts Options, logger zerolog.Logger) Services {
	validate := NewValidator()

	var cache *ReportCache
	if opts.Redis != nil {
		cache = NewReportCache(opts.Redis, opts.ReportCacheTTL, logger)
	}
	events := NewEventPublisher(opts.Redis, opts.NATS, opts.EventsChannel, logger)
	audit := NewAuditService(repos.AuditLogs, logger)

	return Services{
		Audit:        audit,
		Access:       NewAccessService(repos),
		Activities:   NewActivityService(repos, validate, cache, audit, logger),
		Groups:       NewGroupService(repos, validate, audit, logger),
		Students:     NewStudentService(repos.Students, validate, audit, logger),
		Enrollments:  NewEnrollmentService(repos, validate, cache, audit, logger),
		Sessions:     NewSessionService(repos, validate, cache, events, audit, logger),
		GlobalGrades: NewGlobalGradeService(repos, validate, cache, events, audit, logger),
		Reports:      NewReportService(repos, cache, logger),
	}
}
