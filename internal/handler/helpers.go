package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.Validation([]string{fmt.Sprintf("%s must be an integer", key)})
	}
	return parsed, nil
}

func parsePage(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func parseUUIDParam(c *fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(key)))
	if err != nil {
		return uuid.Nil, apperror.InvalidReference(key)
	}
	return id, nil
}

func parseOptionalUUIDQuery(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, apperror.InvalidReference(key)
	}
	return &id, nil
}

// parseDateRange reads ?start and ?end. The end bound is returned as given;
// the report service extends it to the end of the day.
func parseDateRange(c *fiber.Ctx) (dto.DateRange, error) {
	var window dto.DateRange
	var details []string
	for _, bound := range []struct {
		key    string
		target **time.Time
	}{{"start", &window.Start}, {"end", &window.End}} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		parsed, err := dto.ParseDate(raw)
		if err != nil {
			details = append(details, fmt.Sprintf("%s: %v", bound.key, err))
			continue
		}
		*bound.target = &parsed
	}
	if len(details) > 0 {
		return dto.DateRange{}, apperror.Validation(details)
	}
	if window.Start != nil && window.End != nil && window.Start.After(*window.End) {
		return dto.DateRange{}, apperror.Validation([]string{"start must not be after end"})
	}
	return window, nil
}

func parseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return apperror.Validation([]string{"request body must be valid JSON"})
	}
	return nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return middleware.ActorFromContext(c)
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError logs unexpected failures and writes the error envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, message string) error {
	appErr := apperror.FromError(err)
	if appErr.Kind == apperror.KindInternal {
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(message)
	}
	return utils.SendAppError(c, appErr)
}

// guard applies the activity access check to route handlers.
type guard struct {
	access service.AccessService
}

func (g guard) member(scope middleware.Scope, handler fiber.Handler) fiber.Handler {
	return middleware.WithAuth(handler, middleware.AuthOptions{Access: g.access, Scope: scope})
}

func (g guard) head(scope middleware.Scope, handler fiber.Handler) fiber.Handler {
	return middleware.WithAuth(handler, middleware.AuthOptions{Access: g.access, Scope: scope, RequireHead: true})
}

func (g guard) authenticated(handler fiber.Handler) fiber.Handler {
	return middleware.WithAuth(handler, middleware.AuthOptions{})
}
