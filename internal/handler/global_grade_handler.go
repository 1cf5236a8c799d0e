package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// GlobalGradeHandler exposes a student's exam grades within an activity.
type GlobalGradeHandler struct {
	service service.GlobalGradeService
	guard   guard
	logger  zerolog.Logger
}

// NewGlobalGradeHandler constructs the handler.
func NewGlobalGradeHandler(service service.GlobalGradeService, access service.AccessService, logger zerolog.Logger) *GlobalGradeHandler {
	return &GlobalGradeHandler{
		service: service,
		guard:   guard{access: access},
		logger:  logger.With().Str("component", "global_grade_handler").Logger(),
	}
}

// Register attaches global grade endpoints to the versioned API router.
func (h *GlobalGradeHandler) Register(router fiber.Router) {
	path := "/activities/:activityId/students/:studentId/global-grades"
	router.Get(path, h.guard.member(middleware.ScopeActivity, h.get))
	router.Put(path, h.guard.member(middleware.ScopeActivity, h.upsert))
}

func (h *GlobalGradeHandler) get(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	grade, err := h.service.GetOrInit(c.UserContext(), activityID, studentID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load global grade")
	}
	return utils.SendSuccess(c, "global grade retrieved", grade)
}

func (h *GlobalGradeHandler) upsert(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.UpsertGlobalGradeRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	grade, err := h.service.Upsert(c.UserContext(), activityID, studentID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to save global grade")
	}
	return utils.SendSuccess(c, "global grade saved", grade)
}
