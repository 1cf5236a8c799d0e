package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// SessionHandler exposes session creation and attendance endpoints.
type SessionHandler struct {
	service service.SessionService
	guard   guard
	logger  zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service service.SessionService, access service.AccessService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		guard:   guard{access: access},
		logger:  logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches session endpoints to the versioned API router.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/groups/:groupId/sessions", h.guard.member(middleware.ScopeGroup, h.create))
	router.Get("/groups/:groupId/sessions", h.guard.member(middleware.ScopeGroup, h.listByGroup))
	router.Get("/sessions/:sessionId", h.guard.member(middleware.ScopeSession, h.get))
	router.Patch("/sessions/:sessionId/students/:studentId", h.guard.member(middleware.ScopeSession, h.updateStudent))
	router.Delete("/sessions/:sessionId", middleware.RequireRole(service.RoleSuperAdmin), h.guard.authenticated(h.delete))
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.CreateSessionRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	session, err := h.service.Create(c.UserContext(), groupID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", session)
}

func (h *SessionHandler) listByGroup(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	sessions, err := h.service.ListByGroup(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list sessions")
	}
	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *SessionHandler) get(c *fiber.Ctx) error {
	sessionID, err := parseUUIDParam(c, "sessionId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	session, err := h.service.Get(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}
	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *SessionHandler) updateStudent(c *fiber.Ctx) error {
	sessionID, err := parseUUIDParam(c, "sessionId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.UpdateSessionStudentRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	session, err := h.service.UpdateStudent(c.UserContext(), sessionID, studentID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update session student")
	}
	return utils.SendSuccess(c, "attendance recorded", session)
}

func (h *SessionHandler) delete(c *fiber.Ctx) error {
	sessionID, err := parseUUIDParam(c, "sessionId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	if err := h.service.Delete(c.UserContext(), sessionID, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete session")
	}
	return utils.SendSuccess(c, "session deleted", nil)
}
