package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// ActivityHandler exposes activity management and admin memberships.
type ActivityHandler struct {
	service service.ActivityService
	guard   guard
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, access service.AccessService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		guard:   guard{access: access},
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints to the versioned API router.
func (h *ActivityHandler) Register(router fiber.Router) {
	superadmin := middleware.RequireRole(service.RoleSuperAdmin)

	activities := router.Group("/activities")
	activities.Post("/", superadmin, h.guard.authenticated(h.create))
	activities.Get("/", h.guard.authenticated(h.list))
	activities.Get("/:activityId", h.guard.member(middleware.ScopeActivity, h.get))
	activities.Patch("/:activityId", h.guard.head(middleware.ScopeActivity, h.update))
	activities.Patch("/:activityId/head", superadmin, h.guard.authenticated(h.reassignHead))
	activities.Get("/:activityId/admins", h.guard.member(middleware.ScopeActivity, h.listMembers))
	activities.Post("/:activityId/admins", h.guard.head(middleware.ScopeActivity, h.addMember))
	activities.Delete("/:activityId/admins/:userId", h.guard.head(middleware.ScopeActivity, h.removeMember))
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateActivityRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	activity, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePage(c)
	if err != nil {
		return utils.SendAppError(c, err)
	}

	result, err := h.service.List(c.UserContext(), dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("q")),
	}, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}
	return utils.OK(c, result.Items, "activities retrieved", result.Pagination)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	activity, err := h.service.Get(c.UserContext(), activityID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load activity")
	}
	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.UpdateActivityRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	activity, err := h.service.Update(c.UserContext(), activityID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity")
	}
	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) reassignHead(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.ReassignHeadRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	activity, err := h.service.ReassignHead(c.UserContext(), activityID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to reassign head admin")
	}
	return utils.SendSuccess(c, "head admin reassigned", activity)
}

func (h *ActivityHandler) listMembers(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	members, err := h.service.ListMembers(c.UserContext(), activityID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list admins")
	}
	return utils.SendSuccess(c, "admins retrieved", members)
}

func (h *ActivityHandler) addMember(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.AddMemberRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	member, err := h.service.AddMember(c.UserContext(), activityID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to add admin")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "admin added", member)
}

func (h *ActivityHandler) removeMember(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	userID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	if err := h.service.RemoveMember(c.UserContext(), activityID, userID, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to remove admin")
	}
	return utils.SendSuccess(c, "admin removed", nil)
}
