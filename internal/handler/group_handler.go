package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// GroupHandler exposes groups and their student rosters.
type GroupHandler struct {
	groups      service.GroupService
	enrollments service.EnrollmentService
	guard       guard
	logger      zerolog.Logger
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(groups service.GroupService, enrollments service.EnrollmentService, access service.AccessService, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		groups:      groups,
		enrollments: enrollments,
		guard:       guard{access: access},
		logger:      logger.With().Str("component", "group_handler").Logger(),
	}
}

// Register attaches group and enrollment endpoints to the versioned API router.
func (h *GroupHandler) Register(router fiber.Router) {
	router.Post("/activities/:activityId/groups", h.guard.member(middleware.ScopeActivity, h.create))
	router.Get("/activities/:activityId/groups", h.guard.member(middleware.ScopeActivity, h.listByActivity))

	groups := router.Group("/groups")
	groups.Get("/:groupId", h.guard.member(middleware.ScopeGroup, h.get))
	groups.Patch("/:groupId", h.guard.member(middleware.ScopeGroup, h.update))
	groups.Post("/:groupId/students", h.guard.member(middleware.ScopeGroup, h.enroll))
	groups.Get("/:groupId/students", h.guard.member(middleware.ScopeGroup, h.roster))
	groups.Delete("/:groupId/students/:studentId", h.guard.member(middleware.ScopeGroup, h.unenroll))
}

func (h *GroupHandler) create(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.CreateGroupRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	group, err := h.groups.Create(c.UserContext(), activityID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create group")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group created", group)
}

func (h *GroupHandler) listByActivity(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	groups, err := h.groups.ListByActivity(c.UserContext(), activityID, c.Query("label"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list groups")
	}
	return utils.SendSuccess(c, "groups retrieved", groups)
}

func (h *GroupHandler) get(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	group, err := h.groups.Get(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load group")
	}
	return utils.SendSuccess(c, "group retrieved", group)
}

func (h *GroupHandler) update(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.UpdateGroupRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	group, err := h.groups.Update(c.UserContext(), groupID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update group")
	}
	return utils.SendSuccess(c, "group updated", group)
}

func (h *GroupHandler) enroll(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.EnrollStudentRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	enrollment, err := h.enrollments.Enroll(c.UserContext(), groupID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to enroll student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", enrollment)
}

func (h *GroupHandler) roster(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	roster, err := h.enrollments.ListByGroup(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list group students")
	}
	return utils.SendSuccess(c, "group students retrieved", roster)
}

func (h *GroupHandler) unenroll(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	if err := h.enrollments.Remove(c.UserContext(), groupID, studentID, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to remove student from group")
	}
	return utils.SendSuccess(c, "student removed from group", nil)
}
