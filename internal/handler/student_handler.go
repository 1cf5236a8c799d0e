package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// StudentHandler exposes the student directory.
type StudentHandler struct {
	service service.StudentService
	guard   guard
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student endpoints to the versioned API router.
func (h *StudentHandler) Register(router fiber.Router) {
	students := router.Group("/students")
	students.Post("/", h.guard.authenticated(h.create))
	students.Get("/", h.guard.authenticated(h.list))
	students.Get("/:studentId", h.guard.authenticated(h.get))
	students.Patch("/:studentId", h.guard.authenticated(h.update))
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateStudentRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	student, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePage(c)
	if err != nil {
		return utils.SendAppError(c, err)
	}

	result, err := h.service.List(c.UserContext(), dto.StudentListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}
	return utils.OK(c, result.Items, "students retrieved", result.Pagination)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	student, err := h.service.Get(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	var payload dto.UpdateStudentRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendAppError(c, err)
	}

	student, err := h.service.Update(c.UserContext(), studentID, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update student")
	}
	return utils.SendSuccess(c, "student updated", student)
}
