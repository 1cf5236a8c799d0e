package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// ReportHandler exposes the attendance and grade reports.
type ReportHandler struct {
	service service.ReportService
	guard   guard
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, access service.AccessService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		guard:   guard{access: access},
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report endpoints to the versioned API router.
func (h *ReportHandler) Register(router fiber.Router) {
	reports := router.Group("/reports")
	reports.Get("/activity/:activityId/student/:studentId/summary", h.guard.member(middleware.ScopeActivity, h.studentSummary))
	reports.Get("/group/:groupId/performance", h.guard.member(middleware.ScopeGroup, h.groupPerformance))
}

func (h *ReportHandler) studentSummary(c *fiber.Ctx) error {
	activityID, err := parseUUIDParam(c, "activityId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	window, err := parseDateRange(c)
	if err != nil {
		return utils.SendAppError(c, err)
	}

	summary, err := h.service.StudentSummary(c.UserContext(), activityID, studentID, window)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build student summary")
	}
	c.Set("X-Cache-Hit", strconv.FormatBool(summary.CacheHit))
	return utils.SendSuccess(c, "student summary retrieved", summary)
}

func (h *ReportHandler) groupPerformance(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "groupId")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	window, err := parseDateRange(c)
	if err != nil {
		return utils.SendAppError(c, err)
	}

	report, err := h.service.GroupPerformance(c.UserContext(), groupID, window)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build group performance")
	}
	c.Set("X-Cache-Hit", strconv.FormatBool(report.CacheHit))
	return utils.SendSuccess(c, "group performance retrieved", report)
}
