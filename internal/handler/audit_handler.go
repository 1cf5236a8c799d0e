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

// AuditHandler lets superadmins browse the audit trail.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the versioned API router.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/audit-logs", middleware.RequireRole(service.RoleSuperAdmin), h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePage(c)
	if err != nil {
		return utils.SendAppError(c, err)
	}
	actorID, err := parseOptionalUUIDQuery(c, "actor_id")
	if err != nil {
		return utils.SendAppError(c, err)
	}
	entityID, err := parseOptionalUUIDQuery(c, "entity_id")
	if err != nil {
		return utils.SendAppError(c, err)
	}

	result, err := h.service.List(c.UserContext(), dto.AuditLogListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    actorID,
		EntityID:   entityID,
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list audit logs")
	}
	return utils.OK(c, result.Items, "audit logs retrieved", result.Pagination)
}
