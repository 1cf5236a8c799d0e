package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
)

// SeedHandler loads seed documents posted by superadmins.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/seed", middleware.RequireRole(service.RoleSuperAdmin), h.seed)
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", []string{"request body must contain a seed document"})
	}

	report, err := h.service.Seed(c.UserContext(), body)
	if err != nil {
		return respondError(c, h.logger, err, "seed operation failed")
	}

	h.logger.Info().
		Str("activity_id", report.ActivityID.String()).
		Str("requested_by", actorFromContext(c).ID.String()).
		Msg("seed document loaded")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "seed loaded", report)
}
