package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// Scope names the route parameter that identifies the activity being touched.
type Scope string

const (
	ScopeNone     Scope = ""
	ScopeActivity Scope = "activityId"
	ScopeGroup    Scope = "groupId"
	ScopeSession  Scope = "sessionId"
)

// LocalActivityID holds the activity resolved by WithAuth.
const LocalActivityID = "activity_id"

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Access      service.AccessService
	Scope       Scope
	RequireHead bool
}

// WithAuth wraps a handler with an authentication check and, when a scope is
// configured, an activity membership check.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor.ID == uuid.Nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if opts.Scope == ScopeNone || opts.Access == nil {
			return handler(c)
		}

		id, err := uuid.Parse(c.Params(string(opts.Scope)))
		if err != nil {
			return utils.SendAppError(c, apperror.InvalidReference(string(opts.Scope)))
		}

		ctx := c.UserContext()
		activityID := id
		switch opts.Scope {
		case ScopeGroup:
			activityID, err = opts.Access.ActivityOfGroup(ctx, id)
		case ScopeSession:
			activityID, err = opts.Access.ActivityOfSession(ctx, id)
		}
		if err != nil {
			return utils.SendAppError(c, err)
		}

		if err := opts.Access.Authorize(ctx, actor, activityID, opts.RequireHead); err != nil {
			return utils.SendAppError(c, err)
		}
		c.Locals(LocalActivityID, activityID)
		return handler(c)
	}
}
