package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

type fakeAccess struct {
	activityID uuid.UUID
	members    map[uuid.UUID]bool // value: is head
	calls      int
}

func (f *fakeAccess) Authorize(_ context.Context, actor service.Actor, activityID uuid.UUID, requireHead bool) error {
	f.calls++
	if actor.Role == service.RoleSuperAdmin {
		return nil
	}
	if activityID != f.activityID {
		return apperror.NotFound("activity")
	}
	head, ok := f.members[actor.ID]
	if !ok {
		return apperror.Forbidden("you are not an admin of this activity")
	}
	if requireHead && !head {
		return apperror.Forbidden("only the head admin may perform this action")
	}
	return nil
}

func (f *fakeAccess) ActivityOfGroup(context.Context, uuid.UUID) (uuid.UUID, error) {
	return f.activityID, nil
}

func (f *fakeAccess) ActivityOfSession(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, apperror.NotFound("session")
	}
	return f.activityID, nil
}

func guardedApp(userID uuid.UUID, role string, opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals(middleware.LocalUserID, userID)
		}
		c.Locals(middleware.LocalUserRole, role)
		return c.Next()
	})
	handler := middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"activity_id": c.Locals(middleware.LocalActivityID)})
	}, opts)
	app.Get("/activities/:activityId", handler)
	app.Get("/groups/:groupId", handler)
	app.Get("/sessions/:sessionId", handler)
	app.Get("/students", handler)
	return app
}

func perform(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestWithAuthRequiresUser(t *testing.T) {
	app := guardedApp(uuid.Nil, "admin", middleware.AuthOptions{})

	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, "/students").StatusCode)
}

func TestWithAuthWithoutScopeOnlyAuthenticates(t *testing.T) {
	access := &fakeAccess{}
	app := guardedApp(uuid.New(), "admin", middleware.AuthOptions{Access: access})

	require.Equal(t, fiber.StatusOK, perform(t, app, "/students").StatusCode)
	require.Zero(t, access.calls)
}

func TestWithAuthMemberReachesActivity(t *testing.T) {
	member := uuid.New()
	access := &fakeAccess{activityID: uuid.New(), members: map[uuid.UUID]bool{member: false}}

	app := guardedApp(member, "admin", middleware.AuthOptions{Access: access, Scope: middleware.ScopeGroup})
	require.Equal(t, fiber.StatusOK, perform(t, app, "/groups/"+uuid.NewString()).StatusCode)

	app = guardedApp(member, "admin", middleware.AuthOptions{Access: access, Scope: middleware.ScopeActivity})
	require.Equal(t, fiber.StatusOK, perform(t, app, "/activities/"+access.activityID.String()).StatusCode)
}

func TestWithAuthRejectsOutsiders(t *testing.T) {
	access := &fakeAccess{activityID: uuid.New(), members: map[uuid.UUID]bool{}}
	app := guardedApp(uuid.New(), "admin", middleware.AuthOptions{Access: access, Scope: middleware.ScopeSession})

	require.Equal(t, fiber.StatusForbidden, perform(t, app, "/sessions/"+uuid.NewString()).StatusCode)
}

func TestWithAuthHeadOnly(t *testing.T) {
	member := uuid.New()
	head := uuid.New()
	access := &fakeAccess{activityID: uuid.New(), members: map[uuid.UUID]bool{member: false, head: true}}
	path := "/activities/" + access.activityID.String()
	opts := middleware.AuthOptions{Access: access, Scope: middleware.ScopeActivity, RequireHead: true}

	require.Equal(t, fiber.StatusForbidden, perform(t, guardedApp(member, "admin", opts), path).StatusCode)
	require.Equal(t, fiber.StatusOK, perform(t, guardedApp(head, "admin", opts), path).StatusCode)
	require.Equal(t, fiber.StatusOK, perform(t, guardedApp(uuid.New(), "superadmin", opts), path).StatusCode)
}

func TestWithAuthResolvesScopeErrors(t *testing.T) {
	access := &fakeAccess{activityID: uuid.New()}
	app := guardedApp(uuid.New(), "admin", middleware.AuthOptions{Access: access, Scope: middleware.ScopeSession})

	require.Equal(t, fiber.StatusBadRequest, perform(t, app, "/sessions/not-a-uuid").StatusCode)
	require.Equal(t, fiber.StatusNotFound, perform(t, app, "/sessions/"+uuid.Nil.String()).StatusCode)
}
