package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/service"
)

var (
	superadmin = service.Actor{ID: uuid.MustParse("0b8f6f5e-5d1e-4b43-9a55-3c1b6f0d2a01"), Role: service.RoleSuperAdmin}
	admin      = service.Actor{ID: uuid.MustParse("7c2d4e91-80aa-4f0b-b7a3-2f9e6c5d1b02"), Role: "admin"}
	anonymous  = service.Actor{}
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Details []string        `json:"details"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

// newTestApp mounts handlers under /api/v1 behind a fake authentication step.
func newTestApp(actor service.Actor, register func(router fiber.Router)) *fiber.App {
	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		if actor.ID != uuid.Nil {
			c.Locals(middleware.LocalUserID, actor.ID)
			c.Locals(middleware.LocalUserRole, actor.Role)
		}
		return c.Next()
	})
	register(api)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

// requireContract validates a raw response body against testdata/<name>.schema.json.
func requireContract(t *testing.T, name string, resp *http.Response) {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name+".schema.json"))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
