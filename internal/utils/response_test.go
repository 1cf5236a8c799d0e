package utils_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/utils"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func TestEnvelopeShapes(t *testing.T) {
	app := fiber.New()
	app.Get("/ranking", func(c *fiber.Ctx) error {
		return utils.OK(c, []string{"Aisha", "Bilal"}, "", map[string]int{"page": 1, "total_items": 2})
	})
	app.Post("/sessions", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", map[string]string{"id": "s-1"})
	})
	app.Get("/bad-range", func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid date range", []string{"start must not be after end"})
	})

	cases := []struct {
		method, path string
		status       int
		success      bool
		message      string
		data, meta   string
		details      string
	}{
		{http.MethodGet, "/ranking", fiber.StatusOK, true, "success", `["Aisha","Bilal"]`, `{"page":1,"total_items":2}`, ""},
		{http.MethodPost, "/sessions", fiber.StatusCreated, true, "session created", `{"id":"s-1"}`, "", ""},
		{http.MethodGet, "/bad-range", fiber.StatusBadRequest, false, "invalid date range", "", "", `["start must not be after end"]`},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp := performRequest(t, app, tc.method, tc.path)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload envelope
			decode(t, resp, &payload)
			require.Equal(t, tc.success, payload.Success)
			require.Equal(t, tc.message, payload.Message)
			assertRaw(t, tc.data, payload.Data)
			assertRaw(t, tc.meta, payload.Meta)
			assertRaw(t, tc.details, payload.Details)
		})
	}
}

func assertRaw(t *testing.T, expected string, actual json.RawMessage) {
	t.Helper()
	if expected == "" {
		require.True(t, len(actual) == 0 || string(actual) == "null", "unexpected field %s", string(actual))
		return
	}
	require.JSONEq(t, expected, string(actual))
}

func TestSendAppErrorMapsKinds(t *testing.T) {
	app := fiber.New()
	app.Get("/validation", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, apperror.Validation([]string{"grade quiz: unknown grade type", "grade final: mark 120 exceeds full mark 100"}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, errors.New("dial tcp: connection refused"))
	})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return utils.SendAppError(c, apperror.Forbidden("not a member of this activity"))
	})

	resp := performRequest(t, app, http.MethodGet, "/validation")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var validation struct {
		Success bool     `json:"success"`
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	decode(t, resp, &validation)
	require.False(t, validation.Success)
	require.Equal(t, "VALIDATION_FAILED", validation.Code)
	require.Len(t, validation.Details, 2)

	resp = performRequest(t, app, http.MethodGet, "/internal")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var internal struct {
		Message string `json:"message"`
	}
	decode(t, resp, &internal)
	require.Equal(t, "internal server error", internal.Message)

	resp = performRequest(t, app, http.MethodGet, "/forbidden")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
