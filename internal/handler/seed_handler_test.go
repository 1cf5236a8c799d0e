package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/handler"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

type stubSeedService struct {
	report service.SeedReport
	err    error
	raw    []byte
}

func (s *stubSeedService) Seed(_ context.Context, raw []byte) (service.SeedReport, error) {
	s.raw = append([]byte(nil), raw...)
	return s.report, s.err
}

func seedApp(actor service.Actor, svc *stubSeedService) *fiber.App {
	return newTestApp(actor, handler.NewSeedHandler(svc, zerolog.Nop()).Register)
}

func TestSeedHandlerLoadsDocument(t *testing.T) {
	svc := &stubSeedService{report: service.SeedReport{ActivityID: uuid.New(), Groups: 1, Students: 2}}

	resp := doRequest(t, seedApp(superadmin, svc), http.MethodPost, "/api/v1/seed", `{"activity":{}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	payload := readEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Contains(t, string(payload.Data), svc.report.ActivityID.String())
	require.JSONEq(t, `{"activity":{}}`, string(svc.raw))
}

func TestSeedHandlerRejections(t *testing.T) {
	svc := &stubSeedService{err: apperror.Validation([]string{"/groups: minimum 1 items required, but found 0 items"})}

	resp := doRequest(t, seedApp(admin, svc), http.MethodPost, "/api/v1/seed", `{}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Nil(t, svc.raw)

	resp = doRequest(t, seedApp(superadmin, svc), http.MethodPost, "/api/v1/seed", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, seedApp(superadmin, svc), http.MethodPost, "/api/v1/seed", `{"groups":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := readEnvelope(t, resp)
	require.Equal(t, string(apperror.KindValidation), payload.Code)
	require.Len(t, payload.Details, 1)
}
