package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/dto"
)

func TestAuditServiceRecordMasksContactDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entityID := uuid.New()

	entry, err := env.audit.Record(ctx, AuditEntry{
		Actor:      Actor{ID: uuid.New(), Role: " Admin "},
		Action:     "Student.Created",
		EntityType: "Student",
		EntityID:   entityID,
		Metadata: map[string]interface{}{
			"name":         "Aisha",
			"email":        "aisha@example.com",
			"parent_phone": "0812",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "student.created", entry.Action)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["parent_phone"])
	require.Equal(t, "Aisha", entry.Metadata["name"])

	listed, err := env.audit.List(ctx, dto.AuditLogListRequest{EntityID: &entityID})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, "student", listed.Items[0].EntityType)
}

func TestAuditServiceRecordRequiresAction(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.audit.Record(context.Background(), AuditEntry{EntityType: "session"})
	require.Error(t, err)
}

func TestAuditServiceSystemActor(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.audit.Record(context.Background(), AuditEntry{Action: "seed.loaded", EntityType: "activity", EntityID: uuid.New()})
	require.NoError(t, err)
	require.Nil(t, entry.ActorID)
	require.Equal(t, "system", entry.ActorRole)
}

func TestEventPublisherWithoutTransports(t *testing.T) {
	publisher := NewEventPublisher(nil, nil, "grading", testLogger())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), GradeEvent{Type: EventGlobalUpdated, ActivityID: uuid.New()})
	})
}

func TestReportCacheNilIsSafe(t *testing.T) {
	var cache *ReportCache
	require.NotPanics(t, func() {
		cache.Invalidate(context.Background(), uuid.New())
	})
	_, ok := cache.key(context.Background(), reportStudentSummary, uuid.New(), uuid.New(), dto.DateRange{})
	require.False(t, ok)
}
