package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// GradeTypePayload describes one catalog item.
type GradeTypePayload struct {
	Name     string  `json:"name" validate:"required,max=100"`
	FullMark float64 `json:"full_mark" validate:"gte=0"`
}

// CatalogFromPayload converts catalog payloads into model grade types.
func CatalogFromPayload(payload []GradeTypePayload) []models.GradeType {
	catalog := make([]models.GradeType, 0, len(payload))
	for _, item := range payload {
		catalog = append(catalog, models.GradeType{Name: item.Name, FullMark: item.FullMark})
	}
	return catalog
}

// CreateActivityRequest defines an activity and its grade catalogs.
type CreateActivityRequest struct {
	Name              string             `json:"name" validate:"required,max=255"`
	HeadAdminID       string             `json:"head_admin_id" validate:"required,uuid"`
	SessionBonusMax   *float64           `json:"session_bonus_max" validate:"omitempty,gte=0"`
	SessionGradeTypes []GradeTypePayload `json:"session_grade_types" validate:"omitempty,dive"`
	GlobalGradeTypes  []GradeTypePayload `json:"global_grade_types" validate:"omitempty,dive"`
}

// UpdateActivityRequest patches an activity. Nil fields are left unchanged;
// an empty catalog list clears the catalog.
type UpdateActivityRequest struct {
	Name              *string            `json:"name" validate:"omitempty,min=1,max=255"`
	SessionBonusMax   *float64           `json:"session_bonus_max" validate:"omitempty,gte=0"`
	SessionGradeTypes []GradeTypePayload `json:"session_grade_types" validate:"omitempty,dive"`
	GlobalGradeTypes  []GradeTypePayload `json:"global_grade_types" validate:"omitempty,dive"`
}

// ActivityListRequest filters activity listings.
type ActivityListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// ActivityResponse serialises an activity.
type ActivityResponse struct {
	ID                uuid.UUID          `json:"id"`
	Name              string             `json:"name"`
	HeadAdminID       uuid.UUID          `json:"head_admin_id"`
	SessionBonusMax   float64            `json:"session_bonus_max"`
	SessionGradeTypes []models.GradeType `json:"session_grade_types"`
	GlobalGradeTypes  []models.GradeType `json:"global_grade_types"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewActivityResponse maps an activity model to its response.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:                activity.ID,
		Name:              activity.Name,
		HeadAdminID:       activity.HeadAdminID,
		SessionBonusMax:   activity.SessionBonusMax,
		SessionGradeTypes: nonNilCatalog(activity.SessionCatalog()),
		GlobalGradeTypes:  nonNilCatalog(activity.GlobalCatalog()),
		CreatedAt:         activity.CreatedAt,
		UpdatedAt:         activity.UpdatedAt,
	}
}

func nonNilCatalog(catalog []models.GradeType) []models.GradeType {
	if catalog == nil {
		return []models.GradeType{}
	}
	return catalog
}

// ActivityListResponse wraps a paginated activity list.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// ReassignHeadRequest hands the head role to another user.
type ReassignHeadRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// AddMemberRequest grants a user admin access to an activity.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// MembershipResponse serialises an activity membership.
type MembershipResponse struct {
	ActivityID uuid.UUID `json:"activity_id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMembershipResponse maps a membership model to its response.
func NewMembershipResponse(membership models.Membership) MembershipResponse {
	return MembershipResponse{
		ActivityID: membership.ActivityID,
		UserID:     membership.UserID,
		Role:       string(membership.Role),
		CreatedAt:  membership.CreatedAt,
	}
}

// CreateGroupRequest adds a group to an activity.
type CreateGroupRequest struct {
	Name   string   `json:"name" validate:"required,max=255"`
	Labels []string `json:"labels" validate:"omitempty,dive,required,max=50"`
}

// UpdateGroupRequest patches a group.
type UpdateGroupRequest struct {
	Name   *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Labels []string `json:"labels" validate:"omitempty,dive,required,max=50"`
}

// GroupResponse serialises a group.
type GroupResponse struct {
	ID         uuid.UUID `json:"id"`
	ActivityID uuid.UUID `json:"activity_id"`
	Name       string    `json:"name"`
	Labels     []string  `json:"labels"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewGroupResponse maps a group model to its response.
func NewGroupResponse(group models.Group) GroupResponse {
	labels := []string(group.Labels)
	if labels == nil {
		labels = []string{}
	}
	return GroupResponse{
		ID:         group.ID,
		ActivityID: group.ActivityID,
		Name:       group.Name,
		Labels:     labels,
		CreatedAt:  group.CreatedAt,
		UpdatedAt:  group.UpdatedAt,
	}
}

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateStudentRequest patches a student.
type UpdateStudentRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// StudentListRequest filters student listings.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// StudentResponse serialises a student.
type StudentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentResponse maps a student model to its response.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:        student.ID,
		Name:      student.Name,
		Phone:     student.Phone,
		Email:     student.Email,
		CreatedAt: student.CreatedAt,
		UpdatedAt: student.UpdatedAt,
	}
}

// StudentListResponse wraps a paginated student list.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// EnrollStudentRequest places a student in a group.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

// EnrollmentResponse serialises a roster entry.
type EnrollmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ActivityID  uuid.UUID `json:"activity_id"`
	GroupID     uuid.UUID `json:"group_id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEnrollmentResponse maps an enrollment model to its response.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          enrollment.ID,
		ActivityID:  enrollment.ActivityID,
		GroupID:     enrollment.GroupID,
		StudentID:   enrollment.StudentID,
		StudentName: enrollment.Student.Name,
		CreatedAt:   enrollment.CreatedAt,
	}
}

// AuditLogListRequest filters the audit trail.
type AuditLogListRequest struct {
	Page       int
	PageSize   int
	ActorID    *uuid.UUID
	EntityID   *uuid.UUID
	Action     string
	EntityType string
}

// AuditLogResponse serialises an audit entry.
type AuditLogResponse struct {
	ID         uuid.UUID              `json:"id"`
	ActorID    *uuid.UUID             `json:"actor_id,omitempty"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLogResponse maps an audit model to its response.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AuditLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// AuditLogListResponse wraps a paginated audit list.
type AuditLogListResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}
