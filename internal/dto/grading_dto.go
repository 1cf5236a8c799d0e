package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// SessionGradePayload is a per-session mark submitted by a client.
type SessionGradePayload struct {
	GradeName string  `json:"grade_name"`
	Mark      float64 `json:"mark"`
	FullMark  float64 `json:"full_mark"`
}

// GlobalGradePayload is an exam mark submitted by a client.
type GlobalGradePayload struct {
	GradeName string  `json:"grade_name"`
	Mark      float64 `json:"mark"`
	FullMark  float64 `json:"full_mark"`
	Status    string  `json:"status"`
}

// CreateSessionRequest opens a session for a group.
type CreateSessionRequest struct {
	SessionDate        string `json:"session_date" validate:"required"`
	InitializeStudents bool   `json:"initialize_students"`
}

// UpdateSessionStudentRequest records attendance and marks for one student.
type UpdateSessionStudentRequest struct {
	Present       *bool                 `json:"present" validate:"required"`
	BonusMark     float64               `json:"bonus_mark"`
	SessionGrades []SessionGradePayload `json:"session_grades"`
}

// Entries converts the payload into model entries.
func (r UpdateSessionStudentRequest) Entries() []models.SessionGradeEntry {
	if len(r.SessionGrades) == 0 {
		return nil
	}
	entries := make([]models.SessionGradeEntry, 0, len(r.SessionGrades))
	for _, grade := range r.SessionGrades {
		entries = append(entries, models.SessionGradeEntry{
			GradeName: grade.GradeName,
			Mark:      grade.Mark,
			FullMark:  grade.FullMark,
		})
	}
	return entries
}

// UpsertGlobalGradeRequest replaces a student's exam marks.
type UpsertGlobalGradeRequest struct {
	Grades []GlobalGradePayload `json:"grades" validate:"required"`
}

// Entries converts the payload into model entries.
func (r UpsertGlobalGradeRequest) Entries() []models.GlobalGradeEntry {
	entries := make([]models.GlobalGradeEntry, 0, len(r.Grades))
	for _, grade := range r.Grades {
		entries = append(entries, models.GlobalGradeEntry{
			GradeName: grade.GradeName,
			Mark:      grade.Mark,
			FullMark:  grade.FullMark,
			Status:    models.GlobalGradeStatus(grade.Status),
		})
	}
	return entries
}

// SessionStudentResponse serialises one roster entry.
type SessionStudentResponse struct {
	StudentID        uuid.UUID                  `json:"student_id"`
	Present          bool                       `json:"present"`
	SessionMark      float64                    `json:"session_mark"`
	BonusMark        float64                    `json:"bonus_mark"`
	TotalSessionMark float64                    `json:"total_session_mark"`
	SessionGrades    []models.SessionGradeEntry `json:"session_grades"`
	RecordedBy       RecordedBy                 `json:"recorded_by"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// SessionResponse serialises a session with its roster.
type SessionResponse struct {
	ID          uuid.UUID                `json:"id"`
	GroupID     uuid.UUID                `json:"group_id"`
	SessionDate time.Time                `json:"session_date"`
	CreatedBy   uuid.UUID                `json:"created_by"`
	Students    []SessionStudentResponse `json:"students"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// NewSessionResponse maps a session model to its response.
func NewSessionResponse(session models.Session) SessionResponse {
	students := make([]SessionStudentResponse, 0, len(session.Students))
	for _, record := range session.Students {
		students = append(students, NewSessionStudentResponse(record))
	}

	return SessionResponse{
		ID:          session.ID,
		GroupID:     session.GroupID,
		SessionDate: session.SessionDate,
		CreatedBy:   session.CreatedBy,
		Students:    students,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

// NewSessionStudentResponse maps a roster record to its response.
func NewSessionStudentResponse(record models.SessionStudent) SessionStudentResponse {
	grades := record.Grades()
	if grades == nil {
		grades = []models.SessionGradeEntry{}
	}
	return SessionStudentResponse{
		StudentID:        record.StudentID,
		Present:          record.Present,
		SessionMark:      record.SessionMark,
		BonusMark:        record.BonusMark,
		TotalSessionMark: record.TotalSessionMark,
		SessionGrades:    grades,
		RecordedBy:       NewRecordedBy(record.RecordedBy),
		UpdatedAt:        record.UpdatedAt,
	}
}

// GlobalGradeResponse serialises a student's exam grades and totals.
type GlobalGradeResponse struct {
	ID               uuid.UUID                 `json:"id"`
	ActivityID       uuid.UUID                 `json:"activity_id"`
	StudentID        uuid.UUID                 `json:"student_id"`
	Grades           []models.GlobalGradeEntry `json:"grades"`
	TotalGlobalMark  float64                   `json:"total_global_mark"`
	TotalSessionMark float64                   `json:"total_session_mark"`
	TotalFinalMark   float64                   `json:"total_final_mark"`
	RecordedBy       RecordedBy                `json:"recorded_by"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NewGlobalGradeResponse maps a global grade model to its response.
func NewGlobalGradeResponse(grade models.GlobalGrade) GlobalGradeResponse {
	entries := grade.Entries()
	if entries == nil {
		entries = []models.GlobalGradeEntry{}
	}
	return GlobalGradeResponse{
		ID:               grade.ID,
		ActivityID:       grade.ActivityID,
		StudentID:        grade.StudentID,
		Grades:           entries,
		TotalGlobalMark:  grade.TotalGlobalMark,
		TotalSessionMark: grade.TotalSessionMark,
		TotalFinalMark:   grade.TotalFinalMark,
		RecordedBy:       NewRecordedBy(grade.RecordedBy),
		UpdatedAt:        grade.UpdatedAt,
	}
}

// AttendanceDetail is one session line in a student summary.
type AttendanceDetail struct {
	SessionID        uuid.UUID `json:"session_id"`
	GroupID          uuid.UUID `json:"group_id"`
	Date             time.Time `json:"date"`
	Present          bool      `json:"present"`
	SessionMark      float64   `json:"session_mark"`
	BonusMark        float64   `json:"bonus_mark"`
	TotalSessionMark float64   `json:"total_session_mark"`
}

// StudentSummaryResponse rolls up a student's attendance and marks in an activity.
type StudentSummaryResponse struct {
	ActivityID        uuid.UUID                 `json:"activity_id"`
	StudentID         uuid.UUID                 `json:"student_id"`
	StudentName       string                    `json:"student_name"`
	Range             DateRange                 `json:"range"`
	TotalSessions     int                       `json:"total_sessions"`
	SessionsPresent   int                       `json:"sessions_present"`
	SessionsAbsent    int                       `json:"sessions_absent"`
	AttendanceRate    float64                   `json:"attendance_rate"`
	TotalSessionMark  float64                   `json:"total_session_mark"`
	TotalGlobalMark   float64                   `json:"total_global_mark"`
	TotalFinalMark    float64                   `json:"total_final_mark"`
	AttendanceDetails []AttendanceDetail        `json:"attendance_details"`
	GlobalGrades      []models.GlobalGradeEntry `json:"global_grades"`
	CacheHit          bool                      `json:"cache_hit"`
}

// GroupPerformanceEntry is one student's line in a group ranking.
type GroupPerformanceEntry struct {
	StudentID        uuid.UUID `json:"student_id"`
	StudentName      string    `json:"student_name"`
	TotalSessions    int       `json:"total_sessions"`
	SessionsPresent  int       `json:"sessions_present"`
	SessionsAbsent   int       `json:"sessions_absent"`
	AttendanceRate   float64   `json:"attendance_rate"`
	TotalSessionMark float64   `json:"total_session_mark"`
	TotalGlobalMark  float64   `json:"total_global_mark"`
	TotalFinalMark   float64   `json:"total_final_mark"`
}

// GroupPerformanceResponse ranks a group's students by final mark.
type GroupPerformanceResponse struct {
	GroupID    uuid.UUID               `json:"group_id"`
	ActivityID uuid.UUID               `json:"activity_id"`
	Range      DateRange               `json:"range"`
	Ranking    []GroupPerformanceEntry `json:"ranking"`
	CacheHit   bool                    `json:"cache_hit"`
}
