package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

//go:embed seed.schema.json
var seedSchemaSource string

const seedSchemaURL = "https://khazandria.local/schemas/seed.json"

var (
	seedSchemaOnce sync.Once
	seedSchema     *jsonschema.Schema
	seedSchemaErr  error
)

// SeedDocument describes one activity with its groups, rosters, sessions and exam marks.
// Students are referenced by name and must be unique within the document.
type SeedDocument struct {
	Activity     dto.CreateActivityRequest `json:"activity"`
	Admins       []string                  `json:"admins"`
	Groups       []SeedGroup               `json:"groups"`
	GlobalGrades []SeedGlobalGrade         `json:"global_grades"`
}

// SeedGroup is a group with its students and sessions.
type SeedGroup struct {
	Name     string                     `json:"name"`
	Labels   []string                   `json:"labels"`
	Students []dto.CreateStudentRequest `json:"students"`
	Sessions []SeedSession              `json:"sessions"`
}

// SeedSession is a dated session with the attendance to record.
type SeedSession struct {
	Date       string           `json:"date"`
	Attendance []SeedAttendance `json:"attendance"`
}

// SeedAttendance is one student's attendance in a seeded session.
type SeedAttendance struct {
	Student       string                    `json:"student"`
	Present       bool                      `json:"present"`
	BonusMark     float64                   `json:"bonus_mark"`
	SessionGrades []dto.SessionGradePayload `json:"session_grades"`
}

// SeedGlobalGrade carries a student's exam marks.
type SeedGlobalGrade struct {
	Student string                   `json:"student"`
	Grades  []dto.GlobalGradePayload `json:"grades"`
}

// SeedReport summarises what a seed run created.
type SeedReport struct {
	ActivityID   uuid.UUID `json:"activity_id"`
	Groups       int       `json:"groups"`
	Students     int       `json:"students"`
	Sessions     int       `json:"sessions"`
	Attendance   int       `json:"attendance"`
	GlobalGrades int       `json:"global_grades"`
}

// SeedService loads seed documents through the regular services, so every
// grading rule applies to seeded data as well.
type SeedService interface {
	Seed(ctx context.Context, raw []byte) (SeedReport, error)
}

type seedService struct {
	services Services
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(services Services, logger zerolog.Logger) SeedService {
	return &seedService{
		services: services,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

// ParseSeedDocument validates raw JSON against the seed schema and decodes it.
func ParseSeedDocument(raw []byte) (SeedDocument, error) {
	schema, err := compiledSeedSchema()
	if err != nil {
		return SeedDocument{}, apperror.Internal(err, "failed to compile seed schema")
	}

	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return SeedDocument{}, apperror.Validation([]string{fmt.Sprintf("seed file is not valid JSON: %v", err)})
	}
	if err := schema.Validate(instance); err != nil {
		return SeedDocument{}, apperror.Validation(schemaErrorDetails(err))
	}

	var doc SeedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SeedDocument{}, apperror.Validation([]string{fmt.Sprintf("seed file does not match the document shape: %v", err)})
	}

	seen := make(map[string]struct{})
	var duplicates []string
	for _, group := range doc.Groups {
		for _, student := range group.Students {
			key := strings.ToLower(strings.TrimSpace(student.Name))
			if _, ok := seen[key]; ok {
				duplicates = append(duplicates, fmt.Sprintf("student %q appears more than once", student.Name))
			}
			seen[key] = struct{}{}
		}
	}
	if len(duplicates) > 0 {
		return SeedDocument{}, apperror.Validation(duplicates)
	}
	return doc, nil
}

func compiledSeedSchema() (*jsonschema.Schema, error) {
	seedSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(seedSchemaURL, strings.NewReader(seedSchemaSource)); err != nil {
			seedSchemaErr = err
			return
		}
		seedSchema, seedSchemaErr = compiler.Compile(seedSchemaURL)
	})
	return seedSchema, seedSchemaErr
}

func schemaErrorDetails(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	var details []string
	for _, cause := range validationErr.BasicOutput().Errors {
		if cause.Error == "" || strings.HasPrefix(cause.Error, "doesn't validate with") {
			continue
		}
		location := cause.InstanceLocation
		if location == "" {
			location = "/"
		}
		details = append(details, fmt.Sprintf("%s: %s", location, cause.Error))
	}
	if len(details) == 0 {
		details = append(details, validationErr.Error())
	}
	return details
}

func (s *seedService) Seed(ctx context.Context, raw []byte) (SeedReport, error) {
	doc, err := ParseSeedDocument(bytes.TrimSpace(raw))
	if err != nil {
		return SeedReport{}, err
	}

	headID, err := uuid.Parse(doc.Activity.HeadAdminID)
	if err != nil {
		return SeedReport{}, apperror.InvalidReference("head_admin_id")
	}
	actor := Actor{ID: headID, Role: RoleSuperAdmin}

	activity, err := s.services.Activities.Create(ctx, doc.Activity, actor)
	if err != nil {
		return SeedReport{}, fmt.Errorf("create activity: %w", err)
	}
	report := SeedReport{ActivityID: activity.ID}
	log := s.logger.With().Str("activity_id", activity.ID.String()).Logger()

	for _, adminID := range doc.Admins {
		if strings.EqualFold(adminID, doc.Activity.HeadAdminID) {
			continue
		}
		if _, err := s.services.Activities.AddMember(ctx, activity.ID, dto.AddMemberRequest{UserID: adminID}, actor); err != nil {
			return report, fmt.Errorf("add admin %s: %w", adminID, err)
		}
	}

	students := make(map[string]uuid.UUID)
	for _, seedGroup := range doc.Groups {
		group, err := s.services.Groups.Create(ctx, activity.ID, dto.CreateGroupRequest{Name: seedGroup.Name, Labels: seedGroup.Labels}, actor)
		if err != nil {
			return report, fmt.Errorf("create group %q: %w", seedGroup.Name, err)
		}
		report.Groups++

		for _, seedStudent := range seedGroup.Students {
			student, err := s.services.Students.Create(ctx, seedStudent, actor)
			if err != nil {
				return report, fmt.Errorf("create student %q: %w", seedStudent.Name, err)
			}
			if _, err := s.services.Enrollments.Enroll(ctx, group.ID, dto.EnrollStudentRequest{StudentID: student.ID.String()}, actor); err != nil {
				return report, fmt.Errorf("enroll student %q: %w", seedStudent.Name, err)
			}
			students[seedKey(seedStudent.Name)] = student.ID
			report.Students++
		}

		for _, seedSession := range seedGroup.Sessions {
			session, err := s.services.Sessions.Create(ctx, group.ID, dto.CreateSessionRequest{
				SessionDate:        seedSession.Date,
				InitializeStudents: true,
			}, actor)
			if err != nil {
				return report, fmt.Errorf("create session %s: %w", seedSession.Date, err)
			}
			report.Sessions++

			for _, line := range seedSession.Attendance {
				studentID, ok := students[seedKey(line.Student)]
				if !ok {
					return report, apperror.Validation([]string{fmt.Sprintf("session %s references unknown student %q", seedSession.Date, line.Student)})
				}
				present := line.Present
				if _, err := s.services.Sessions.UpdateStudent(ctx, session.ID, studentID, dto.UpdateSessionStudentRequest{
					Present:       &present,
					BonusMark:     line.BonusMark,
					SessionGrades: line.SessionGrades,
				}, actor); err != nil {
					return report, fmt.Errorf("record attendance for %q on %s: %w", line.Student, seedSession.Date, err)
				}
				report.Attendance++
			}
		}
	}

	for _, seedGrade := range doc.GlobalGrades {
		studentID, ok := students[seedKey(seedGrade.Student)]
		if !ok {
			return report, apperror.Validation([]string{fmt.Sprintf("global grades reference unknown student %q", seedGrade.Student)})
		}
		if _, err := s.services.GlobalGrades.Upsert(ctx, activity.ID, studentID, dto.UpsertGlobalGradeRequest{Grades: seedGrade.Grades}, actor); err != nil {
			return report, fmt.Errorf("save global grades for %q: %w", seedGrade.Student, err)
		}
		report.GlobalGrades++
	}

	log.Info().
		Int("groups", report.Groups).
		Int("students", report.Students).
		Int("sessions", report.Sessions).
		Msg("seed loaded")
	return report, nil
}

func seedKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
