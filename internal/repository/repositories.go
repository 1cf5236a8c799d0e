package repository

import "gorm.io/gorm"

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Activities   ActivityRepository
	Memberships  MembershipRepository
	Groups       GroupRepository
	Students     StudentRepository
	Enrollments  EnrollmentRepository
	Sessions     SessionRepository
	GlobalGrades GlobalGradeRepository
	AuditLogs    AuditLogRepository
	Transactor   Transactor
}

// NewRepositories constructs the gorm backed repositories.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Activities:   NewActivityRepository(db),
		Memberships:  NewMembershipRepository(db),
		Groups:       NewGroupRepository(db),
		Students:     NewStudentRepository(db),
		Enrollments:  NewEnrollmentRepository(db),
		Sessions:     NewSessionRepository(db),
		GlobalGrades: NewGlobalGradeRepository(db),
		AuditLogs:    NewAuditLogRepository(db),
		Transactor:   NewTransactor(db),
	}
}
