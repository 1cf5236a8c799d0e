package models

// GradeType is a catalog item describing a named grade and its ceiling.
type GradeType struct {
	Name     string  `json:"name"`
	FullMark float64 `json:"full_mark"`
}

// SessionGradeEntry is a single per-session mark. FullMark is snapshotted from the
// catalog when the entry is created.
type SessionGradeEntry struct {
	GradeName string  `json:"grade_name"`
	Mark      float64 `json:"mark"`
	FullMark  float64 `json:"full_mark"`
}

// GradeFields exposes the fields checked against a catalog.
func (e SessionGradeEntry) GradeFields() (string, float64, float64) {
	return e.GradeName, e.Mark, e.FullMark
}

// GlobalGradeStatus tells whether an exam has been sat.
type GlobalGradeStatus string

const (
	// GlobalGradeNotTaken marks an exam that has not been sat; its mark is ignored.
	GlobalGradeNotTaken GlobalGradeStatus = "not_taken"
	// GlobalGradeTaken marks an exam that counts toward the global total.
	GlobalGradeTaken GlobalGradeStatus = "taken"
)

// Valid reports whether the status is one of the known values.
func (s GlobalGradeStatus) Valid() bool {
	return s == GlobalGradeNotTaken || s == GlobalGradeTaken
}

// GlobalGradeEntry is an activity-wide exam mark.
type GlobalGradeEntry struct {
	GradeName string            `json:"grade_name"`
	Mark      float64           `json:"mark"`
	FullMark  float64           `json:"full_mark"`
	Status    GlobalGradeStatus `json:"status"`
}

// GradeFields exposes the fields checked against a catalog.
func (e GlobalGradeEntry) GradeFields() (string, float64, float64) {
	return e.GradeName, e.Mark, e.FullMark
}

// IsTaken reports whether the entry counts toward totals.
func (e GlobalGradeEntry) IsTaken() bool {
	return e.Status == GlobalGradeTaken
}
