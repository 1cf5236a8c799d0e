package dto

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives page counts from the requested window and total.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	meta := PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: 1}
	if pageSize > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return meta
}

// Recorder kinds exposed in recorded_by.
const (
	RecordedBySystem = "system"
	RecordedByUser   = "user"
)

// RecordedBy tells whether a row was last written by the system or by a user.
type RecordedBy struct {
	Kind string     `json:"kind"`
	ID   *uuid.UUID `json:"id,omitempty"`
}

// NewRecordedBy maps an optional actor id onto its wire form.
func NewRecordedBy(id *uuid.UUID) RecordedBy {
	if id == nil {
		return RecordedBy{Kind: RecordedBySystem}
	}
	actor := *id
	return RecordedBy{Kind: RecordedByUser, ID: &actor}
}

// DateRange is an optional report window; End is already extended to end of day.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// IsZero reports whether no bound was supplied.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC3339 timestamp.
// Calendar dates resolve to midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return parsed.UTC(), nil
}

// EndOfDay returns the last millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
