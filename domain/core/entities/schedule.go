package entities

import (
	"time"

	pkgerrors "priorify/pkg/errors"
)

// ScheduleStatus represents the lifecycle state of a schedule
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleInactive  ScheduleStatus = "inactive"
)

// IsValid reports whether the status is one of the known states
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleActive, ScheduleCompleted, ScheduleInactive:
		return true
	}
	return false
}

// Schedule is a user-owned task with an optional time window. Schedules are
// written by the calendar service; this service only reads them.
type Schedule struct {
	ID          string         `json:"id" dynamodbav:"ScheduleID"`
	OwnerID     string         `json:"ownerId" dynamodbav:"OwnerID"`
	Title       string         `json:"title" dynamodbav:"Title"`
	Description string         `json:"description,omitempty" dynamodbav:"Description,omitempty"`
	Location    string         `json:"location,omitempty" dynamodbav:"Location,omitempty"`
	Categories  []string       `json:"categories,omitempty" dynamodbav:"Categories,omitempty"`
	StartAt     *time.Time     `json:"startAt,omitempty" dynamodbav:"StartAt,omitempty"`
	EndAt       *time.Time     `json:"endAt,omitempty" dynamodbav:"EndAt,omitempty"`
	Status      ScheduleStatus `json:"status" dynamodbav:"Status"`
	Embedding   []float32      `json:"-" dynamodbav:"Embedding,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time      `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// Validate checks the structural invariants of a loaded schedule
func (s *Schedule) Validate() error {
	if s.ID == "" {
		return pkgerrors.NewValidationError("schedule id cannot be empty")
	}
	if s.OwnerID == "" {
		return pkgerrors.NewValidationError("schedule owner cannot be empty")
	}
	if !s.Status.IsValid() {
		return pkgerrors.NewValidationError("unknown schedule status: " + string(s.Status))
	}
	if s.StartAt != nil && s.EndAt != nil && s.EndAt.Before(*s.StartAt) {
		return pkgerrors.NewValidationError("schedule end cannot precede its start")
	}
	return nil
}

// Deadline returns the instant urgency is measured against: the end time,
// or the start time when no end is set. ok is false when neither exists.
func (s *Schedule) Deadline() (deadline time.Time, ok bool) {
	if s.EndAt != nil {
		return *s.EndAt, true
	}
	if s.StartAt != nil {
		return *s.StartAt, true
	}
	return time.Time{}, false
}

// CategoriesOr returns the schedule's categories, or a single-element slice
// holding fallback when it has none.
func (s *Schedule) CategoriesOr(fallback string) []string {
	if len(s.Categories) == 0 {
		return []string{fallback}
	}
	return s.Categories
}

// HasEmbedding reports whether the schedule carries a vector
func (s *Schedule) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// IsActive reports whether the schedule is still pending
func (s *Schedule) IsActive() bool {
	return s.Status == ScheduleActive
}

// IsCompleted reports whether the schedule was finished
func (s *Schedule) IsCompleted() bool {
	return s.Status == ScheduleCompleted
}

// Duration returns the scheduled length, zero when either bound is missing
func (s *Schedule) Duration() time.Duration {
	if s.StartAt == nil || s.EndAt == nil {
		return 0
	}
	return s.EndAt.Sub(*s.StartAt)
}
