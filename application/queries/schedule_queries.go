package queries

import (
	pkgerrors "priorify/pkg/errors"
)

// ListSchedulesQuery lists a user's active schedules ordered by start time,
// each with its best priority.
type ListSchedulesQuery struct {
	UserID string `json:"user_id"`
}

// Validate implements bus.Query
func (q ListSchedulesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	return nil
}

// ListSchedulesResult is the response of ListSchedulesQuery
type ListSchedulesResult struct {
	Schedules []ScheduleListItemDTO `json:"schedules"`
	Total     int                   `json:"total"`
}

// GetTopPrioritySchedulesQuery previews what the top-priority digest would
// contain for a user.
type GetTopPrioritySchedulesQuery struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// Validate implements bus.Query
func (q GetTopPrioritySchedulesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	if q.Limit < 0 || q.Limit > 50 {
		return pkgerrors.NewValidationError("limit must be between 0 and 50")
	}
	return nil
}

// TopPriorityResult is the response of GetTopPrioritySchedulesQuery
type TopPriorityResult struct {
	UserID    string                `json:"userId"`
	Schedules []ScheduleListItemDTO `json:"schedules"`
}

// GetSimilarSchedulesQuery asks for schedules related to one of the user's
// schedules by embedding similarity.
type GetSimilarSchedulesQuery struct {
	UserID     string `json:"user_id"`
	ScheduleID string `json:"schedule_id"`
}

// Validate implements bus.Query
func (q GetSimilarSchedulesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	if q.ScheduleID == "" {
		return pkgerrors.NewValidationError("schedule id is required")
	}
	return nil
}

// SimilarScheduleDTO is one related schedule
type SimilarScheduleDTO struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Status     string  `json:"status"`
}

// SimilarSchedulesResult is the response of GetSimilarSchedulesQuery
type SimilarSchedulesResult struct {
	ScheduleID string               `json:"scheduleId"`
	Similar    []SimilarScheduleDTO `json:"similar"`
}
