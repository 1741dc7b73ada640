package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	EventTypePrioritiesUpdated  = "priorities.updated"
	EventTypeDigestRunCompleted = "digest.run_completed"
)

// Preference Events

// PrioritiesUpdated is raised when a user replaces their category preferences
type PrioritiesUpdated struct {
	BaseEvent
	UserID         string   `json:"user_id"`
	HighCategories []string `json:"high_categories"`
	LowCategories  []string `json:"low_categories"`
}

// NewPrioritiesUpdated creates a PrioritiesUpdated event
func NewPrioritiesUpdated(userID string, high, low []string, version int, timestamp time.Time) PrioritiesUpdated {
	return PrioritiesUpdated{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   EventTypePrioritiesUpdated,
			Timestamp:   timestamp,
			Version:     version,
		},
		UserID:         userID,
		HighCategories: high,
		LowCategories:  low,
	}
}

// Digest Events

// DigestRunCompleted is raised after a digest job has visited every user
type DigestRunCompleted struct {
	BaseEvent
	RunID      string        `json:"run_id"`
	Job        string        `json:"job"`
	Visited    int           `json:"visited"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Dispatched int           `json:"dispatched"`
	Duration   time.Duration `json:"duration_ns"`
	Cancelled  bool          `json:"cancelled"`
}

// NewDigestRunCompleted creates a DigestRunCompleted event
func NewDigestRunCompleted(runID, job string, visited, succeeded, failed, skipped, dispatched int,
	duration time.Duration, cancelled bool, timestamp time.Time) DigestRunCompleted {
	return DigestRunCompleted{
		BaseEvent: BaseEvent{
			AggregateID: runID,
			EventType:   EventTypeDigestRunCompleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		RunID:      runID,
		Job:        job,
		Visited:    visited,
		Succeeded:  succeeded,
		Failed:     failed,
		Skipped:    skipped,
		Dispatched: dispatched,
		Duration:   duration,
		Cancelled:  cancelled,
	}
}
