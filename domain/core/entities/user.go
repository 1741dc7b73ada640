package entities

import (
	"strings"
	"time"

	"priorify/domain/core/valueobjects"
	"priorify/domain/events"
	pkgerrors "priorify/pkg/errors"
)

// User is the owner of schedules and of the category preference lists used
// to weight them.
type User struct {
	id             string
	name           string
	email          string
	highPriorities []valueobjects.CategoryPreference
	lowPriorities  []valueobjects.CategoryPreference
	createdAt      time.Time
	updatedAt      time.Time
	version        int

	events []events.DomainEvent
}

// NewUser creates a user without preferences
func NewUser(id, name, email string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("user id cannot be empty")
	}
	now := time.Now()
	return &User{
		id:        id,
		name:      name,
		email:     strings.TrimSpace(email),
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructUser rebuilds a user from stored data without emitting events
func ReconstructUser(
	id, name, email string,
	high, low []valueobjects.CategoryPreference,
	createdAt, updatedAt time.Time,
	version int,
) *User {
	return &User{
		id:             id,
		name:           name,
		email:          strings.TrimSpace(email),
		highPriorities: high,
		lowPriorities:  low,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		version:        version,
	}
}

func (u *User) ID() string                                        { return u.id }
func (u *User) Name() string                                      { return u.name }
func (u *User) Email() string                                     { return u.email }
func (u *User) HighPriorities() []valueobjects.CategoryPreference { return u.highPriorities }
func (u *User) LowPriorities() []valueobjects.CategoryPreference  { return u.lowPriorities }
func (u *User) CreatedAt() time.Time                              { return u.createdAt }
func (u *User) UpdatedAt() time.Time                              { return u.updatedAt }
func (u *User) Version() int                                      { return u.version }

// HasEmail reports whether digests can be delivered to the user
func (u *User) HasEmail() bool {
	return u.email != ""
}

// SetPriorities replaces both preference lists. The caller validates the
// lists; a PrioritiesUpdated event is recorded.
func (u *User) SetPriorities(high, low []valueobjects.CategoryPreference) {
	u.highPriorities = append([]valueobjects.CategoryPreference(nil), high...)
	u.lowPriorities = append([]valueobjects.CategoryPreference(nil), low...)
	u.updatedAt = time.Now()
	u.version++

	u.events = append(u.events, events.NewPrioritiesUpdated(
		u.id,
		categoryNames(u.highPriorities),
		categoryNames(u.lowPriorities),
		u.version,
		u.updatedAt,
	))
}

// GetUncommittedEvents returns events recorded since the last commit
func (u *User) GetUncommittedEvents() []events.DomainEvent {
	return u.events
}

// MarkEventsAsCommitted clears the recorded events
func (u *User) MarkEventsAsCommitted() {
	u.events = nil
}

func categoryNames(prefs []valueobjects.CategoryPreference) []string {
	names := make([]string, len(prefs))
	for i, p := range prefs {
		names[i] = p.Category()
	}
	return names
}
