package ports

import (
	"context"
	"time"

	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	"priorify/domain/events"
)

// UserRepository defines read access to users plus the preference write path.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// FindByID retrieves a user, returning a NotFound error when missing
	FindByID(ctx context.Context, id string) (*entities.User, error)

	// FindByName retrieves a user by display name
	FindByName(ctx context.Context, name string) (*entities.User, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int, error)

	// FindPage returns the users of page pageIndex (0-based) in a stable order
	FindPage(ctx context.Context, pageIndex, pageSize int) ([]*entities.User, error)

	// UpdatePriorities replaces the stored preference lists of a user
	UpdatePriorities(ctx context.Context, userID string, high, low []valueobjects.CategoryPreference, updatedAt time.Time) error
}

// ScheduleQuery selects an owner's schedules. Zero-valued fields do not filter.
type ScheduleQuery struct {
	OwnerID   string
	Statuses  []entities.ScheduleStatus
	StartFrom *time.Time // inclusive
	StartTo   *time.Time // inclusive
}

// ScheduleRepository defines read access to schedules
type ScheduleRepository interface {
	// FindByOwner returns the matching schedules ordered by start time
	FindByOwner(ctx context.Context, query ScheduleQuery) ([]*entities.Schedule, error)

	// FindByID retrieves a schedule, returning a NotFound error when missing
	FindByID(ctx context.Context, id string) (*entities.Schedule, error)

	// FindByIDs retrieves several schedules; unknown ids are skipped
	FindByIDs(ctx context.Context, ids []string) ([]*entities.Schedule, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every value whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker acquires named locks shared between service instances
type Locker interface {
	// TryAcquire acquires the lock without waiting. ok is false when another
	// owner holds it.
	TryAcquire(ctx context.Context, resource string, ttl time.Duration) (lock Lock, ok bool, err error)
}
