// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	"priorify/domain/events"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) FindByName(ctx context.Context, name string) (*entities.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *UserRepository) FindPage(ctx context.Context, pageIndex, pageSize int) ([]*entities.User, error) {
	args := m.Called(ctx, pageIndex, pageSize)
	if args.Get(0) != nil {
		return args.Get(0).([]*entities.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) UpdatePriorities(ctx context.Context, userID string, high, low []valueobjects.CategoryPreference, updatedAt time.Time) error {
	args := m.Called(ctx, userID, high, low, updatedAt)
	return args.Error(0)
}

type ScheduleRepository struct {
	mock.Mock
}

func (m *ScheduleRepository) FindByOwner(ctx context.Context, query ports.ScheduleQuery) ([]*entities.Schedule, error) {
	args := m.Called(ctx, query)
	if args.Get(0) != nil {
		return args.Get(0).([]*entities.Schedule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScheduleRepository) FindByID(ctx context.Context, id string) (*entities.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.Schedule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScheduleRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Schedule, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).([]*entities.Schedule), args.Error(1)
	}
	return nil, args.Error(1)
}

type SimilarityIndex struct {
	mock.Mock
}

func (m *SimilarityIndex) Search(ctx context.Context, query ports.SimilarityQuery) ([]ports.SimilarityHit, error) {
	args := m.Called(ctx, query)
	if args.Get(0) != nil {
		return args.Get(0).([]ports.SimilarityHit), args.Error(1)
	}
	return nil, args.Error(1)
}

type MailDispatcher struct {
	mock.Mock
}

func (m *MailDispatcher) SendReminderDigest(ctx context.Context, to ports.Recipient, digest ports.ReminderDigest) error {
	args := m.Called(ctx, to, digest)
	return args.Error(0)
}

func (m *MailDispatcher) SendTopPriorityDigest(ctx context.Context, to ports.Recipient, schedules []ports.RankedSchedule) error {
	args := m.Called(ctx, to, schedules)
	return args.Error(0)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *EventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type DigestMetrics struct {
	mock.Mock
}

func (m *DigestMetrics) RecordDigestRun(ctx context.Context, stats ports.DigestRunStats) {
	m.Called(ctx, stats)
}

type Locker struct {
	mock.Mock
}

func (m *Locker) TryAcquire(ctx context.Context, resource string, ttl time.Duration) (ports.Lock, bool, error) {
	args := m.Called(ctx, resource, ttl)
	if args.Get(0) != nil {
		return args.Get(0).(ports.Lock), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

type Lock struct {
	mock.Mock
}

func (m *Lock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type Cache struct {
	mock.Mock
}

func (m *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *Cache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func (m *Cache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
