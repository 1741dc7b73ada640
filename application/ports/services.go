package ports

import (
	"context"
	"time"

	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
)

// SimilarityQuery is an approximate nearest neighbour request scoped to one
// owner and status.
type SimilarityQuery struct {
	OwnerID       string
	Status        entities.ScheduleStatus
	Vector        []float32
	CandidatePool int
	Limit         int
}

// SimilarityHit is one neighbour returned by the index
type SimilarityHit struct {
	ScheduleID string
	Score      float64
}

// SimilarityIndex searches schedule embeddings
type SimilarityIndex interface {
	Search(ctx context.Context, query SimilarityQuery) ([]SimilarityHit, error)
}

// RankedSchedule is a schedule with the score it was ranked by
type RankedSchedule struct {
	Schedule       *entities.Schedule
	Score          scoring.Score
	DaysUntilStart int
}

// Recipient identifies who a digest is delivered to
type Recipient struct {
	UserID string
	Name   string
	Email  string
}

// ReminderDigest is the payload of the daily reminder mail. Urgent holds
// high-priority schedules starting today or tomorrow; Upcoming holds the
// remaining schedules starting on a reminder day.
type ReminderDigest struct {
	Urgent      []RankedSchedule
	Upcoming    []RankedSchedule
	GeneratedAt time.Time
}

// IsEmpty reports whether there is anything to send
func (d ReminderDigest) IsEmpty() bool {
	return len(d.Urgent) == 0 && len(d.Upcoming) == 0
}

// MailDispatcher delivers rendered digests. Template rendering is owned by
// the implementation.
type MailDispatcher interface {
	SendReminderDigest(ctx context.Context, to Recipient, digest ReminderDigest) error
	SendTopPriorityDigest(ctx context.Context, to Recipient, schedules []RankedSchedule) error
}

// DigestRunStats summarises one digest run
type DigestRunStats struct {
	Job        string
	Visited    int
	Succeeded  int
	Failed     int
	Skipped    int
	Dispatched int
	Batches    int
	Duration   time.Duration
}

// DigestMetrics records digest run outcomes
type DigestMetrics interface {
	RecordDigestRun(ctx context.Context, stats DigestRunStats)
}

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// JobScheduler runs named jobs on cron specifications
type JobScheduler interface {
	Register(name, spec string, job JobFunc) error
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// Tracer wraps a unit of work in a trace segment
type Tracer interface {
	Trace(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Clock abstracts the current time for testability
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }
