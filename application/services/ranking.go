package services

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"priorify/application/ports"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
	"priorify/pkg/utils"
)

// Ranker produces flat priority rankings of a user's schedules. A schedule
// listed under several categories is ranked once, by its best category.
type Ranker struct {
	engine        *scoring.Engine
	digest        config.DigestConfig
	uncategorized string
	loc           *time.Location
	titleLang     language.Tag
}

// NewRanker creates a ranker from the domain configuration
func NewRanker(engine *scoring.Engine, cfg *config.DomainConfig) *Ranker {
	return &Ranker{
		engine:        engine,
		digest:        cfg.Digest,
		uncategorized: cfg.UncategorizedLabel,
		loc:           cfg.Location(),
		titleLang:     language.Korean,
	}
}

// Location returns the calendar used for day arithmetic
func (r *Ranker) Location() *time.Location {
	return r.loc
}

// Rank scores every schedule once by its best category and sorts the result
// by priority descending, then title ascending.
func (r *Ranker) Rank(user *entities.User, schedules []*entities.Schedule, now time.Time) []ports.RankedSchedule {
	table := r.engine.WeightTable(user)

	seen := make(map[string]int, len(schedules))
	ranked := make([]ports.RankedSchedule, 0, len(schedules))
	for _, s := range schedules {
		score := r.engine.ScoreBest(s, table, r.uncategorized, now)
		if i, dup := seen[s.ID]; dup {
			if score.Priority > ranked[i].Score.Priority {
				ranked[i].Score = score
			}
			continue
		}
		seen[s.ID] = len(ranked)
		ranked = append(ranked, ports.RankedSchedule{
			Schedule:       s,
			Score:          score,
			DaysUntilStart: r.daysUntilStart(s, now),
		})
	}

	r.Sort(ranked)
	return ranked
}

// TopN returns the n highest ranked schedules
func (r *Ranker) TopN(user *entities.User, schedules []*entities.Schedule, now time.Time, n int) []ports.RankedSchedule {
	ranked := r.Rank(user, schedules, now)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SelectReminders builds the reminder digest. Urgent holds schedules at or
// above the high-priority threshold starting on an urgent day offset;
// Upcoming holds schedules starting on a reminder day offset that are not
// already urgent. Schedules without a start time are never selected.
func (r *Ranker) SelectReminders(user *entities.User, schedules []*entities.Schedule, now time.Time) ports.ReminderDigest {
	urgentDays := intSet(r.digest.UrgentDayOffsets)
	reminderDays := intSet(r.digest.ReminderDayOffsets)

	digest := ports.ReminderDigest{GeneratedAt: now}
	for _, item := range r.Rank(user, schedules, now) {
		if item.Schedule.StartAt == nil {
			continue
		}
		switch {
		case item.Score.Priority >= r.digest.HighPriorityThreshold && urgentDays[item.DaysUntilStart]:
			digest.Urgent = append(digest.Urgent, item)
		case reminderDays[item.DaysUntilStart]:
			digest.Upcoming = append(digest.Upcoming, item)
		}
	}
	return digest
}

// Sort orders ranked schedules by priority descending, then by title using
// locale-aware collation.
func (r *Ranker) Sort(ranked []ports.RankedSchedule) {
	col := collate.New(r.titleLang)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].Score.Priority, ranked[j].Score.Priority
		if pi != pj {
			return pi > pj
		}
		return col.CompareString(ranked[i].Schedule.Title, ranked[j].Schedule.Title) < 0
	})
}

func (r *Ranker) daysUntilStart(s *entities.Schedule, now time.Time) int {
	if s.StartAt == nil {
		return -1
	}
	return utils.CalendarDaysBetween(now, *s.StartAt, r.loc)
}

func intSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
