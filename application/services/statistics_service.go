package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/application/queries"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
	"priorify/domain/core/valueobjects"
)

// Priority distribution bucket bounds
const (
	distributionHighFrom = 3.0
	distributionLowUpTo  = 1.0
)

// StatisticsService aggregates a user's recent schedules into the
// statistics read model. It scores with the tiered urgency curve.
type StatisticsService struct {
	schedules     ports.ScheduleRepository
	engine        *scoring.Engine
	uncategorized string
	defaultDays   int
	loc           *time.Location
	logger        *zap.Logger
}

// NewStatisticsService creates a new statistics service. engine should be
// configured with the tiered strategy.
func NewStatisticsService(schedules ports.ScheduleRepository, engine *scoring.Engine, cfg *config.DomainConfig, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		schedules:     schedules,
		engine:        engine,
		uncategorized: cfg.UncategorizedLabel,
		defaultDays:   cfg.Graph.DefaultWindowDays,
		loc:           cfg.Location(),
		logger:        logger,
	}
}

// statRow is one (schedule, category) pair with its score
type statRow struct {
	schedule *entities.Schedule
	score    scoring.Score
}

type categoryAccumulator struct {
	stats       queries.CategoryStatsDTO
	urgencySum  float64
	weightSum   float64
	initialized bool
}

func (a *categoryAccumulator) add(row statRow) {
	p := row.score.Priority
	if !a.initialized || p > a.stats.MaxPriority {
		a.stats.MaxPriority = p
	}
	if !a.initialized || p < a.stats.MinPriority {
		a.stats.MinPriority = p
	}
	a.initialized = true

	a.stats.TotalSchedules++
	a.stats.TotalPriority += p
	a.urgencySum += row.score.Urgency
	a.weightSum += row.score.Weight
	a.stats.TotalDuration += row.schedule.Duration().Hours()
	if row.schedule.IsCompleted() {
		a.stats.CompletedCount++
	}
}

func (a *categoryAccumulator) result() queries.CategoryStatsDTO {
	out := a.stats
	if n := float64(out.TotalSchedules); n > 0 {
		out.AvgPriority = out.TotalPriority / n
		out.AvgUrgency = a.urgencySum / n
		out.AvgCategoryWeight = a.weightSum / n
		out.CompletionRate = float64(out.CompletedCount) / n
		out.AvgDuration = out.TotalDuration / n
	}
	return out
}

// Comprehensive builds every statistics section for schedules that started
// within the last days days.
func (s *StatisticsService) Comprehensive(ctx context.Context, user *entities.User, days int, now time.Time) (*queries.StatisticsDTO, error) {
	days = s.windowDays(days)
	schedules, start, err := s.load(ctx, user.ID(), days, now)
	if err != nil {
		return nil, err
	}
	rows := s.expand(user, schedules, now)

	categories := s.categoryStats(rows)
	result := &queries.StatisticsDTO{
		CategoryStats:        categories,
		Summary:              summarize(categories),
		PriorityDistribution: distribution(rows),
		TimeBasedPriority:    s.timeSlots(rows),
		CompletionStats:      completion(schedules),
		PrioritySettings:     s.prioritySettings(user),
		Period: queries.StatisticsPeriodDTO{
			Days:  days,
			Start: start.In(s.loc).Format(time.RFC3339),
			End:   now.In(s.loc).Format(time.RFC3339),
		},
	}

	s.logger.Debug("Computed statistics",
		zap.String("userID", user.ID()),
		zap.Int("days", days),
		zap.Int("schedules", len(schedules)),
		zap.Int("categories", len(categories)),
	)
	return result, nil
}

// CategoryStatistics returns only the per-category section
func (s *StatisticsService) CategoryStatistics(ctx context.Context, user *entities.User, days int, now time.Time) ([]queries.CategoryStatsDTO, error) {
	schedules, _, err := s.load(ctx, user.ID(), s.windowDays(days), now)
	if err != nil {
		return nil, err
	}
	return s.categoryStats(s.expand(user, schedules, now)), nil
}

func (s *StatisticsService) windowDays(days int) int {
	if days <= 0 {
		return s.defaultDays
	}
	return days
}

func (s *StatisticsService) load(ctx context.Context, userID string, days int, now time.Time) ([]*entities.Schedule, time.Time, error) {
	start := now.AddDate(0, 0, -days)
	end := now
	schedules, err := s.schedules.FindByOwner(ctx, ports.ScheduleQuery{
		OwnerID:   userID,
		StartFrom: &start,
		StartTo:   &end,
	})
	if err != nil {
		return nil, start, err
	}
	return schedules, start, nil
}

// expand produces one row per (schedule, category). A schedule repeating a
// category is counted once for it.
func (s *StatisticsService) expand(user *entities.User, schedules []*entities.Schedule, now time.Time) []statRow {
	table := s.engine.WeightTable(user)
	rows := make([]statRow, 0, len(schedules))
	for _, sched := range schedules {
		listed := make(map[string]bool)
		for _, category := range sched.CategoriesOr(s.uncategorized) {
			if listed[category] {
				continue
			}
			listed[category] = true
			rows = append(rows, statRow{schedule: sched, score: s.engine.Score(sched, category, table, now)})
		}
	}
	return rows
}

// categoryStats groups rows by category, sorted by total priority descending
func (s *StatisticsService) categoryStats(rows []statRow) []queries.CategoryStatsDTO {
	byName := make(map[string]*categoryAccumulator)
	var order []string
	for _, row := range rows {
		acc, ok := byName[row.score.Category]
		if !ok {
			acc = &categoryAccumulator{stats: queries.CategoryStatsDTO{Category: row.score.Category}}
			byName[row.score.Category] = acc
			order = append(order, row.score.Category)
		}
		acc.add(row)
	}

	out := make([]queries.CategoryStatsDTO, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name].result())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPriority > out[j].TotalPriority
	})
	return out
}

func summarize(categories []queries.CategoryStatsDTO) queries.StatisticsSummaryDTO {
	var summary queries.StatisticsSummaryDTO
	for _, c := range categories {
		summary.TotalSchedules += c.TotalSchedules
		summary.TotalCompleted += c.CompletedCount
		summary.TotalPriority += c.TotalPriority
		summary.TotalHours += c.TotalDuration
	}
	summary.TotalCategories = len(categories)
	if n := float64(summary.TotalSchedules); n > 0 {
		summary.OverallCompletionRate = float64(summary.TotalCompleted) / n
		summary.AvgPriority = summary.TotalPriority / n
		summary.AvgHoursPerSchedule = summary.TotalHours / n
	}
	return summary
}

func distribution(rows []statRow) queries.PriorityDistributionDTO {
	var d queries.PriorityDistributionDTO
	for _, row := range rows {
		switch p := row.score.Priority; {
		case p >= distributionHighFrom:
			d.High++
		case p <= distributionLowUpTo:
			d.Low++
		default:
			d.Medium++
		}
	}
	if total := float64(len(rows)); total > 0 {
		d.HighPercentage = float64(d.High) / total * 100
		d.MediumPercentage = float64(d.Medium) / total * 100
		d.LowPercentage = float64(d.Low) / total * 100
	}
	return d
}

// timeSlots groups rows by the weekday and hour of the schedule start,
// ordered by weekday then hour.
func (s *StatisticsService) timeSlots(rows []statRow) []queries.TimeSlotPriorityDTO {
	type slotKey struct{ day, hour int }
	slots := make(map[slotKey]*queries.TimeSlotPriorityDTO)
	for _, row := range rows {
		if row.schedule.StartAt == nil {
			continue
		}
		start := row.schedule.StartAt.In(s.loc)
		key := slotKey{day: int(start.Weekday()) + 1, hour: start.Hour()}
		slot, ok := slots[key]
		if !ok {
			slot = &queries.TimeSlotPriorityDTO{DayOfWeek: key.day, Hour: key.hour}
			slots[key] = slot
		}
		slot.ScheduleCount++
		slot.TotalPriority += row.score.Priority
	}

	out := make([]queries.TimeSlotPriorityDTO, 0, len(slots))
	for _, slot := range slots {
		slot.AvgPriority = slot.TotalPriority / float64(slot.ScheduleCount)
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// completion counts schedules, not category rows
func completion(schedules []*entities.Schedule) queries.CompletionStatsDTO {
	stats := queries.CompletionStatsDTO{Total: len(schedules)}
	for _, sched := range schedules {
		switch {
		case sched.IsCompleted():
			stats.Completed++
		case sched.IsActive():
			stats.Active++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}

func (s *StatisticsService) prioritySettings(user *entities.User) queries.PrioritySettingsDTO {
	cfg := s.engine.Config()
	settings := queries.PrioritySettingsDTO{
		HighPriorities: weighted(user.HighPriorities(), func(rank int) float64 {
			return cfg.HighBase + float64(cfg.HighPivot-rank)*cfg.HighStep
		}),
		LowPriorities: weighted(user.LowPriorities(), func(rank int) float64 {
			return cfg.LowBase - float64(rank-1)*cfg.LowStep
		}),
		DefaultWeight: cfg.DefaultWeight,
	}
	return settings
}

func weighted(prefs []valueobjects.CategoryPreference, weight func(rank int) float64) []queries.WeightedPreferenceDTO {
	out := make([]queries.WeightedPreferenceDTO, len(prefs))
	for i, p := range prefs {
		out[i] = queries.WeightedPreferenceDTO{Category: p.Category(), Rank: p.Rank(), Weight: weight(p.Rank())}
	}
	return out
}
