package queries

import (
	pkgerrors "priorify/pkg/errors"
)

// GetStatisticsQuery asks for the comprehensive priority statistics of the
// schedules that started within the last Days days.
type GetStatisticsQuery struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

// Validate implements bus.Query
func (q GetStatisticsQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	if q.Days < 0 || q.Days > 366 {
		return pkgerrors.NewValidationError("days must be between 0 and 366")
	}
	return nil
}

// GetCategoryStatisticsQuery asks for the per-category section only
type GetCategoryStatisticsQuery struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

// Validate implements bus.Query
func (q GetCategoryStatisticsQuery) Validate() error {
	return GetStatisticsQuery(q).Validate()
}

// CategoryStatisticsResult is the response of GetCategoryStatisticsQuery
type CategoryStatisticsResult struct {
	CategoryStats []CategoryStatsDTO `json:"categoryStats"`
	Days          int                `json:"days"`
}

// StatisticsDTO is the comprehensive statistics payload
type StatisticsDTO struct {
	CategoryStats        []CategoryStatsDTO      `json:"categoryStats"`
	Summary              StatisticsSummaryDTO    `json:"summary"`
	PriorityDistribution PriorityDistributionDTO `json:"priorityDistribution"`
	TimeBasedPriority    []TimeSlotPriorityDTO   `json:"timeBasedPriority"`
	CompletionStats      CompletionStatsDTO      `json:"completionStats"`
	PrioritySettings     PrioritySettingsDTO     `json:"prioritySettings"`
	Period               StatisticsPeriodDTO     `json:"period"`
}

// CategoryStatsDTO aggregates one category
type CategoryStatsDTO struct {
	Category          string  `json:"category"`
	TotalSchedules    int     `json:"totalSchedules"`
	TotalPriority     float64 `json:"totalPriority"`
	AvgPriority       float64 `json:"avgPriority"`
	MaxPriority       float64 `json:"maxPriority"`
	MinPriority       float64 `json:"minPriority"`
	AvgUrgency        float64 `json:"avgUrgency"`
	AvgCategoryWeight float64 `json:"avgCategoryWeight"`
	CompletedCount    int     `json:"completedCount"`
	CompletionRate    float64 `json:"completionRate"`
	TotalDuration     float64 `json:"totalDuration"`
	AvgDuration       float64 `json:"avgDuration"`
}

// StatisticsSummaryDTO totals all categories
type StatisticsSummaryDTO struct {
	TotalSchedules        int     `json:"totalSchedules"`
	TotalCompleted        int     `json:"totalCompleted"`
	OverallCompletionRate float64 `json:"overallCompletionRate"`
	TotalPriority         float64 `json:"totalPriority"`
	AvgPriority           float64 `json:"avgPriority"`
	TotalHours            float64 `json:"totalHours"`
	AvgHoursPerSchedule   float64 `json:"avgHoursPerSchedule"`
	TotalCategories       int     `json:"totalCategories"`
}

// PriorityDistributionDTO buckets priorities into high, medium and low
type PriorityDistributionDTO struct {
	High             int     `json:"high"`
	Medium           int     `json:"medium"`
	Low              int     `json:"low"`
	HighPercentage   float64 `json:"highPercentage"`
	MediumPercentage float64 `json:"mediumPercentage"`
	LowPercentage    float64 `json:"lowPercentage"`
}

// TimeSlotPriorityDTO aggregates schedules starting in one weekday/hour slot.
// DayOfWeek is 1 for Sunday through 7 for Saturday.
type TimeSlotPriorityDTO struct {
	DayOfWeek     int     `json:"dayOfWeek"`
	Hour          int     `json:"hour"`
	ScheduleCount int     `json:"scheduleCount"`
	AvgPriority   float64 `json:"avgPriority"`
	TotalPriority float64 `json:"totalPriority"`
}

// CompletionStatsDTO counts schedules by completion
type CompletionStatsDTO struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Active         int     `json:"active"`
	CompletionRate float64 `json:"completionRate"`
}

// WeightedPreferenceDTO is a preference with its resolved weight
type WeightedPreferenceDTO struct {
	Category string  `json:"category"`
	Rank     int     `json:"rank"`
	Weight   float64 `json:"weight"`
}

// PrioritySettingsDTO lists the weights in effect for the user
type PrioritySettingsDTO struct {
	HighPriorities []WeightedPreferenceDTO `json:"highPriorities"`
	LowPriorities  []WeightedPreferenceDTO `json:"lowPriorities"`
	DefaultWeight  float64                 `json:"defaultWeight"`
}

// StatisticsPeriodDTO is the window the statistics cover
type StatisticsPeriodDTO struct {
	Days  int    `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// GetBatchStatisticsQuery reports how a digest run would be paged
type GetBatchStatisticsQuery struct{}

// Validate implements bus.Query
func (q GetBatchStatisticsQuery) Validate() error {
	return nil
}

// BatchStatisticsDTO describes the user population seen by digest runs
type BatchStatisticsDTO struct {
	TotalUsers               int      `json:"totalUsers"`
	UsersWithEmail           int      `json:"usersWithEmail"`
	UsersWithoutEmail        int      `json:"usersWithoutEmail"`
	BatchSize                int      `json:"batchSize"`
	TotalBatches             int      `json:"totalBatches"`
	BatchDelaySeconds        float64  `json:"batchDelaySeconds"`
	EstimatedDurationSeconds float64  `json:"estimatedDurationSeconds"`
	Jobs                     []string `json:"jobs"`
}
