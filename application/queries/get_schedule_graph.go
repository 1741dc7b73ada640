package queries

import (
	"fmt"
	"time"

	"priorify/domain/core/entities"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/utils"
)

// DisplayTimeLayout is the layout of time strings in graph and list payloads
const DisplayTimeLayout = "2006-01-02 15:04"

// Node and edge types of the schedule graph
const (
	NodeTypeUser     = "user"
	NodeTypeCategory = "category"
	NodeTypeSchedule = "schedule"

	EdgeTypeUserCategory     = "user-category"
	EdgeTypeCategorySchedule = "category-schedule"
	EdgeTypeScheduleSchedule = "schedule-schedule"
)

// GetScheduleGraphQuery asks for the user -> category -> schedule graph of
// schedules starting within Days of now.
type GetScheduleGraphQuery struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

// Validate implements bus.Query
func (q GetScheduleGraphQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	if q.Days < 0 {
		return pkgerrors.NewValidationError("days cannot be negative")
	}
	return nil
}

// CacheKey implements bus.Cacheable
func (q GetScheduleGraphQuery) CacheKey() string {
	return fmt.Sprintf("%s%d", GraphCacheKeyPrefix(q.UserID), q.Days)
}

// GraphCacheKeyPrefix prefixes every cached graph of a user
func GraphCacheKeyPrefix(userID string) string {
	return "graph:" + userID + ":"
}

// ScheduleGraphDTO is the graph read model
type ScheduleGraphDTO struct {
	Nodes           []GraphNodeDTO        `json:"nodes"`
	Edges           []GraphEdgeDTO        `json:"edges"`
	RootUser        *GraphNodeDTO         `json:"rootUser"`
	Schedules       []ScheduleListItemDTO `json:"schedules"`
	TotalSchedules  int                   `json:"totalSchedules"`
	TotalCategories int                   `json:"totalCategories"`
	AveragePriority float64               `json:"averagePriority"`
	TopCategories   []string              `json:"topCategories"`
	Metadata        GraphLayoutDTO        `json:"metadata"`
}

// GraphNodeDTO is a node of the schedule graph. Level is 0 for the user, 1
// for categories and 2 for schedules.
type GraphNodeDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Level int    `json:"level"`

	// Schedule nodes
	StartTime          string   `json:"startTime,omitempty"`
	EndTime            string   `json:"endTime,omitempty"`
	Priority           *float64 `json:"priority,omitempty"`
	Status             string   `json:"status,omitempty"`
	UrgencyScore       *float64 `json:"urgencyScore,omitempty"`
	CategoryWeight     *float64 `json:"categoryWeight,omitempty"`
	SimilarScheduleIDs []string `json:"similarScheduleIds,omitempty"`

	// Category nodes
	ScheduleCount *int     `json:"scheduleCount,omitempty"`
	AvgPriority   *float64 `json:"avgPriority,omitempty"`
}

// GraphEdgeDTO is an edge of the schedule graph
type GraphEdgeDTO struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
	Label     string  `json:"label,omitempty"`
	Color     string  `json:"color"`
	Thickness int     `json:"thickness"`
}

// GraphLayoutDTO carries rendering hints for the graph client
type GraphLayoutDTO struct {
	LayoutType        string `json:"layoutType"`
	MaxDepth          int    `json:"maxDepth"`
	UserNodeColor     string `json:"userNodeColor"`
	CategoryNodeColor string `json:"categoryNodeColor"`
	ScheduleNodeColor string `json:"scheduleNodeColor"`
	UserNodeSize      int    `json:"userNodeSize"`
	CategoryNodeSize  int    `json:"categoryNodeSize"`
	ScheduleNodeSize  int    `json:"scheduleNodeSize"`
	HighPriorityColor string `json:"highPriorityColor"`
	MedPriorityColor  string `json:"medPriorityColor"`
	LowPriorityColor  string `json:"lowPriorityColor"`
}

// ScheduleListItemDTO is one entry of a ranked schedule list
type ScheduleListItemDTO struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Categories []string `json:"categories"`
	Priority   float64  `json:"priority"`
	Status     string   `json:"status"`
}

// NewScheduleListItemDTO maps a scored schedule to a list entry with times
// rendered in loc.
func NewScheduleListItemDTO(s *entities.Schedule, priority float64, uncategorized string, loc *time.Location) ScheduleListItemDTO {
	return ScheduleListItemDTO{
		ID:         s.ID,
		Title:      s.Title,
		StartDate:  utils.FormatIn(s.StartAt, DisplayTimeLayout, loc),
		EndDate:    utils.FormatIn(s.EndAt, DisplayTimeLayout, loc),
		Categories: append([]string(nil), s.CategoriesOr(uncategorized)...),
		Priority:   priority,
		Status:     string(s.Status),
	}
}
