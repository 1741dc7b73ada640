// Package scoring computes schedule urgency, category weight and priority.
//
// Priority is always Urgency * Weight. Scoring is pure: it never fails and
// never reads the clock, callers pass now explicitly.
package scoring

import (
	"time"

	"priorify/domain/config"
	"priorify/domain/core/entities"
)

// Score is the result of scoring one schedule in one category
type Score struct {
	Category string  `json:"category"`
	Urgency  float64 `json:"urgencyScore"`
	Weight   float64 `json:"categoryWeight"`
	Priority float64 `json:"priority"`
}

// Engine scores schedules with a fixed configuration
type Engine struct {
	cfg     config.ScoringConfig
	urgency UrgencyFunc
}

// NewEngine creates an engine using the configured urgency strategy
func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg, urgency: NewUrgencyFunc(cfg)}
}

// Config returns the scoring configuration
func (e *Engine) Config() config.ScoringConfig {
	return e.cfg
}

// WeightTable builds the per-user weight table
func (e *Engine) WeightTable(user *entities.User) WeightTable {
	return WeightTableFor(e.cfg, user)
}

// Urgency computes the urgency of a schedule at now. The deadline is the
// schedule's end, or its start when no end is set.
func (e *Engine) Urgency(s *entities.Schedule, now time.Time) float64 {
	deadline, ok := s.Deadline()
	if !ok {
		return e.cfg.MissingTimeUrgency
	}
	return e.urgency(HoursUntil(deadline, now))
}

// Score computes the priority of a schedule within one of its categories
func (e *Engine) Score(s *entities.Schedule, category string, table WeightTable, now time.Time) Score {
	u := e.Urgency(s, now)
	w := table.Weight(category)
	return Score{Category: category, Urgency: u, Weight: w, Priority: u * w}
}

// ScoreBest scores the schedule in each of its categories and returns the
// highest priority. Ties keep the earlier category.
func (e *Engine) ScoreBest(s *entities.Schedule, table WeightTable, uncategorized string, now time.Time) Score {
	var best Score
	for i, category := range s.CategoriesOr(uncategorized) {
		score := e.Score(s, category, table, now)
		if i == 0 || score.Priority > best.Priority {
			best = score
		}
	}
	return best
}
