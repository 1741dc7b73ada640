package scoring

import (
	"math"
	"time"

	"priorify/domain/config"
)

// UrgencyFunc maps the hours remaining until a deadline to an urgency value.
// hours is zero or negative once the deadline has passed.
type UrgencyFunc func(hours float64) float64

// LogDecay returns the continuous curve max(MinUrgency, -ln(A*h + B)), with
// PastDueUrgency once the deadline is reached.
func LogDecay(cfg config.ScoringConfig) UrgencyFunc {
	return func(hours float64) float64 {
		if hours <= 0 {
			return cfg.PastDueUrgency
		}
		return math.Max(cfg.MinUrgency, -math.Log(cfg.DecayA*hours+cfg.DecayB))
	}
}

// Tiered returns the stepwise curve; tiers are checked in ascending order.
func Tiered(cfg config.ScoringConfig) UrgencyFunc {
	return func(hours float64) float64 {
		if hours < 0 {
			return cfg.TieredPastDueUrgency
		}
		for _, tier := range cfg.Tiers {
			if hours <= tier.WithinHours {
				return tier.Urgency
			}
		}
		return cfg.TieredDefaultUrgency
	}
}

// NewUrgencyFunc returns the curve selected by cfg.Strategy
func NewUrgencyFunc(cfg config.ScoringConfig) UrgencyFunc {
	if cfg.Strategy == config.StrategyTiered {
		return Tiered(cfg)
	}
	return LogDecay(cfg)
}

// HoursUntil is the signed number of hours from now to deadline
func HoursUntil(deadline, now time.Time) float64 {
	return deadline.Sub(now).Hours()
}
