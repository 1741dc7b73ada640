package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// UrgencyStrategy selects the urgency curve used by the scoring engine
type UrgencyStrategy string

const (
	// StrategyLogDecay is the continuous -ln(A*h + B) curve used for ranking
	StrategyLogDecay UrgencyStrategy = "log_decay"
	// StrategyTiered is the stepwise curve used for statistics
	StrategyTiered UrgencyStrategy = "tiered"
)

// UrgencyTier maps a horizon (hours until the deadline) to an urgency value
type UrgencyTier struct {
	WithinHours float64
	Urgency     float64
}

// ScoringConfig holds the coefficients of the urgency and weight formulas
type ScoringConfig struct {
	Strategy UrgencyStrategy

	// Log decay: max(MinUrgency, -ln(DecayA*hours + DecayB))
	DecayA         float64
	DecayB         float64
	MinUrgency     float64
	PastDueUrgency float64

	// Tiered
	TieredPastDueUrgency float64
	Tiers                []UrgencyTier
	TieredDefaultUrgency float64

	// Used when a schedule has neither a start nor an end time
	MissingTimeUrgency float64

	// High weight: HighBase + (HighPivot - rank) * HighStep
	HighBase  float64
	HighPivot int
	HighStep  float64

	// Low weight: LowBase - (rank - 1) * LowStep
	LowBase float64
	LowStep float64

	DefaultWeight float64
}

// GraphConfig holds the graph read-model rules
type GraphConfig struct {
	DefaultWindowDays   int
	MaxWindowDays       int
	TopCategories       int
	StrongEdgeThreshold float64
	MediumEdgeThreshold float64
	CacheTTL            time.Duration
}

// SimilarityConfig holds the related-schedule lookup rules
type SimilarityConfig struct {
	Threshold     float64
	CandidatePool int
	SearchLimit   int
	MaxResults    int
	EdgeWeight    float64
	Timeout       time.Duration
}

// DigestConfig holds the batch digest rules
type DigestConfig struct {
	BatchSize             int
	BatchDelay            time.Duration
	TopPriorityCount      int
	TopPriorityLookahead  time.Duration
	ReminderDayOffsets    []int
	UrgentDayOffsets      []int
	ReminderWindowDays    int
	HighPriorityThreshold float64
	LockTTL               time.Duration
}

// DomainConfig holds all configurable business rules
type DomainConfig struct {
	Scoring    ScoringConfig
	Graph      GraphConfig
	Similarity SimilarityConfig
	Digest     DigestConfig

	// Category bucket for schedules without categories
	UncategorizedLabel string

	// Calendar used for day arithmetic in digests
	TimeZone string

	// Preference list limits
	MaxPreferencesPerList int
	MaxCategoryLength     int
}

// DefaultScoringConfig returns the canonical scoring coefficients
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Strategy:       StrategyLogDecay,
		DecayA:         0.01,
		DecayB:         0.1,
		MinUrgency:     0.1,
		PastDueUrgency: 0.01,

		TieredPastDueUrgency: 0.5,
		Tiers: []UrgencyTier{
			{WithinHours: 24, Urgency: 3.0},
			{WithinHours: 168, Urgency: 2.0},
			{WithinHours: 720, Urgency: 1.5},
		},
		TieredDefaultUrgency: 1.0,

		MissingTimeUrgency: 0.5,

		HighBase:  2.5,
		HighPivot: 4,
		HighStep:  0.5,
		LowBase:   0.5,
		LowStep:   0.1,

		DefaultWeight: 1.0,
	}
}

// TieredScoringConfig returns the scoring coefficients used for statistics
func TieredScoringConfig() ScoringConfig {
	cfg := DefaultScoringConfig()
	cfg.Strategy = StrategyTiered
	return cfg
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		Scoring: DefaultScoringConfig(),
		Graph: GraphConfig{
			DefaultWindowDays:   7,
			MaxWindowDays:       90,
			TopCategories:       5,
			StrongEdgeThreshold: 7.0,
			MediumEdgeThreshold: 4.0,
			CacheTTL:            30 * time.Second,
		},
		Similarity: SimilarityConfig{
			Threshold:     0.5,
			CandidatePool: 100,
			SearchLimit:   20,
			MaxResults:    5,
			EdgeWeight:    0.75,
			Timeout:       3 * time.Second,
		},
		Digest: DigestConfig{
			BatchSize:             5,
			BatchDelay:            time.Second,
			TopPriorityCount:      2,
			TopPriorityLookahead:  7 * 24 * time.Hour,
			ReminderDayOffsets:    []int{0, 1, 3, 7},
			UrgentDayOffsets:      []int{0, 1},
			ReminderWindowDays:    8,
			HighPriorityThreshold: 5.0,
			LockTTL:               30 * time.Minute,
		},
		UncategorizedLabel:    "uncategorized",
		TimeZone:              "Asia/Seoul",
		MaxPreferencesPerList: 10,
		MaxCategoryLength:     50,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.Graph.CacheTTL = time.Minute
	cfg.Digest.LockTTL = time.Hour
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.Graph.CacheTTL = 0
	cfg.Digest.BatchDelay = 100 * time.Millisecond
	cfg.Digest.LockTTL = 5 * time.Minute
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.Graph.DefaultWindowDays <= 0 || c.Graph.DefaultWindowDays > c.Graph.MaxWindowDays {
		return fmt.Errorf("graph window days must be in (0, %d]", c.Graph.MaxWindowDays)
	}
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0, 1], got %v", c.Similarity.Threshold)
	}
	if c.Similarity.MaxResults <= 0 || c.Similarity.SearchLimit < c.Similarity.MaxResults {
		return fmt.Errorf("similarity search limit %d cannot be below max results %d",
			c.Similarity.SearchLimit, c.Similarity.MaxResults)
	}
	if c.Digest.BatchSize <= 0 {
		return fmt.Errorf("digest batch size must be positive")
	}
	if c.Digest.BatchDelay < 0 {
		return fmt.Errorf("digest batch delay cannot be negative")
	}
	if c.UncategorizedLabel == "" {
		return fmt.Errorf("uncategorized label is required")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location resolves the configured time zone, falling back to UTC
func (c *DomainConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the scoring coefficients
func (s ScoringConfig) Validate() error {
	switch s.Strategy {
	case StrategyLogDecay, StrategyTiered:
	default:
		return fmt.Errorf("unknown urgency strategy %q", s.Strategy)
	}
	if s.DecayA <= 0 || s.DecayB <= 0 {
		return fmt.Errorf("decay coefficients must be positive")
	}
	if s.MinUrgency <= 0 {
		return fmt.Errorf("minimum urgency must be positive")
	}
	for i := 1; i < len(s.Tiers); i++ {
		if s.Tiers[i].WithinHours <= s.Tiers[i-1].WithinHours {
			return fmt.Errorf("urgency tiers must be in ascending order")
		}
	}
	if s.DefaultWeight <= 0 {
		return fmt.Errorf("default weight must be positive")
	}
	return nil
}
