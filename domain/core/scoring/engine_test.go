package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
)

var fixedNow = time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := fixedNow.Add(d)
	return &t
}

func newTestUser(t *testing.T) *entities.User {
	t.Helper()
	return entities.ReconstructUser("u1", "Dana", "dana@example.com",
		[]valueobjects.CategoryPreference{
			valueobjects.MustCategoryPreference("work", 1),
			valueobjects.MustCategoryPreference("study", 2),
		},
		[]valueobjects.CategoryPreference{
			valueobjects.MustCategoryPreference("games", 1),
			valueobjects.MustCategoryPreference("chores", 3),
		},
		fixedNow, fixedNow, 1)
}

func TestEngine_WorkedExamples(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())
	table := engine.WeightTable(newTestUser(t))

	work := &entities.Schedule{ID: "s1", Categories: []string{"work"}, EndAt: at(2 * time.Hour)}
	score := engine.Score(work, "work", table, fixedNow)
	assert.InDelta(t, -math.Log(0.12), score.Urgency, 1e-9)
	assert.InDelta(t, 2.12, score.Urgency, 0.01)
	assert.Equal(t, 4.0, score.Weight)
	assert.InDelta(t, 8.48, score.Priority, 0.01)

	leisure := &entities.Schedule{ID: "s2", Categories: []string{"leisure"}, EndAt: at(-3 * time.Hour)}
	score = engine.Score(leisure, "leisure", table, fixedNow)
	assert.Equal(t, 0.01, score.Urgency)
	assert.Equal(t, 1.0, score.Weight)
	assert.Equal(t, 0.01, score.Priority)
}

func TestEngine_PastDueFloorIsConstant(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())

	for _, ago := range []time.Duration{0, time.Minute, 24 * time.Hour, 400 * 24 * time.Hour} {
		s := &entities.Schedule{EndAt: at(-ago)}
		assert.Equal(t, 0.01, engine.Urgency(s, fixedNow), "ended %s ago", ago)
	}
}

func TestLogDecay_MonotonicDownToFloor(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	urgency := LogDecay(cfg)

	prev := math.Inf(1)
	for h := 0.25; h < 5000; h *= 1.5 {
		u := urgency(h)
		assert.LessOrEqual(t, u, prev, "hours=%v", h)
		assert.GreaterOrEqual(t, u, cfg.MinUrgency)
		prev = u
	}
	assert.Equal(t, cfg.MinUrgency, urgency(10000))
}

func TestTiered(t *testing.T) {
	urgency := Tiered(config.TieredScoringConfig())

	tests := []struct {
		hours float64
		want  float64
	}{
		{-1, 0.5},
		{0, 3.0},
		{24, 3.0},
		{25, 2.0},
		{168, 2.0},
		{500, 1.5},
		{720, 1.5},
		{721, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, urgency(tt.hours), "hours=%v", tt.hours)
	}
}

func TestEngine_MissingTimesUseNeutralUrgency(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())

	assert.Equal(t, 0.5, engine.Urgency(&entities.Schedule{}, fixedNow))

	startOnly := &entities.Schedule{StartAt: at(2 * time.Hour)}
	assert.InDelta(t, 2.12, engine.Urgency(startOnly, fixedNow), 0.01)
}

func TestWeightTable_Formulas(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	high := make([]valueobjects.CategoryPreference, 0, 6)
	low := make([]valueobjects.CategoryPreference, 0, 6)
	for rank := 1; rank <= 6; rank++ {
		high = append(high, valueobjects.MustCategoryPreference("h"+string(rune('0'+rank)), rank))
		low = append(low, valueobjects.MustCategoryPreference("l"+string(rune('0'+rank)), rank))
	}
	table := NewWeightTable(cfg, high, low)

	for rank := 1; rank <= 6; rank++ {
		wantHigh := 2.5 + float64(4-rank)*0.5
		wantLow := 0.5 - float64(rank-1)*0.1
		assert.InDelta(t, wantHigh, table.Weight("h"+string(rune('0'+rank))), 1e-9, "high rank %d", rank)
		assert.InDelta(t, wantLow, table.Weight("l"+string(rune('0'+rank))), 1e-9, "low rank %d", rank)
	}
	assert.Equal(t, 1.0, table.Weight("unlisted"))
	assert.Equal(t, PreferenceDefault, table.Lookup("unlisted").Kind)
}

func TestWeightTable_FirstOccurrenceWins(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	table := NewWeightTable(cfg,
		[]valueobjects.CategoryPreference{
			valueobjects.MustCategoryPreference("work", 2),
			valueobjects.MustCategoryPreference("work", 1),
		},
		[]valueobjects.CategoryPreference{valueobjects.MustCategoryPreference("work", 1)},
	)

	assert.Equal(t, 3.5, table.Weight("work"))
	entry := table.Lookup("work")
	assert.Equal(t, PreferenceHigh, entry.Kind)
	assert.Equal(t, 2, entry.Rank)
	assert.Len(t, table.Entries(), 1)
}

func TestEngine_PriorityIsProduct(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())
	table := engine.WeightTable(newTestUser(t))

	tests := []struct {
		name     string
		category string
		end      *time.Time
	}{
		{"urgent high", "work", at(time.Hour)},
		{"urgent low", "games", at(time.Hour)},
		{"distant high", "study", at(60 * 24 * time.Hour)},
		{"distant default", "misc", at(60 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &entities.Schedule{EndAt: tt.end, Categories: []string{tt.category}}
			score := engine.Score(s, tt.category, table, fixedNow)
			assert.Equal(t, score.Urgency*score.Weight, score.Priority)
			assert.Equal(t, table.Weight(tt.category), score.Weight)
		})
	}
}

func TestEngine_ScoreBest(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())
	table := engine.WeightTable(newTestUser(t))

	s := &entities.Schedule{Categories: []string{"games", "work", "misc"}, EndAt: at(5 * time.Hour)}
	best := engine.ScoreBest(s, table, "uncategorized", fixedNow)
	require.Equal(t, "work", best.Category)
	assert.Equal(t, 4.0, best.Weight)

	none := &entities.Schedule{EndAt: at(5 * time.Hour)}
	assert.Equal(t, "uncategorized", engine.ScoreBest(none, table, "uncategorized", fixedNow).Category)
}

func TestEngine_NilUserUsesDefaults(t *testing.T) {
	engine := NewEngine(config.DefaultScoringConfig())
	table := engine.WeightTable(nil)
	assert.Equal(t, 1.0, table.Weight("work"))
	assert.Empty(t, table.Entries())
}
