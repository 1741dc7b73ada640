package scoring

import (
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
)

// PreferenceKind tells which list a category weight came from
type PreferenceKind string

const (
	PreferenceHigh    PreferenceKind = "high"
	PreferenceLow     PreferenceKind = "low"
	PreferenceDefault PreferenceKind = "default"
)

// WeightEntry is one resolved category weight
type WeightEntry struct {
	Category string
	Rank     int
	Kind     PreferenceKind
	Weight   float64
}

// WeightTable resolves category weights for a single user. It is built once
// per user and reused for every schedule of that user.
type WeightTable struct {
	weights       map[string]WeightEntry
	ordered       []WeightEntry
	defaultWeight float64
}

// NewWeightTable builds the table from the user's preference lists. High
// entries are inserted before low entries and the first occurrence of a
// category wins. Weights are not clamped.
func NewWeightTable(cfg config.ScoringConfig, high, low []valueobjects.CategoryPreference) WeightTable {
	table := WeightTable{
		weights:       make(map[string]WeightEntry, len(high)+len(low)),
		defaultWeight: cfg.DefaultWeight,
	}

	for _, p := range high {
		table.add(WeightEntry{
			Category: p.Category(),
			Rank:     p.Rank(),
			Kind:     PreferenceHigh,
			Weight:   cfg.HighBase + float64(cfg.HighPivot-p.Rank())*cfg.HighStep,
		})
	}
	for _, p := range low {
		table.add(WeightEntry{
			Category: p.Category(),
			Rank:     p.Rank(),
			Kind:     PreferenceLow,
			Weight:   cfg.LowBase - float64(p.Rank()-1)*cfg.LowStep,
		})
	}
	return table
}

func (t *WeightTable) add(entry WeightEntry) {
	if _, exists := t.weights[entry.Category]; exists {
		return
	}
	t.weights[entry.Category] = entry
	t.ordered = append(t.ordered, entry)
}

// Weight returns the weight for category, or the default weight
func (t WeightTable) Weight(category string) float64 {
	if entry, ok := t.weights[category]; ok {
		return entry.Weight
	}
	return t.defaultWeight
}

// Lookup returns the resolved entry for category
func (t WeightTable) Lookup(category string) WeightEntry {
	if entry, ok := t.weights[category]; ok {
		return entry
	}
	return WeightEntry{Category: category, Kind: PreferenceDefault, Weight: t.defaultWeight}
}

// Entries returns the explicit entries in insertion order
func (t WeightTable) Entries() []WeightEntry {
	return append([]WeightEntry(nil), t.ordered...)
}

// DefaultWeight returns the weight of unlisted categories
func (t WeightTable) DefaultWeight() float64 {
	return t.defaultWeight
}

// WeightTableFor builds the table from a user entity
func WeightTableFor(cfg config.ScoringConfig, user *entities.User) WeightTable {
	if user == nil {
		return NewWeightTable(cfg, nil, nil)
	}
	return NewWeightTable(cfg, user.HighPriorities(), user.LowPriorities())
}
