package valueobjects

import (
	"encoding/json"
	"strings"

	pkgerrors "priorify/pkg/errors"
)

// CategoryPreference is a ranked category entry in a user's high or low
// priority list. Rank 1 is the strongest preference in its list.
type CategoryPreference struct {
	category string
	rank     int
}

// NewCategoryPreference creates a preference, trimming the category name
func NewCategoryPreference(category string, rank int) (CategoryPreference, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryPreference{}, pkgerrors.NewValidationError("category cannot be empty")
	}
	if rank < 1 {
		return CategoryPreference{}, pkgerrors.NewValidationError("rank must be 1 or greater")
	}
	return CategoryPreference{category: category, rank: rank}, nil
}

// MustCategoryPreference is NewCategoryPreference for literals known to be valid
func MustCategoryPreference(category string, rank int) CategoryPreference {
	p, err := NewCategoryPreference(category, rank)
	if err != nil {
		panic(err)
	}
	return p
}

// Category returns the category name
func (p CategoryPreference) Category() string {
	return p.category
}

// Rank returns the 1-based rank within its list
func (p CategoryPreference) Rank() int {
	return p.rank
}

// Equals checks if two preferences are equal
func (p CategoryPreference) Equals(other CategoryPreference) bool {
	return p.category == other.category && p.rank == other.rank
}

type categoryPreferenceJSON struct {
	Category string `json:"category" dynamodbav:"category"`
	Rank     int    `json:"rank" dynamodbav:"rank"`
}

// MarshalJSON implements json.Marshaler
func (p CategoryPreference) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryPreferenceJSON{Category: p.category, Rank: p.rank})
}

// UnmarshalJSON implements json.Unmarshaler without validation so stored
// documents always load; validation happens on the write path.
func (p *CategoryPreference) UnmarshalJSON(data []byte) error {
	var raw categoryPreferenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.category = raw.Category
	p.rank = raw.Rank
	return nil
}
