package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// RunID identifies one execution of a digest job
type RunID struct {
	value string
}

// NewRunID creates a new random RunID
func NewRunID() RunID {
	return RunID{value: uuid.New().String()}
}

// NewRunIDFromString parses an existing run identifier
func NewRunIDFromString(id string) (RunID, error) {
	if id == "" {
		return RunID{}, errors.New("run ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return RunID{}, errors.New("run ID must be a valid UUID")
	}
	return RunID{value: id}, nil
}

// String returns the string representation of the RunID
func (id RunID) String() string {
	return id.value
}

// IsZero checks if the RunID is the zero value
func (id RunID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id RunID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}
