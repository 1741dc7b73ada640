package queries

import (
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	pkgerrors "priorify/pkg/errors"
)

// GetPrioritiesQuery reads a user's category preferences
type GetPrioritiesQuery struct {
	UserID string `json:"user_id"`
}

// Validate implements bus.Query
func (q GetPrioritiesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	return nil
}

// CategoryPriorityDTO is one ranked category
type CategoryPriorityDTO struct {
	Category string `json:"category" validate:"required,max=50"`
	Rank     int    `json:"rank" validate:"required,min=1"`
}

// PriorityPreferencesDTO is the preference read/write payload
type PriorityPreferencesDTO struct {
	HighPriorities []CategoryPriorityDTO `json:"highPriorities" validate:"dive"`
	LowPriorities  []CategoryPriorityDTO `json:"lowPriorities" validate:"dive"`
}

// NewPriorityPreferencesDTO maps a user's lists to the payload
func NewPriorityPreferencesDTO(user *entities.User) PriorityPreferencesDTO {
	return PriorityPreferencesDTO{
		HighPriorities: toCategoryPriorityDTOs(user.HighPriorities()),
		LowPriorities:  toCategoryPriorityDTOs(user.LowPriorities()),
	}
}

func toCategoryPriorityDTOs(prefs []valueobjects.CategoryPreference) []CategoryPriorityDTO {
	out := make([]CategoryPriorityDTO, len(prefs))
	for i, p := range prefs {
		out[i] = CategoryPriorityDTO{Category: p.Category(), Rank: p.Rank()}
	}
	return out
}
