package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"priorify/domain/config"
	"priorify/pkg/errors"
)

// PreferenceInput is one raw (category, rank) pair from a request
type PreferenceInput struct {
	Category string
	Rank     int
}

// PreferenceValidator validates category preference lists before they are
// stored on a user. It enforces the rules the weight formula assumes: a
// category appears in one list at most, and ranks in a list are unique and
// run from 1.
type PreferenceValidator struct {
	maxPerList        int
	maxCategoryLength int
}

// NewPreferenceValidator creates a validator from the domain limits
func NewPreferenceValidator(cfg *config.DomainConfig) *PreferenceValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &PreferenceValidator{
		maxPerList:        cfg.MaxPreferencesPerList,
		maxCategoryLength: cfg.MaxCategoryLength,
	}
}

// Validate checks both lists and returns a *errors.FieldErrors describing
// every problem found, or nil.
func (v *PreferenceValidator) Validate(high, low []PreferenceInput) error {
	fieldErrs := errors.NewFieldErrors()

	seen := make(map[string]string)
	v.validateList("highPriorities", high, seen, fieldErrs)
	v.validateList("lowPriorities", low, seen, fieldErrs)

	if fieldErrs.HasErrors() {
		return fieldErrs
	}
	return nil
}

func (v *PreferenceValidator) validateList(field string, list []PreferenceInput, seen map[string]string, fieldErrs *errors.FieldErrors) {
	if len(list) > v.maxPerList {
		fieldErrs.Addf(field, "cannot have more than %d entries", v.maxPerList)
	}

	ranks := make(map[int]bool, len(list))
	for i, p := range list {
		entry := fmt.Sprintf("%s[%d]", field, i)
		category := strings.TrimSpace(p.Category)

		switch {
		case category == "":
			fieldErrs.Add(entry+".category", "cannot be empty")
		case utf8.RuneCountInString(category) > v.maxCategoryLength:
			fieldErrs.Addf(entry+".category", "exceeds maximum length of %d characters", v.maxCategoryLength)
		default:
			if other, dup := seen[category]; dup {
				fieldErrs.Addf(entry+".category", "category %q is already listed in %s", category, other)
			} else {
				seen[category] = field
			}
		}

		if p.Rank < 1 {
			fieldErrs.Add(entry+".rank", "must be 1 or greater")
			continue
		}
		if ranks[p.Rank] {
			fieldErrs.Addf(entry+".rank", "rank %d is used more than once", p.Rank)
		}
		ranks[p.Rank] = true
	}

	for rank := 1; rank <= len(list); rank++ {
		if !ranks[rank] && len(ranks) == len(list) {
			fieldErrs.Addf(field, "ranks must run from 1 to %d without gaps", len(list))
			break
		}
	}
}
