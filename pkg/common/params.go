package common

import (
	"fmt"
	"net/http"
	"strconv"

	pkgerrors "priorify/pkg/errors"
)

// IntQuery reads an integer query parameter. A missing parameter yields def;
// a malformed or out of range one is a validation error.
func IntQuery(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidationError(fmt.Sprintf("%s must be an integer", name)).
			WithDetail("parameter", name)
	}
	if v < min || v > max {
		return 0, pkgerrors.NewValidationError(fmt.Sprintf("%s must be between %d and %d", name, min, max)).
			WithDetail("parameter", name)
	}
	return v, nil
}
