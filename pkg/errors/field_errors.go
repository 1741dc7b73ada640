package errors

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors aggregates per-field validation messages collected while
// checking a request payload.
type FieldErrors struct {
	fields map[string][]string
	order  []string
}

// NewFieldErrors creates an empty collection
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{fields: make(map[string][]string)}
}

// Add records a message against a field
func (f *FieldErrors) Add(field, message string) {
	if _, ok := f.fields[field]; !ok {
		f.order = append(f.order, field)
	}
	f.fields[field] = append(f.fields[field], message)
}

// Addf records a formatted message against a field
func (f *FieldErrors) Addf(field, format string, args ...interface{}) {
	f.Add(field, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any message was recorded
func (f *FieldErrors) HasErrors() bool {
	return len(f.order) > 0
}

// Fields returns the recorded field names in sorted order
func (f *FieldErrors) Fields() []string {
	names := append([]string(nil), f.order...)
	sort.Strings(names)
	return names
}

// Messages returns the messages recorded for a field
func (f *FieldErrors) Messages(field string) []string {
	return f.fields[field]
}

// Error implements the error interface
func (f *FieldErrors) Error() string {
	parts := make([]string, 0, len(f.order))
	for _, field := range f.order {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f.fields[field], ", ")))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// ToAppError converts the collection into a validation AppError carrying the
// field map in its details. It returns nil when nothing was recorded.
func (f *FieldErrors) ToAppError(code string) *AppError {
	if !f.HasErrors() {
		return nil
	}
	details := make(map[string]interface{}, len(f.fields))
	for field, msgs := range f.fields {
		details[field] = append([]string(nil), msgs...)
	}
	return NewValidationError(f.Error()).
		WithCode(code).
		WithDetails(map[string]interface{}{"fields": details})
}
