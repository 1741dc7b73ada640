package utils

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "priorify/pkg/errors"
)

func TestStartOfDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2025-05-11 20:30 UTC is already 2025-05-12 in Seoul
	ts := time.Date(2025, 5, 11, 20, 30, 0, 0, time.UTC)
	got := StartOfDay(ts, seoul)

	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, seoul), got)
	assert.Equal(t, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC), StartOfDay(ts, nil))
}

func TestCalendarDaysBetween(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 5, 12, 23, 50, 0, 0, loc)

	assert.Equal(t, 0, CalendarDaysBetween(now, now.Add(5*time.Minute), loc))
	assert.Equal(t, 1, CalendarDaysBetween(now, now.Add(15*time.Minute), loc))
	assert.Equal(t, 7, CalendarDaysBetween(now, now.AddDate(0, 0, 7), loc))
	assert.Equal(t, -1, CalendarDaysBetween(now, now.Add(-24*time.Hour), loc))
}

func TestFormatIn(t *testing.T) {
	ts := time.Date(2025, 5, 12, 1, 5, 0, 0, time.UTC)
	assert.Equal(t, "2025-05-12 01:05", FormatIn(&ts, "2006-01-02 15:04", nil))
	assert.Equal(t, "", FormatIn(nil, "2006-01-02 15:04", nil))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 5))
	assert.Equal(t, 1, CeilDiv(5, 5))
	assert.Equal(t, 3, CeilDiv(12, 5))
}

type rankedCategory struct {
	Category string `validate:"required"`
	Rank     int    `validate:"min=1"`
}

type preferencePayload struct {
	HighPriorities []rankedCategory `validate:"dive"`
}

func TestValidateStruct_ReturnsFieldErrors(t *testing.T) {
	err := ValidateStruct(preferencePayload{HighPriorities: []rankedCategory{{Category: "", Rank: 0}}})
	require.Error(t, err)

	var fieldErrs *pkgerrors.FieldErrors
	require.True(t, stderrors.As(err, &fieldErrs))
	assert.Equal(t, []string{"highPriorities[0].category", "highPriorities[0].rank"}, fieldErrs.Fields())
	assert.Equal(t, []string{"is required"}, fieldErrs.Messages("highPriorities[0].category"))

	assert.NoError(t, ValidateStruct(preferencePayload{HighPriorities: []rankedCategory{{"work", 1}}}))
}
