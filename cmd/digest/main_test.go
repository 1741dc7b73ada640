package main

import (
	"encoding/json"
	"testing"

	pkgerrors "priorify/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobFromEvent(t *testing.T) {
	job, err := jobFromEvent(events.CloudWatchEvent{Detail: json.RawMessage(`{"job":"daily-reminder"}`)})
	require.NoError(t, err)
	assert.Equal(t, "daily-reminder", job)

	_, err = jobFromEvent(events.CloudWatchEvent{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = jobFromEvent(events.CloudWatchEvent{Detail: json.RawMessage(`{"job":`)})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = jobFromEvent(events.CloudWatchEvent{Detail: json.RawMessage(`{}`)})
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnknownJob, appErr.Code)
}
