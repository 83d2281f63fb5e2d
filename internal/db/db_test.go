package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/apply-agent/internal/pipeline"
	"github.com/jonathan/apply-agent/internal/types"
)

var _ pipeline.Recorder = (*Recorder)(nil)

func TestSchemaTables(t *testing.T) {
	schema := Schema()
	for _, table := range []string{"profiles", "user_custom_fields", "job_applications", "job_application_responses"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestListApplicationsQuery(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		filters  ApplicationFilters
		contains []string
		args     []any
	}{
		{
			name:     "no filters",
			filters:  ApplicationFilters{},
			contains: []string{"LIMIT $1"},
			args:     []any{DefaultListLimit},
		},
		{
			name:     "user and status",
			filters:  ApplicationFilters{UserID: userID, Status: types.StatusSubmitted, Limit: 5},
			contains: []string{"AND user_id = $1", "AND status = $2", "LIMIT $3"},
			args:     []any{userID, types.StatusSubmitted, 5},
		},
		{
			name:     "status only",
			filters:  ApplicationFilters{Status: types.StatusFailed},
			contains: []string{"AND status = $1", "LIMIT $2"},
			args:     []any{types.StatusFailed, DefaultListLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := listApplicationsQuery(tt.filters)
			for _, c := range tt.contains {
				assert.Contains(t, query, c)
			}
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestNullableUUID(t *testing.T) {
	assert.Nil(t, nullableUUID(uuid.Nil))

	id := uuid.New()
	got := nullableUUID(id)
	if assert.NotNil(t, got) {
		assert.Equal(t, id, *got)
	}
}

func TestApplicationIsComplete(t *testing.T) {
	app := Application{JobURL: "https://jobs.example.com/1", Status: types.StatusPending}
	assert.False(t, app.IsComplete())

	now := time.Now()
	app.CompletedAt = &now
	assert.True(t, app.IsComplete())
}
