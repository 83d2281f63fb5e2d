package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedded "github.com/jonathan/apply-agent/schemas"
)

func TestValidate_FieldAssignment(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "complete",
			json: `{"field_mapping": {"#email": "a@b.c", "#years": 5, "#remote": true},
				"file_requirements": {"#resume": "resume"},
				"unknown_questions": ["Why us?"]}`,
		},
		{
			name: "file requirements optional",
			json: `{"field_mapping": {}, "unknown_questions": []}`,
		},
		{
			name:    "missing unknown_questions",
			json:    `{"field_mapping": {}}`,
			wantErr: true,
		},
		{
			name:    "extra key",
			json:    `{"field_mapping": {}, "unknown_questions": [], "notes": "hi"}`,
			wantErr: true,
		},
		{
			name:    "nested value",
			json:    `{"field_mapping": {"#name": {"first": "A"}}, "unknown_questions": []}`,
			wantErr: true,
		},
		{
			name:    "array instead of object",
			json:    `[1, 2]`,
			wantErr: true,
		},
		{
			name:    "not json",
			json:    `Sure! Here is the mapping you asked for.`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(embedded.FieldAssignment, tt.json)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.NotEmpty(t, vErr.Errors)
		})
	}
}

func TestValidate_JobMatches(t *testing.T) {
	ok := `{"jobs": [{"title": "Fullstack Engineer", "link": "https://x.test/1", "fit_score": 0.8, "salary": null}]}`
	assert.NoError(t, Validate(embedded.JobMatches, ok))

	badScore := `{"jobs": [{"title": "Fullstack Engineer", "link": "https://x.test/1", "fit_score": 3}]}`
	assert.Error(t, Validate(embedded.JobMatches, badScore))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "missing.schema.json")
}
