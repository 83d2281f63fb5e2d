package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/jobsearch"
	"github.com/jonathan/apply-agent/internal/pipeline"
	"github.com/jonathan/apply-agent/internal/types"
)

func sampleFields() []types.FieldDescriptor {
	return []types.FieldDescriptor{
		{Kind: types.FieldText, Label: "Full name", Selector: "#name", Required: true},
		{Kind: types.FieldSelect, Label: "Country", Selector: "#country", Options: []types.SelectOption{
			{Value: "us", Text: "United States"},
			{Value: "ca", Text: "Canada"},
		}},
		{Kind: types.FieldFile, Selector: `input[type="file"]`},
	}
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFields(sampleFields())
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED FIELDS")
	assert.Contains(t, output, "Total fields: 3")
	assert.Contains(t, output, "[text] Full name *")
	assert.Contains(t, output, "options: us, ca")
	assert.Contains(t, output, "(no label)")
}

func TestPrintFields_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFields(nil)

	assert.Contains(t, buf.String(), "No fillable fields found")
}

func TestPrintAssignment(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAssignment(&types.FieldAssignment{
		FieldMapping:     types.OrderedMapping{{Selector: "#name", Value: "Jane Doe"}},
		FileRequirements: types.OrderedMapping{{Selector: "#cv", Value: "resume"}},
		UnknownQuestions: []string{"Are you willing to relocate?"},
	})
	output := buf.String()

	assert.Contains(t, output, "FIELD ASSIGNMENT")
	assert.Contains(t, output, "#name = Jane Doe")
	assert.Contains(t, output, "#cv ← resume")
	assert.Contains(t, output, "willing to relocate")
}

func TestPrintAssignment_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAssignment(nil)

	assert.Empty(t, buf.String())
}

func TestPrintFillReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFillReport(&forms.FillReport{
		Outcomes: []forms.FieldOutcome{
			{Selector: "#name", Action: forms.ActionFill, Value: "Jane"},
			{Selector: "#country", Action: forms.ActionSelect, Value: "xx", Err: errors.New("option not found")},
			{Selector: "#cover", Action: forms.ActionMissingFile, Value: "cover_letter"},
		},
		UnknownQuestions: []string{forms.MissingFileNote("cover_letter")},
	})
	output := buf.String()

	assert.Contains(t, output, "FILL RESULT")
	assert.Contains(t, output, "Applied: 1   Failed: 1")
	assert.Contains(t, output, "✓ fill    #name")
	assert.Contains(t, output, "✗ select  #country")
	assert.Contains(t, output, "option not found")
	assert.Contains(t, output, "no cover_letter file")
	assert.Contains(t, output, "Needs your input")
}

func TestPrintSubmit(t *testing.T) {
	tests := []struct {
		name   string
		result forms.SubmitResult
		want   string
	}{
		{name: "absent", result: forms.SubmitResult{}, want: "No submit control found"},
		{name: "clicked", result: forms.SubmitResult{Found: true, Clicked: true}, want: "Submit control clicked"},
		{name: "failed", result: forms.SubmitResult{Found: true, Err: errors.New("detached")}, want: "Submit failed: detached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintSubmit(&tt.result)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrintApplyReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintApplyReport(&pipeline.Report{
		AttemptID:          uuid.New(),
		URL:                "https://jobs.example.com/apply",
		NavigationTimedOut: true,
		Fields:             sampleFields(),
		Status:             types.StatusFailed,
	})
	output := buf.String()

	assert.Contains(t, output, "APPLICATION")
	assert.Contains(t, output, "Status:  failed")
	assert.Contains(t, output, "timed out")
	assert.Contains(t, output, "EXTRACTED FIELDS")
	assert.NotContains(t, output, "FILL RESULT", "stages that did not run are not printed")
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobs([]types.JobPosting{
		{Title: "Fullstack Engineer", Company: "Acme", Link: "https://acme.example.com/jobs/1", Location: "Remote", Salary: "$150k"},
		{Title: "Backend Engineer", Company: "Globex", Link: "https://globex.example.com/jobs/2"},
	})
	output := buf.String()

	assert.Contains(t, output, "Total jobs: 2")
	assert.Contains(t, output, "#1  Fullstack Engineer @ Acme")
	assert.Contains(t, output, "Remote · $150k")
}

func TestPrintSearchResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSearchResults([]jobsearch.TaskResult{
		{Task: jobsearch.Task{Company: "Acme"}, Saved: []types.JobPosting{{Title: "x"}}, Links: 12, Dropped: 1},
		{Task: jobsearch.Task{Company: "Broken"}, Err: errors.New("HTTP status 503")},
	})
	output := buf.String()

	assert.Contains(t, output, "✓ Acme: 1 saved, 1 dropped, 12 links")
	assert.Contains(t, output, "✗ Broken: HTTP status 503")
	assert.Contains(t, output, "Total saved: 1")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFields([]types.FieldDescriptor{{
		Kind:     types.FieldText,
		Label:    "A very long question label that should be truncated to fit the box width",
		Selector: "#q",
	}})
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.Contains(t, output, "...")
}
