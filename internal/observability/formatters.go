// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/jobsearch"
	"github.com/jonathan/apply-agent/internal/pipeline"
	"github.com/jonathan/apply-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxFieldsToShow bounds the field list, which is usually longer
	maxFieldsToShow = 15
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func more(sb *strings.Builder, total, shown int, noun string) {
	if total > shown {
		sb.WriteString(fmt.Sprintf("  ... and %d more %s\n", total-shown, noun))
	}
}

// PrintFields outputs the extracted form fields in page order.
func (p *Printer) PrintFields(fields []types.FieldDescriptor) {
	if len(fields) == 0 {
		p.printBox("EXTRACTED FIELDS", "No fillable fields found")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total fields: %d\n\n", len(fields)))

	count := min(len(fields), maxFieldsToShow)
	for i := 0; i < count; i++ {
		f := fields[i]
		label := f.Label
		if label == "" {
			label = "(no label)"
		}
		required := ""
		if f.Required {
			required = " *"
		}
		sb.WriteString(fmt.Sprintf("%2d. [%s] %s%s\n", i+1, f.Kind, label, required))
		sb.WriteString(fmt.Sprintf("    %s\n", f.Selector))
		if len(f.Options) > 0 {
			sb.WriteString(fmt.Sprintf("    options: %s\n", strings.Join(f.OptionValues(), ", ")))
		}
	}
	more(&sb, len(fields), count, "fields")

	p.printBox("EXTRACTED FIELDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAssignment outputs the classifier's mapping, file requirements and open questions.
func (p *Printer) PrintAssignment(a *types.FieldAssignment) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mapped fields: %d\n", len(a.FieldMapping)))
	for _, fv := range a.FieldMapping {
		sb.WriteString(fmt.Sprintf("  • %s = %s\n", fv.Selector, fv.Value))
	}

	if len(a.FileRequirements) > 0 {
		sb.WriteString("\nFile uploads:\n")
		for _, fv := range a.FileRequirements {
			sb.WriteString(fmt.Sprintf("  • %s ← %s\n", fv.Selector, fv.Value))
		}
	}

	if len(a.UnknownQuestions) > 0 {
		sb.WriteString("\nUnanswered:\n")
		count := min(len(a.UnknownQuestions), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  ? %s\n", a.UnknownQuestions[i]))
		}
		more(&sb, len(a.UnknownQuestions), count, "questions")
	}

	p.printBox("FIELD ASSIGNMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFillReport outputs every fill outcome, failures with their cause.
func (p *Printer) PrintFillReport(r *forms.FillReport) {
	if r == nil {
		return
	}

	var sb strings.Builder
	applied, failed := len(r.Applied()), len(r.Failed())
	sb.WriteString(fmt.Sprintf("Applied: %d   Failed: %d\n\n", applied, failed))

	for _, o := range r.Outcomes {
		switch {
		case o.OK():
			sb.WriteString(fmt.Sprintf("  ✓ %-7s %s\n", o.Action, o.Selector))
		case o.Action == forms.ActionMissingFile:
			sb.WriteString(fmt.Sprintf("  - %-7s %s (no %s file)\n", "skip", o.Selector, o.Value))
		default:
			sb.WriteString(fmt.Sprintf("  ✗ %-7s %s\n", o.Action, o.Selector))
			sb.WriteString(fmt.Sprintf("      %v\n", o.Err))
		}
	}

	if len(r.UnknownQuestions) > 0 {
		sb.WriteString("\nNeeds your input:\n")
		for _, q := range r.UnknownQuestions {
			sb.WriteString(fmt.Sprintf("  ? %s\n", q))
		}
	}

	p.printBox("FILL RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSubmit outputs the submit step.
func (p *Printer) PrintSubmit(r *forms.SubmitResult) {
	if r == nil {
		return
	}

	var content string
	switch {
	case !r.Found:
		content = "No submit control found"
	case r.Clicked:
		content = "Submit control clicked"
	default:
		content = fmt.Sprintf("Submit failed: %v", r.Err)
	}
	p.printBox("SUBMIT", content)
}

// PrintApplyReport outputs every stage of one attempt that ran.
func (p *Printer) PrintApplyReport(r *pipeline.Report) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Attempt: %s\n", r.AttemptID))
	sb.WriteString(fmt.Sprintf("URL:     %s\n", r.URL))
	sb.WriteString(fmt.Sprintf("Status:  %s", r.Status))
	if r.NavigationTimedOut {
		sb.WriteString("\n(page load timed out; used partial page)")
	}
	p.printBox("APPLICATION", sb.String())

	p.PrintFields(r.Fields)
	p.PrintAssignment(r.Assignment)
	p.PrintFillReport(r.Fill)
	p.PrintSubmit(r.Submit)
}

// PrintJobs outputs saved job postings.
func (p *Printer) PrintJobs(jobs []types.JobPosting) {
	if len(jobs) == 0 {
		p.printBox("SAVED JOBS", "No jobs saved")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total jobs: %d\n\n", len(jobs)))
	for i, job := range jobs {
		sb.WriteString(fmt.Sprintf("#%d  %s @ %s\n", i+1, job.Title, job.Company))
		sb.WriteString(fmt.Sprintf("    %s\n", job.Link))
		details := []string{}
		if job.Location != "" {
			details = append(details, job.Location)
		}
		if job.Salary != "" {
			details = append(details, job.Salary)
		}
		if len(details) > 0 {
			sb.WriteString(fmt.Sprintf("    %s\n", strings.Join(details, " · ")))
		}
	}

	p.printBox("SAVED JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs one line per search task.
func (p *Printer) PrintSearchResults(results []jobsearch.TaskResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, r := range results {
		total += len(r.Saved)
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("  ✗ %s: %v\n", r.Task.Company, r.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("  ✓ %s: %d saved, %d dropped, %d links\n",
			r.Task.Company, len(r.Saved), r.Dropped, r.Links))
	}
	sb.WriteString(fmt.Sprintf("\nTotal saved: %d", total))

	p.printBox("JOB SEARCH", sb.String())
}
