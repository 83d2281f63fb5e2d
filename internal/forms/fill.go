package forms

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/types"
)

// DefaultFieldTimeout bounds the wait for each mapped selector.
const DefaultFieldTimeout = 3 * time.Second

// Action names what the filler did (or tried to do) with one selector.
type Action string

const (
	ActionFill   Action = "fill"
	ActionSelect Action = "select"
	ActionUpload Action = "upload"
	// ActionMissingFile means the upload was skipped because no local file exists.
	ActionMissingFile Action = "missing-file"
)

// ErrUnsupportedElement is returned for mapped elements that are neither
// selects nor text controls.
var ErrUnsupportedElement = errors.New("unsupported element")

// FieldOutcome is the result of one mapping or file requirement entry.
type FieldOutcome struct {
	Selector string `json:"selector"`
	Action   Action `json:"action"`
	Value    string `json:"value"`
	Err      error  `json:"-"`
}

// OK reports whether the value was applied to the page.
func (o FieldOutcome) OK() bool {
	return o.Err == nil && o.Action != ActionMissingFile
}

// FillReport collects every outcome of one fill pass in execution order.
// UnknownQuestions starts from the assignment and gains a note per missing file.
type FillReport struct {
	Outcomes         []FieldOutcome `json:"outcomes"`
	UnknownQuestions []string       `json:"unknown_questions"`
}

// Applied returns the outcomes that changed the page.
func (r *FillReport) Applied() []FieldOutcome {
	var out []FieldOutcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that carry an error.
func (r *FillReport) Failed() []FieldOutcome {
	var out []FieldOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// MissingFileNote is the unknown-question entry added when no file exists for fileType.
func MissingFileNote(fileType string) string {
	return "Please provide " + fileType
}

// Filler applies an assignment to a live page, one field at a time. A failing
// field is recorded and the pass continues with the next one.
type Filler struct {
	FieldTimeout time.Duration
	Log          zerolog.Logger
}

// NewFiller returns a filler with the default field timeout.
func NewFiller(log zerolog.Logger) *Filler {
	return &Filler{FieldTimeout: DefaultFieldTimeout, Log: log}
}

func (f *Filler) timeout() time.Duration {
	if f.FieldTimeout <= 0 {
		return DefaultFieldTimeout
	}
	return f.FieldTimeout
}

// Fill processes the field mapping in order, then the file requirements in order.
// It never returns an error; per-field failures are in the report.
func (f *Filler) Fill(ctx context.Context, s browser.Session, a *types.FieldAssignment, info types.UserInfo) *FillReport {
	report := &FillReport{Outcomes: []FieldOutcome{}, UnknownQuestions: []string{}}
	if a == nil {
		return report
	}
	report.UnknownQuestions = append(report.UnknownQuestions, a.UnknownQuestions...)

	for _, fv := range a.FieldMapping {
		outcome := f.fillField(ctx, s, fv.Selector, fv.Value)
		f.logOutcome(outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	for _, req := range a.FileRequirements {
		fileType := strings.TrimSpace(req.Value)
		outcome := f.uploadFile(ctx, s, req.Selector, fileType, info)
		if outcome.Action == ActionMissingFile {
			report.UnknownQuestions = appendUnique(report.UnknownQuestions, MissingFileNote(fileType))
		}
		f.logOutcome(outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}

func (f *Filler) fillField(ctx context.Context, s browser.Session, selector, value string) FieldOutcome {
	outcome := FieldOutcome{Selector: selector, Action: ActionFill, Value: value}

	if err := s.WaitSelector(ctx, selector, f.timeout()); err != nil {
		outcome.Err = fmt.Errorf("element not located: %w", err)
		return outcome
	}

	tag, err := s.TagName(ctx, selector)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	switch tag {
	case "select":
		outcome.Action = ActionSelect
		f.dumpOptions(ctx, s, selector)
		outcome.Err = selectOption(ctx, s, selector, value)
	case "input", "textarea":
		outcome.Err = s.Fill(ctx, selector, value)
	default:
		outcome.Err = fmt.Errorf("<%s>: %w", tag, ErrUnsupportedElement)
	}
	return outcome
}

// selectOption tries the exact option value first, then the trimmed option text.
func selectOption(ctx context.Context, s browser.Session, selector, value string) error {
	byValue := s.SelectByValue(ctx, selector, value)
	if byValue == nil {
		return nil
	}
	byLabel := s.SelectByLabel(ctx, selector, strings.TrimSpace(value))
	if byLabel == nil {
		return nil
	}
	return fmt.Errorf("no option matches %q by value or label: %w", value, errors.Join(byValue, byLabel))
}

func (f *Filler) uploadFile(ctx context.Context, s browser.Session, selector, fileType string, info types.UserInfo) FieldOutcome {
	outcome := FieldOutcome{Selector: selector, Action: ActionUpload, Value: fileType}

	path, ok := info.FilePath(fileType)
	if ok {
		if _, err := os.Stat(path); err != nil {
			ok = false
		}
	}
	if !ok {
		outcome.Action = ActionMissingFile
		f.Log.Warn().Str("selector", selector).Str("file_type", fileType).Str("path", path).Msg("no local file for upload")
		return outcome
	}
	outcome.Value = path

	if err := s.WaitSelector(ctx, selector, f.timeout()); err != nil {
		outcome.Err = fmt.Errorf("file input not located: %w", err)
		return outcome
	}
	outcome.Err = s.SetFiles(ctx, selector, path)
	return outcome
}

const optionsScript = `(sel) => {
	const el = document.querySelector(sel);
	if (!el || !el.options) return [];
	return Array.from(el.options).map(o => ({ value: o.value, text: o.text.trim() }));
}`

// dumpOptions logs the options of a select at debug level.
func (f *Filler) dumpOptions(ctx context.Context, s browser.Session, selector string) {
	e := f.Log.Debug()
	if !e.Enabled() {
		return
	}
	expr, err := browser.Call(optionsScript, selector)
	if err != nil {
		e.Discard()
		return
	}
	var options []types.SelectOption
	if err := s.Evaluate(ctx, expr, &options); err != nil {
		e.Discard()
		return
	}
	values := make([]string, 0, len(options))
	for _, o := range options {
		values = append(values, o.Value+"="+o.Text)
	}
	e.Str("selector", selector).Strs("options", values).Msg("dropdown options")
}

func (f *Filler) logOutcome(o FieldOutcome) {
	switch {
	case o.Err != nil:
		f.Log.Warn().Err(o.Err).Str("selector", o.Selector).Str("action", string(o.Action)).Msg("field not filled")
	case o.Action == ActionMissingFile:
	default:
		f.Log.Info().Str("selector", o.Selector).Str("action", string(o.Action)).Str("value", o.Value).Msg("field filled")
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
