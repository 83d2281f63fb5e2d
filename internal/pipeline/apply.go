// Package pipeline orchestrates one job-application attempt: navigate, settle,
// extract, classify, fill, optionally pause for review, optionally submit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/classify"
	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/types"
)

// Defaults for Options.
const (
	DefaultNavigationTimeout = 10 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	DefaultPostSubmitWait    = 3 * time.Second
)

// Step names reported through ProgressEvent.
const (
	StepNavigate = "navigate"
	StepExtract  = "extract"
	StepClassify = "classify"
	StepFill     = "fill"
	StepReview   = "review"
	StepSubmit   = "submit"
)

// ProgressEvent represents a progress update during an attempt
type ProgressEvent struct {
	Step      string `json:"step"`
	Message   string `json:"message"`
	AttemptID string `json:"attempt_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when a step completes
type ProgressCallback func(event ProgressEvent)

// Recorder persists attempts. Failures are logged and never abort the attempt.
type Recorder interface {
	CreateApplication(ctx context.Context, id uuid.UUID, url string) error
	CompleteApplication(ctx context.Context, id uuid.UUID, status types.ApplicationStatus, responses []types.ApplicationResponse) error
}

// Options holds configuration for one attempt.
type Options struct {
	URL      string
	UserInfo types.UserInfo

	// NavigationTimeout bounds page load; hitting it is not fatal.
	NavigationTimeout time.Duration
	// SettleDelay is waited after navigation so client-side rendering can finish.
	SettleDelay time.Duration
	// FieldTimeout bounds the wait for each mapped selector.
	FieldTimeout time.Duration

	Submit         bool
	PostSubmitWait time.Duration

	// Confirm, when set, is called after filling and before submitting.
	// An error skips the submit step.
	Confirm func(ctx context.Context) error
	// Pause, when set, is called once the attempt is finished and before the
	// browser closes. Its error is logged and never fails the attempt.
	Pause func(ctx context.Context) error

	OnProgress ProgressCallback
}

// DefaultOptions returns options with the standard timings.
func DefaultOptions(url string, info types.UserInfo) Options {
	return Options{
		URL:               url,
		UserInfo:          info,
		NavigationTimeout: DefaultNavigationTimeout,
		SettleDelay:       DefaultSettleDelay,
		FieldTimeout:      forms.DefaultFieldTimeout,
		PostSubmitWait:    DefaultPostSubmitWait,
	}
}

// Report is the outcome of one attempt.
type Report struct {
	AttemptID          uuid.UUID               `json:"attempt_id"`
	URL                string                  `json:"url"`
	NavigationTimedOut bool                    `json:"navigation_timed_out"`
	Fields             []types.FieldDescriptor `json:"fields"`
	Assignment         *types.FieldAssignment  `json:"assignment,omitempty"`
	Fill               *forms.FillReport       `json:"fill,omitempty"`
	Submit             *forms.SubmitResult     `json:"submit,omitempty"`
	Status             types.ApplicationStatus `json:"status"`
}

// Runner runs attempts. Launcher and Classifier are required.
type Runner struct {
	Launcher   browser.Launcher
	Classifier classify.Classifier
	Recorder   Recorder
	Log        zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a runner without a recorder.
func NewRunner(launcher browser.Launcher, classifier classify.Classifier, log zerolog.Logger) *Runner {
	return &Runner{Launcher: launcher, Classifier: classifier, Log: log}
}

// Run executes one attempt. The browser session is closed on every path.
// A classification error aborts the attempt before any field is touched.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if r.Launcher == nil || r.Classifier == nil {
		return nil, fmt.Errorf("runner requires a launcher and a classifier")
	}

	report := &Report{
		AttemptID: uuid.New(),
		URL:       opts.URL,
		Fields:    []types.FieldDescriptor{},
		Status:    types.StatusPending,
	}
	log := r.Log.With().Str("attempt_id", report.AttemptID.String()).Str("url", opts.URL).Logger()

	session, err := r.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close browser session")
		}
	}()

	r.recordStart(ctx, log, report)

	err = r.run(ctx, log, session, opts, report)
	if err != nil && report.Status == types.StatusPending {
		report.Status = types.StatusFailed
	}
	r.recordFinish(ctx, log, report)
	return report, err
}

func (r *Runner) run(ctx context.Context, log zerolog.Logger, s browser.Session, opts Options, report *Report) error {
	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = DefaultNavigationTimeout
	}
	if err := s.Navigate(ctx, opts.URL, navTimeout); err != nil {
		if !browser.IsTimeout(err) || ctx.Err() != nil {
			return fmt.Errorf("navigation failed: %w", err)
		}
		report.NavigationTimedOut = true
		log.Warn().Dur("timeout", navTimeout).Msg("page load timed out, continuing")
	}
	r.emit(opts, report, StepNavigate, "page loaded", nil)

	if err := r.wait(ctx, opts.SettleDelay); err != nil {
		return err
	}

	fields, err := forms.Extract(ctx, s)
	if err != nil {
		return err
	}
	report.Fields = fields
	if len(fields) == 0 {
		log.Info().Msg("no fillable fields found")
	} else {
		log.Info().Int("fields", len(fields)).Msg("form fields extracted")
	}
	r.emit(opts, report, StepExtract, fmt.Sprintf("found %d form fields", len(fields)), fields)

	assignment, err := r.Classifier.Classify(ctx, fields, opts.UserInfo)
	if err != nil {
		var schemaErr *classify.SchemaError
		if errors.As(err, &schemaErr) {
			log.Error().Err(err).Str("raw", schemaErr.Raw).Msg("classification failed")
		} else {
			log.Error().Err(err).Msg("classification failed")
		}
		return fmt.Errorf("classification failed: %w", err)
	}
	report.Assignment = assignment
	r.emit(opts, report, StepClassify, fmt.Sprintf("mapped %d fields", len(assignment.FieldMapping)), assignment)

	filler := forms.NewFiller(log)
	filler.FieldTimeout = opts.FieldTimeout
	report.Fill = filler.Fill(ctx, s, assignment, opts.UserInfo)
	report.Status = types.StatusFilled
	r.emit(opts, report, StepFill,
		fmt.Sprintf("applied %d of %d entries", len(report.Fill.Applied()), len(report.Fill.Outcomes)), report.Fill)

	if opts.Confirm != nil {
		if err := opts.Confirm(ctx); err != nil {
			log.Warn().Err(err).Msg("review not confirmed, skipping submit")
			return fmt.Errorf("review not confirmed: %w", err)
		}
		r.emit(opts, report, StepReview, "review confirmed", nil)
	}

	if !opts.Submit {
		r.pause(ctx, opts, log)
		return nil
	}

	result := forms.Submit(ctx, s, log)
	report.Submit = &result
	if result.Clicked {
		report.Status = types.StatusSubmitted
		if err := r.wait(ctx, opts.PostSubmitWait); err != nil {
			return err
		}
	}
	r.emit(opts, report, StepSubmit, submitMessage(result), result)
	r.pause(ctx, opts, log)
	return nil
}

func (r *Runner) pause(ctx context.Context, opts Options, log zerolog.Logger) {
	if opts.Pause == nil {
		return
	}
	if err := opts.Pause(ctx); err != nil {
		log.Warn().Err(err).Msg("review pause ended early")
	}
}

func submitMessage(result forms.SubmitResult) string {
	switch {
	case result.Clicked:
		return "form submitted"
	case result.Err != nil:
		return "submit failed: " + result.Err.Error()
	default:
		return "no submit control found"
	}
}

func (r *Runner) emit(opts Options, report *Report, step, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	opts.OnProgress(ProgressEvent{
		Step:      step,
		Message:   message,
		AttemptID: report.AttemptID.String(),
		Content:   content,
	})
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Runner) recordStart(ctx context.Context, log zerolog.Logger, report *Report) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.CreateApplication(ctx, report.AttemptID, report.URL); err != nil {
		log.Warn().Err(err).Msg("failed to record application")
	}
}

func (r *Runner) recordFinish(ctx context.Context, log zerolog.Logger, report *Report) {
	if r.Recorder == nil {
		return
	}
	var responses []types.ApplicationResponse
	if report.Fill != nil {
		for _, o := range report.Fill.Applied() {
			responses = append(responses, types.ApplicationResponse{
				ApplicationID: report.AttemptID,
				FieldName:     o.Selector,
				FieldValue:    o.Value,
			})
		}
	}
	// Recorded even when ctx is already cancelled.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.Recorder.CompleteApplication(rctx, report.AttemptID, report.Status, responses); err != nil {
		log.Warn().Err(err).Msg("failed to record application result")
	}
}
