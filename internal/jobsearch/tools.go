// Package jobsearch finds matching postings on company careers pages and
// records them in the job log.
package jobsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/joblog"
	"github.com/jonathan/apply-agent/internal/resume"
	"github.com/jonathan/apply-agent/internal/types"
)

// ErrNoFileInput means the element given to UploadCV neither is nor contains a file input.
var ErrNoFileInput = errors.New("no file upload element found")

// Tools are the actions available to a search task: saving and reading the job
// log, reading the CV, and attaching the CV to a page.
type Tools struct {
	Store  *joblog.Store
	CVPath string
	Log    zerolog.Logger

	// ReadFile extracts CV text; resume.ReadText when nil.
	ReadFile func(path string) (string, error)

	mu     sync.Mutex
	cvText string
}

// NewTools returns tools over store and the CV at cvPath.
func NewTools(store *joblog.Store, cvPath string, log zerolog.Logger) *Tools {
	return &Tools{Store: store, CVPath: cvPath, Log: log}
}

// SaveJob appends one posting to the job log.
func (t *Tools) SaveJob(job types.JobPosting) error {
	if err := t.Store.Append(job); err != nil {
		return err
	}
	t.Log.Info().
		Str("title", job.Title).
		Str("company", job.Company).
		Str("link", job.Link).
		Msg("saved job")
	return nil
}

// ReadJobs returns the raw content of the job log.
func (t *Tools) ReadJobs() (string, error) {
	return t.Store.ReadRaw()
}

// ReadCV returns the CV text. The file is read once and the text reused.
func (t *Tools) ReadCV() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cvText != "" {
		return t.cvText, nil
	}
	read := t.ReadFile
	if read == nil {
		read = resume.ReadText
	}
	text, err := read(t.CVPath)
	if err != nil {
		return "", err
	}
	t.Log.Debug().Str("path", t.CVPath).Int("chars", len(text)).Msg("read CV")
	t.cvText = text
	return text, nil
}

// UploadCV attaches the CV to the file input at selector, or to the first file
// input inside it.
func (t *Tools) UploadCV(ctx context.Context, s browser.Session, selector string) (string, error) {
	if _, err := os.Stat(t.CVPath); err != nil {
		return "", fmt.Errorf("CV file not found at %s: %w", t.CVPath, err)
	}

	found, err := s.Exists(ctx, selector)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("no element found at %s: %w", selector, browser.ErrNotFound)
	}

	target := selector
	if !isFileInput(ctx, s, selector) {
		nested := selector + ` input[type="file"]`
		ok, err := s.Exists(ctx, nested)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w at %s", ErrNoFileInput, selector)
		}
		target = nested
	}

	if err := s.SetFiles(ctx, target, t.CVPath); err != nil {
		return "", fmt.Errorf("failed to upload file to %s: %w", selector, err)
	}
	msg := fmt.Sprintf("uploaded file %q to %s", t.CVPath, selector)
	t.Log.Info().Str("selector", selector).Str("path", t.CVPath).Msg("uploaded CV")
	return msg, nil
}

// isFileInput reports whether selector itself addresses a file input. The
// selector must be a single compound selector for the attribute suffix to apply.
func isFileInput(ctx context.Context, s browser.Session, selector string) bool {
	tag, err := s.TagName(ctx, selector)
	if err != nil || tag != "input" {
		return false
	}
	ok, err := s.Exists(ctx, selector+`[type="file"]`)
	return err == nil && ok
}
