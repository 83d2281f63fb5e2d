// Package browser defines the browser automation surface used by the form pipeline
// and provides a Chrome implementation built on chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Session is one exclusively owned browser page. Elements are always addressed by
// CSS selector and re-queried on every call; no node handles are retained.
// When a selector matches several elements the first match in document order is used.
type Session interface {
	// Navigate loads url and waits for the load event, bounded by timeout.
	// A hit timeout returns an error wrapping ErrTimeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Evaluate runs a JavaScript expression and decodes its JSON result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// WaitSelector waits until selector is present in the DOM, bounded by timeout.
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Exists reports whether selector currently matches an element, without waiting.
	Exists(ctx context.Context, selector string) (bool, error)
	// TagName returns the lower-case tag name of the element matching selector.
	TagName(ctx context.Context, selector string) (string, error)
	// Fill sets the value of a text control directly and fires input/change events.
	Fill(ctx context.Context, selector, value string) error
	// SelectByValue selects the option whose value equals value.
	SelectByValue(ctx context.Context, selector, value string) error
	// SelectByLabel selects the first option whose trimmed text equals label.
	SelectByLabel(ctx context.Context, selector, label string) error
	// SetFiles attaches local files to a file input.
	SetFiles(ctx context.Context, selector string, paths ...string) error
	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error
	// HTML returns the current outer HTML of the document.
	HTML(ctx context.Context) (string, error)
	// Close releases the page and its browser process. Safe to call more than once.
	Close() error
}

// Launcher creates sessions. Each call returns a new, independent browser.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) {
	return f(ctx)
}

var (
	// ErrNotFound means no element matched the selector.
	ErrNotFound = errors.New("element not found")
	// ErrOptionNotFound means the select control has no matching option.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNotSelect means the element is not a select control.
	ErrNotSelect = errors.New("element is not a select")
	// ErrTimeout means a bounded wait expired.
	ErrTimeout = errors.New("timed out")
)

// Error describes a failed browser operation.
type Error struct {
	Op       string
	Selector string
	Cause    error
}

func (e *Error) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("browser %s %s: %v", e.Op, e.Selector, e.Cause)
	}
	return fmt.Sprintf("browser %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err came from an expired bounded wait.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
