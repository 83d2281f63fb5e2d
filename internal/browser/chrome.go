package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Default viewport and timeouts for Chrome sessions.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 1024
	DefaultActionTimeout  = 15 * time.Second
)

// ChromeOptions configures the Chrome launcher.
type ChromeOptions struct {
	Headless       bool
	ExecPath       string // empty uses chromedp's lookup
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	// ActionTimeout bounds calls that take no explicit timeout. Zero disables it.
	ActionTimeout time.Duration
	Logger        zerolog.Logger
}

// DefaultChromeOptions returns headless Chrome at 1280x1024.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:       true,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		ActionTimeout:  DefaultActionTimeout,
		Logger:         zerolog.Nop(),
	}
}

// ChromeLauncher starts a fresh Chrome process per session.
type ChromeLauncher struct {
	opts ChromeOptions
}

// NewChromeLauncher creates a launcher. Zero viewport dimensions fall back to the defaults.
func NewChromeLauncher(opts ChromeOptions) *ChromeLauncher {
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	return &ChromeLauncher{opts: opts}
}

// Launch starts Chrome and opens one tab. The browser is started eagerly so that
// later per-call timeouts never tear down the tab itself.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(l.opts.ViewportWidth, l.opts.ViewportHeight),
	)
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if l.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(l.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	log := l.opts.Logger
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Warn().Msgf(format, args...)
		}),
	)

	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(l.opts.ViewportWidth), int64(l.opts.ViewportHeight))); err != nil {
		tabCancel()
		allocCancel()
		return nil, &Error{Op: "launch", Cause: fmt.Errorf("failed to start Chrome: %w", err)}
	}

	log.Debug().Bool("headless", l.opts.Headless).Msg("chrome session started")

	return &ChromeSession{
		ctx:           tabCtx,
		tabCancel:     tabCancel,
		allocCancel:   allocCancel,
		actionTimeout: l.opts.ActionTimeout,
		log:           log,
	}, nil
}

// ChromeSession is a Session backed by one chromedp tab.
type ChromeSession struct {
	ctx           context.Context
	tabCancel     context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
	log           zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// runContext derives a context from the tab that also ends when the caller's ctx ends.
func (s *ChromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := s.runContext(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, err)
	}
	return err
}

func (s *ChromeSession) eval(ctx context.Context, op, selector, expr string, out any) error {
	if err := s.run(ctx, s.actionTimeout, chromedp.Evaluate(expr, out)); err != nil {
		return &Error{Op: op, Selector: selector, Cause: err}
	}
	return nil
}

// Navigate implements Session.
func (s *ChromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return &Error{Op: "navigate", Selector: url, Cause: err}
	}
	return nil
}

// Evaluate implements Session.
func (s *ChromeSession) Evaluate(ctx context.Context, expression string, out any) error {
	return s.eval(ctx, "evaluate", "", expression, out)
}

// WaitSelector implements Session.
func (s *ChromeSession) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		if IsTimeout(err) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return &Error{Op: "wait", Selector: selector, Cause: err}
	}
	return nil
}

// Exists implements Session.
func (s *ChromeSession) Exists(ctx context.Context, selector string) (bool, error) {
	expr, err := Call(existsScript, selector)
	if err != nil {
		return false, err
	}
	var found bool
	if err := s.eval(ctx, "query", selector, expr, &found); err != nil {
		return false, err
	}
	return found, nil
}

// TagName implements Session.
func (s *ChromeSession) TagName(ctx context.Context, selector string) (string, error) {
	expr, err := Call(tagNameScript, selector)
	if err != nil {
		return "", err
	}
	var tag string
	if err := s.eval(ctx, "tag", selector, expr, &tag); err != nil {
		return "", err
	}
	if tag == "" {
		return "", &Error{Op: "tag", Selector: selector, Cause: ErrNotFound}
	}
	return tag, nil
}

// Fill implements Session.
func (s *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	expr, err := Call(fillScript, selector, value)
	if err != nil {
		return err
	}
	var status string
	if err := s.eval(ctx, "fill", selector, expr, &status); err != nil {
		return err
	}
	if err := scriptStatus(status); err != nil {
		return &Error{Op: "fill", Selector: selector, Cause: err}
	}
	return nil
}

func (s *ChromeSession) selectOption(ctx context.Context, selector, wanted string, byLabel bool) error {
	expr, err := Call(selectScript, selector, wanted, byLabel)
	if err != nil {
		return err
	}
	var status string
	if err := s.eval(ctx, "select", selector, expr, &status); err != nil {
		return err
	}
	if err := scriptStatus(status); err != nil {
		return &Error{Op: "select", Selector: selector, Cause: fmt.Errorf("%q: %w", wanted, err)}
	}
	return nil
}

// SelectByValue implements Session.
func (s *ChromeSession) SelectByValue(ctx context.Context, selector, value string) error {
	return s.selectOption(ctx, selector, value, false)
}

// SelectByLabel implements Session.
func (s *ChromeSession) SelectByLabel(ctx context.Context, selector, label string) error {
	return s.selectOption(ctx, selector, label, true)
}

// SetFiles implements Session.
func (s *ChromeSession) SetFiles(ctx context.Context, selector string, paths ...string) error {
	if err := s.run(ctx, s.actionTimeout, chromedp.SetUploadFiles(selector, paths, chromedp.ByQuery)); err != nil {
		return &Error{Op: "upload", Selector: selector, Cause: err}
	}
	return nil
}

// Click implements Session.
func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, s.actionTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return &Error{Op: "click", Selector: selector, Cause: err}
	}
	return nil
}

// HTML implements Session.
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &Error{Op: "html", Cause: err}
	}
	return html, nil
}

// Close shuts down the tab and the Chrome process.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = &Error{Op: "close", Cause: err}
		}
		s.tabCancel()
		s.allocCancel()
		s.log.Debug().Msg("chrome session closed")
	})
	return s.closeErr
}
