package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
)

// MinContentLength is the minimum extracted text length to consider an HTTP fetch
// complete. Shorter pages are probably rendered client-side.
const MinContentLength = 500

// ShouldUseBrowser returns true if the extracted text is too short.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// RenderOptions configures browser rendering.
type RenderOptions struct {
	NavigationTimeout time.Duration
	// SettleDelay is waited after load so scripts can populate the page.
	SettleDelay time.Duration
}

// DefaultRenderOptions mirrors the form pipeline timings.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{NavigationTimeout: 10 * time.Second, SettleDelay: 3 * time.Second}
}

// Render loads url in an already open session and returns the document HTML.
// A navigation timeout is tolerated; whatever has loaded is returned.
func Render(ctx context.Context, s browser.Session, url string, opts RenderOptions, log zerolog.Logger) (string, error) {
	log.Debug().Str("url", url).Msg("rendering page in browser")

	if err := s.Navigate(ctx, url, opts.NavigationTimeout); err != nil {
		if !browser.IsTimeout(err) {
			return "", fmt.Errorf("browser rendering failed: %w", err)
		}
		log.Warn().Str("url", url).Msg("page load timed out, continuing")
	}

	if opts.SettleDelay > 0 {
		t := time.NewTimer(opts.SettleDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}

	html, err := s.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	log.Debug().Str("url", url).Int("bytes", len(html)).Msg("rendered HTML")
	return html, nil
}

// Page loads url over HTTP and falls back to a browser session when the HTTP
// result is unusable or too thin. The session is launched only for the fallback
// and closed before Page returns. A nil launcher disables the fallback.
func Page(ctx context.Context, launcher browser.Launcher, url string, httpOpts *Options, renderOpts RenderOptions, log zerolog.Logger) (*Result, error) {
	result, err := HTTP(ctx, url, httpOpts)
	if err == nil {
		result.Text, err = MainText(result.HTML, DefaultTextSelectors())
		if err == nil && !ShouldUseBrowser(result.Text) {
			return result, nil
		}
	}
	if launcher == nil {
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("HTTP fetch failed, using browser")
	}

	s, lerr := launcher.Launch(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", lerr)
	}
	defer func() { _ = s.Close() }()

	html, rerr := Render(ctx, s, url, renderOpts, log)
	if rerr != nil {
		return nil, rerr
	}
	text, terr := MainText(html, DefaultTextSelectors())
	if terr != nil {
		return nil, terr
	}
	return &Result{URL: url, HTML: html, Text: text, Rendered: true}, nil
}
