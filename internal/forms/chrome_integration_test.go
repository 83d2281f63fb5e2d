package forms

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/types"
)

func chromePath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Chrome integration test in short mode")
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("Chrome not found; set CHROME_PATH to run")
	return ""
}

func openFixture(t *testing.T, html string) browser.Session {
	t.Helper()
	opts := browser.DefaultChromeOptions()
	opts.ExecPath = chromePath(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	s, err := browser.NewChromeLauncher(opts).Launch(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Navigate(ctx, "data:text/html,"+url.PathEscape(html), 10*time.Second))
	return s
}

// The in-page script and the goquery rules must agree on the same document.
func TestChrome_ExtractMatchesStaticRules(t *testing.T) {
	s := openFixture(t, applicationFixture)
	ctx := context.Background()

	live, err := Extract(ctx, s)
	require.NoError(t, err)
	static, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	require.Len(t, live, len(static))
	for i := range static {
		assert.Equal(t, static[i].Selector, live[i].Selector)
		assert.Equal(t, static[i].Kind, live[i].Kind)
		assert.Equal(t, static[i].Label, live[i].Label)
		assert.Equal(t, static[i].InputType, live[i].InputType)
		assert.Equal(t, static[i].Options, live[i].Options)

		found, err := s.Exists(ctx, live[i].Selector)
		require.NoError(t, err)
		assert.True(t, found, live[i].Selector)
	}
}

func TestChrome_FillAndSelectFallback(t *testing.T) {
	s := openFixture(t, fillFixture)
	ctx := context.Background()

	a := &types.FieldAssignment{FieldMapping: mapping("#name", "Ada", "#role", "Beta", "#missing", "x")}
	filler := NewFiller(zerolog.Nop())
	filler.FieldTimeout = 500 * time.Millisecond

	report := filler.Fill(ctx, s, a, nil)
	require.Len(t, report.Outcomes, 3)
	assert.NoError(t, report.Outcomes[0].Err)
	assert.NoError(t, report.Outcomes[1].Err)
	assert.Error(t, report.Outcomes[2].Err)

	var values map[string]string
	require.NoError(t, s.Evaluate(ctx, `({name: document.querySelector("#name").value, role: document.querySelector("#role").value})`, &values))
	assert.Equal(t, "Ada", values["name"])
	assert.Equal(t, "b", values["role"])
}
