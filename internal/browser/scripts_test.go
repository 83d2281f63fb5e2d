package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_EncodesArguments(t *testing.T) {
	expr, err := Call("(a, b) => a + b", `[name="q"]`, "it's \"quoted\"")
	require.NoError(t, err)
	assert.Equal(t, `((a, b) => a + b)("[name=\"q\"]", "it's \"quoted\"")`, expr)
}

func TestCall_BoolArgument(t *testing.T) {
	expr, err := Call(selectScript, "#role", "Beta", true)
	require.NoError(t, err)
	assert.Contains(t, expr, `("#role", "Beta", true)`)
}

func TestScriptStatus(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{"ok", nil},
		{"missing", ErrNotFound},
		{"not-select", ErrNotSelect},
		{"no-option", ErrOptionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			err := scriptStatus(tt.status)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Error(t, scriptStatus("weird"))
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: "wait", Selector: "#email", Cause: ErrNotFound}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "browser wait #email: element not found", err.Error())

	noSel := &Error{Op: "launch", Cause: errors.New("boom")}
	assert.Equal(t, "browser launch: boom", noSel.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(&Error{Op: "navigate", Cause: ErrTimeout}))
	assert.False(t, IsTimeout(ErrNotFound))
}

func TestNewChromeLauncher_DefaultViewport(t *testing.T) {
	l := NewChromeLauncher(ChromeOptions{})
	assert.Equal(t, DefaultViewportWidth, l.opts.ViewportWidth)
	assert.Equal(t, DefaultViewportHeight, l.opts.ViewportHeight)
}
