package forms

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/apply-agent/internal/browser/browsertest"
)

func TestSubmit_ClicksControl(t *testing.T) {
	s := browsertest.MustNew(`<form><input id="a"><input type="submit" value="Send"></form>`)

	result := Submit(context.Background(), s, zerolog.Nop())

	assert.True(t, result.Found)
	assert.True(t, result.Clicked)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{SubmitSelector}, s.Clicked)
}

func TestSubmit_NoControl(t *testing.T) {
	var buf bytes.Buffer
	s := browsertest.MustNew(`<form><input id="a"><button type="button">Next</button></form>`)

	result := Submit(context.Background(), s, zerolog.New(&buf))

	assert.False(t, result.Found)
	assert.False(t, result.Clicked)
	assert.NoError(t, result.Err)
	assert.Empty(t, s.Clicked)
	assert.Contains(t, buf.String(), "no submit control found")
}

func TestSubmit_LookupError(t *testing.T) {
	s := browsertest.MustNew(`<form></form>`)
	s.FailSelectors = map[string]error{SubmitSelector: errors.New("detached")}

	result := Submit(context.Background(), s, zerolog.Nop())

	assert.False(t, result.Found)
	assert.Error(t, result.Err)
}
