package forms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
)

// SubmitSelector matches the submit control of a form.
const SubmitSelector = `button[type="submit"], input[type="submit"]`

// SubmitResult describes the submit step. A missing control is not an error.
type SubmitResult struct {
	Found   bool  `json:"found"`
	Clicked bool  `json:"clicked"`
	Err     error `json:"-"`
}

// Submit clicks the first submit control, if there is one.
func Submit(ctx context.Context, s browser.Session, log zerolog.Logger) SubmitResult {
	found, err := s.Exists(ctx, SubmitSelector)
	if err != nil {
		log.Warn().Err(err).Msg("submit control lookup failed")
		return SubmitResult{Err: err}
	}
	if !found {
		log.Info().Msg("no submit control found")
		return SubmitResult{}
	}

	if err := s.Click(ctx, SubmitSelector); err != nil {
		log.Warn().Err(err).Msg("submit click failed")
		return SubmitResult{Found: true, Err: err}
	}
	log.Info().Msg("form submitted")
	return SubmitResult{Found: true, Clicked: true}
}
