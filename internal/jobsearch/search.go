package jobsearch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Searcher runs tasks concurrently, one browser session per task.
type Searcher struct {
	Agent *Agent
	// Concurrency caps the number of tasks in flight. Zero means no cap.
	Concurrency int
	Log         zerolog.Logger
}

// NewSearcher returns a searcher over agent.
func NewSearcher(agent *Agent, concurrency int, log zerolog.Logger) *Searcher {
	return &Searcher{Agent: agent, Concurrency: concurrency, Log: log}
}

// Search runs every task to completion. A failing task does not stop the others;
// results are in task order and the first task error is returned.
func (s *Searcher) Search(ctx context.Context, tasks []Task) ([]TaskResult, error) {
	results := make([]TaskResult, len(tasks))

	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}

	for i, task := range tasks {
		g.Go(func() error {
			res, err := s.Agent.Run(ctx, task)
			results[i] = *res
			if err != nil {
				s.Log.Warn().Err(err).Str("company", task.Company).Msg("search task failed")
				return fmt.Errorf("%s: %w", task.Company, err)
			}
			return nil
		})
	}

	err := g.Wait()

	saved := 0
	for _, r := range results {
		saved += len(r.Saved)
	}
	s.Log.Info().Int("tasks", len(tasks)).Int("saved", saved).Msg("job search finished")
	return results, err
}
