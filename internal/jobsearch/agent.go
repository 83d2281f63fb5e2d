package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/crawling"
	"github.com/jonathan/apply-agent/internal/fetch"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/schemas"
	"github.com/jonathan/apply-agent/internal/types"
	embedded "github.com/jonathan/apply-agent/schemas"
)

const promptFile = "jobsearch.json"

// DefaultMaxLinks bounds how many links of one page are shown to the model.
const DefaultMaxLinks = 200

// Task is one company to search.
type Task struct {
	Company string `json:"company"`
	// URL is the careers page. When empty the agent's Discoverer is asked.
	URL  string `json:"url,omitempty"`
	Role string `json:"role"`
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	Task    Task
	PageURL string
	Links   int
	Saved   []types.JobPosting
	// Dropped counts matches rejected as invalid, off-page, below the fit threshold or unsaved.
	Dropped int
	Err     error
}

// ResponseError is a model reply that is not a valid match list.
type ResponseError struct {
	Raw   string
	Cause error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid job match response: %v", e.Cause)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Agent searches one careers page per task.
type Agent struct {
	Launcher   browser.Launcher
	Client     llm.Client
	Tools      *Tools
	Discoverer Discoverer
	Tier       llm.ModelTier
	HTTP       *fetch.Options
	Render     fetch.RenderOptions
	MaxLinks   int
	// MinFitScore drops matches scoring below it.
	MinFitScore float64
	Log         zerolog.Logger
}

// NewAgent returns an agent with default fetch and render settings.
func NewAgent(launcher browser.Launcher, client llm.Client, tools *Tools, log zerolog.Logger) *Agent {
	return &Agent{
		Launcher: launcher,
		Client:   client,
		Tools:    tools,
		Tier:     llm.TierStandard,
		HTTP:     fetch.DefaultOptions(),
		Render:   fetch.DefaultRenderOptions(),
		MaxLinks: DefaultMaxLinks,
		Log:      log,
	}
}

// Match is one posting picked by the model.
type Match struct {
	Title    string  `json:"title"`
	Link     string  `json:"link"`
	Company  string  `json:"company"`
	FitScore float64 `json:"fit_score"`
	Location *string `json:"location"`
	Salary   *string `json:"salary"`
}

type matchList struct {
	Jobs []Match `json:"jobs"`
}

// Run loads the careers page of task, asks the model which links are matching
// postings and saves them. The returned result is never nil.
func (a *Agent) Run(ctx context.Context, task Task) (*TaskResult, error) {
	result := &TaskResult{Task: task}
	fail := func(err error) (*TaskResult, error) {
		result.Err = err
		return result, err
	}

	if strings.TrimSpace(task.Company) == "" {
		return fail(fmt.Errorf("company is required"))
	}
	log := a.Log.With().Str("company", task.Company).Logger()

	pageURL := task.URL
	if pageURL == "" {
		if a.Discoverer == nil {
			return fail(fmt.Errorf("no careers URL for %s", task.Company))
		}
		found, err := a.Discoverer.CareersURL(ctx, task.Company)
		if err != nil {
			return fail(fmt.Errorf("failed to discover careers page: %w", err))
		}
		log.Info().Str("url", found).Msg("discovered careers page")
		pageURL = found
	}

	cv, err := a.Tools.ReadCV()
	if err != nil {
		return fail(err)
	}

	page, err := fetch.Page(ctx, a.Launcher, pageURL, a.HTTP, a.Render, log)
	if err != nil {
		return fail(err)
	}
	result.PageURL = page.URL

	links, err := crawling.ExtractLinks(page.HTML, page.URL, crawling.LinkOptions{
		Selectors: fetch.ListingSelectors(fetch.DetectPlatform(page.URL)),
		Max:       a.MaxLinks,
	})
	if err != nil {
		return fail(err)
	}
	result.Links = len(links)
	if len(links) == 0 {
		log.Info().Str("url", page.URL).Msg("no links on careers page")
		return result, nil
	}

	matches, err := a.match(ctx, task, page.URL, cv, links)
	if err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) {
			log.Error().Err(err).Str("raw", respErr.Raw).Msg("job match response rejected")
		}
		return fail(err)
	}

	onPage := make(map[string]bool, len(links))
	for _, l := range links {
		onPage[l.URL] = true
	}

	for _, m := range matches {
		job := m.posting(task.Company)
		switch {
		case !onPage[job.Link]:
			log.Debug().Str("link", job.Link).Msg("dropping link not on page")
			result.Dropped++
			continue
		case job.FitScore < a.MinFitScore:
			log.Debug().Str("link", job.Link).Float64("fit_score", job.FitScore).Msg("dropping low fit")
			result.Dropped++
			continue
		}
		if err := a.Tools.SaveJob(job); err != nil {
			log.Warn().Err(err).Str("link", job.Link).Msg("failed to save job")
			result.Dropped++
			continue
		}
		result.Saved = append(result.Saved, job)
	}

	log.Info().
		Int("links", result.Links).
		Int("saved", len(result.Saved)).
		Int("dropped", result.Dropped).
		Msg("careers page searched")
	return result, nil
}

func (a *Agent) match(ctx context.Context, task Task, pageURL, cv string, links []crawling.Link) ([]Match, error) {
	system, user, err := BuildPrompt(task, pageURL, cv, links)
	if err != nil {
		return nil, err
	}
	raw, err := a.Client.Chat(ctx, system, user, a.Tier)
	if err != nil {
		return nil, fmt.Errorf("job match request failed: %w", err)
	}
	return ParseMatches(raw)
}

// BuildPrompt renders the system instruction and user message for one page.
func BuildPrompt(task Task, pageURL, cv string, links []crawling.Link) (system, user string, err error) {
	system, tmpl, err := prompts.Chat(promptFile)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	for _, l := range links {
		text := l.Text
		if text == "" {
			text = "(no text)"
		}
		fmt.Fprintf(&sb, "%s | %s\n", text, l.URL)
	}

	user = prompts.Format(tmpl, map[string]string{
		"Role":    task.Role,
		"Company": task.Company,
		"CV":      cv,
		"PageURL": pageURL,
		"Links":   strings.TrimRight(sb.String(), "\n"),
	})
	return system, user, nil
}

// ParseMatches validates a model reply against the job match schema.
func ParseMatches(raw string) ([]Match, error) {
	body := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(embedded.JobMatches, body); err != nil {
		return nil, &ResponseError{Raw: raw, Cause: err}
	}
	var out matchList
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &ResponseError{Raw: raw, Cause: err}
	}
	return out.Jobs, nil
}

func (m Match) posting(company string) types.JobPosting {
	job := types.JobPosting{
		Title:    strings.TrimSpace(m.Title),
		Company:  strings.TrimSpace(m.Company),
		Link:     normalizeLink(m.Link),
		FitScore: m.FitScore,
	}
	if job.Company == "" {
		job.Company = company
	}
	if m.Location != nil {
		job.Location = *m.Location
	}
	if m.Salary != nil {
		job.Salary = *m.Salary
	}
	return job
}

// normalizeLink applies the link extractor's form so model output can be
// compared with the page links.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	return strings.TrimSuffix(link, "/")
}
