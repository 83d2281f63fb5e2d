package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/fetch"
	"github.com/jonathan/apply-agent/internal/joblog"
	"github.com/jonathan/apply-agent/internal/jobsearch"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/types"
)

var searchJobsCmd = &cobra.Command{
	Use:   "search-jobs",
	Short: "Find postings matching your CV on company careers pages",
	Long: `Visits the careers page of every --company, asks the LLM which listed postings fit your
CV and the requested role, and appends them to the job log CSV.

Companies are given as "Name=https://careers.example.com". Without a URL the careers page is
looked up with Google Programmable Search (requires --search-api-key and --search-engine-id).`,
	Example: `  apply_agent search-jobs --company "Adobe=https://careers.adobe.com/us/en/search-results" --role "Fullstack Engineer"`,
	RunE:    runSearchJobs,
}

var (
	searchCompanies   []string
	searchRole        string
	searchCVPath      string
	searchJobsPath    string
	searchConcurrency int
	searchMinFit      float64
	searchAPIKey      string
	searchEngineID    string
	searchProvider    string
	searchLLMKey      string
	searchModel       string
	searchHeaded      bool
	searchJSON        bool
)

func init() {
	searchJobsCmd.Flags().StringArrayVar(&searchCompanies, "company", nil, `Company to search as "Name=URL" (repeatable; URL optional)`)
	searchJobsCmd.Flags().StringVar(&searchRole, "role", "", "Role to look for, e.g. \"Fullstack Engineer\"")
	searchJobsCmd.Flags().StringVar(&searchCVPath, "cv", "", "Path to your CV PDF")
	searchJobsCmd.Flags().StringVar(&searchJobsPath, "jobs", "", "Job log CSV to append to")
	searchJobsCmd.Flags().IntVar(&searchConcurrency, "concurrency", 0, "Companies searched at once (0 = all)")
	searchJobsCmd.Flags().Float64Var(&searchMinFit, "min-fit", 0, "Drop matches with a fit score below this (0-1)")
	searchJobsCmd.Flags().StringVar(&searchAPIKey, "search-api-key", "", "Programmable Search API key for careers page lookup")
	searchJobsCmd.Flags().StringVar(&searchEngineID, "search-engine-id", "", "Programmable Search engine ID (cx)")
	searchJobsCmd.Flags().StringVar(&searchProvider, "provider", "", "LLM provider: gemini or openai")
	searchJobsCmd.Flags().StringVar(&searchLLMKey, "api-key", "", "LLM API key")
	searchJobsCmd.Flags().StringVar(&searchModel, "model", "", "Model that picks matching postings (overrides search_model)")
	searchJobsCmd.Flags().BoolVar(&searchHeaded, "headed", false, "Show the browser window")
	searchJobsCmd.Flags().BoolVar(&searchJSON, "json", false, "Print saved postings as JSON")

	_ = searchJobsCmd.MarkFlagRequired("company")
	_ = searchJobsCmd.MarkFlagRequired("role")

	rootCmd.AddCommand(searchJobsCmd)
}

func runSearchJobs(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tasks, err := buildTasks(searchCompanies, searchRole)
	if err != nil {
		return err
	}

	c := *cfg
	overrideString(&c.CVPath, searchCVPath)
	overrideString(&c.JobsPath, searchJobsPath)
	overrideString(&c.SearchAPIKey, searchAPIKey)
	overrideString(&c.SearchEngineID, searchEngineID)
	overrideString(&c.Provider, searchProvider)
	overrideString(&c.APIKey, searchLLMKey)
	overrideString(&c.SearchModel, searchModel)
	if searchConcurrency > 0 {
		c.Concurrency = searchConcurrency
	}
	if searchMinFit > 0 {
		c.MinFitScore = searchMinFit
	}
	c.Headed = c.Headed || searchHeaded
	if err := c.Validate(); err != nil {
		return err
	}

	client, err := newLLMClient(ctx, &c)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	agent, err := newSearchAgent(ctx, &c, client)
	if err != nil {
		return err
	}

	results, searchErr := jobsearch.NewSearcher(agent, c.Concurrency, log).Search(ctx, tasks)

	if searchJSON {
		saved := []types.JobPosting{}
		for _, r := range results {
			saved = append(saved, r.Saved...)
		}
		if err := writeJSON(cmd.OutOrStdout(), saved); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintSearchResults(results)
	}

	if searchErr != nil {
		return fmt.Errorf("job search incomplete: %w", searchErr)
	}
	return nil
}

// newSearchAgent wires the agent to the job log, the CV and, when configured,
// careers page discovery.
func newSearchAgent(ctx context.Context, c *config.Config, client llm.Client) (*jobsearch.Agent, error) {
	tools := jobsearch.NewTools(joblog.NewStore(c.JobsPath), c.CVPath, log)

	agent := jobsearch.NewAgent(newLauncher(c, log), client, tools, log)
	agent.MinFitScore = c.MinFitScore
	agent.Render = fetch.RenderOptions{NavigationTimeout: c.NavigationTimeout, SettleDelay: c.SettleDelay}

	if c.SearchAPIKey != "" || c.SearchEngineID != "" {
		d, err := jobsearch.NewSearchDiscoverer(ctx, c.SearchAPIKey, c.SearchEngineID)
		if err != nil {
			return nil, err
		}
		agent.Discoverer = d
	}
	return agent, nil
}

// buildTasks parses "Name=URL" company flags. The URL part is optional.
func buildTasks(companies []string, role string) ([]jobsearch.Task, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("--role is required")
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("at least one --company is required")
	}

	tasks := make([]jobsearch.Task, 0, len(companies))
	for _, raw := range companies {
		task, err := parseCompany(raw)
		if err != nil {
			return nil, err
		}
		task.Role = role
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func parseCompany(raw string) (jobsearch.Task, error) {
	name, url, _ := strings.Cut(raw, "=")
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" {
		return jobsearch.Task{}, fmt.Errorf("invalid --company %q: name is empty", raw)
	}
	if url != "" {
		if _, err := fetch.ValidateURL(url); err != nil {
			return jobsearch.Task{}, fmt.Errorf("invalid --company %q: %w", raw, err)
		}
	}
	return jobsearch.Task{Company: name, URL: url}, nil
}
