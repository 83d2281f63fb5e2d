package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/classify"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/pipeline"
)

var fillCmd = &cobra.Command{
	Use:   "fill <url>",
	Short: "Fill a job application form with your information",
	Long: `Opens the application page, extracts its form fields, asks the LLM which of your values
belong in which field and fills them in. With --submit the form is submitted after you
confirm (or immediately with --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

var (
	fillUserInfo    string
	fillUserID      string
	fillDatabaseURL string
	fillProvider    string
	fillAPIKey      string
	fillModel       string
	fillSubmit      bool
	fillYes         bool
	fillReview      bool
	fillHeaded      bool
	fillJSON        bool
)

func init() {
	fillCmd.Flags().StringVarP(&fillUserInfo, "user-info", "u", "", "Path to a JSON object of your information")
	fillCmd.Flags().StringVar(&fillUserID, "user-id", "", "Profile UUID to load from the database (instead of --user-info)")
	fillCmd.Flags().StringVar(&fillDatabaseURL, "db-url", "", "PostgreSQL connection URL (profiles and application log)")
	fillCmd.Flags().StringVar(&fillProvider, "provider", "", "LLM provider: gemini or openai")
	fillCmd.Flags().StringVar(&fillAPIKey, "api-key", "", "LLM API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	fillCmd.Flags().StringVar(&fillModel, "model", "", "Model that maps form fields (overrides form_model)")
	fillCmd.Flags().BoolVar(&fillSubmit, "submit", false, "Submit the form after filling")
	fillCmd.Flags().BoolVarP(&fillYes, "yes", "y", false, "Submit without asking for confirmation")
	fillCmd.Flags().BoolVar(&fillReview, "review", false, "Wait for Enter before closing the browser so you can review the page")
	fillCmd.Flags().BoolVar(&fillHeaded, "headed", false, "Show the browser window")
	fillCmd.Flags().BoolVar(&fillJSON, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c := *cfg
	overrideString(&c.UserInfo, fillUserInfo)
	overrideString(&c.UserID, fillUserID)
	overrideString(&c.DatabaseURL, fillDatabaseURL)
	overrideString(&c.Provider, fillProvider)
	overrideString(&c.APIKey, fillAPIKey)
	overrideString(&c.FormModel, fillModel)
	c.Headed = c.Headed || fillHeaded

	userID, err := attemptUserID(c.UserID)
	if err != nil {
		return err
	}

	info, database, err := userInfoSource(ctx, &c)
	if err != nil {
		return err
	}
	defer closeDB(database)

	client, err := newLLMClient(ctx, &c)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	runner := pipeline.NewRunner(newLauncher(&c, log), classify.New(client, classify.WithLogger(log)), log)
	if database != nil {
		runner.Recorder = database.Recorder(userID)
	}

	opts := pipeline.DefaultOptions(args[0], info)
	opts.NavigationTimeout = c.NavigationTimeout
	opts.SettleDelay = c.SettleDelay
	opts.FieldTimeout = c.FieldTimeout
	opts.Submit = fillSubmit
	if fillSubmit && !fillYes {
		opts.Confirm = confirmPrompt(cmd.InOrStdin(), cmd.ErrOrStderr(),
			"Review the page, then press Enter to submit (type n to cancel): ")
	}
	if fillReview {
		opts.Pause = pausePrompt(cmd.InOrStdin(), cmd.ErrOrStderr(),
			"Review the page, then press Enter to close the browser: ")
	}
	opts.OnProgress = func(ev pipeline.ProgressEvent) {
		log.Info().Str("step", ev.Step).Str("attempt_id", ev.AttemptID).Msg(ev.Message)
	}

	report, runErr := runner.Run(ctx, opts)
	if report != nil {
		if fillJSON {
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else if c.Verbose {
			observability.NewPrinter(cmd.OutOrStdout()).PrintApplyReport(report)
		} else {
			printFillSummary(cmd.OutOrStdout(), report)
		}
	}
	return runErr
}

// attemptUserID parses the profile recorded with an attempt. Empty means anonymous.
func attemptUserID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return id, nil
}

type lineReply struct {
	line string
	err  error
}

// readLine waits for one line of input or for ctx to end.
func readLine(ctx context.Context, in io.Reader) (lineReply, error) {
	answer := make(chan lineReply, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		answer <- lineReply{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return lineReply{}, ctx.Err()
	case r := <-answer:
		return r, nil
	}
}

// confirmPrompt prints message and waits for Enter. Typing anything other than y
// cancels, as does closed input.
func confirmPrompt(in io.Reader, out io.Writer, message string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		fmt.Fprint(out, message)

		r, err := readLine(ctx, in)
		if err != nil {
			return err
		}
		if r.err != nil && r.line == "" {
			return fmt.Errorf("no confirmation received: %w", r.err)
		}
		switch strings.ToLower(r.line) {
		case "", "y", "yes":
			return nil
		default:
			return fmt.Errorf("cancelled")
		}
	}
}

// pausePrompt prints message and waits for any line or closed input.
func pausePrompt(in io.Reader, out io.Writer, message string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		fmt.Fprint(out, message)
		_, err := readLine(ctx, in)
		return err
	}
}

func printFillSummary(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "Attempt %s: %s\n", r.AttemptID, r.Status)
	fmt.Fprintf(w, "  fields found: %d\n", len(r.Fields))
	if r.Fill != nil {
		fmt.Fprintf(w, "  filled: %d, failed: %d\n", len(r.Fill.Applied()), len(r.Fill.Failed()))
		for _, q := range r.Fill.UnknownQuestions {
			fmt.Fprintf(w, "  needs input: %s\n", q)
		}
	}
	if r.Submit != nil {
		fmt.Fprintf(w, "  submitted: %t\n", r.Submit.Clicked)
	}
}
