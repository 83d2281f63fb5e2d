package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/fetch"
	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "List the fillable fields of an application form",
	Long: `Loads the page in Chrome and prints the form fields apply_agent would offer the LLM.
With --html a saved page is read instead and no browser is started.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var (
	extractHTMLFile string
	extractHeaded   bool
	extractJSON     bool
)

func init() {
	extractCmd.Flags().StringVar(&extractHTMLFile, "html", "", "Path to a saved HTML page")
	extractCmd.Flags().BoolVar(&extractHeaded, "headed", false, "Show the browser window")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the fields as JSON")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var fields []types.FieldDescriptor
	switch {
	case extractHTMLFile != "" && len(args) > 0:
		return fmt.Errorf("cannot use --html with a URL")
	case extractHTMLFile != "":
		data, err := os.ReadFile(extractHTMLFile)
		if err != nil {
			return fmt.Errorf("failed to read HTML file: %w", err)
		}
		fields, err = forms.ExtractHTML(string(data))
		if err != nil {
			return err
		}
	case len(args) == 1:
		c := *cfg
		c.Headed = c.Headed || extractHeaded
		render := fetch.RenderOptions{NavigationTimeout: c.NavigationTimeout, SettleDelay: c.SettleDelay}

		var err error
		fields, err = extractLive(ctx, newLauncher(&c, log), args[0], render, log)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("a URL or --html file is required")
	}

	return writeFields(cmd.OutOrStdout(), fields, extractJSON)
}

// extractLive opens url in a new session and extracts its fields.
func extractLive(ctx context.Context, launcher browser.Launcher, url string, opts fetch.RenderOptions, l zerolog.Logger) ([]types.FieldDescriptor, error) {
	if _, err := fetch.ValidateURL(url); err != nil {
		return nil, err
	}

	s, err := launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := fetch.Render(ctx, s, url, opts, l); err != nil {
		return nil, err
	}
	return forms.Extract(ctx, s)
}

func writeFields(w io.Writer, fields []types.FieldDescriptor, asJSON bool) error {
	if !asJSON {
		observability.NewPrinter(w).PrintFields(fields)
		return nil
	}
	return writeJSON(w, fields)
}
