package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/joblog"
	"github.com/jonathan/apply-agent/internal/observability"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the job log written by search-jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print saved job postings",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved job postings to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runJobsExport,
}

var (
	jobsPath   string
	jobsRaw    bool
	jobsOutput string
)

func init() {
	jobsCmd.PersistentFlags().StringVar(&jobsPath, "jobs", "", "Job log CSV (defaults to jobs_path from config)")
	jobsListCmd.Flags().BoolVar(&jobsRaw, "raw", false, "Print the CSV as stored")
	jobsExportCmd.Flags().StringVarP(&jobsOutput, "out", "o", "jobs.xlsx", "Path to the output workbook")

	jobsCmd.AddCommand(jobsListCmd, jobsExportCmd)
	rootCmd.AddCommand(jobsCmd)
}

func jobStore() *joblog.Store {
	path := cfg.JobsPath
	overrideString(&path, jobsPath)
	return joblog.NewStore(path)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	return listJobs(cmd.OutOrStdout(), jobStore(), jobsRaw)
}

func listJobs(w io.Writer, store *joblog.Store, raw bool) error {
	if raw {
		text, err := store.ReadRaw()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	}

	jobs, err := store.List()
	if err != nil {
		return err
	}
	observability.NewPrinter(w).PrintJobs(jobs)
	return nil
}

func runJobsExport(cmd *cobra.Command, _ []string) error {
	n, err := exportJobs(jobStore(), jobsOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d jobs to %s\n", n, jobsOutput)
	return nil
}

func exportJobs(store *joblog.Store, out string) (int, error) {
	jobs, err := store.List()
	if err != nil {
		return 0, err
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := joblog.ExportXLSX(jobs, f); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return len(jobs), nil
}
