package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/resume"
)

var readCVCmd = &cobra.Command{
	Use:   "read-cv [path]",
	Short: "Print the text extracted from your CV PDF",
	Long:  "Prints the plain text the job search gives the LLM as your CV. Defaults to cv_path from config.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CVPath
		if len(args) == 1 {
			path = args[0]
		}
		text, err := resume.ReadText(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCVCmd)
}
