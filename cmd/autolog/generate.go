package main

import (
	"github.com/spf13/cobra"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/changelog"
	"github.com/nahidhasan98/autolog/internal/models"
)

var generateFlags struct {
	date    string
	project string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate log entries for every project with changes",
	Long: `Scan every registered project and print one log entry per project that
has commits in the window ending on the given day.

Examples:
  # Today's entries
  autolog generate

  # Entries for a specific day
  autolog generate --date 2026-10-15

  # A single project
  autolog generate --project skills-development`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.date, "date", "d", "", "day to generate for (YYYY-MM-DD, default today)")
	generateCmd.Flags().StringVar(&generateFlags.project, "project", "", "only scan this project id")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	day, err := parseDate(generateFlags.date, svc)
	if err != nil {
		return err
	}

	var result *autolog.GenerateResult
	if generateFlags.project != "" {
		result, err = svc.GenerateProjectLog(cmd.Context(), generateFlags.project, day)
	} else {
		result, err = svc.GenerateLogs(cmd.Context(), day)
	}
	if err != nil {
		return err
	}

	response := &models.GenerateLogResponse{
		Success:  true,
		Logs:     result.Logs,
		Projects: result.Projects,
		Count:    result.Count(),
	}
	if response.Logs == nil {
		response.Logs = []*changelog.Entry{}
	}
	if response.Projects == nil {
		response.Projects = []string{}
	}

	return printJSON(cmd.OutOrStdout(), response)
}
