package main

import (
	"github.com/spf13/cobra"

	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/models"
)

var statusFlags struct {
	date string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which projects have changes",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusFlags.date, "date", "d", "", "day to inspect (YYYY-MM-DD, default today)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	day, err := parseDate(statusFlags.date, svc)
	if err != nil {
		return err
	}

	status, err := svc.ProjectStatus(cmd.Context(), day)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), &models.ProjectStatusResponse{
		Today:  day.Format(gitlog.DateLayout),
		Status: status,
	})
}
