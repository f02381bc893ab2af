package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/registry"
	"github.com/nahidhasan98/autolog/internal/scanner"
	"github.com/nahidhasan98/autolog/internal/validation"
)

var (
	// Global flags
	projectsFile string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "autolog",
	Short: "Generate daily work logs from git history",
	Long: `Autolog scans the registered git projects for commits made yesterday and
today, and turns them into daily log entries.

The output matches the JSON returned by the HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectsFile, "projects", "p", "projects.yaml", "projects file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

// newService wires a sequential service over the projects file.
func newService(cmd *cobra.Command) (*autolog.Service, error) {
	reg, err := registry.Load(projectsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, "text")
	sc := scanner.New(gitlog.NewClient(&gitlog.ExecRunner{}), log)

	return autolog.New(reg, sc, autolog.Options{Logger: log}), nil
}

// parseDate resolves the --date flag; empty means today.
func parseDate(value string, svc *autolog.Service) (time.Time, error) {
	day, appErr := validation.New(time.Local).ParseDay(value, svc.Today())
	if appErr != nil {
		return time.Time{}, appErr
	}
	return day, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
