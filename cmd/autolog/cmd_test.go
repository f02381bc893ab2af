package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/testutil/gitrepo"
)

func writeProjects(t *testing.T, repoDir string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "projects.yaml")
	content := fmt.Sprintf(`projects:
  - id: app
    name: App
    path: %s
  - id: ghost
    name: Ghost
    path: %s
`, repoDir, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		generateFlags.date = ""
		generateFlags.project = ""
		statusFlags.date = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["generate"])
	assert.True(t, names["status"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("projects"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestGenerateCommand(t *testing.T) {
	repo := gitrepo.New(t)
	day := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.Local)
	repo.WriteFile("README.md", "hello\n")
	repo.Commit("docs: 更新文档", day)
	repo.WriteFile("main.go", "package main\n")
	repo.Commit("feat: add main", day.Add(time.Hour))

	out, err := run(t, "generate", "--projects", writeProjects(t, repo.Dir), "--date", day.Format(gitlog.DateLayout))
	require.NoError(t, err)

	var resp struct {
		Success  bool     `json:"success"`
		Count    int      `json:"count"`
		Projects []string `json:"projects"`
		Logs     []struct {
			ProjectID string   `json:"projectId"`
			Title     string   `json:"title"`
			Items     []string `json:"items"`
		} `json:"logs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, []string{"App"}, resp.Projects)
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, "app", resp.Logs[0].ProjectID)
	assert.Equal(t, "📚 Docs - App", resp.Logs[0].Title)
	assert.Equal(t, []string{"✅ docs: 更新文档", "✅ feat: add main"}, resp.Logs[0].Items)
}

func TestStatusCommand(t *testing.T) {
	repo := gitrepo.New(t)
	day := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.Local)
	repo.WriteFile("main.go", "package main\n")
	repo.Commit("fix: crash", day)

	out, err := run(t, "status", "--projects", writeProjects(t, repo.Dir), "--date", "2026-10-17")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"today": "2026-10-17",
		"status": {
			"app": {"name": "App", "hasChanges": true, "commits": 1, "files": 1},
			"ghost": {"name": "Ghost", "hasChanges": false, "commits": 0, "files": 0}
		}
	}`, out)
}

func TestGenerateUnknownProject(t *testing.T) {
	_, err := run(t, "generate", "--projects", writeProjects(t, t.TempDir()), "--project", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown project")
}

func TestGenerateRejectsBadDate(t *testing.T) {
	_, err := run(t, "generate", "--projects", writeProjects(t, t.TempDir()), "--date", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_FAILED")
}

func TestMissingProjectsFile(t *testing.T) {
	_, err := run(t, "status", "--projects", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load projects")
}
