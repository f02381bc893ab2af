package changelog

import (
	"time"

	"github.com/google/uuid"

	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/registry"
	"github.com/nahidhasan98/autolog/internal/scanner"
)

// DatetimeLayout renders the entry's human-readable timestamp.
const DatetimeLayout = "2006/1/2 15:04:05"

// ItemPrefix starts every bullet in an entry.
const ItemPrefix = "✅ "

// Entry is a synthesized log record for one project.
type Entry struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"projectId"`
	ProjectName string   `json:"projectName"`
	Date        string   `json:"date"`
	Datetime    string   `json:"datetime"`
	Title       string   `json:"title"`
	Tags        []Tag    `json:"tags"`
	Items       []string `json:"items"`
	Code        *string  `json:"code"`
}

// Build synthesizes an entry from a project's changes. Only the first commit
// is classified and its category labels the whole entry. It returns nil when
// there is nothing to report.
func Build(p registry.Project, changes *scanner.Changes, day, now time.Time) *Entry {
	if changes == nil || len(changes.Commits) == 0 {
		return nil
	}

	tag := TagFor(Classify(changes.Commits[0].Message))

	return &Entry{
		ID:          uuid.NewString(),
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Date:        day.Format(gitlog.DateLayout),
		Datetime:    now.Format(DatetimeLayout),
		Title:       tag.Name + " - " + p.Name,
		Tags:        []Tag{tag},
		Items:       Items(changes.Commits),
		Code:        nil,
	}
}

// Items formats commit subjects as bullet strings, preserving order.
func Items(commits []gitlog.Commit) []string {
	items := make([]string, 0, len(commits))
	for _, c := range commits {
		items = append(items, ItemPrefix+c.Message)
	}
	return items
}
