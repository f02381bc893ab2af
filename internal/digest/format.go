// Package digest turns generated log entries into a daily message and sends
// it on a cron schedule.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/gitlog"
)

// maxItems caps the bullets listed per project.
const maxItems = 10

// Format renders a digest message. It returns "" when there is nothing to report.
func Format(result *autolog.GenerateResult, day time.Time) string {
	if result == nil || result.Count() == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📒 *Daily log %s*\n", day.Format(gitlog.DateLayout))
	fmt.Fprintf(&sb, "%d project(s) with changes\n", result.Count())

	for _, entry := range result.Logs {
		fmt.Fprintf(&sb, "\n*%s*\n", entry.Title)
		for i, item := range entry.Items {
			if i >= maxItems {
				fmt.Fprintf(&sb, "_...and %d more_\n", len(entry.Items)-maxItems)
				break
			}
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
