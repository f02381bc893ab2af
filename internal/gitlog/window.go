package gitlog

import "time"

// DateLayout is the calendar date format used on the wire and in git arguments.
const DateLayout = "2006-01-02"

// Window is the inclusive two-calendar-day range a scan covers: the day before
// the target day from 00:00:00 through the target day at 23:59:59.
type Window struct {
	Since time.Time
	Until time.Time
}

// WindowFor anchors the scan window on day, in day's location.
func WindowFor(day time.Time) Window {
	y, m, d := day.Date()
	loc := day.Location()

	return Window{
		Since: time.Date(y, m, d-1, 0, 0, 0, 0, loc),
		Until: time.Date(y, m, d, 23, 59, 59, 0, loc),
	}
}

// Args renders the window as git date-range arguments.
func (w Window) Args() []string {
	return []string{
		"--since=" + w.Since.Format(DateLayout+" 15:04:05"),
		"--until=" + w.Until.Format(DateLayout+" 15:04:05"),
	}
}
