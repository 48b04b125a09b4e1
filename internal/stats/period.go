// Package stats accumulates traffic into session, daily, weekly and monthly
// buckets and keeps them on disk.
package stats

import "time"

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Keys identify the current daily, weekly and monthly buckets.
type Keys struct {
	Date      string
	WeekStart string
	Month     string
}

// PeriodKeys computes bucket keys in t's location. Weeks start on Monday.
func PeriodKeys(t time.Time) Keys {
	sinceMonday := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	monday := time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, t.Location())
	return Keys{
		Date:      t.Format(dateLayout),
		WeekStart: monday.Format(dateLayout),
		Month:     t.Format(monthLayout),
	}
}
