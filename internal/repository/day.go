package repository

import "time"

const dayLayout = "2006-01-02"

// CaptureDay returns the calendar day (YYYY-MM-DD) of ts in ts's own zone,
// so a BRT-captured snapshot files under its BRT date.
func CaptureDay(ts time.Time) string {
	return ts.Format(dayLayout)
}
