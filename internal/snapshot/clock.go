package snapshot

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is ISO-8601 with microseconds and the UTC offset.
	TimestampLayout = "2006-01-02T15:04:05.000000-07:00"
	// DisplayLayout is the DD/MM/YYYY HH:MM:SS display string.
	DisplayLayout = "02/01/2006 15:04:05"
)

// Clock yields instants in a fixed UTC offset.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock at offsetHours from UTC; -3 is BRT.
func NewClock(offsetHours int) Clock {
	name := "UTC"
	if offsetHours != 0 {
		name = fmt.Sprintf("UTC%+d", offsetHours)
	}
	return Clock{loc: time.FixedZone(name, offsetHours*3600), now: time.Now}
}

// WithNow overrides the time source.
func (c Clock) WithNow(now func() time.Time) Clock {
	c.now = now
	return c
}

// Now returns the current instant in the clock's zone.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}
