package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/lawdesk/internal/model"
)

const (
	DefaultTimeOfDay  = "18:00"
	DefaultOffsetDays = 1
	DefaultWindow     = 10 * time.Minute
	DefaultBatchSize  = 20
)

// Schedule holds the wall-clock rules shared by both selection policies.
type Schedule struct {
	Location    *time.Location
	DefaultTime string
	OffsetDays  int
	Window      time.Duration
}

func (s Schedule) withDefaults() Schedule {
	if s.Location == nil {
		s.Location = time.UTC
	}
	if _, _, err := ParseHHMM(s.DefaultTime); err != nil {
		s.DefaultTime = DefaultTimeOfDay
	}
	if s.OffsetDays < 0 {
		s.OffsetDays = DefaultOffsetDays
	}
	if s.Window < 0 {
		s.Window = DefaultWindow
	}
	return s
}

// ParseHHMM parses a 24h "HH:MM" time of day.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// WithinWindow reports whether the minute-of-day of now is within window of
// target. The comparison does not wrap around midnight.
func WithinWindow(target string, now time.Time, window time.Duration) bool {
	h, m, err := ParseHHMM(target)
	if err != nil {
		return false
	}
	diff := now.Hour()*60 + now.Minute() - (h*60 + m)
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= window
}

// ScheduledAt is the instant a hearing's reminder becomes due: the hearing
// date minus the offset, at the hearing's notification time or the default
// time, in the schedule's location. An unparsable notification time falls
// back to the default.
func (s Schedule) ScheduledAt(date model.Date, notificationTime string) time.Time {
	s = s.withDefaults()
	h, m, err := ParseHHMM(notificationTime)
	if err != nil {
		h, m, _ = ParseHHMM(s.DefaultTime)
	}
	day := date.AddDays(-s.OffsetDays)
	return time.Date(day.Year, day.Month, day.Day, h, m, 0, 0, s.Location)
}

// Today returns the calendar date of now in the schedule's location.
func (s Schedule) Today(now time.Time) model.Date {
	return model.DateOf(now.In(s.withDefaults().Location))
}
