package serialization

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

const (
	dateOnlyLayout = "2006-01-02"
	timeOnlyLayout = "15:04:05"
)

// DateOnly is a calendar date without time of day or zone.
type DateOnly struct {
	t time.Time
}

// NewDateOnly truncates t to its calendar date.
func NewDateOnly(t time.Time) *DateOnly {
	y, m, d := t.Date()
	return &DateOnly{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDateOnly parses a yyyy-MM-dd value.
func ParseDateOnly(s string) (*DateOnly, error) {
	t, err := time.Parse(dateOnlyLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &DateOnly{t: t}, nil
}

func (d DateOnly) String() string { return d.t.Format(dateOnlyLayout) }

// Time returns the date at midnight UTC.
func (d DateOnly) Time() time.Time { return d.t }

// TimeOnly is a time of day without date or zone.
type TimeOnly struct {
	t time.Time
}

// NewTimeOnly keeps the clock part of t.
func NewTimeOnly(t time.Time) *TimeOnly {
	return &TimeOnly{t: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// ParseTimeOnly parses HH:mm:ss with optional fractional seconds.
func ParseTimeOnly(s string) (*TimeOnly, error) {
	s = strings.TrimSpace(s)
	layout := timeOnlyLayout
	if strings.Contains(s, ".") {
		layout = timeOnlyLayout + ".999999999"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return &TimeOnly{t: t}, nil
}

func (t TimeOnly) String() string { return t.t.Format(timeOnlyLayout + ".999999999") }

// Clock returns hour, minute and second.
func (t TimeOnly) Clock() (int, int, int) { return t.t.Clock() }

// ISODuration is an ISO 8601 duration such as P1DT2H.
type ISODuration struct {
	d *duration.Duration
}

// NewISODuration converts a time.Duration.
func NewISODuration(d time.Duration) *ISODuration {
	return &ISODuration{d: duration.FromTimeDuration(d)}
}

// ParseISODuration parses the ISO 8601 representation.
func ParseISODuration(s string) (*ISODuration, error) {
	d, err := duration.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return &ISODuration{d: d}, nil
}

// ToDuration converts to a time.Duration; years and months use the library's fixed lengths.
func (d ISODuration) ToDuration() time.Duration {
	if d.d == nil {
		return 0
	}
	return d.d.ToTimeDuration()
}

func (d ISODuration) String() string {
	if d.d == nil {
		return "PT0S"
	}
	return d.d.String()
}
