// Package clock provides a date-less wall-clock time of day with second
// resolution. Values compare by their total seconds since midnight.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 3600

// Time is an immutable time of day. The zero value is midnight.
type Time struct {
	hour, minute, second int
}

// ParseError reports a malformed time-of-day string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("clock: cannot parse %q: %s", e.Input, e.Reason)
}

// New builds a Time from components. Out-of-range components are rejected.
func New(h, m, s int) (Time, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return Time{}, &ParseError{
			Input:  fmt.Sprintf("%d:%d:%d", h, m, s),
			Reason: "component out of range",
		}
	}
	return Time{hour: h, minute: m, second: s}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSeconds wraps n into a single day and returns the matching Time.
func FromSeconds(n int) Time {
	n %= secondsPerDay
	if n < 0 {
		n += secondsPerDay
	}
	return Time{hour: n / 3600, minute: n % 3600 / 60, second: n % 60}
}

// FromTime takes the wall-clock components of t in its own location.
func FromTime(t time.Time) Time {
	return Time{hour: t.Hour(), minute: t.Minute(), second: t.Second()}
}

// Now is the current local time of day.
func Now() Time {
	return FromTime(time.Now())
}

// Parse accepts "H:M" or "H:M:S", optionally followed by AM or PM.
// Missing seconds default to zero.
func Parse(s string) (Time, error) {
	raw := s
	s = strings.TrimSpace(s)

	meridiem := ""
	upper := strings.ToUpper(s)
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Time{}, &ParseError{Input: raw, Reason: "expected H:M or H:M:S"}
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Time{}, &ParseError{Input: raw, Reason: "non-numeric component " + strconv.Quote(p)}
		}
		nums[i] = n
	}

	h := nums[0]
	if meridiem != "" {
		if h < 1 || h > 12 {
			return Time{}, &ParseError{Input: raw, Reason: "hour out of range for 12-hour clock"}
		}
		h %= 12
		if meridiem == "PM" {
			h += 12
		}
	}

	t, err := New(h, nums[1], nums[2])
	if err != nil {
		return Time{}, &ParseError{Input: raw, Reason: "component out of range"}
	}
	return t, nil
}

func (t Time) Hour() int   { return t.hour }
func (t Time) Minute() int { return t.minute }
func (t Time) Second() int { return t.second }

// TotalSeconds is h*3600 + m*60 + s.
func (t Time) TotalSeconds() int {
	return t.hour*3600 + t.minute*60 + t.second
}

// Compare returns -1, 0 or +1.
func (t Time) Compare(u Time) int {
	a, b := t.TotalSeconds(), u.TotalSeconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (t Time) Before(u Time) bool { return t.TotalSeconds() < u.TotalSeconds() }
func (t Time) After(u Time) bool  { return t.TotalSeconds() > u.TotalSeconds() }
func (t Time) Equal(u Time) bool  { return t.TotalSeconds() == u.TotalSeconds() }

// Sub returns t-u in seconds.
func (t Time) Sub(u Time) int {
	return t.TotalSeconds() - u.TotalSeconds()
}

// Add shifts t by n seconds, wrapping around midnight.
func (t Time) Add(n int) Time {
	return FromSeconds(t.TotalSeconds() + n)
}

// On places t on the calendar day of date, in date's location.
func (t Time) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.hour, t.minute, t.second, 0, date.Location())
}

// Format renders a 12-hour display string without a leading zero on the
// hour: "9:05", or "9:05:30 AM" when showSeconds is set.
func (t Time) Format(showSeconds bool) string {
	h := t.hour % 12
	if h == 0 {
		h = 12
	}
	if !showSeconds {
		return fmt.Sprintf("%d:%02d", h, t.minute)
	}
	meridiem := "AM"
	if t.hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d:%02d %s", h, t.minute, t.second, meridiem)
}

// String is the 24-hour "HH:MM:SS" form.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.hour, t.minute, t.second)
}

func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Time) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
