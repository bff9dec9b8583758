package events

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"bellcal/internal/calendar"
	appLog "bellcal/internal/log"
)

const maxOccurrenceDays = 400

// Occurrence is a concrete date on which an event applies.
type Occurrence struct {
	EventID string    `json:"event_id"`
	Date    time.Time `json:"date"`
	Code    string    `json:"code,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Occurrences walks the days from..from+days (midnight-aligned in from's
// location), resolves each day code through r and returns the days on
// which e applies. Days are capped at maxOccurrenceDays.
func Occurrences(e Event, r calendar.Resolver, from time.Time, days int) ([]Occurrence, error) {
	if days <= 0 {
		return nil, errors.New("events: days must be positive")
	}
	if days > maxOccurrenceDays {
		appLog.Warn("occurrence window truncated", "event", e.ID, "days", days, "cap", maxOccurrenceDays)
		days = maxOccurrenceDays
	}

	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, from.Location())

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Count:   days,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Occurrence, 0)
	for _, day := range rule.All() {
		entry, _ := r.Resolve(day)
		if !e.AppliesTo(entry.Code, day) {
			continue
		}
		out = append(out, Occurrence{
			EventID: e.ID,
			Date:    day,
			Code:    entry.Code,
			Start:   e.Start.On(day),
			End:     e.End.On(day),
		})
	}
	return out, nil
}
