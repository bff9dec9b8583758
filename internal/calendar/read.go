package calendar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "bellcal/internal/log"
)

// dateLayouts are the date spellings accepted in mapping sources, all
// normalized to KeyLayout.
var dateLayouts = []string{KeyLayout, "1/2/06", "1/2/2006", "2006-01-02", "20060102"}

// NormalizeDate turns any accepted date spelling into a mapping key.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(KeyLayout), nil
		}
	}
	return "", fmt.Errorf("calendar: unrecognized date %q", s)
}

// ReadCSV reads a mapping with a header row and columns date, day code,
// note. Extra columns are ignored. Bad rows are logged and skipped.
func ReadCSV(r io.Reader) (Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("calendar: read csv header: %w", err)
	}

	m := make(Mapping)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			appLog.Error("calendar csv row skipped", err)
			continue
		}
		if len(rec) < 2 {
			appLog.Warn("calendar csv row too short", "row", strings.Join(rec, ","))
			continue
		}

		key, err := NormalizeDate(rec[0])
		if err != nil {
			appLog.Error("calendar csv row skipped", err)
			continue
		}
		e := Entry{Code: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			e.Note = strings.TrimSpace(rec[2])
		}
		m[key] = e
	}
	return m, nil
}

// ReadICS reads a mapping published as a calendar feed: each VEVENT's
// DTSTART date is the key, SUMMARY the day code and DESCRIPTION the note.
func ReadICS(r io.Reader) (Mapping, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse ics: %w", err)
	}

	m := make(Mapping)
	for _, ve := range cal.Events() {
		key, e, perr := entryFromVEvent(ve)
		if perr != nil {
			appLog.Error("calendar vevent skipped", perr)
			continue
		}
		m[key] = e
	}
	return m, nil
}

func entryFromVEvent(ve *ical.VEvent) (string, Entry, error) {
	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil || len(start.Value) < 8 {
		return "", Entry{}, errors.New("missing DTSTART")
	}
	// Date-only and date-time values share the leading YYYYMMDD.
	day, err := time.Parse("20060102", start.Value[:8])
	if err != nil {
		return "", Entry{}, fmt.Errorf("bad DTSTART %q: %w", start.Value, err)
	}

	summary := ve.GetProperty(ical.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return "", Entry{}, errors.New("missing SUMMARY")
	}

	e := Entry{Code: strings.TrimSpace(summary.Value)}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Note = strings.TrimSpace(p.Value)
	}
	return day.Format(KeyLayout), e, nil
}

// LoadFile reads a mapping from disk, choosing the reader by extension.
func LoadFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calendar %s: %w", path, err)
	}
	defer f.Close()

	var m Mapping
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ics", ".ical":
		m, err = ReadICS(f)
	default:
		m, err = ReadCSV(f)
	}
	if err != nil {
		return nil, err
	}
	appLog.Info("calendar mapping loaded", "path", path, "dates", len(m))
	return m, nil
}
