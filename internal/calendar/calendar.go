// Package calendar maps calendar dates onto day-type codes.
package calendar

import (
	"strings"
	"time"
)

// KeyLayout is the "MM-dd-yy" date key used by the mapping sources.
const KeyLayout = "01-02-06"

// Entry is what the mapping knows about one date.
type Entry struct {
	Code string `json:"code"`
	Note string `json:"note,omitempty"`
}

// Mapping is keyed by Key(date).
type Mapping map[string]Entry

// Lookup classifies a resolution.
type Lookup int

const (
	// Found means the mapping has an entry for the date.
	Found Lookup = iota
	// NoEntry means the mapping is loaded but the date is absent.
	NoEntry
	// MappingMissing means no mapping has been supplied yet.
	MappingMissing
)

func (l Lookup) String() string {
	switch l {
	case Found:
		return "found"
	case NoEntry:
		return "no_entry"
	case MappingMissing:
		return "mapping_missing"
	default:
		return "unknown"
	}
}

// Key formats date in its own location.
func Key(date time.Time) string {
	return date.Format(KeyLayout)
}

// ParseKey is the inverse of Key, in loc.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(KeyLayout, strings.TrimSpace(key), loc)
}

// Resolver answers date lookups against a supplied mapping. A Resolver
// built from a nil mapping reports MappingMissing for every date.
type Resolver struct {
	mapping Mapping
}

func NewResolver(m Mapping) Resolver {
	return Resolver{mapping: m}
}

// Loaded reports whether a mapping was supplied.
func (r Resolver) Loaded() bool {
	return r.mapping != nil
}

// Resolve looks up date. Absent dates resolve to an empty code.
func (r Resolver) Resolve(date time.Time) (Entry, Lookup) {
	if r.mapping == nil {
		return Entry{}, MappingMissing
	}
	e, ok := r.mapping[Key(date)]
	if !ok {
		return Entry{}, NoEntry
	}
	return e, Found
}

// Len is the number of mapped dates.
func (r Resolver) Len() int {
	return len(r.mapping)
}
