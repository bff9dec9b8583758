package timetable

import "strings"

// NoSchool is the sentinel day code for a date without classes.
const NoSchool = "None"

// Codes lists the day codes in day-type index order.
var Codes = []string{"g1", "b1", "g2", "b2", "a1", "a2", "a3", "a4", "l1", "l2", "s1"}

var codeIndex = func() map[string]int {
	m := make(map[string]int, len(Codes))
	for i, c := range Codes {
		m[c] = i
	}
	return m
}()

// CodeIndex resolves a day code case-insensitively.
func CodeIndex(code string) (int, bool) {
	idx, ok := codeIndex[strings.ToLower(strings.TrimSpace(code))]
	return idx, ok
}

// IsSchoolDay reports whether code names an actual school day rather than
// the empty or "None" sentinel.
func IsSchoolDay(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && code != NoSchool
}
