package render

import (
	"slices"
	"strings"

	"bellcal/internal/clock"
	"bellcal/internal/timetable"
)

// Window is a fixed replacement span.
type Window struct {
	Start clock.Time
	End   clock.Time
}

// Swap moves every slot of kind Trigger into TriggerWindow and, when such a
// slot exists on the day, moves the period references listed in Refs into
// RefWindow.
type Swap struct {
	Trigger       timetable.SlotKind
	TriggerWindow Window
	Refs          []int
	RefWindow     Window
}

// Profile is a named second-lunch rule set. Gold and Brown list the
// day-type indices of each cohort; the profile applies to a day when the
// cohort that contains it has its flag set.
type Profile struct {
	Name  string
	Gold  []int
	Brown []int
	Swaps []Swap
}

var lunchSwap = Swap{
	Trigger:       timetable.KindLunch,
	TriggerWindow: Window{Start: clock.MustParse("12:25"), End: clock.MustParse("13:05")},
	Refs:          []int{4, 5},
	RefWindow:     Window{Start: clock.MustParse("11:00"), End: clock.MustParse("12:20")},
}

var brunchSwap = Swap{
	Trigger:       timetable.KindBrunch,
	TriggerWindow: Window{Start: clock.MustParse("11:10"), End: clock.MustParse("11:35")},
	Refs:          []int{4},
	RefWindow:     Window{Start: clock.MustParse("9:45"), End: clock.MustParse("11:05")},
}

// LunchProfile swaps lunch with periods 4 and 5 on the gold/brown and
// A-day rotations.
var LunchProfile = Profile{
	Name:  "lunch",
	Gold:  []int{0, 2, 4, 6},
	Brown: []int{1, 3, 5, 7},
	Swaps: []Swap{lunchSwap},
}

// BrunchProfile adds the brunch swap and only covers the gold/brown
// rotations. Swaps run in order, so a period moved by both rules ends in
// the brunch window.
var BrunchProfile = Profile{
	Name:  "brunch",
	Gold:  []int{0, 2},
	Brown: []int{1, 3},
	Swaps: []Swap{lunchSwap, brunchSwap},
}

// NoOverrides never rewrites anything.
var NoOverrides = Profile{Name: "none"}

// ProfileByName resolves a configured profile name.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lunch":
		return LunchProfile, true
	case "brunch":
		return BrunchProfile, true
	case "none":
		return NoOverrides, true
	default:
		return Profile{}, false
	}
}

// Applies reports whether the second-lunch flag of dayIdx's cohort is set.
func (p Profile) Applies(flags timetable.Cohorts, dayIdx int) bool {
	if flags.Gold && slices.Contains(p.Gold, dayIdx) {
		return true
	}
	return flags.Brown && slices.Contains(p.Brown, dayIdx)
}

// apply rewrites lines in place.
func (p Profile) apply(lines []Line, nowSec int, today bool) {
	for _, sw := range p.Swaps {
		found := false
		for i := range lines {
			if lines[i].Kind == sw.Trigger {
				found = true
				lines[i].setSpan(sw.TriggerWindow.Start, sw.TriggerWindow.End, nowSec, today)
			}
		}
		if !found || len(sw.Refs) == 0 {
			continue
		}
		for i := range lines {
			if lines[i].Kind == timetable.KindPeriodRef && slices.Contains(sw.Refs, lines[i].Ref) {
				lines[i].setSpan(sw.RefWindow.Start, sw.RefWindow.End, nowSec, today)
			}
		}
	}
}
