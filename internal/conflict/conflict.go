// Package conflict implements the interval overlap test and the first-fit
// slot search used when placing habits.
package conflict

import (
	"time"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/models"
)

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
	Label string
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching boundaries do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether i intersects other.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Options bounds the first-fit search.
type Options struct {
	Step      time.Duration
	MaxShifts int
}

// DefaultOptions returns a 30 minute step with a 48 attempt budget, which
// covers one full day of candidate starts.
func DefaultOptions() Options {
	return Options{Step: constants.DefaultShiftStep, MaxShifts: constants.DefaultMaxShifts}
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = constants.DefaultShiftStep
	}
	if o.MaxShifts <= 0 {
		o.MaxShifts = constants.DefaultMaxShifts
	}
	return o
}

// FirstFit tests the proposed interval against every busy interval and, on
// conflict, moves the start forward by one step and retries. At most
// MaxShifts candidates are tried. The search is greedy and only ever moves
// forward, so it can miss an earlier free slot; in exchange it always
// terminates and gives the same answer for the same input.
func FirstFit(proposedStart time.Time, duration time.Duration, busy []Interval, opts Options) (Interval, bool) {
	opts = opts.withDefaults()

	candidate := Interval{Start: proposedStart, End: proposedStart.Add(duration)}
	for attempt := 0; attempt < opts.MaxShifts; attempt++ {
		if len(Overlapping(candidate, busy)) == 0 {
			return candidate, true
		}
		candidate.Start = candidate.Start.Add(opts.Step)
		candidate.End = candidate.End.Add(opts.Step)
	}
	return Interval{}, false
}

// Overlapping returns the indexes of busy intervals that intersect iv.
func Overlapping(iv Interval, busy []Interval) []int {
	var hits []int
	for idx, b := range busy {
		if iv.Overlaps(b) {
			hits = append(hits, idx)
		}
	}
	return hits
}

// FromBusy converts calendar busy intervals to search intervals. All-day
// entries never block placement and are dropped.
func FromBusy(busy []models.BusyInterval) []Interval {
	out := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.AllDay {
			continue
		}
		out = append(out, Interval{Start: b.Start, End: b.End, Label: b.Summary})
	}
	return out
}

// FromItem converts a draft item to a search interval.
func FromItem(item models.DraftItem) Interval {
	return Interval{Start: item.Start, End: item.End, Label: item.Summary}
}
