// Package scheduler turns the habit plan and a busy-interval set into a draft
// schedule. Each habit gets one representative occurrence; its cadence rides
// along as recurrence metadata.
package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitline/internal/conflict"
	"github.com/julianstephens/habitline/internal/constants"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
)

type Scheduler struct {
	opts        conflict.Options
	defaultTime models.CanonicalTime
}

func New(opts conflict.Options) *Scheduler {
	return &Scheduler{opts: opts, defaultTime: normalize.DefaultTime}
}

// WithDefaultTime sets the time of day used for preferred times that are
// not understood.
func (s *Scheduler) WithDefaultTime(t models.CanonicalTime) *Scheduler {
	s.defaultTime = t
	return s
}

// Request is the input to one generation pass.
type Request struct {
	Habits   []models.HabitSpec
	Busy     []models.BusyInterval
	Location *time.Location
	Period   models.Period
	Now      time.Time
}

// Skip records a habit that could not be placed. Kind is the error kind
// reported to callers.
type Skip struct {
	Habit  string `json:"habit"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func skipFor(habit string, err error) Skip {
	return Skip{Habit: habit, Kind: apperrors.Kind(err), Reason: err.Error()}
}

// Result is the structured outcome of Generate. Callers are expected to
// surface Skipped and Warnings to the user.
type Result struct {
	Draft    models.Draft       `json:"draft"`
	Placed   []models.DraftItem `json:"placed"`
	Skipped  []Skip             `json:"skipped,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	// Shifted names habits placed later than their preferred time.
	Shifted []string `json:"shifted,omitempty"`
}

// Generate builds a draft from req. Habits are placed in stored order; an
// earlier habit wins a contested slot.
func (s *Scheduler) Generate(req Request) Result {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	period := req.Period
	if period.Start.IsZero() || !period.End.After(period.Start) {
		period = DefaultPeriod(now, constants.DefaultPeriodDays)
	}

	result := Result{
		Draft: models.Draft{
			Timezone:    loc.String(),
			Period:      period,
			GeneratedAt: now,
			Status:      models.DraftStatusDraft,
			Items:       existingItems(req.Busy, loc),
		},
	}

	// Occurrences are anchored on the day after base, so a period that
	// starts later than tomorrow moves the base to the day before it.
	base := now
	if dayBefore := period.Start.In(loc).AddDate(0, 0, -1); dayBefore.After(base) {
		base = dayBefore
	}

	busy := conflict.FromBusy(req.Busy)
	for _, habit := range req.Habits {
		item, ok := s.place(habit, base, loc, busy, &result)
		if !ok {
			continue
		}
		item.ID = fmt.Sprintf("%s%d", constants.DraftIDPrefix, len(result.Placed)+1)
		result.Placed = append(result.Placed, item)
		result.Draft.Items = append(result.Draft.Items, item)
		busy = append(busy, conflict.FromItem(item))
	}

	logger.Info("Generated draft",
		"habits", len(req.Habits),
		"placed", len(result.Placed),
		"skipped", len(result.Skipped),
		"warnings", len(result.Warnings))

	return result
}

func (s *Scheduler) place(habit models.HabitSpec, base time.Time, loc *time.Location, busy []conflict.Interval, result *Result) (models.DraftItem, bool) {
	cadence, err := normalize.Cadence(string(habit.Cadence))
	if err != nil {
		result.Skipped = append(result.Skipped, skipFor(habit.Name, err))
		logger.Warn("Skipping habit with invalid cadence", "habit", habit.Name, "cadence", habit.Cadence)
		return models.DraftItem{}, false
	}

	at, warning := normalize.TimeWithDefault(habit.PreferredTimeRaw, s.defaultTime)
	if warning != "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", habit.Name, warning))
	}

	durationMin := habit.DurationMin
	if durationMin <= 0 {
		durationMin = constants.DefaultDurationMin
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s: no duration given, using %d minutes", habit.Name, durationMin))
	}

	proposed := at.On(AnchorDate(cadence, base), loc)
	slot, ok := conflict.FirstFit(proposed, time.Duration(durationMin)*time.Minute, busy, s.opts)
	if !ok {
		attempts := s.opts.MaxShifts
		if attempts <= 0 {
			attempts = constants.DefaultMaxShifts
		}
		result.Skipped = append(result.Skipped,
			skipFor(habit.Name, &apperrors.NoSlotError{Habit: habit.Name, Attempts: attempts}))
		logger.Warn("No slot for habit", "habit", habit.Name, "proposed", proposed)
		return models.DraftItem{}, false
	}
	if !slot.Start.Equal(proposed) {
		result.Shifted = append(result.Shifted, habit.Name)
		logger.Debug("Shifted habit", "habit", habit.Name, "from", proposed, "to", slot.Start)
	}

	return models.DraftItem{
		Kind:        models.ItemKindDraft,
		Summary:     habit.Name,
		Start:       slot.Start,
		End:         slot.End,
		Recurrence:  cadence,
		SourceHabit: habit.Name,
		Description: Describe(habit),
	}, true
}

// AnchorDate returns the first date a habit with cadence c is proposed on,
// counted from the day after now.
func AnchorDate(c models.Cadence, now time.Time) time.Time {
	y, m, d := now.Date()
	day := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())

	switch c {
	case models.CadenceWeekdays:
		switch day.Weekday() {
		case time.Saturday:
			day = day.AddDate(0, 0, 2)
		case time.Sunday:
			day = day.AddDate(0, 0, 1)
		}
	case models.CadenceThreePerWeek:
		for !isMonWedFri(day.Weekday()) {
			day = day.AddDate(0, 0, 1)
		}
	}
	return day
}

func isMonWedFri(wd time.Weekday) bool {
	return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
}

// DefaultPeriod returns the window from the start of tomorrow spanning days.
func DefaultPeriod(now time.Time, days int) models.Period {
	y, m, d := now.Date()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return models.Period{Start: start, End: start.AddDate(0, 0, days)}
}

// Describe builds the calendar description for a habit occurrence.
func Describe(h models.HabitSpec) string {
	var parts []string
	if h.Goal != "" {
		parts = append(parts, "Goal: "+h.Goal)
	}
	if h.Cue != "" {
		parts = append(parts, "Cue: "+h.Cue)
	}
	if h.TwoMinuteVersion != "" {
		parts = append(parts, "Two-minute version: "+h.TwoMinuteVersion)
	}
	return strings.Join(parts, "\n")
}

// existingItems snapshots calendar entries, ordered by start, for display
// alongside the proposals.
func existingItems(busy []models.BusyInterval, loc *time.Location) []models.DraftItem {
	sorted := make([]models.BusyInterval, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	items := make([]models.DraftItem, 0, len(sorted))
	for i, b := range sorted {
		items = append(items, models.DraftItem{
			ID:          fmt.Sprintf("%s%d", constants.ExistingIDPrefix, i+1),
			Kind:        models.ItemKindExisting,
			Summary:     b.Summary,
			Start:       b.Start.In(loc),
			End:         b.End.In(loc),
			AllDay:      b.AllDay,
			Description: b.CalendarLabel,
		})
	}
	return items
}
