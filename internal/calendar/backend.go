// Package calendar holds the calendar backend contract consumed by the
// engine and its two implementations: Google Calendar and a store-backed
// local calendar.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitline/internal/models"
)

// BusyReader lists calendar entries overlapping a period.
type BusyReader interface {
	ListBusyIntervals(ctx context.Context, period models.Period, calendars []string) ([]models.BusyInterval, error)
}

// EventWriter creates one event and returns the backend's reference to it.
type EventWriter interface {
	CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error)
}

// Backend is the full read/write contract.
type Backend interface {
	BusyReader
	EventWriter
	ListUpcoming(ctx context.Context, calendars []string, from time.Time, limit int) ([]models.CalendarEvent, error)
}

// Recurrence rule text, one per cadence.
const (
	RuleEveryDay     = "every day"
	RuleEveryWeek    = "every week"
	RuleEveryWeekday = "every weekday"
	RuleEveryMonth   = "every month"
	RuleMonWedFri    = "Mon/Wed/Fri weekly"
)

var cadenceRules = map[models.Cadence]string{
	models.CadenceDaily:        RuleEveryDay,
	models.CadenceWeekly:       RuleEveryWeek,
	models.CadenceWeekdays:     RuleEveryWeekday,
	models.CadenceMonthly:      RuleEveryMonth,
	models.CadenceThreePerWeek: RuleMonWedFri,
}

var rrules = map[string]string{
	RuleEveryDay:     "RRULE:FREQ=DAILY",
	RuleEveryWeek:    "RRULE:FREQ=WEEKLY",
	RuleEveryWeekday: "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
	RuleEveryMonth:   "RRULE:FREQ=MONTHLY",
	RuleMonWedFri:    "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR",
}

// RuleFor returns the recurrence rule text for c, or "" for a one-off item.
func RuleFor(c models.Cadence) string {
	return cadenceRules[c]
}

// RRule converts rule text to an RFC 5545 RRULE line.
func RRule(rule string) (string, error) {
	if rule == "" {
		return "", nil
	}
	r, ok := rrules[rule]
	if !ok {
		return "", fmt.Errorf("unknown recurrence rule %q", rule)
	}
	return r, nil
}

// FormatUpcoming renders events one per line as "- summary at start".
func FormatUpcoming(events []models.CalendarEvent, loc *time.Location) string {
	if len(events) == 0 {
		return "No upcoming events found."
	}
	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		start := ev.Start.In(loc).Format("Mon Jan 2 15:04")
		if ev.AllDay {
			start = ev.Start.In(loc).Format("Mon Jan 2") + " (all day)"
		}
		fmt.Fprintf(&b, "- %s at %s", ev.Summary, start)
	}
	return b.String()
}

func sortAndLimit(events []models.CalendarEvent, limit int) []models.CalendarEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}
