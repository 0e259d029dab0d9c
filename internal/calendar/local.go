package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/utils"
)

// EventStore persists local calendar events.
type EventStore interface {
	AddEvent(ev models.CalendarEvent) error
	// ListEvents returns events in the given calendars that start before
	// the given instant, ordered by start.
	ListEvents(calendars []string, before time.Time) ([]models.CalendarEvent, error)
}

// Local is a calendar kept in the habit store. Recurring events are
// expanded into single occurrences when listed.
type Local struct {
	store EventStore
	loc   *time.Location
}

func NewLocal(store EventStore, loc *time.Location) *Local {
	if loc == nil {
		loc = time.UTC
	}
	return &Local{store: store, loc: loc}
}

func (l *Local) ListBusyIntervals(ctx context.Context, period models.Period, calendars []string) ([]models.BusyInterval, error) {
	occurrences, err := l.occurrences(ctx, calendarsOrDefault(calendars), period)
	if err != nil {
		return nil, err
	}
	busy := make([]models.BusyInterval, 0, len(occurrences))
	for _, ev := range occurrences {
		busy = append(busy, models.BusyInterval{
			Start:         ev.Start,
			End:           ev.End,
			AllDay:        ev.AllDay,
			Summary:       ev.Summary,
			CalendarLabel: ev.CalendarID,
		})
	}
	logger.Debug("Listed busy intervals", "backend", "local", "count", len(busy))
	return busy, nil
}

func (l *Local) CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := RRule(ev.Recurrence); err != nil {
		return "", err
	}
	ev.ID = uuid.New().String()
	if ev.CalendarID == "" {
		ev.CalendarID = constants.DefaultCalendarID
	}
	if ev.TimeZone == "" {
		ev.TimeZone = l.loc.String()
	}
	ev.CreatedAt = time.Now().UTC()
	if err := l.store.AddEvent(ev); err != nil {
		return "", err
	}
	return ev.ID, nil
}

// ListUpcoming returns occurrences starting at or after from within the
// default period window.
func (l *Local) ListUpcoming(ctx context.Context, calendars []string, from time.Time, limit int) ([]models.CalendarEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultUpcomingEvents
	}
	period := models.Period{Start: from, End: from.AddDate(0, 0, constants.DefaultPeriodDays*4)}
	occurrences, err := l.occurrences(ctx, calendarsOrDefault(calendars), period)
	if err != nil {
		return nil, err
	}
	upcoming := occurrences[:0]
	for _, ev := range occurrences {
		if !ev.Start.Before(from) {
			upcoming = append(upcoming, ev)
		}
	}
	return sortAndLimit(upcoming, limit), nil
}

func (l *Local) occurrences(ctx context.Context, calendars []string, period models.Period) ([]models.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	events, err := l.store.ListEvents(calendars, period.End)
	if err != nil {
		return nil, err
	}
	var out []models.CalendarEvent
	for _, ev := range events {
		out = append(out, Expand(ev, period, l.loc)...)
	}
	return sortAndLimit(out, 0), nil
}

// Expand returns the occurrences of ev that overlap period. A one-off event
// yields itself when it overlaps.
func Expand(ev models.CalendarEvent, period models.Period, fallback *time.Location) []models.CalendarEvent {
	overlaps := func(start, end time.Time) bool {
		return start.Before(period.End) && period.Start.Before(end)
	}
	if ev.Recurrence == "" {
		if overlaps(ev.Start, ev.End) {
			return []models.CalendarEvent{ev}
		}
		return nil
	}

	loc := fallback
	if ev.TimeZone != "" {
		if l, err := time.LoadLocation(ev.TimeZone); err == nil {
			loc = l
		}
	}
	first := ev.Start.In(loc)
	length := ev.End.Sub(ev.Start)

	// Occurrences starting a day before the window may still run into it.
	day := utils.StartOfDay(period.Start.In(loc)).AddDate(0, 0, -1)
	if firstDay := utils.StartOfDay(first); day.Before(firstDay) {
		day = firstDay
	}

	var out []models.CalendarEvent
	for ; day.Before(period.End); day = day.AddDate(0, 0, 1) {
		if !occursOn(ev.Recurrence, first, day) {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), first.Hour(), first.Minute(), first.Second(), 0, loc)
		end := start.Add(length)
		if !overlaps(start, end) {
			continue
		}
		occ := ev
		occ.Start, occ.End = start, end
		out = append(out, occ)
	}
	return out
}

func occursOn(rule string, first, day time.Time) bool {
	switch rule {
	case RuleEveryDay:
		return true
	case RuleEveryWeekday:
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case RuleEveryWeek:
		return day.Weekday() == first.Weekday()
	case RuleEveryMonth:
		return day.Day() == first.Day()
	case RuleMonWedFri:
		wd := day.Weekday()
		return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
	default:
		return false
	}
}
