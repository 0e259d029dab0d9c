package sqlite

import (
	"strings"
	"time"

	"github.com/julianstephens/habitline/internal/models"
)

func (s *Store) AddEvent(ev models.CalendarEvent) error {
	allDay := 0
	if ev.AllDay {
		allDay = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO events (id, calendar_id, summary, description, start_at, end_at, all_day, recurrence, time_zone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.CalendarID, ev.Summary, ev.Description, formatTime(ev.Start), formatTime(ev.End),
		allDay, ev.Recurrence, ev.TimeZone, formatTime(ev.CreatedAt))
	return err
}

func (s *Store) ListEvents(calendars []string, before time.Time) ([]models.CalendarEvent, error) {
	if len(calendars) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(calendars)), ",")
	args := make([]any, 0, len(calendars)+1)
	for _, c := range calendars {
		args = append(args, c)
	}
	args = append(args, formatTime(before))

	rows, err := s.db.Query(`
		SELECT id, calendar_id, summary, description, start_at, end_at, all_day, recurrence, time_zone, created_at
		FROM events
		WHERE calendar_id IN (`+placeholders+`) AND start_at < ?
		ORDER BY start_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		var start, end, createdAt string
		var allDay int
		if err := rows.Scan(&ev.ID, &ev.CalendarID, &ev.Summary, &ev.Description, &start, &end,
			&allDay, &ev.Recurrence, &ev.TimeZone, &createdAt); err != nil {
			return nil, err
		}
		ev.AllDay = allDay != 0
		if ev.Start, err = parseTime("start_at", start); err != nil {
			return nil, err
		}
		if ev.End, err = parseTime("end_at", end); err != nil {
			return nil, err
		}
		if ev.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		ev.Start, ev.End = inZone(ev.Start, ev.TimeZone), inZone(ev.End, ev.TimeZone)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func inZone(t time.Time, tz string) time.Time {
	if tz == "" {
		return t
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return t
	}
	return t.In(loc)
}
