package postgres

import (
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitline/internal/models"
)

func (s *Store) AddEvent(ev models.CalendarEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO events (id, calendar_id, summary, description, start_at, end_at, all_day, recurrence, time_zone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.ID, ev.CalendarID, ev.Summary, ev.Description, ev.Start, ev.End,
		ev.AllDay, ev.Recurrence, ev.TimeZone, ev.CreatedAt)
	return err
}

func (s *Store) ListEvents(calendars []string, before time.Time) ([]models.CalendarEvent, error) {
	if len(calendars) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, calendar_id, summary, description, start_at, end_at, all_day, recurrence, time_zone, created_at
		FROM events
		WHERE calendar_id = ANY($1) AND start_at < $2
		ORDER BY start_at, id`, pq.Array(calendars), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		if err := rows.Scan(&ev.ID, &ev.CalendarID, &ev.Summary, &ev.Description, &ev.Start, &ev.End,
			&ev.AllDay, &ev.Recurrence, &ev.TimeZone, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if loc, err := time.LoadLocation(ev.TimeZone); err == nil && ev.TimeZone != "" {
			ev.Start, ev.End = ev.Start.In(loc), ev.End.In(loc)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
