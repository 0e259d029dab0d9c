package sqlite

import (
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/storage"
)

func (s *Store) AppendHabit(h models.HabitSpec) (models.HabitSpec, error) {
	h, err := storage.PrepareHabit(h)
	if err != nil {
		return h, err
	}
	_, err = s.db.Exec(`
		INSERT INTO habits (id, name, goal, cadence, preferred_time_raw, duration_min, cue, two_minute_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Goal, string(h.Cadence), h.PreferredTimeRaw, h.DurationMin,
		h.Cue, h.TwoMinuteVersion, formatTime(h.CreatedAt))
	if err != nil {
		return h, err
	}
	return h, nil
}

func (s *Store) ListHabits() ([]models.HabitSpec, error) {
	rows, err := s.db.Query(`
		SELECT id, name, goal, cadence, preferred_time_raw, duration_min, cue, two_minute_version, created_at
		FROM habits ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.HabitSpec
	for rows.Next() {
		var h models.HabitSpec
		var cadence, createdAt string
		if err := rows.Scan(&h.ID, &h.Name, &h.Goal, &cadence, &h.PreferredTimeRaw, &h.DurationMin,
			&h.Cue, &h.TwoMinuteVersion, &createdAt); err != nil {
			return nil, err
		}
		h.Cadence = models.Cadence(cadence)
		if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}
