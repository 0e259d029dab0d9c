package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/storage"
)

func (s *Store) SetNote(key, value string) (models.Note, error) {
	key, err := storage.NormalizeNoteKey(key)
	if err != nil {
		return models.Note{}, err
	}
	note := models.Note{Key: key, Value: value, UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	_, err = s.db.Exec(`
		INSERT INTO notes (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		note.Key, note.Value, formatTime(note.UpdatedAt))
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) GetNote(key string) (models.Note, error) {
	key, err := storage.NormalizeNoteKey(key)
	if err != nil {
		return models.Note{}, err
	}
	var note models.Note
	var updatedAt string
	err = s.db.QueryRow("SELECT key, value, updated_at FROM notes WHERE key = ?", key).
		Scan(&note.Key, &note.Value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, storage.NoteNotFound(key)
	}
	if err != nil {
		return models.Note{}, err
	}
	if note.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) ListNotes() ([]models.Note, error) {
	rows, err := s.db.Query("SELECT key, value, updated_at FROM notes ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		var updatedAt string
		if err := rows.Scan(&note.Key, &note.Value, &updatedAt); err != nil {
			return nil, err
		}
		if note.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
