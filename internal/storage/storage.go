package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/models"
)

// IsPostgres reports whether config is a PostgreSQL connection URL rather
// than a SQLite file path.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// PrepareHabit validates h and fills its id and creation time.
func PrepareHabit(h models.HabitSpec) (models.HabitSpec, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return h, &apperrors.ValidationError{Field: "name", Value: h.Name}
	}
	if !h.Cadence.Valid() {
		allowed := make([]string, len(models.Cadences))
		for i, c := range models.Cadences {
			allowed[i] = string(c)
		}
		return h, &apperrors.ValidationError{Field: "cadence", Value: string(h.Cadence), Allowed: allowed}
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	return h, nil
}

// NormalizeNoteKey trims and lower-cases a note key.
func NormalizeNoteKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", fmt.Errorf("%w: note key cannot be empty", apperrors.ErrValidation)
	}
	return key, nil
}

// NoteNotFound is returned by GetNote for a missing key.
func NoteNotFound(key string) error {
	return &apperrors.NotFoundError{What: "note", Ref: key}
}
