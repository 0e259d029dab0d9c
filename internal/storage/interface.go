// Package storage persists the habit plan, memory notes, settings and the
// local calendar.
package storage

import (
	"time"

	"github.com/julianstephens/habitline/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habit plan, in append order
	AppendHabit(models.HabitSpec) (models.HabitSpec, error)
	ListHabits() ([]models.HabitSpec, error)

	// Memory notes
	SetNote(key, value string) (models.Note, error)
	GetNote(key string) (models.Note, error)
	ListNotes() ([]models.Note, error)

	// Local calendar
	AddEvent(models.CalendarEvent) error
	ListEvents(calendars []string, before time.Time) ([]models.CalendarEvent, error)

	// Utils
	GetConfigPath() string
}
