package models

import "time"

// Cadence is the canonical recurrence of a habit.
type Cadence string

const (
	CadenceDaily        Cadence = "daily"
	CadenceWeekdays     Cadence = "weekdays"
	CadenceWeekly       Cadence = "weekly"
	CadenceThreePerWeek Cadence = "3x_per_week"
	CadenceMonthly      Cadence = "monthly"
)

// Cadences lists every valid cadence in display order.
var Cadences = []Cadence{
	CadenceDaily,
	CadenceWeekdays,
	CadenceWeekly,
	CadenceThreePerWeek,
	CadenceMonthly,
}

// Valid reports whether c is one of the enumerated cadences.
func (c Cadence) Valid() bool {
	for _, v := range Cadences {
		if c == v {
			return true
		}
	}
	return false
}

// HabitSpec is one entry of the persisted habit plan.
type HabitSpec struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Goal             string    `json:"goal,omitempty"`
	Cadence          Cadence   `json:"cadence"`
	PreferredTimeRaw string    `json:"preferred_time_raw"`
	DurationMin      int       `json:"duration_minutes"`
	Cue              string    `json:"cue,omitempty"`
	TwoMinuteVersion string    `json:"two_minute_version,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Note is a remembered fact about the user.
type Note struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
