package models

// Settings represents application-wide settings
type Settings struct {
	Timezone    string   `json:"timezone"`     // IANA timezone name, or "Local"
	Calendars   []string `json:"calendars"`    // calendars read for busy intervals
	CalendarID  string   `json:"calendar_id"`  // calendar confirmed events are written to
	StepMin     int      `json:"step_min"`     // first-fit shift step in minutes
	MaxShifts   int      `json:"max_shifts"`   // first-fit attempt budget
	PeriodDays  int      `json:"period_days"`  // default busy-interval window
	DefaultTime string   `json:"default_time"` // fallback time of day (HH:MM)
}
