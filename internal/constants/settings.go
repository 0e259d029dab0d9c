package constants

const (
	SettingTimezone    = "timezone"
	SettingCalendars   = "calendars"
	SettingCalendarID  = "calendar_id"
	SettingStepMin     = "step_min"
	SettingMaxShifts   = "max_shifts"
	SettingPeriodDays  = "period_days"
	SettingDefaultTime = "default_time"

	// DefaultTimezone matches the calendar the original agent wrote to.
	DefaultTimezone  = "America/New_York"
	DefaultCalendars = "primary"
	DefaultStepMin   = 30
)
