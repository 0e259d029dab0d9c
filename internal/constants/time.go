package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// StorageTimeFormat is how instants are persisted: always UTC so that
	// lexical ordering in TEXT columns matches chronological ordering.
	StorageTimeFormat = "2006-01-02T15:04:05Z"

	// DefaultTimeOfDay is used when a preferred time cannot be understood.
	DefaultTimeOfDay = "08:00"
)
