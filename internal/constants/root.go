package constants

import "time"

const (
	AppName            = "habitline"
	DefaultKeyringUser = "database-connection"
	OAuthKeyringUser   = "google-oauth-token"
	DefaultConfigPath  = "~/.config/habitline/habitline.db"
	Version            = "v0.3.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitline-"
	BackupFileSuffix = ".db"

	// Placement search constants
	DefaultShiftStep      = 30 * time.Minute
	DefaultMaxShifts      = 48
	DefaultDurationMin    = 30
	DefaultPeriodDays     = 7
	DefaultUpcomingEvents = 10

	// DefaultCalendarID is the calendar confirmed events are written to.
	DefaultCalendarID = "primary"

	// Draft item id prefixes
	DraftIDPrefix    = "draft-"
	ExistingIDPrefix = "existing-"

	// Transport message types
	MessageTypeStatus = "status"
	MessageTypeDraft  = "draft"

	// Inbound UI actions
	ActionConfirm    = "confirm"
	ActionUpdateItem = "update_item"

	// Tool result kinds
	KindOK               = "ok"
	KindValidation       = "validation_error"
	KindNotFound         = "not_found"
	KindNoSlot           = "no_slot_found"
	KindBackend          = "backend_error"
	KindAlreadyConfirmed = "already_confirmed"
	KindBadRequest       = "bad_request"
)
