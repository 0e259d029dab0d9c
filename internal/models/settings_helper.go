package models

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitline/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingCalendars:
			settings.Calendars = splitList(value)
		case constants.SettingCalendarID:
			settings.CalendarID = value
		case constants.SettingStepMin:
			if _, err := fmt.Sscanf(value, "%d", &settings.StepMin); err != nil {
				return Settings{}, fmt.Errorf("parsing step_min: %w", err)
			}
		case constants.SettingMaxShifts:
			if _, err := fmt.Sscanf(value, "%d", &settings.MaxShifts); err != nil {
				return Settings{}, fmt.Errorf("parsing max_shifts: %w", err)
			}
		case constants.SettingPeriodDays:
			if _, err := fmt.Sscanf(value, "%d", &settings.PeriodDays); err != nil {
				return Settings{}, fmt.Errorf("parsing period_days: %w", err)
			}
		case constants.SettingDefaultTime:
			settings.DefaultTime = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:    settings.Timezone,
		constants.SettingCalendars:   strings.Join(settings.Calendars, ","),
		constants.SettingCalendarID:  settings.CalendarID,
		constants.SettingStepMin:     fmt.Sprintf("%d", settings.StepMin),
		constants.SettingMaxShifts:   fmt.Sprintf("%d", settings.MaxShifts),
		constants.SettingPeriodDays:  fmt.Sprintf("%d", settings.PeriodDays),
		constants.SettingDefaultTime: settings.DefaultTime,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if len(settings.Calendars) == 0 {
		settings.Calendars = splitList(constants.DefaultCalendars)
	}
	if settings.CalendarID == "" {
		settings.CalendarID = constants.DefaultCalendarID
	}
	if settings.StepMin == 0 {
		settings.StepMin = constants.DefaultStepMin
	}
	if settings.MaxShifts == 0 {
		settings.MaxShifts = constants.DefaultMaxShifts
	}
	if settings.PeriodDays == 0 {
		settings.PeriodDays = constants.DefaultPeriodDays
	}
	if settings.DefaultTime == "" {
		settings.DefaultTime = constants.DefaultTimeOfDay
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
