package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
	"github.com/julianstephens/habitline/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone    *string  `help:"IANA timezone, or Local."`
	Calendars   []string `help:"Calendars read for busy intervals." sep:","`
	CalendarID  *string  `name:"calendar-id" help:"Calendar confirmed events are written to."`
	StepMin     *int     `name:"step-min" help:"Minutes a habit moves per placement attempt."`
	MaxShifts   *int     `name:"max-shifts" help:"Placement attempts before a habit is skipped."`
	PeriodDays  *int     `name:"period-days" help:"Default scheduling window in days."`
	DefaultTime *string  `name:"default-time" help:"Time of day used when a preferred time is not understood."`
}

func (c *SettingsCmd) Run(ctx *Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:      %s\n", settings.Timezone)
		fmt.Printf("  Calendars:     %s\n", strings.Join(settings.Calendars, ", "))
		fmt.Printf("  Calendar ID:   %s\n", settings.CalendarID)
		fmt.Printf("  Step:          %d min\n", settings.StepMin)
		fmt.Printf("  Max Shifts:    %d\n", settings.MaxShifts)
		fmt.Printf("  Period:        %d days\n", settings.PeriodDays)
		fmt.Printf("  Default Time:  %s\n", settings.DefaultTime)
		return nil
	}

	updated, err := c.apply(&settings)
	if err != nil {
		return err
	}
	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}

func (c *SettingsCmd) apply(settings *models.Settings) (bool, error) {
	updated := false
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return false, fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if len(c.Calendars) > 0 {
		settings.Calendars = c.Calendars
		updated = true
	}
	if c.CalendarID != nil {
		settings.CalendarID = *c.CalendarID
		updated = true
	}
	for _, v := range []struct {
		name string
		in   *int
		out  *int
	}{
		{"step-min", c.StepMin, &settings.StepMin},
		{"max-shifts", c.MaxShifts, &settings.MaxShifts},
		{"period-days", c.PeriodDays, &settings.PeriodDays},
	} {
		if v.in == nil {
			continue
		}
		if *v.in <= 0 {
			return false, fmt.Errorf("--%s must be positive", v.name)
		}
		*v.out = *v.in
		updated = true
	}
	if c.DefaultTime != nil {
		t, ok := normalize.Parse(*c.DefaultTime)
		if !ok {
			return false, fmt.Errorf("could not understand time %q", *c.DefaultTime)
		}
		settings.DefaultTime = t.String()
		updated = true
	}
	return updated, nil
}
