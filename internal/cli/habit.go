package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
)

type HabitCmd struct {
	Add  HabitAddCmd  `cmd:"" help:"Add a habit to the plan."`
	List HabitListCmd `cmd:"" help:"List the habit plan."`
}

type HabitAddCmd struct {
	Name      string `arg:"" optional:"" help:"Habit name. Omit to fill in an interactive form."`
	Goal      string `help:"Why the habit matters."`
	Cadence   string `help:"daily, weekdays, weekly, 3x per week or monthly." default:"daily"`
	Time      string `help:"Preferred time of day, e.g. 7am, 18:30, after lunch." default:"morning"`
	Duration  int    `help:"Duration in minutes." default:"30"`
	Cue       string `help:"What triggers the habit."`
	TwoMinute string `name:"two-minute" help:"The two-minute version of the habit."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if strings.TrimSpace(c.Name) == "" {
		if err := c.form().Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
	}

	cadence, err := normalize.Cadence(c.Cadence)
	if err != nil {
		return err
	}
	duration := c.Duration
	if duration <= 0 {
		fmt.Printf("Warning: duration %d is not positive, using %d minutes\n", duration, constants.DefaultDurationMin)
		duration = constants.DefaultDurationMin
	}
	resolved, warning := normalize.Time(c.Time)
	if warning != "" {
		fmt.Printf("Warning: %s\n", warning)
	}

	habit, err := ctx.Store.AppendHabit(models.HabitSpec{
		Name:             c.Name,
		Goal:             c.Goal,
		Cadence:          cadence,
		PreferredTimeRaw: c.Time,
		DurationMin:      duration,
		Cue:              c.Cue,
		TwoMinuteVersion: c.TwoMinute,
	})
	if err != nil {
		return err
	}
	logger.Info("habit added", "id", habit.ID, "name", habit.Name, "cadence", habit.Cadence)
	fmt.Printf("Added habit: %s (%s at %s, %d min)\n", habit.Name, habit.Cadence, resolved, habit.DurationMin)
	return nil
}

func (c *HabitAddCmd) form() *huh.Form {
	duration := strconv.Itoa(c.Duration)
	cadenceOptions := make([]huh.Option[string], len(models.Cadences))
	for i, cad := range models.Cadences {
		cadenceOptions[i] = huh.NewOption(strings.ReplaceAll(string(cad), "_", " "), string(cad))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit").
				Value(&c.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().Title("Goal").Value(&c.Goal),
			huh.NewSelect[string]().
				Title("Cadence").
				Options(cadenceOptions...).
				Value(&c.Cadence),
			huh.NewInput().
				Title("Preferred time").
				Description("e.g. 7am, 18:30, after lunch").
				Value(&c.Time),
			huh.NewInput().
				Title("Duration (minutes)").
				Value(&duration).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("duration must be a positive number")
					}
					c.Duration = n
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().Title("Cue").Value(&c.Cue),
			huh.NewInput().Title("Two-minute version").Value(&c.TwoMinute),
		),
	).WithTheme(huh.ThemeDracula())
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Store.ListHabits()
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits saved yet.")
		return nil
	}

	for _, h := range habits {
		resolved, _ := normalize.Time(h.PreferredTimeRaw)
		fmt.Printf("- %s: %s at %s (%q), %d min\n", h.Name, h.Cadence, resolved, h.PreferredTimeRaw, h.DurationMin)
		if h.Goal != "" {
			fmt.Printf("    goal: %s\n", h.Goal)
		}
		if h.Cue != "" {
			fmt.Printf("    cue: %s\n", h.Cue)
		}
		if h.TwoMinuteVersion != "" {
			fmt.Printf("    two-minute version: %s\n", h.TwoMinuteVersion)
		}
	}
	return nil
}
