package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
)

// ValidateCmd checks the stored habit plan for entries the scheduler would
// skip or default.
type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	habits, err := ctx.Store.ListHabits()
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}

	fmt.Printf("Validating %d habit(s)...\n\n", len(habits))
	problems := validateHabits(habits)
	if len(problems) == 0 {
		fmt.Println("No problems detected.")
		return nil
	}
	fmt.Println("Problems detected:")
	for _, p := range problems {
		fmt.Printf("- %s\n", p)
	}
	return nil
}

// validateHabits reports invalid cadences, unrecognized times, non-positive
// durations and duplicate names.
func validateHabits(habits []models.HabitSpec) []string {
	var problems []string
	seen := make(map[string]bool)
	for _, h := range habits {
		if !h.Cadence.Valid() {
			problems = append(problems, fmt.Sprintf("%s: cadence %q is not recognized and will be skipped", h.Name, h.Cadence))
		}
		if _, ok := normalize.Parse(h.PreferredTimeRaw); !ok {
			problems = append(problems, fmt.Sprintf("%s: time %q is not recognized and will default to %s", h.Name, h.PreferredTimeRaw, normalize.DefaultTime))
		}
		if h.DurationMin <= 0 {
			problems = append(problems, fmt.Sprintf("%s: duration %d is not positive", h.Name, h.DurationMin))
		}
		key := strings.ToLower(h.Name)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("%s: duplicate habit name", h.Name))
		}
		seen[key] = true
	}
	return problems
}
