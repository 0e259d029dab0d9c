package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
)

func newEditFormModel(item models.DraftItem, loc *time.Location) *EditFormModel {
	start := item.Start.In(loc)
	return &EditFormModel{
		Date:     start.Format(constants.DateFormat),
		Time:     start.Format(constants.TimeFormat),
		Duration: strconv.Itoa(int(item.Duration().Minutes())),
	}
}

// NewEditForm creates the form for moving or resizing a draft item.
func NewEditForm(title string, fm *EditFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(title),
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&fm.Date).
				Validate(func(s string) error {
					if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("date must be YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().
				Title("Start time").
				Description("e.g. 07:30, 6pm, morning").
				Value(&fm.Time).
				Validate(func(s string) error {
					if _, ok := normalize.Parse(s); !ok {
						return fmt.Errorf("could not understand %q", s)
					}
					return nil
				}),
			huh.NewInput().
				Title("Duration (min)").
				Value(&fm.Duration).
				Validate(func(s string) error {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i <= 0 {
						return fmt.Errorf("duration must be a positive number of minutes")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// updateRequest turns the form into an edit. Validation has already run.
func (fm *EditFormModel) updateRequest() draft.UpdateRequest {
	dur, _ := strconv.Atoi(strings.TrimSpace(fm.Duration))
	return draft.UpdateRequest{
		Date:        strings.TrimSpace(fm.Date),
		Time:        strings.TrimSpace(fm.Time),
		DurationMin: dur,
	}
}
