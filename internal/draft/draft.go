// Package draft applies user-directed edits to a generated draft. None of
// the edits re-run conflict checking; an edit may introduce an overlap and
// that is accepted as the user's choice.
package draft

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitline/internal/constants"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
	"github.com/julianstephens/habitline/internal/utils"
)

// Lookup finds a draft-kind item by exact id, else by case-insensitive
// substring of its summary. An ambiguous name resolves to the first match
// in item order.
func Lookup(d *models.Draft, ref string) (int, error) {
	if d == nil {
		return -1, apperrors.ErrNoDraft
	}
	for i, item := range d.Items {
		if item.Kind == models.ItemKindDraft && item.ID == ref {
			return i, nil
		}
	}
	needle := strings.ToLower(strings.TrimSpace(ref))
	if needle != "" {
		for i, item := range d.Items {
			if item.Kind == models.ItemKindDraft && strings.Contains(strings.ToLower(item.Summary), needle) {
				return i, nil
			}
		}
	}
	return -1, &apperrors.NotFoundError{Ref: ref}
}

// UpdateRequest carries the optional fields of an edit. Zero values leave
// the field unchanged.
type UpdateRequest struct {
	Date        string `json:"new_date,omitempty"`
	Time        string `json:"new_start_time,omitempty"`
	DurationMin int    `json:"new_duration_minutes,omitempty"`
}

// Update moves or resizes one item, keeping the draft's timezone. Without a
// new duration the existing one is kept.
func Update(d *models.Draft, ref string, req UpdateRequest) (models.DraftItem, error) {
	if err := checkMutable(d); err != nil {
		return models.DraftItem{}, err
	}
	idx, err := Lookup(d, ref)
	if err != nil {
		return models.DraftItem{}, err
	}
	loc, err := utils.LoadLocation(d.Timezone)
	if err != nil {
		return models.DraftItem{}, err
	}

	item := d.Items[idx]
	start := item.Start.In(loc)
	duration := item.Duration()

	if req.Date != "" {
		date, err := utils.ParseDateInLocation(req.Date, loc)
		if err != nil {
			return models.DraftItem{}, &apperrors.ValidationError{Field: "date", Value: req.Date, Allowed: []string{constants.DateFormat}}
		}
		start = time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	}
	if req.Time != "" {
		at, ok := normalize.Parse(req.Time)
		if !ok {
			return models.DraftItem{}, &apperrors.ValidationError{Field: "time", Value: req.Time, Allowed: []string{"HH:MM"}}
		}
		start = at.On(start, loc)
	}
	if req.DurationMin < 0 {
		return models.DraftItem{}, &apperrors.ValidationError{Field: "duration", Value: strconv.Itoa(req.DurationMin)}
	}
	if req.DurationMin > 0 {
		duration = time.Duration(req.DurationMin) * time.Minute
	}

	item.Start = start
	item.End = start.Add(duration)
	d.Items[idx] = item
	return item, nil
}

// Remove deletes one item from the draft.
func Remove(d *models.Draft, ref string) (models.DraftItem, error) {
	if err := checkMutable(d); err != nil {
		return models.DraftItem{}, err
	}
	idx, err := Lookup(d, ref)
	if err != nil {
		return models.DraftItem{}, err
	}
	removed := d.Items[idx]
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	return removed, nil
}

// ForcePlaceRequest describes an item the user wants placed regardless of
// conflicts.
type ForcePlaceRequest struct {
	Habit       string         `json:"habit_name"`
	Date        string         `json:"date"`
	Time        string         `json:"time"`
	DurationMin int            `json:"duration_minutes"`
	Recurrence  models.Cadence `json:"recurrence,omitempty"`
	Description string         `json:"description,omitempty"`
}

// ForcePlace appends an item without conflict checking. Its id is one past
// the highest numeric draft id in use.
func ForcePlace(d *models.Draft, req ForcePlaceRequest) (models.DraftItem, error) {
	if err := checkMutable(d); err != nil {
		return models.DraftItem{}, err
	}
	if strings.TrimSpace(req.Habit) == "" {
		return models.DraftItem{}, &apperrors.ValidationError{Field: "habit_name", Value: req.Habit}
	}
	loc, err := utils.LoadLocation(d.Timezone)
	if err != nil {
		return models.DraftItem{}, err
	}
	date, err := utils.ParseDateInLocation(req.Date, loc)
	if err != nil {
		return models.DraftItem{}, &apperrors.ValidationError{Field: "date", Value: req.Date, Allowed: []string{constants.DateFormat}}
	}
	at, ok := normalize.Parse(req.Time)
	if !ok {
		return models.DraftItem{}, &apperrors.ValidationError{Field: "time", Value: req.Time, Allowed: []string{"HH:MM"}}
	}
	if req.Recurrence != "" {
		c, err := normalize.Cadence(string(req.Recurrence))
		if err != nil {
			return models.DraftItem{}, err
		}
		req.Recurrence = c
	}
	durationMin := req.DurationMin
	if durationMin <= 0 {
		durationMin = constants.DefaultDurationMin
	}

	start := at.On(date, loc)
	item := models.DraftItem{
		ID:          fmt.Sprintf("%s%d", constants.DraftIDPrefix, maxDraftSuffix(d)+1),
		Kind:        models.ItemKindDraft,
		Summary:     req.Habit,
		Start:       start,
		End:         start.Add(time.Duration(durationMin) * time.Minute),
		Recurrence:  req.Recurrence,
		SourceHabit: req.Habit,
		Description: req.Description,
	}
	d.Items = append(d.Items, item)
	return item, nil
}

func maxDraftSuffix(d *models.Draft) int {
	highest := 0
	for _, item := range d.Items {
		if item.Kind != models.ItemKindDraft {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(item.ID, constants.DraftIDPrefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func checkMutable(d *models.Draft) error {
	if d == nil {
		return apperrors.ErrNoDraft
	}
	if d.Status == models.DraftStatusConfirmed {
		return apperrors.ErrAlreadyConfirmed
	}
	return nil
}
