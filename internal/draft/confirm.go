package draft

import (
	"context"
	"time"

	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/constants"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
)

// Confirmer writes draft items to a calendar.
type Confirmer struct {
	writer     calendar.EventWriter
	calendarID string
	now        func() time.Time
}

func NewConfirmer(writer calendar.EventWriter, calendarID string) *Confirmer {
	if calendarID == "" {
		calendarID = constants.DefaultCalendarID
	}
	return &Confirmer{writer: writer, calendarID: calendarID, now: time.Now}
}

// ConfirmResult reports the outcome of Confirm. AlreadyConfirmed is set when
// the draft had been confirmed by an earlier call; Summary then repeats the
// earlier outcome.
type ConfirmResult struct {
	Summary          models.ConfirmSummary `json:"summary"`
	AlreadyConfirmed bool                  `json:"already_confirmed"`
}

// Confirm creates one event per draft-kind item. A failed item is recorded
// and the rest are still attempted; the draft becomes confirmed either way.
func (c *Confirmer) Confirm(ctx context.Context, d *models.Draft) (ConfirmResult, error) {
	if d == nil {
		return ConfirmResult{}, apperrors.ErrNoDraft
	}
	if d.Status == models.DraftStatusConfirmed {
		var prior models.ConfirmSummary
		if d.Confirmation != nil {
			prior = *d.Confirmation
		}
		return ConfirmResult{Summary: prior, AlreadyConfirmed: true}, nil
	}

	var summary models.ConfirmSummary
	for _, item := range d.DraftItems() {
		ref, err := c.writer.CreateEvent(ctx, models.CalendarEvent{
			CalendarID:  c.calendarID,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       item.Start,
			End:         item.End,
			AllDay:      item.AllDay,
			Recurrence:  calendar.RuleFor(item.Recurrence),
			TimeZone:    d.Timezone,
		})
		if err != nil {
			berr := &apperrors.BackendError{Op: "create", ItemID: item.ID, Err: err}
			summary.Failed++
			summary.Errors = append(summary.Errors, models.ItemError{
				ItemID:  item.ID,
				Summary: item.Summary,
				Message: berr.Error(),
			})
			logger.Warn("Failed to create event", "item", item.ID, "error", err)
			continue
		}
		summary.Created++
		summary.EventRefs = append(summary.EventRefs, ref)
	}

	summary.ConfirmedAt = c.now()
	d.Status = models.DraftStatusConfirmed
	d.Confirmation = &summary

	logger.Info("Confirmed draft", "created", summary.Created, "failed", summary.Failed)
	return ConfirmResult{Summary: summary}, nil
}
