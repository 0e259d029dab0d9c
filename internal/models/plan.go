package models

import (
	"fmt"
	"time"
)

type ItemKind string

const (
	ItemKindExisting ItemKind = "existing"
	ItemKindDraft    ItemKind = "draft"
)

type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusConfirmed DraftStatus = "confirmed"
)

// CanonicalTime is a 24-hour time of day.
type CanonicalTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t CanonicalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at this time of day on the given date in loc.
func (t CanonicalTime) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

// BusyInterval is a calendar entry read from the backend.
type BusyInterval struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	AllDay        bool      `json:"all_day"`
	Summary       string    `json:"summary"`
	CalendarLabel string    `json:"calendar_label,omitempty"`
}

// Period is the window a draft was generated for.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type DraftItem struct {
	ID          string    `json:"id"`
	Kind        ItemKind  `json:"kind"`
	Summary     string    `json:"summary"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Recurrence  Cadence   `json:"recurrence,omitempty"` // empty when the item does not repeat
	SourceHabit string    `json:"source_habit,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Duration returns the length of the item.
func (i DraftItem) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// ItemError records a per-item backend failure during confirmation.
type ItemError struct {
	ItemID  string `json:"item_id"`
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// ConfirmSummary is the outcome of writing a draft to the calendar.
type ConfirmSummary struct {
	Created     int         `json:"created"`
	Failed      int         `json:"failed"`
	Errors      []ItemError `json:"errors,omitempty"`
	EventRefs   []string    `json:"event_refs,omitempty"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
}

type Draft struct {
	Timezone     string          `json:"timezone"`
	Period       Period          `json:"period"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Status       DraftStatus     `json:"status"`
	Items        []DraftItem     `json:"items"`
	Confirmation *ConfirmSummary `json:"confirmation,omitempty"`
}

// DraftItems returns only the proposed occurrences.
func (d *Draft) DraftItems() []DraftItem {
	var items []DraftItem
	for _, item := range d.Items {
		if item.Kind == ItemKindDraft {
			items = append(items, item)
		}
	}
	return items
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *Draft) Clone() Draft {
	c := *d
	c.Items = append([]DraftItem(nil), d.Items...)
	if d.Confirmation != nil {
		conf := *d.Confirmation
		conf.Errors = append([]ItemError(nil), d.Confirmation.Errors...)
		conf.EventRefs = append([]string(nil), d.Confirmation.EventRefs...)
		c.Confirmation = &conf
	}
	return c
}
