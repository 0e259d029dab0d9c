package conflict

import (
	"fmt"
	"sort"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictOverlappingItems ConflictType = "overlapping_items"
	ConflictInvalidDateTime  ConflictType = "invalid_datetime"
)

// Conflict represents a detected conflict in a draft
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // item ids involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, c := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", c.Description)
	}
	return report
}

// ValidateDraft reports draft items that overlap each other or a timed
// existing entry, and items whose end is not after their start. Updates and
// forced placements skip conflict checking, so this is how callers learn
// about the overlaps they accepted.
func ValidateDraft(d models.Draft) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	var timed []models.DraftItem
	for _, item := range d.Items {
		if item.AllDay {
			continue
		}
		if !item.End.After(item.Start) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("%q ends at or before it starts", item.Summary),
				Items:       []string{item.ID},
			})
			continue
		}
		timed = append(timed, item)
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Start.Before(timed[j].Start)
	})

	// O(n²) over timed items; drafts hold a week of entries at most.
	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			a, b := timed[i], timed[j]
			if !b.Start.Before(a.End) {
				break
			}
			if a.Kind == models.ItemKindExisting && b.Kind == models.ItemKindExisting {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type: ConflictOverlappingItems,
				Description: fmt.Sprintf("%q (%s-%s) overlaps %q (%s-%s) on %s",
					a.Summary, a.Start.Format(constants.TimeFormat), a.End.Format(constants.TimeFormat),
					b.Summary, b.Start.Format(constants.TimeFormat), b.End.Format(constants.TimeFormat),
					a.Start.Format(constants.DateFormat)),
				Items: []string{a.ID, b.ID},
			})
		}
	}

	return result
}
