package conflict

import (
	"testing"
	"time"

	"github.com/julianstephens/habitline/internal/models"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{Start: at(7, 0), End: at(7, 30)}, Interval{Start: at(8, 0), End: at(9, 0)}, false},
		{"touching", Interval{Start: at(7, 0), End: at(7, 30)}, Interval{Start: at(7, 30), End: at(8, 0)}, false},
		{"partial", Interval{Start: at(7, 0), End: at(8, 0)}, Interval{Start: at(7, 30), End: at(9, 0)}, true},
		{"contained", Interval{Start: at(7, 0), End: at(10, 0)}, Interval{Start: at(8, 0), End: at(8, 15)}, true},
		{"identical", Interval{Start: at(7, 0), End: at(8, 0)}, Interval{Start: at(7, 0), End: at(8, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := tt.a.Overlaps(tt.b)
			ba := tt.b.Overlaps(tt.a)
			if ab != ba {
				t.Errorf("Overlaps is not symmetric: a,b=%v b,a=%v", ab, ba)
			}
			if ab != tt.want {
				t.Errorf("Overlaps() = %v, want %v", ab, tt.want)
			}
		})
	}
}

func TestOverlapsSymmetryGrid(t *testing.T) {
	// Every pair of 15-minute aligned intervals in a two hour window.
	var spans []Interval
	for s := 0; s < 8; s++ {
		for e := s + 1; e <= 8; e++ {
			spans = append(spans, Interval{Start: at(7, 0).Add(time.Duration(s) * 15 * time.Minute), End: at(7, 0).Add(time.Duration(e) * 15 * time.Minute)})
		}
	}
	for _, a := range spans {
		for _, b := range spans {
			if a.Overlaps(b) != b.Overlaps(a) {
				t.Fatalf("asymmetric for %v / %v", a, b)
			}
			if a.End.Equal(b.Start) && a.Overlaps(b) {
				t.Fatalf("touching intervals reported as overlapping: %v / %v", a, b)
			}
		}
	}
}

func TestFirstFit(t *testing.T) {
	opts := DefaultOptions()

	t.Run("free slot kept", func(t *testing.T) {
		got, ok := FirstFit(at(7, 0), 20*time.Minute, nil, opts)
		if !ok || !got.Start.Equal(at(7, 0)) || !got.End.Equal(at(7, 20)) {
			t.Errorf("FirstFit() = %v, %v", got, ok)
		}
	})

	t.Run("shifts past conflict", func(t *testing.T) {
		busy := []Interval{{Start: at(7, 0), End: at(7, 30)}}
		got, ok := FirstFit(at(7, 0), 20*time.Minute, busy, opts)
		if !ok || !got.Start.Equal(at(7, 30)) {
			t.Errorf("FirstFit() = %v, %v; want start 07:30", got, ok)
		}
	})

	t.Run("shifts past back-to-back conflicts", func(t *testing.T) {
		busy := []Interval{
			{Start: at(7, 0), End: at(8, 0)},
			{Start: at(8, 0), End: at(9, 15)},
		}
		got, ok := FirstFit(at(7, 0), 30*time.Minute, busy, opts)
		if !ok || !got.Start.Equal(at(9, 30)) {
			t.Errorf("FirstFit() = %v, %v; want start 09:30", got, ok)
		}
		for _, b := range busy {
			if got.Overlaps(b) {
				t.Errorf("result %v overlaps busy %v", got, b)
			}
		}
	})

	t.Run("never moves backward", func(t *testing.T) {
		// 06:00-06:30 is free, but the search starts at 07:00.
		busy := []Interval{{Start: at(7, 0), End: at(7, 45)}}
		got, ok := FirstFit(at(7, 0), 30*time.Minute, busy, opts)
		if !ok || got.Start.Before(at(7, 0)) {
			t.Errorf("FirstFit() = %v moved backward", got)
		}
	})

	t.Run("budget exhausted", func(t *testing.T) {
		busy := []Interval{{Start: at(0, 0), End: at(0, 0).Add(48 * time.Hour)}}
		if got, ok := FirstFit(at(7, 0), 30*time.Minute, busy, opts); ok {
			t.Errorf("FirstFit() = %v, want no slot", got)
		}
	})

	t.Run("small budget", func(t *testing.T) {
		busy := []Interval{{Start: at(7, 0), End: at(8, 0)}}
		if _, ok := FirstFit(at(7, 0), 30*time.Minute, busy, Options{Step: 30 * time.Minute, MaxShifts: 2}); ok {
			t.Error("two attempts (07:00, 07:30) should both conflict")
		}
		if got, ok := FirstFit(at(7, 0), 30*time.Minute, busy, Options{Step: 30 * time.Minute, MaxShifts: 3}); !ok || !got.Start.Equal(at(8, 0)) {
			t.Errorf("third attempt should land on 08:00, got %v %v", got, ok)
		}
	})
}

func TestFromBusyDropsAllDay(t *testing.T) {
	busy := []models.BusyInterval{
		{Start: at(0, 0), End: at(0, 0).Add(24 * time.Hour), AllDay: true, Summary: "Holiday"},
		{Start: at(9, 0), End: at(10, 0), Summary: "Standup"},
	}
	got := FromBusy(busy)
	if len(got) != 1 || got[0].Label != "Standup" {
		t.Errorf("FromBusy() = %+v", got)
	}
}

func TestValidateDraft(t *testing.T) {
	d := models.Draft{Items: []models.DraftItem{
		{ID: "existing-1", Kind: models.ItemKindExisting, Summary: "Standup", Start: at(9, 0), End: at(9, 30)},
		{ID: "existing-2", Kind: models.ItemKindExisting, Summary: "Sync", Start: at(9, 15), End: at(9, 45)},
		{ID: "existing-3", Kind: models.ItemKindExisting, Summary: "Holiday", Start: at(0, 0), End: at(23, 59), AllDay: true},
		{ID: "draft-1", Kind: models.ItemKindDraft, Summary: "Stretch", Start: at(9, 30), End: at(9, 40)},
		{ID: "draft-2", Kind: models.ItemKindDraft, Summary: "Read", Start: at(12, 0), End: at(12, 30)},
	}}

	result := ValidateDraft(d)
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict (Sync vs Stretch), got %d:\n%s", len(result.Conflicts), result.FormatReport())
	}
	c := result.Conflicts[0]
	if c.Type != ConflictOverlappingItems || c.Items[0] != "existing-2" || c.Items[1] != "draft-1" {
		t.Errorf("unexpected conflict %+v", c)
	}
}

func TestValidateDraftInvertedItem(t *testing.T) {
	d := models.Draft{Items: []models.DraftItem{
		{ID: "draft-1", Kind: models.ItemKindDraft, Summary: "Run", Start: at(10, 0), End: at(9, 0)},
	}}
	result := ValidateDraft(d)
	if !result.HasConflicts() || result.Conflicts[0].Type != ConflictInvalidDateTime {
		t.Errorf("expected invalid datetime conflict, got %+v", result.Conflicts)
	}
	empty := ValidationResult{}
	if empty.FormatReport() != "No conflicts detected." {
		t.Errorf("FormatReport() on empty = %q", empty.FormatReport())
	}
}
