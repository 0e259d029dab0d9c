package stage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/habitline/internal/models"
)

func TestClassify(t *testing.T) {
	open := &models.Draft{Status: models.DraftStatusDraft}
	confirmed := &models.Draft{Status: models.DraftStatusConfirmed}
	all := Signals{HasName: true, HasCadence: true, HasTime: true, HasDuration: true}

	tests := []struct {
		name string
		sig  Signals
		st   State
		want models.Stage
	}{
		{"nothing known", Signals{}, State{}, models.StageDiscovery},
		{"open draft wins over everything", Signals{HasName: true, ReadyToSchedule: true}, State{HabitCount: 2, Draft: open}, models.StageReview},
		{"confirmed draft does not force review", Signals{}, State{Draft: confirmed}, models.StageDiscovery},
		{"ready with saved habits", Signals{ReadyToSchedule: true}, State{HabitCount: 1}, models.StageScheduling},
		{"ready without habits", Signals{ReadyToSchedule: true}, State{}, models.StageDiscovery},
		{"all four fields", all, State{}, models.StageConfirmation},
		{"name only", Signals{HasName: true}, State{}, models.StageDetailing},
		{"name and time", Signals{HasName: true, HasTime: true}, State{HabitCount: 3}, models.StageDetailing},
		{"details without a name", Signals{HasCadence: true, HasTime: true, HasDuration: true}, State{}, models.StageDiscovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.sig, tt.st); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyAllFourAlwaysConfirms(t *testing.T) {
	// Without a saved habit or open draft, readiness cannot matter.
	for _, ready := range []bool{false, true} {
		sig := Signals{HasName: true, HasCadence: true, HasTime: true, HasDuration: true, ReadyToSchedule: ready}
		if got := Classify(sig, State{}); got != models.StageConfirmation {
			t.Errorf("ready=%v: Classify() = %q, want confirmation", ready, got)
		}
	}
}

func TestClassifyNeverReturnsGreeting(t *testing.T) {
	for mask := 0; mask < 32; mask++ {
		sig := Signals{
			HasName:         mask&1 != 0,
			HasCadence:      mask&2 != 0,
			HasTime:         mask&4 != 0,
			HasDuration:     mask&8 != 0,
			ReadyToSchedule: mask&16 != 0,
		}
		for _, st := range []State{{}, {HabitCount: 1}, {Draft: &models.Draft{Status: models.DraftStatusDraft}}} {
			if got := Classify(sig, st); got == models.StageGreeting {
				t.Fatalf("Classify(%+v, %+v) returned greeting", sig, st)
			}
		}
	}
}

func TestMissing(t *testing.T) {
	got := Missing(Signals{HasName: true, HasTime: true})
	if diff := cmp.Diff([]string{FieldCadence, FieldDuration}, got); diff != "" {
		t.Errorf("Missing() mismatch (-want +got):\n%s", diff)
	}
	if got := Missing(Signals{HasName: true, HasCadence: true, HasTime: true, HasDuration: true}); len(got) != 0 {
		t.Errorf("Missing() = %v, want none", got)
	}
}

func TestEvaluate(t *testing.T) {
	c := NewController(nil)

	g := c.Evaluate(Signals{HasName: true, HasCadence: true, Known: map[string]string{"name": "Meditate", "cadence": "daily"}}, State{})
	if g.Stage != models.StageDetailing {
		t.Fatalf("Stage = %q, want detailing", g.Stage)
	}
	if g.Known != "cadence: daily, name: Meditate" {
		t.Errorf("Known = %q", g.Known)
	}
	if !strings.Contains(g.Instructions, "Still needed: preferred_time, duration.") {
		t.Errorf("Instructions missing the field list:\n%s", g.Instructions)
	}
	if strings.Contains(g.Instructions, "{") {
		t.Errorf("unrendered placeholder in:\n%s", g.Instructions)
	}

	review := c.Evaluate(Signals{}, State{Draft: &models.Draft{Status: models.DraftStatusDraft}})
	if review.Stage != models.StageReview || len(review.Missing) != 0 || review.Instructions == "" {
		t.Errorf("unexpected review guidance %+v", review)
	}
}

func TestGreeting(t *testing.T) {
	c := NewController(nil)

	g := c.Greeting("")
	if g.Stage != models.StageGreeting || strings.Contains(g.Instructions, "already know") {
		t.Errorf("unexpected greeting %+v", g)
	}
	g = c.Greeting("prefers mornings")
	if !strings.Contains(g.Instructions, "You already know: prefers mornings") {
		t.Errorf("greeting should mention notes:\n%s", g.Instructions)
	}
}

func TestDefaultPayloadsCoverEveryStage(t *testing.T) {
	p := DefaultPayloads()
	for _, s := range stages {
		if strings.TrimSpace(p[s]) == "" {
			t.Errorf("no default payload for %q", s)
		}
	}
}

func TestLoadPayloads(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "guidance.yaml")
	if err := os.WriteFile(path, []byte("review: Keep it short.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPayloads(path)
	if err != nil {
		t.Fatalf("LoadPayloads() error = %v", err)
	}
	if p[models.StageReview] != "Keep it short." {
		t.Errorf("override not applied: %q", p[models.StageReview])
	}
	if p[models.StageDiscovery] != DefaultPayloads()[models.StageDiscovery] {
		t.Error("stages left out of the override should keep defaults")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("celebration: hooray\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPayloads(bad); err == nil {
		t.Error("expected error for unknown stage key")
	}
	if _, err := LoadPayloads(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
