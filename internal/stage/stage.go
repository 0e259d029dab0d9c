// Package stage classifies a conversation turn into a stage and returns the
// instructions the conversational model should follow for it.
package stage

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitline/internal/models"
)

//go:embed guidance.yaml
var defaultGuidance []byte

// Signals are the facts the caller extracted from the latest user turn.
type Signals struct {
	HasName         bool              `json:"has_name"`
	HasCadence      bool              `json:"has_cadence"`
	HasTime         bool              `json:"has_time"`
	HasDuration     bool              `json:"has_duration"`
	ReadyToSchedule bool              `json:"ready_to_schedule"`
	Known           map[string]string `json:"known,omitempty"`
}

// State is the persisted context the classifier may consult.
type State struct {
	HabitCount int
	Draft      *models.Draft
}

// Guidance is the classifier's answer.
type Guidance struct {
	Stage        models.Stage `json:"stage"`
	Instructions string       `json:"instructions"`
	Missing      []string     `json:"missing,omitempty"`
	Known        string       `json:"known,omitempty"`
}

// Field names reported as missing, in asking order.
const (
	FieldName     = "name"
	FieldCadence  = "cadence"
	FieldTime     = "preferred_time"
	FieldDuration = "duration"
)

// Classify recomputes the stage from scratch. An open draft always wins.
func Classify(sig Signals, st State) models.Stage {
	switch {
	case st.Draft != nil && st.Draft.Status == models.DraftStatusDraft:
		return models.StageReview
	case sig.ReadyToSchedule && st.HabitCount > 0:
		return models.StageScheduling
	case sig.HasName && sig.HasCadence && sig.HasTime && sig.HasDuration:
		return models.StageConfirmation
	case sig.HasName:
		return models.StageDetailing
	default:
		return models.StageDiscovery
	}
}

// Missing lists the habit fields not yet signalled.
func Missing(sig Signals) []string {
	var missing []string
	if !sig.HasName {
		missing = append(missing, FieldName)
	}
	if !sig.HasCadence {
		missing = append(missing, FieldCadence)
	}
	if !sig.HasTime {
		missing = append(missing, FieldTime)
	}
	if !sig.HasDuration {
		missing = append(missing, FieldDuration)
	}
	return missing
}

// Payloads maps each stage to its instruction template.
type Payloads map[models.Stage]string

var stages = []models.Stage{
	models.StageGreeting,
	models.StageDiscovery,
	models.StageDetailing,
	models.StageConfirmation,
	models.StageScheduling,
	models.StageReview,
}

// DefaultPayloads returns the built-in instructions.
func DefaultPayloads() Payloads {
	p, err := parsePayloads(defaultGuidance)
	if err != nil {
		panic(fmt.Sprintf("embedded guidance is invalid: %v", err))
	}
	return p
}

// LoadPayloads reads a YAML override file. Stages it leaves out keep the
// built-in text.
func LoadPayloads(path string) (Payloads, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guidance file: %w", err)
	}
	override, err := parsePayloads(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse guidance file %s: %w", path, err)
	}
	merged := DefaultPayloads()
	for s, text := range override {
		merged[s] = text
	}
	return merged, nil
}

func parsePayloads(data []byte) (Payloads, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := make(Payloads, len(raw))
	for key, text := range raw {
		s := models.Stage(key)
		if !isStage(s) {
			return nil, fmt.Errorf("unknown stage %q", key)
		}
		p[s] = strings.TrimSpace(text)
	}
	return p, nil
}

func isStage(s models.Stage) bool {
	for _, v := range stages {
		if v == s {
			return true
		}
	}
	return false
}

// Controller pairs the classifier with a payload set.
type Controller struct {
	payloads Payloads
}

func NewController(p Payloads) *Controller {
	if p == nil {
		p = DefaultPayloads()
	}
	return &Controller{payloads: p}
}

// Evaluate classifies the turn and renders its instructions.
func (c *Controller) Evaluate(sig Signals, st State) Guidance {
	stage := Classify(sig, st)
	g := Guidance{Stage: stage, Known: summarize(sig.Known)}
	if stage == models.StageDetailing {
		g.Missing = Missing(sig)
	}
	g.Instructions = c.render(stage, g.Missing, g.Known)
	return g
}

// Greeting renders the opening instructions. known is a one-line summary of
// what is remembered about the user, or empty.
func (c *Controller) Greeting(known string) Guidance {
	if known != "" {
		known = "You already know: " + known
	}
	return Guidance{
		Stage:        models.StageGreeting,
		Known:        known,
		Instructions: c.render(models.StageGreeting, nil, known),
	}
}

func (c *Controller) render(stage models.Stage, missing []string, known string) string {
	r := strings.NewReplacer(
		"{missing}", strings.Join(missing, ", "),
		"{known}", known,
	)
	return strings.TrimSpace(r.Replace(c.payloads[stage]))
}

// summarize renders known fields as "key: value" pairs in key order.
func summarize(known map[string]string) string {
	if len(known) == 0 {
		return ""
	}
	keys := make([]string, 0, len(known))
	for k := range known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(known[k]); v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}
