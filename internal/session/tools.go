package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/conflict"
	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
	"github.com/julianstephens/habitline/internal/scheduler"
	"github.com/julianstephens/habitline/internal/stage"
	"github.com/julianstephens/habitline/internal/storage"
	"github.com/julianstephens/habitline/internal/utils"
)

// ToolResult is what the conversational model sees. Failures are reported
// here with their kind, never dropped.
type ToolResult struct {
	OK      bool   `json:"ok"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type toolFunc func(ctx context.Context, s *Session, args json.RawMessage) (ToolResult, error)

var tools = map[string]toolFunc{
	"update_stage":         updateStage,
	"save_habit":           saveHabit,
	"list_habits":          listHabits,
	"generate_schedule":    generateSchedule,
	"update_draft_item":    updateDraftItem,
	"remove_draft_item":    removeDraftItem,
	"force_place":          forcePlace,
	"confirm_schedule":     confirmSchedule,
	"save_note":            saveNote,
	"recall_note":          recallNote,
	"list_notes":           listNotes,
	"list_calendar_events": listCalendarEvents,
}

// ToolNames lists the registered tools in name order.
func ToolNames() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallTool runs one named tool against the session.
func (s *Session) CallTool(ctx context.Context, name string, args json.RawMessage) ToolResult {
	fn, ok := tools[name]
	if !ok {
		return ToolResult{Kind: constants.KindBadRequest, Message: fmt.Sprintf("unknown tool %q", name)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, name, fn, args)
}

func (s *Session) run(ctx context.Context, name string, fn toolFunc, args json.RawMessage) ToolResult {
	res, err := fn(ctx, s, args)
	if err != nil {
		res = ToolResult{Kind: apperrors.Kind(err), Message: err.Error()}
		logger.Warn("Tool failed", "session", s.ID, "tool", name, "kind", res.Kind, "error", err)
		return res
	}
	res.OK = true
	if res.Kind == "" {
		res.Kind = constants.KindOK
	}
	logger.Info("Tool called", "session", s.ID, "tool", name, "kind", res.Kind)
	return res
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func updateStage(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var sig stage.Signals
	if err := decodeArgs(args, &sig); err != nil {
		return ToolResult{}, err
	}
	habits, err := s.deps.Store.ListHabits()
	if err != nil {
		return ToolResult{}, err
	}
	g := s.deps.Stage.Evaluate(sig, stage.State{HabitCount: len(habits), Draft: s.draft})
	s.stage = g.Stage
	return ToolResult{Message: g.Instructions, Data: g}, nil
}

type saveHabitArgs struct {
	Name             string `json:"name"`
	Goal             string `json:"goal"`
	Cadence          string `json:"cadence"`
	PreferredTime    string `json:"preferred_time"`
	DurationMin      int    `json:"duration_minutes"`
	Cue              string `json:"cue"`
	TwoMinuteVersion string `json:"two_minute_version"`
}

func saveHabit(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a saveHabitArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	cadence, err := normalize.Cadence(a.Cadence)
	if err != nil {
		return ToolResult{}, err
	}
	at, warning := normalize.Time(a.PreferredTime)

	h, err := s.deps.Store.AppendHabit(models.HabitSpec{
		Name:             a.Name,
		Goal:             a.Goal,
		Cadence:          cadence,
		PreferredTimeRaw: a.PreferredTime,
		DurationMin:      a.DurationMin,
		Cue:              a.Cue,
		TwoMinuteVersion: a.TwoMinuteVersion,
	})
	if err != nil {
		return ToolResult{}, err
	}

	msg := fmt.Sprintf("Saved %s: %s at %s", h.Name, h.Cadence, at)
	if warning != "" {
		msg += " (" + string(warning) + ")"
	}
	return ToolResult{Message: msg, Data: h}, nil
}

func listHabits(_ context.Context, s *Session, _ json.RawMessage) (ToolResult, error) {
	habits, err := s.deps.Store.ListHabits()
	if err != nil {
		return ToolResult{}, err
	}
	if len(habits) == 0 {
		return ToolResult{Message: "No habits saved yet.", Data: habits}, nil
	}
	lines := make([]string, len(habits))
	for i, h := range habits {
		lines[i] = fmt.Sprintf("- %s: %s, %s, %d min", h.Name, h.Cadence, h.PreferredTimeRaw, h.DurationMin)
	}
	return ToolResult{Message: strings.Join(lines, "\n"), Data: habits}, nil
}

type generateArgs struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
}

func generateSchedule(ctx context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a generateArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	now := s.deps.now()
	days := a.Days
	if days <= 0 {
		days = s.deps.Settings.PeriodDays
	}
	period := scheduler.DefaultPeriod(now, days)
	if a.StartDate != "" {
		start, err := utils.ParseDateInLocation(a.StartDate, s.deps.Location)
		if err != nil {
			return ToolResult{}, &apperrors.ValidationError{Field: "start_date", Value: a.StartDate}
		}
		period = models.Period{Start: start, End: start.AddDate(0, 0, days)}
	}

	habits, err := s.deps.Store.ListHabits()
	if err != nil {
		return ToolResult{}, err
	}
	if len(habits) == 0 {
		return ToolResult{}, &apperrors.NotFoundError{What: "habit", Ref: "*"}
	}

	busy, err := s.deps.Calendar.ListBusyIntervals(ctx, period, s.deps.Settings.Calendars)
	if err != nil {
		return ToolResult{}, &apperrors.BackendError{Op: "list", Err: err}
	}

	result := s.deps.Scheduler.Generate(scheduler.Request{
		Habits:   habits,
		Busy:     busy,
		Location: s.deps.Location,
		Period:   period,
		Now:      now,
	})
	d := result.Draft
	s.draft = &d
	s.busy = busy
	s.stage = models.StageReview

	msg := summarizeGeneration(result)
	s.publishDraft(msg)
	return ToolResult{Message: msg, Data: result}, nil
}

func summarizeGeneration(r scheduler.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Placed %d habit(s)", len(r.Placed))
	if len(r.Shifted) > 0 {
		fmt.Fprintf(&b, "; moved to avoid conflicts: %s", strings.Join(r.Shifted, ", "))
	}
	for _, skip := range r.Skipped {
		fmt.Fprintf(&b, "\nSkipped %s: %s", skip.Habit, skip.Reason)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}
	return b.String()
}

type updateArgs struct {
	ItemRef string `json:"item_ref"`
	draft.UpdateRequest
}

func updateDraftItem(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a updateArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	return s.update(a.ItemRef, a.UpdateRequest)
}

func (s *Session) update(ref string, req draft.UpdateRequest) (ToolResult, error) {
	item, err := draft.Update(s.draft, ref, req)
	if err != nil {
		return ToolResult{}, err
	}
	msg := fmt.Sprintf("Moved %s (%s) to %s", item.Summary, item.ID, describeSlot(item))
	if report := conflict.ValidateDraft(*s.draft); report.HasConflicts() {
		msg += "\n" + report.FormatReport()
	}
	s.publishDraft(msg)
	return ToolResult{Message: msg, Data: item}, nil
}

type refArgs struct {
	ItemRef string `json:"item_ref"`
}

func removeDraftItem(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a refArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	item, err := draft.Remove(s.draft, a.ItemRef)
	if err != nil {
		return ToolResult{}, err
	}
	msg := fmt.Sprintf("Removed %s (%s)", item.Summary, item.ID)
	s.publishDraft(msg)
	return ToolResult{Message: msg, Data: item}, nil
}

func forcePlace(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var req draft.ForcePlaceRequest
	if err := decodeArgs(args, &req); err != nil {
		return ToolResult{}, err
	}
	item, err := draft.ForcePlace(s.draft, req)
	if err != nil {
		return ToolResult{}, err
	}
	msg := fmt.Sprintf("Placed %s (%s) at %s", item.Summary, item.ID, describeSlot(item))
	s.publishDraft(msg)
	return ToolResult{Message: msg, Data: item}, nil
}

func confirmSchedule(ctx context.Context, s *Session, _ json.RawMessage) (ToolResult, error) {
	return s.confirm(ctx)
}

func (s *Session) confirm(ctx context.Context) (ToolResult, error) {
	c := draft.NewConfirmer(s.deps.Calendar, s.deps.Settings.CalendarID)
	res, err := c.Confirm(ctx, s.draft)
	if err != nil {
		return ToolResult{}, err
	}

	sum := res.Summary
	msg := fmt.Sprintf("Created %d event(s)", sum.Created)
	if sum.Failed > 0 {
		msg += fmt.Sprintf(", %d failed", sum.Failed)
		for _, e := range sum.Errors {
			msg += fmt.Sprintf("\n- %s: %s", e.Summary, e.Message)
		}
	}
	if res.AlreadyConfirmed {
		msg = "Schedule was already confirmed. " + msg
		s.publish(constants.MessageTypeStatus, msg, nil)
		return ToolResult{Kind: constants.KindAlreadyConfirmed, Message: msg, Data: res}, nil
	}
	s.publishDraft(msg)
	return ToolResult{Message: msg, Data: res}, nil
}

type noteArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func saveNote(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a noteArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	n, err := s.deps.Store.SetNote(a.Key, a.Value)
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Message: fmt.Sprintf("Remembered %s", n.Key), Data: n}, nil
}

func recallNote(_ context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a noteArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	n, err := s.deps.Store.GetNote(a.Key)
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Message: fmt.Sprintf("%s: %s", n.Key, n.Value), Data: n}, nil
}

func listNotes(_ context.Context, s *Session, _ json.RawMessage) (ToolResult, error) {
	notes, err := s.deps.Store.ListNotes()
	if err != nil {
		return ToolResult{}, err
	}
	if len(notes) == 0 {
		return ToolResult{Message: "Nothing remembered yet.", Data: notes}, nil
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = fmt.Sprintf("- %s: %s", n.Key, n.Value)
	}
	return ToolResult{Message: strings.Join(lines, "\n"), Data: notes}, nil
}

type eventsArgs struct {
	Limit int `json:"limit"`
}

func listCalendarEvents(ctx context.Context, s *Session, args json.RawMessage) (ToolResult, error) {
	var a eventsArgs
	if err := decodeArgs(args, &a); err != nil {
		return ToolResult{}, err
	}
	if a.Limit <= 0 {
		a.Limit = constants.DefaultUpcomingEvents
	}
	events, err := s.deps.Calendar.ListUpcoming(ctx, s.deps.Settings.Calendars, s.deps.now(), a.Limit)
	if err != nil {
		return ToolResult{}, &apperrors.BackendError{Op: "list", Err: err}
	}
	return ToolResult{Message: calendar.FormatUpcoming(events, s.deps.Location), Data: events}, nil
}

func describeSlot(item models.DraftItem) string {
	return fmt.Sprintf("%s %s-%s",
		item.Start.Format("Mon Jan 2"),
		item.Start.Format(constants.TimeFormat),
		item.End.Format(constants.TimeFormat))
}

func summarizeNotes(notes []models.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Key + ": " + n.Value
	}
	return strings.Join(parts, "; ")
}

func schedulerOptions(settings models.Settings) conflict.Options {
	return conflict.Options{
		Step:      time.Duration(settings.StepMin) * time.Minute,
		MaxShifts: settings.MaxShifts,
	}
}

var _ Store = storage.Provider(nil)
