package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/julianstephens/habitline/internal/models"
)

type memStore struct {
	events []models.CalendarEvent
	err    error
}

func (m *memStore) AddEvent(ev models.CalendarEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) ListEvents(calendars []string, before time.Time) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, ev := range m.events {
		for _, c := range calendars {
			if ev.CalendarID == c && ev.Start.Before(before) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func day(d, hour, min int) time.Time {
	return time.Date(2026, 3, d, hour, min, 0, 0, time.UTC)
}

func TestRuleForAndRRule(t *testing.T) {
	tests := []struct {
		cadence models.Cadence
		rule    string
		rrule   string
	}{
		{models.CadenceDaily, "every day", "RRULE:FREQ=DAILY"},
		{models.CadenceWeekly, "every week", "RRULE:FREQ=WEEKLY"},
		{models.CadenceWeekdays, "every weekday", "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"},
		{models.CadenceMonthly, "every month", "RRULE:FREQ=MONTHLY"},
		{models.CadenceThreePerWeek, "Mon/Wed/Fri weekly", "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			rule := RuleFor(tt.cadence)
			if rule != tt.rule {
				t.Errorf("RuleFor() = %q, want %q", rule, tt.rule)
			}
			rrule, err := RRule(rule)
			if err != nil || rrule != tt.rrule {
				t.Errorf("RRule() = %q, %v; want %q", rrule, err, tt.rrule)
			}
		})
	}

	if RuleFor("") != "" {
		t.Error("one-off items should have no rule")
	}
	if r, err := RRule(""); err != nil || r != "" {
		t.Errorf("RRule(\"\") = %q, %v", r, err)
	}
	if _, err := RRule("every leap year"); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func TestExpand(t *testing.T) {
	period := models.Period{Start: day(9, 0, 0), End: day(16, 0, 0)} // Mon 9th .. Mon 16th

	tests := []struct {
		name string
		ev   models.CalendarEvent
		want []int // days of month
	}{
		{"one-off inside", models.CalendarEvent{Start: day(11, 9, 0), End: day(11, 10, 0)}, []int{11}},
		{"one-off outside", models.CalendarEvent{Start: day(20, 9, 0), End: day(20, 10, 0)}, nil},
		{"daily", models.CalendarEvent{Start: day(12, 7, 0), End: day(12, 7, 30), Recurrence: RuleEveryDay}, []int{12, 13, 14, 15}},
		{"weekdays", models.CalendarEvent{Start: day(2, 7, 0), End: day(2, 7, 30), Recurrence: RuleEveryWeekday}, []int{9, 10, 11, 12, 13}},
		{"weekly", models.CalendarEvent{Start: day(3, 18, 0), End: day(3, 19, 0), Recurrence: RuleEveryWeek}, []int{10}},
		{"mon wed fri", models.CalendarEvent{Start: day(2, 6, 0), End: day(2, 6, 45), Recurrence: RuleMonWedFri}, []int{9, 11, 13}},
		{"monthly", models.CalendarEvent{Start: time.Date(2026, 2, 12, 8, 0, 0, 0, time.UTC), End: time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC), Recurrence: RuleEveryMonth}, []int{12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.ev, period, time.UTC)
			if len(got) != len(tt.want) {
				t.Fatalf("Expand() returned %d occurrences, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, occ := range got {
				if occ.Start.Day() != tt.want[i] {
					t.Errorf("occurrence %d on day %d, want %d", i, occ.Start.Day(), tt.want[i])
				}
				if occ.End.Sub(occ.Start) != tt.ev.End.Sub(tt.ev.Start) {
					t.Errorf("occurrence %d has length %v", i, occ.End.Sub(occ.Start))
				}
			}
		})
	}
}

func TestLocalBackend(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	backend := NewLocal(store, time.UTC)

	id, err := backend.CreateEvent(ctx, models.CalendarEvent{
		Summary:    "Meditate",
		Start:      day(11, 7, 0),
		End:        day(11, 7, 20),
		Recurrence: RuleEveryDay,
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if id == "" || store.events[0].CalendarID != "primary" {
		t.Errorf("unexpected stored event %+v", store.events[0])
	}
	if _, err := backend.CreateEvent(ctx, models.CalendarEvent{Summary: "Bad", Recurrence: "hourly"}); err == nil {
		t.Error("expected error for unknown recurrence")
	}

	_, _ = backend.CreateEvent(ctx, models.CalendarEvent{
		CalendarID: "work",
		Summary:    "Standup",
		Start:      day(12, 9, 0),
		End:        day(12, 9, 15),
	})

	busy, err := backend.ListBusyIntervals(ctx, models.Period{Start: day(12, 0, 0), End: day(14, 0, 0)}, []string{"primary", "work"})
	if err != nil {
		t.Fatalf("ListBusyIntervals failed: %v", err)
	}
	// Meditate on 12th and 13th, Standup on 12th.
	if len(busy) != 3 {
		t.Fatalf("expected 3 busy intervals, got %+v", busy)
	}
	if busy[0].Summary != "Meditate" || busy[1].Summary != "Standup" || busy[1].CalendarLabel != "work" {
		t.Errorf("unexpected ordering %+v", busy)
	}

	upcoming, err := backend.ListUpcoming(ctx, nil, day(12, 8, 0), 2)
	if err != nil {
		t.Fatalf("ListUpcoming failed: %v", err)
	}
	if len(upcoming) != 2 || !upcoming[0].Start.Equal(day(13, 7, 0)) {
		t.Errorf("unexpected upcoming %+v", upcoming)
	}
}

func TestFormatUpcoming(t *testing.T) {
	if got := FormatUpcoming(nil, time.UTC); got != "No upcoming events found." {
		t.Errorf("FormatUpcoming(nil) = %q", got)
	}
	events := []models.CalendarEvent{
		{Summary: "Standup", Start: day(11, 9, 0)},
		{Summary: "Holiday", Start: day(13, 0, 0), AllDay: true},
	}
	want := "- Standup at Wed Mar 11 09:00\n- Holiday at Fri Mar 13 (all day)"
	if got := FormatUpcoming(events, time.UTC); got != want {
		t.Errorf("FormatUpcoming() = %q, want %q", got, want)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	s, err := EncodeToken(tok)
	if err != nil {
		t.Fatalf("EncodeToken failed: %v", err)
	}
	back, err := DecodeToken(s)
	if err != nil || back.RefreshToken != "r" {
		t.Errorf("DecodeToken() = %+v, %v", back, err)
	}
	if _, err := DecodeToken("not json"); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func newGoogleTestServer(t *testing.T, inserted *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"items":[
				{"id":"a","summary":"Standup","start":{"dateTime":"2026-03-11T09:00:00Z"},"end":{"dateTime":"2026-03-11T09:30:00Z"}},
				{"id":"b","summary":"Holiday","start":{"date":"2026-03-12"},"end":{"date":"2026-03-13"}},
				{"id":"c","status":"cancelled","summary":"Gone","start":{"dateTime":"2026-03-11T10:00:00Z"},"end":{"dateTime":"2026-03-11T11:00:00Z"}}
			]}`)
		case http.MethodPost:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			*inserted = append(*inserted, body)
			_, _ = io.WriteString(w, `{"id":"evt-1"}`)
		}
	}))
}

func TestGoogleBackend(t *testing.T) {
	ctx := context.Background()
	var inserted []map[string]any
	srv := newGoogleTestServer(t, &inserted)
	defer srv.Close()

	backend, err := NewGoogleWithOptions(ctx, time.UTC,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewGoogleWithOptions failed: %v", err)
	}

	busy, err := backend.ListBusyIntervals(ctx, models.Period{Start: day(11, 0, 0), End: day(18, 0, 0)}, nil)
	if err != nil {
		t.Fatalf("ListBusyIntervals failed: %v", err)
	}
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy intervals (cancelled dropped), got %+v", busy)
	}
	if !busy[0].Start.Equal(day(11, 9, 0)) || busy[0].AllDay {
		t.Errorf("unexpected timed interval %+v", busy[0])
	}
	if !busy[1].AllDay || !busy[1].Start.Equal(day(12, 0, 0)) || !busy[1].End.Equal(day(13, 0, 0)) {
		t.Errorf("unexpected all-day interval %+v", busy[1])
	}

	ref, err := backend.CreateEvent(ctx, models.CalendarEvent{
		Summary:    "Meditate",
		Start:      day(12, 7, 0),
		End:        day(12, 7, 20),
		Recurrence: RuleMonWedFri,
		TimeZone:   "America/New_York",
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if ref != "evt-1" {
		t.Errorf("CreateEvent() ref = %q, want evt-1", ref)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(inserted))
	}
	rec, _ := inserted[0]["recurrence"].([]any)
	if len(rec) != 1 || rec[0] != "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR" {
		t.Errorf("unexpected recurrence %v", inserted[0]["recurrence"])
	}

	upcoming, err := backend.ListUpcoming(ctx, []string{"primary"}, day(11, 0, 0), 1)
	if err != nil {
		t.Fatalf("ListUpcoming failed: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Summary != "Standup" {
		t.Errorf("unexpected upcoming %+v", upcoming)
	}
}
