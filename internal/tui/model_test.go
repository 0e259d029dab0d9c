package tui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/transport"
	"github.com/julianstephens/habitline/internal/tui/components/agenda"
	"github.com/julianstephens/habitline/internal/tui/components/itemlist"
)

type fakeConn struct {
	confirms int
	updates  []draft.UpdateRequest
	ids      []string
	sendErr  error
}

func (f *fakeConn) Next() (transport.Envelope, error) {
	return transport.Envelope{}, errors.New("closed")
}

func (f *fakeConn) Confirm() error {
	f.confirms++
	return f.sendErr
}

func (f *fakeConn) UpdateItem(id string, req draft.UpdateRequest) error {
	f.ids = append(f.ids, id)
	f.updates = append(f.updates, req)
	return f.sendErr
}

func testDraft() models.Draft {
	day := func(h, min int) time.Time { return time.Date(2026, 3, 11, h, min, 0, 0, time.UTC) }
	return models.Draft{
		Timezone: "UTC",
		Status:   models.DraftStatusDraft,
		Items: []models.DraftItem{
			{ID: "existing-1", Kind: models.ItemKindExisting, Summary: "Standup", Start: day(7, 0), End: day(7, 30)},
			{ID: "draft-1", Kind: models.ItemKindDraft, Summary: "Meditate", Start: day(7, 0), End: day(7, 20), Recurrence: models.CadenceDaily},
		},
	}
}

func draftEnvelope(t *testing.T, d models.Draft) envelopeMsg {
	t.Helper()
	payload, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	return envelopeMsg{env: transport.Envelope{Type: constants.MessageTypeDraft, Payload: payload}}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyPress(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func TestDraftMessageUpdatesViews(t *testing.T) {
	m := NewModel(&fakeConn{}, "s1", time.UTC)
	m, cmd := update(m, draftEnvelope(t, testDraft()))
	if cmd == nil {
		t.Error("a handled message must queue the next read")
	}
	if m.draft == nil || len(m.draft.Items) != 2 {
		t.Fatalf("draft not stored: %+v", m.draft)
	}
	if m.items.Len() != 1 {
		t.Errorf("item list shows %d items, want only the draft item", m.items.Len())
	}
	if len(m.conflicts) != 1 || !strings.Contains(m.conflictWarning(), "1 conflict") {
		t.Errorf("conflicts = %+v", m.conflicts)
	}
}

func TestStatusMessage(t *testing.T) {
	m := NewModel(&fakeConn{}, "s1", time.UTC)
	m, _ = update(m, envelopeMsg{env: transport.Envelope{Type: constants.MessageTypeStatus, Message: "Error: no draft item matches \"x\""}})
	if !m.statusIsError || !strings.Contains(m.View(), "no draft item") {
		t.Errorf("error status not shown: %q", m.status)
	}
	m, _ = update(m, envelopeMsg{env: transport.Envelope{Type: constants.MessageTypeStatus, Message: "Created 1 event(s)"}})
	if m.statusIsError {
		t.Error("plain status flagged as error")
	}
}

func TestConfirmFlow(t *testing.T) {
	conn := &fakeConn{}
	m := NewModel(conn, "s1", time.UTC)

	// Nothing to confirm yet.
	m, _ = update(m, keyPress("c"))
	if m.state != StateAgenda {
		t.Fatalf("state = %d without a draft", m.state)
	}

	m, _ = update(m, draftEnvelope(t, testDraft()))
	m, _ = update(m, keyPress("c"))
	if m.state != StateConfirmSchedule {
		t.Fatalf("state = %d, want confirm", m.state)
	}
	if !strings.Contains(m.View(), "Write 1 item(s)") {
		t.Errorf("confirm view = %q", m.View())
	}

	m, cmd := update(m, keyPress("y"))
	if m.state != StateAgenda || cmd == nil {
		t.Fatalf("after yes: state=%d cmd=%v", m.state, cmd)
	}
	if res := cmd().(sendResultMsg); res.err != nil || conn.confirms != 1 {
		t.Errorf("confirm not sent: %+v, confirms=%d", res, conn.confirms)
	}

	confirmed := testDraft()
	confirmed.Status = models.DraftStatusConfirmed
	m, _ = update(m, draftEnvelope(t, confirmed))
	m, _ = update(m, keyPress("c"))
	if m.state == StateConfirmSchedule {
		t.Error("a confirmed draft cannot be confirmed again from the display")
	}
}

func TestDeclineConfirm(t *testing.T) {
	conn := &fakeConn{}
	m := NewModel(conn, "s1", time.UTC)
	m, _ = update(m, draftEnvelope(t, testDraft()))
	m, _ = update(m, keyPress("c"))
	m, cmd := update(m, keyPress("n"))
	if m.state != StateAgenda || cmd != nil || conn.confirms != 0 {
		t.Errorf("decline: state=%d confirms=%d", m.state, conn.confirms)
	}
}

func TestEditItemOpensForm(t *testing.T) {
	m := NewModel(&fakeConn{}, "s1", time.UTC)
	m, _ = update(m, draftEnvelope(t, testDraft()))
	m.state = StateItems

	it, ok := m.items.Selected()
	if !ok {
		t.Fatal("no item selected")
	}
	m, _ = update(m, itemlist.EditItemMsg{Item: it})
	if m.state != StateEditing || m.editingID != "draft-1" {
		t.Fatalf("state=%d editing=%q", m.state, m.editingID)
	}
	if m.editForm.Date != "2026-03-11" || m.editForm.Time != "07:00" || m.editForm.Duration != "20" {
		t.Errorf("form prefilled with %+v", m.editForm)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateItems {
		t.Errorf("esc should return to the item list, state=%d", m.state)
	}
}

func TestEditFormRequest(t *testing.T) {
	fm := &EditFormModel{Date: " 2026-03-12 ", Time: "6pm", Duration: "45"}
	req := fm.updateRequest()
	if req.Date != "2026-03-12" || req.Time != "6pm" || req.DurationMin != 45 {
		t.Errorf("updateRequest = %+v", req)
	}
}

func TestSendFailureShowsError(t *testing.T) {
	m := NewModel(&fakeConn{}, "s1", time.UTC)
	m, _ = update(m, sendResultMsg{err: errors.New("broken pipe")})
	if !m.statusIsError || !strings.Contains(m.status, "broken pipe") {
		t.Errorf("status = %q", m.status)
	}
}

func TestConnectionLossQuits(t *testing.T) {
	m := NewModel(&fakeConn{}, "s1", time.UTC)
	m, cmd := update(m, m.Init()())
	if m.Err() == nil || cmd == nil {
		t.Errorf("expected quit with error, err=%v", m.Err())
	}
}

func TestAgendaRender(t *testing.T) {
	d := testDraft()
	out := agenda.Render(&d, time.UTC)
	for _, want := range []string{"Wednesday, Mar 11", "07:00 - 07:30", "Standup", "Meditate", "daily"} {
		if !strings.Contains(out, want) {
			t.Errorf("agenda missing %q:\n%s", want, out)
		}
	}
	if agenda.Render(nil, time.UTC) != "No draft loaded." {
		t.Error("nil draft render")
	}
}
