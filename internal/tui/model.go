// Package tui is the terminal draft reviewer. It displays a session's draft
// as pushed by the server and sends edits and confirmation back; it holds no
// schedule state of its own.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitline/internal/conflict"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/transport"
	"github.com/julianstephens/habitline/internal/tui/components/agenda"
	"github.com/julianstephens/habitline/internal/tui/components/itemlist"
)

type SessionState int

const (
	StateAgenda SessionState = iota
	StateItems
	StateEditing
	StateConfirmSchedule
)

const tabCount = 2

// Connection is the live link to a session.
type Connection interface {
	Next() (transport.Envelope, error)
	Confirm() error
	UpdateItem(itemID string, req draft.UpdateRequest) error
}

type EditFormModel struct {
	Date     string
	Time     string
	Duration string
}

type envelopeMsg struct{ env transport.Envelope }

type connErrMsg struct{ err error }

type Model struct {
	conn          Connection
	sessionID     string
	loc           *time.Location
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	agenda        agenda.Model
	items         itemlist.Model
	form          *huh.Form
	editForm      *EditFormModel
	editingID     string
	draft         *models.Draft
	status        string
	statusIsError bool
	conflicts     []conflict.Conflict
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(conn Connection, sessionID string, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		conn:      conn,
		sessionID: sessionID,
		loc:       loc,
		state:     StateAgenda,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		agenda:    agenda.New(0, 0, loc),
		items:     itemlist.New(0, 0, loc),
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateItems {
		keys = append(keys, m.keys.Edit)
	}
	if m.editable() {
		keys = append(keys, m.keys.Confirm)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}
	actions := []key.Binding{m.keys.Edit, m.keys.Confirm}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return m.waitForMessage()
}

// waitForMessage reads the next pushed message. Each message handler
// re-issues it so exactly one read is outstanding.
func (m Model) waitForMessage() tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		env, err := conn.Next()
		if err != nil {
			return connErrMsg{err: err}
		}
		return envelopeMsg{env: env}
	}
}

func (m Model) editable() bool {
	return m.draft != nil && m.draft.Status == models.DraftStatusDraft
}

func (m *Model) setDraft(d models.Draft) {
	m.draft = &d
	m.agenda.SetDraft(d)
	m.items.SetDraft(d)
	m.updateValidationStatus()
}

// updateValidationStatus recomputes overlaps the user has accepted through
// edits so they stay visible.
func (m *Model) updateValidationStatus() {
	if m.draft == nil {
		m.conflicts = nil
		return
	}
	m.conflicts = conflict.ValidateDraft(*m.draft).Conflicts
}

func (m Model) conflictWarning() string {
	if len(m.conflicts) == 0 {
		return ""
	}
	return fmt.Sprintf("⚠ %d conflict(s) in draft", len(m.conflicts))
}
