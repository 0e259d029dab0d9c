package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/transport"
	"github.com/julianstephens/habitline/internal/tui/components/itemlist"
)

// sendResultMsg reports a failed write to the connection.
type sendResultMsg struct{ err error }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.agenda.SetSize(msg.Width-4, msg.Height-6)
		m.items.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case envelopeMsg:
		m.handleEnvelope(msg.env)
		return m, m.waitForMessage()

	case connErrMsg:
		m.err = msg.err
		logger.Warn("Lost connection to session", "session", m.sessionID, "error", msg.err)
		return m, tea.Quit

	case sendResultMsg:
		if msg.err != nil {
			m.status, m.statusIsError = "Error: "+msg.err.Error(), true
		}
		return m, nil

	case itemlist.EditItemMsg:
		if !m.editable() {
			return m, nil
		}
		m.editingID = msg.Item.ID
		m.editForm = newEditFormModel(msg.Item, m.loc)
		m.form = NewEditForm("Edit "+msg.Item.Summary, m.editForm)
		m.previousState = m.state
		m.state = StateEditing
		return m, m.form.Init()
	}

	switch m.state {
	case StateEditing:
		return m.updateEditing(msg)
	case StateConfirmSchedule:
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			if m.editable() {
				m.previousState = m.state
				m.state = StateConfirmSchedule
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateAgenda:
		m.agenda, cmd = m.agenda.Update(msg)
	case StateItems:
		m.items, cmd = m.items.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleEnvelope(env transport.Envelope) {
	switch env.Type {
	case constants.MessageTypeDraft:
		d, err := env.Draft()
		if err != nil {
			logger.Warn("Ignoring malformed draft", "session", m.sessionID, "error", err)
			return
		}
		m.setDraft(d)
	case constants.MessageTypeStatus:
		m.status = env.Message
		m.statusIsError = strings.HasPrefix(env.Message, "Error:")
	}
}

func (m Model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = m.previousState
		return m, tea.Batch(cmd, m.send(func(c Connection) error {
			return c.UpdateItem(m.editingID, m.editForm.updateRequest())
		}))
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.state = m.previousState
		m.status, m.statusIsError = "Writing schedule to calendar...", false
		return m, m.send(Connection.Confirm)
	case key.Matches(keyMsg, m.keys.No):
		m.state = m.previousState
	}
	return m, nil
}

// send performs a write off the update loop. The server answers through
// the pushed draft and status messages.
func (m Model) send(fn func(Connection) error) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		return sendResultMsg{err: fn(conn)}
	}
}
