// Package itemlist is a selectable list of the proposed draft items.
package itemlist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/models"
)

type EditItemMsg struct {
	Item models.DraftItem
}

type Item struct {
	DraftItem models.DraftItem
	loc       *time.Location
}

func (i Item) Title() string { return i.DraftItem.Summary }

func (i Item) Description() string {
	start := i.DraftItem.Start.In(i.loc)
	desc := fmt.Sprintf("%s | %s | %d min", i.DraftItem.ID, start.Format("Mon Jan 2 "+constants.TimeFormat),
		int(i.DraftItem.Duration().Minutes()))
	if i.DraftItem.Recurrence != "" {
		desc += " | " + string(i.DraftItem.Recurrence)
	}
	return desc
}

func (i Item) FilterValue() string { return i.DraftItem.Summary }

type KeyMap struct {
	Edit key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	loc  *time.Location
}

func New(width, height int, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Draft items"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Edit}
	}
	return Model{list: l, keys: keys, loc: loc}
}

// SetDraft shows only the draft-kind items; existing entries cannot be edited.
func (m *Model) SetDraft(d models.Draft) {
	drafts := d.DraftItems()
	items := make([]list.Item, len(drafts))
	for i, it := range drafts {
		items[i] = Item{DraftItem: it, loc: m.loc}
	}
	m.list.SetItems(items)
}

// Selected returns the highlighted item.
func (m Model) Selected() (models.DraftItem, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.DraftItem, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Edit) {
			if it, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditItemMsg{Item: it} }
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No proposed items."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
