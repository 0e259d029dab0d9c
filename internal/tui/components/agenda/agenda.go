// Package agenda renders a draft as a day-by-day schedule.
package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/models"
)

var (
	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	draftStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	existingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Model struct {
	viewport viewport.Model
	draft    *models.Draft
	loc      *time.Location
}

func New(width, height int, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{viewport: viewport.New(width, height), loc: loc}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.draft == nil {
		return "Waiting for a draft schedule..."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.render()
}

func (m *Model) SetDraft(d models.Draft) {
	m.draft = &d
	m.render()
}

func (m *Model) render() {
	m.viewport.SetContent(Render(m.draft, m.loc))
}

// Render lays the draft out grouped by day, in start order.
func Render(d *models.Draft, loc *time.Location) string {
	if d == nil {
		return "No draft loaded."
	}
	if len(d.Items) == 0 {
		return "The draft is empty."
	}

	items := append([]models.DraftItem(nil), d.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start) })

	var b strings.Builder
	day := ""
	for _, item := range items {
		start := item.Start.In(loc)
		if label := start.Format("Monday, Jan 2"); label != day {
			if day != "" {
				b.WriteByte('\n')
			}
			day = label
			b.WriteString(dayStyle.Render(label) + "\n")
		}

		when := "all day"
		if !item.AllDay {
			when = fmt.Sprintf("%s - %s", start.Format(constants.TimeFormat), item.End.In(loc).Format(constants.TimeFormat))
		}
		name := existingStyle.Render(item.Summary)
		if item.Kind == models.ItemKindDraft {
			name = draftStyle.Render(item.Summary)
			if item.Recurrence != "" {
				name += existingStyle.Render(" (" + string(item.Recurrence) + ")")
			}
		}
		fmt.Fprintf(&b, "%s %s\n", timeStyle.Render(when), name)
	}
	return b.String()
}
