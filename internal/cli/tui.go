package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/autowire/pkg/introspect"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// typeRow is one catalog entry shown by the picker.
type typeRow struct {
	ID       string
	Kind     string
	Abstract bool
}

func typeRows(catalog *introspect.Catalog) []typeRow {
	var rows []typeRow
	for _, id := range catalog.IDs() {
		t, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		rows = append(rows, typeRow{ID: id, Kind: typeKind(t), Abstract: t.Abstract()})
	}
	return rows
}

func typeKind(t *introspect.Type) string {
	switch {
	case t.Abstract():
		return "interface"
	case t.HasConstructor():
		return "constructor"
	case t.Discovered():
		return "fields (discovered)"
	}
	return "fields"
}

// =============================================================================
// typeListModel - Interactive type selection
// =============================================================================

// typeListModel is the bubbletea model for interactive type selection.
type typeListModel struct {
	Types    []typeRow
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

func newTypeListModel(catalog *introspect.Catalog) typeListModel {
	return typeListModel{Types: typeRows(catalog), Height: 15}
}

func (m typeListModel) Init() tea.Cmd {
	return nil
}

func (m typeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Types)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Types) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Types[m.Cursor].ID
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m typeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Type"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Types))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, m.Types[i].ID, m.Types[i].Kind})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "Built by").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Types) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.Types[idx].Abstract:
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Types))))

	return b.String()
}
