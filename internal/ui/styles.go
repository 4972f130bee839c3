package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	focusStyle = lipgloss.NewStyle().
			Reverse(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("45"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)
)

func (m Model) viewFooter() string {
	var keys [][2]string
	switch m.screen {
	case screenLogin:
		keys = [][2]string{{"tab", "switch"}, {"enter", "sign in"}, {"ctrl+n", "sign up"}, {"ctrl+c", "quit"}}
	case screenSignup:
		keys = [][2]string{{"tab", "switch"}, {"enter", "create"}, {"esc", "back"}, {"ctrl+c", "quit"}}
	case screenTasks:
		switch {
		case m.table.editing != nil:
			keys = [][2]string{{"enter", "save"}, {"esc", "cancel"}}
		case m.table.filtering:
			keys = [][2]string{{"enter", "done"}, {"esc", "clear"}}
		case m.table.adding:
			keys = [][2]string{{"enter", "add"}, {"esc", "cancel"}}
		default:
			keys = [][2]string{{"enter", "edit"}, {"space", "toggle"}, {"a", "add"}, {"d", "delete"},
				{"/", "filter"}, {"s", "server search"}, {"r", "refresh"}, {"p", "profile"}, {"q", "quit"}}
		}
	case screenProfile:
		keys = [][2]string{{"n", "rename"}, {"w", "password"}, {"o", "sign out"}, {"X", "delete account"}, {"esc", "back"}}
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render(k[0]) + " " + k[1]
	}

	var b strings.Builder
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("error: " + m.err))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(strings.Join(parts, "  ")))
	return b.String()
}
