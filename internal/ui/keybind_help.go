package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// RenderKeybindHelp produces the transient help bar shown after SPC, with
// the hints for the keys that may follow the pending sequence.
func RenderKeybindHelp(keyHandler *KeyHandler) string {
	if keyHandler == nil || keyHandler.Registry == nil {
		return ""
	}
	km := NewKeyMap(keyHandler.Registry, keyHandler)
	bindings := km.ShortHelp()
	if len(bindings) == 0 {
		return ""
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	helpModel.Styles.ShortDesc = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	helpModel.Styles.ShortSeparator = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))

	helpContent := helpModel.ShortHelpView(bindings)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1).
		MarginTop(1)

	prefix := keyHandler.CurrentSeq()
	if prefix == "" {
		prefix = keyHandler.LeaderSeq
	}
	return boxStyle.Render(Styles.Hint.Render(prefix) + " " + helpContent)
}
