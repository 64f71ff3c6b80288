package ui

import tea "github.com/charmbracelet/bubbletea"

// TextView shows static text produced on demand.
type TextView struct {
	Title string
	Body  func() string
}

var _ View = (*TextView)(nil)

// Init implements View
func (v *TextView) Init() tea.Cmd { return nil }

// Update implements View
func (v *TextView) Update(tea.Msg) (View, tea.Cmd) { return v, nil }

// View implements View
func (v *TextView) View() string {
	body := ""
	if v.Body != nil {
		body = v.Body()
	}
	return Styles.Box.Render(Styles.Title.Render(v.Title) + "\n\n" + body)
}
