package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vislevel/internal/level"
	"vislevel/internal/trace"
)

// RegistryChangedMsg is sent when the registry emitted new events.
type RegistryChangedMsg struct{}

// EventSource provides recorded events, newest first.
type EventSource interface {
	Recent(n int) []trace.Entry
	TraceID() string
	Total() uint64
}

// EventsView lists recent registry events, newest at the top.
type EventsView struct {
	source   EventSource
	viewport viewport.Model
	width    int
	height   int
	visible  bool
}

var (
	_ View             = (*EventsView)(nil)
	_ level.Renderable = (*EventsView)(nil)
)

// NewEventsView creates a new events view
func NewEventsView(source EventSource) *EventsView {
	vp := viewport.New(60, 20)
	vp.Style = Styles.Box
	return &EventsView{
		source:   source,
		viewport: vp,
		width:    60,
		height:   20,
	}
}

// Init implements View
func (v *EventsView) Init() tea.Cmd {
	return v.viewport.Init()
}

// Update implements View
func (v *EventsView) Update(msg tea.Msg) (View, tea.Cmd) {
	if !v.visible {
		return v, nil
	}

	switch msg := msg.(type) {
	case RegistryChangedMsg:
		atTop := v.viewport.AtTop()
		v.refreshContent()
		if atTop {
			v.viewport.GotoTop()
		}
		return v, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			v.viewport.LineDown(1)
			return v, nil
		case "k", "up":
			v.viewport.LineUp(1)
			return v, nil
		case "ctrl+d", "pgdown":
			v.viewport.PageDown()
			return v, nil
		case "ctrl+u", "pgup":
			v.viewport.PageUp()
			return v, nil
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View implements View
func (v *EventsView) View() string {
	if !v.visible {
		return ""
	}
	return v.viewport.View()
}

// SetSize sets the size of the events view
func (v *EventsView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.refreshContent()
}

// SetVisible implements level.Renderable
func (v *EventsView) SetVisible(visible bool) {
	v.visible = visible
	if visible {
		v.refreshContent()
	}
}

// IsVisible returns whether the events view is visible
func (v *EventsView) IsVisible() bool {
	return v.visible
}

// refreshContent rebuilds the viewport content from the recorder
func (v *EventsView) refreshContent() {
	if v.source == nil {
		v.viewport.SetContent(Styles.Empty.Render("Event recording is disabled"))
		return
	}
	entries := v.source.Recent(0)

	lines := make([]string, 0, len(entries)+2)
	header := fmt.Sprintf("Trace: %s (%d events)", shortTraceID(v.source.TraceID()), v.source.Total())
	lines = append(lines, Styles.Title.Render(header), "")
	if len(entries) == 0 {
		lines = append(lines, Styles.Empty.Render("  (no events yet)"))
	}
	for _, e := range entries {
		lines = append(lines, v.renderEntry(e))
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
}

func (v *EventsView) renderEntry(e trace.Entry) string {
	ev := e.Event
	target := ev.Level
	if ev.Item != "" {
		target += "/" + ev.Item
	}
	line := fmt.Sprintf("%5d %s %s %s",
		e.Seq,
		Styles.Muted.Render(ev.At.Format("15:04:05.000")),
		padRight(string(ev.Kind), 16),
		truncate(target, 40),
	)
	if ev.Kind.HasVisibility() {
		marker, color := "hide", ColorMuted
		if ev.Visible {
			marker, color = "show", ColorVisible
		}
		line += " " + lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(marker)
	}

	if maxLen := v.width - 4; maxLen > 0 {
		line = lipgloss.NewStyle().MaxWidth(maxLen).Render(line)
	}
	return line
}

// shortTraceID returns a shortened version of the trace ID for display
func shortTraceID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
