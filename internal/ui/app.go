package ui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"vislevel/internal/level"
)

// Level and tab names used by the demo app.
const (
	RootLevel     = "root"
	SettingsLevel = "root.settings"

	TabOverview = "overview"
	TabEvents   = "events"
	TabSettings = "settings"

	TabGeneral = "general"
	TabDebug   = "debug"
)

// SelectTabMsg asks the app to select a tab on a level.
type SelectTabMsg struct {
	Level string
	Tab   string
}

// ToggleRootMsg shows or hides the whole root level.
type ToggleRootMsg struct{}

// ToggleDebugMsg flips level debug logging.
type ToggleDebugMsg struct{}

// AppModel is the root model: nested tab sets driven by a level registry.
type AppModel struct {
	Registry   *level.Registry
	Root       *TabSet
	Settings   *TabSet
	KeyHandler *KeyHandler
	Err        error // last transition error, shown in the status line

	events <-chan level.Event
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel builds the demo UI on reg. events may be nil when recording
// is off.
func NewAppModel(reg *level.Registry, events EventSource) (*AppModel, error) {
	general := &TextView{Title: "General", Body: func() string {
		return fmt.Sprintf("levels: %d\n%s", len(reg.Levels()), Styles.Hint.Render("SPC s g / SPC s d switch settings tabs"))
	}}
	debug := &TextView{Title: "Debug", Body: func() string {
		return "debug logging: " + strconv.FormatBool(level.Debug()) + "\n" + Styles.Hint.Render("SPC t d toggles")
	}}

	settings, err := NewTabSet(reg.MustLevel(SettingsLevel),
		Tab{Name: TabGeneral, Title: "General", View: general},
		Tab{Name: TabDebug, Title: "Debug", View: debug},
	)
	if err != nil {
		return nil, err
	}
	if err := settings.Select(TabGeneral); err != nil {
		return nil, err
	}

	var eventsView View = &TextView{Title: "Events", Body: func() string {
		return Styles.Empty.Render("Event recording is disabled")
	}}
	if events != nil {
		eventsView = NewEventsView(events)
	}

	root, err := NewTabSet(reg.MustLevel(RootLevel),
		Tab{Name: TabOverview, Title: "1 Overview", View: NewTreeView(reg)},
		Tab{Name: TabEvents, Title: "2 Events", View: eventsView},
		Tab{Name: TabSettings, Title: "3 Settings", View: settings},
	)
	if err != nil {
		return nil, err
	}
	if err := root.Select(TabOverview); err != nil {
		return nil, err
	}

	m := &AppModel{
		Registry: reg,
		Root:     root,
		Settings: settings,
	}
	m.KeyHandler = NewKeyHandler(m.keybinds())
	return m, nil
}

func (m *AppModel) keybinds() *KeybindRegistry {
	kb := NewKeybindRegistry()
	selectTab := func(lvl, tab string) tea.Cmd {
		return func() tea.Msg { return SelectTabMsg{Level: lvl, Tab: tab} }
	}
	kb.BindWithDesc("q", tea.Quit, "Quit")
	kb.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	kb.BindWithDesc("SPC q", tea.Quit, "Quit")
	kb.BindWithDesc("SPC 1", selectTab(RootLevel, TabOverview), "Overview")
	kb.BindWithDesc("SPC 2", selectTab(RootLevel, TabEvents), "Events")
	kb.BindWithDesc("SPC 3", selectTab(RootLevel, TabSettings), "Settings")

	settingsItem, _ := m.Root.Level().GetItem(TabSettings)
	kb.SetGroupLabel("SPC s", "Settings tabs")
	kb.BindWhenVisible("SPC s g", selectTab(SettingsLevel, TabGeneral), "General", settingsItem)
	kb.BindWhenVisible("SPC s d", selectTab(SettingsLevel, TabDebug), "Debug", settingsItem)

	kb.SetGroupLabel("SPC t", "Toggle")
	kb.BindWithDesc("SPC t d", func() tea.Msg { return ToggleDebugMsg{} }, "Debug logging")
	kb.BindWithDesc("SPC t h", func() tea.Msg { return ToggleRootMsg{} }, "Hide/show all")
	return kb
}

// WatchEvents makes the app refresh whenever an event arrives on ch, e.g.
// from a level.ChanHook. Call before the program starts.
func (m *AppModel) WatchEvents(ch <-chan level.Event) {
	m.events = ch
}

// levelEventMsg signals that an event arrived on the watched channel.
type levelEventMsg struct{}

func (m *AppModel) waitForEvent() tea.Msg {
	if _, ok := <-m.events; !ok {
		return nil
	}
	return levelEventMsg{}
}

// tabSet returns the tab set backing the named level.
func (m *AppModel) tabSet(name string) *TabSet {
	switch name {
	case RootLevel:
		return m.Root
	case SettingsLevel:
		return m.Settings
	}
	return nil
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	if a.events == nil {
		return a.Root.Init()
	}
	return tea.Batch(a.Root.Init(), a.waitForEvent)
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SelectTabMsg:
		if ts := a.tabSet(msg.Level); ts != nil {
			a.Err = ts.Select(msg.Tab)
		}
		return a, a.changed
	case ToggleRootMsg:
		l := a.Root.Level()
		a.Err = l.SetVisible(!l.IsVisible())
		return a, a.changed
	case levelEventMsg:
		_, cmd := a.Root.Update(RegistryChangedMsg{})
		return a, tea.Batch(cmd, a.waitForEvent)
	case ToggleDebugMsg:
		level.SetDebug(!level.Debug())
		return a, nil
	case tea.WindowSizeMsg:
		// Tab bar, status line and help box
		a.Root.SetSize(msg.Width, msg.Height-4)
		return a, nil
	case tea.KeyMsg:
		if a.KeyHandler != nil {
			if consumed, keyCmd := a.KeyHandler.Handle(msg); consumed {
				return a, keyCmd
			}
		}
		switch msg.String() {
		case "tab":
			_, a.Err = a.Root.Focus.Next()
			return a, a.changed
		case "shift+tab":
			_, a.Err = a.Root.Focus.Prev()
			return a, a.changed
		}
	}

	_, cmd := a.Root.Update(msg)
	return a, cmd
}

// changed refreshes views after a transition the app itself triggered.
func (a *appModelAdapter) changed() tea.Msg {
	return RegistryChangedMsg{}
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	base := a.Root.View()
	if base == "" {
		base = Styles.Empty.Render("(root level hidden, SPC t h to show)")
	}
	if a.Err != nil {
		base += "\n" + Styles.TitleWarning.Render(a.Err.Error())
	}
	if a.KeyHandler != nil && a.KeyHandler.LeaderWaiting {
		base += "\n" + RenderKeybindHelp(a.KeyHandler)
	} else {
		base += "\n" + Styles.Hint.Render("tab/shift+tab switch · SPC menu · q quit")
	}
	return base
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}
