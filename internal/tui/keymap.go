package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines global key bindings used across the TUI.
type keyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Suspend   key.Binding
	NextTab   key.Binding
	Jobs      key.Binding
	Files     key.Binding
	Logs      key.Binding
	Login     key.Binding
	Logout    key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Enter     key.Binding
	Back      key.Binding
	Escape    key.Binding
	Cancel    key.Binding
	Download  key.Binding
	Follow    key.Binding
	Stop      key.Binding
	Refresh   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit from anywhere"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Suspend: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "suspend"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		Jobs: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "jobs"),
		),
		Files: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "files"),
		),
		Logs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "logs"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "log out"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace", "h"),
			key.WithHelp("backspace", "parent directory"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel job"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Follow: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "follow output"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop following"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload listing"),
		),
	}
}

// helpGroups lists bindings by section for the help popup.
func (k keyMap) helpGroups() []helpGroup {
	return []helpGroup{
		{"Global", []key.Binding{k.NextTab, k.Jobs, k.Files, k.Logs, k.Login, k.Logout, k.Help, k.Suspend, k.Quit, k.ForceQuit}},
		{"Jobs", []key.Binding{k.Up, k.Down, k.Enter, k.Follow, k.Cancel}},
		{"Files", []key.Binding{k.Enter, k.Back, k.Download, k.Refresh}},
		{"Logs", []key.Binding{k.PageUp, k.PageDown, k.Home, k.End, k.Stop}},
	}
}

type helpGroup struct {
	title    string
	bindings []key.Binding
}
