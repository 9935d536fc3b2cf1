package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the countdown display
type KeyMap struct {
	Toggle   key.Binding
	Reset    key.Binding
	TempoUp  key.Binding
	TempoDn  key.Binding
	Double   key.Binding
	Halve    key.Binding
	Required key.Binding
	Suppress key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "stop/resume"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		TempoUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "tempo up"),
		),
		TempoDn: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "tempo down"),
		),
		Double: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "double tempo"),
		),
		Halve: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "halve tempo"),
		),
		Required: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "match required tempo"),
		),
		Suppress: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "silence 5s"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Double, k.Halve, k.Required, k.Suppress, k.Reset, k.Quit}
}
