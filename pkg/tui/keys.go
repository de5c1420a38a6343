package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Complete key.Binding
	Skip     key.Binding
	Refresh  key.Binding
	Sort     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Complete: key.NewBinding(
			key.WithKeys("right", "l", "enter"),
			key.WithHelp("→/l", "done"),
		),
		Skip: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "skip"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle sort"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Skip, k.Refresh, k.Sort, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
