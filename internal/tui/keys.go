package tui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Toggle key.Binding
	Submit key.Binding
	Close  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev question")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next question")),
		Toggle: key.NewBinding(key.WithKeys("space", "x"), key.WithHelp("space", "select")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Close:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "close")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Prev, k.Next, k.Toggle, k.Submit, k.Close}
}
