package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	New      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Reload   key.Binding
	Copy     key.Binding
	Quit     key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Priority key.Binding
	User     key.Binding
	Category key.Binding
	Yes      key.Binding
	No       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:      key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "x", "enter"), key.WithHelp("space/x", "toggle")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Priority: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "priority")),
		User:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "user")),
		Category: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "category")),
		Yes:      key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:       key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.New, k.Toggle, k.Delete, k.Reload, k.Copy, k.Quit}
}

func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.Next, k.Priority, k.User, k.Category, k.Submit, k.Cancel}
}
