package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the list bindings. Forms and the delete prompt read keys
// directly.
type keyMap struct {
	Normal        key.Binding
	Priority      key.Binding
	Upcoming      key.Binding
	Next          key.Binding
	Prev          key.Binding
	Up            key.Binding
	Down          key.Binding
	Filter        key.Binding
	ClearCategory key.Binding
	ClearFilters  key.Binding
	GoCategory    key.Binding
	Open          key.Binding
	Add           key.Binding
	Edit          key.Binding
	Delete        key.Binding
	Reload        key.Binding
	Notifications key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Normal:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all tasks")),
		Priority:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "priority")),
		Upcoming:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "upcoming")),
		Next:          key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		Prev:          key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearCategory: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear category")),
		ClearFilters:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		GoCategory:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to category")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Add:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Notifications: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "notifications")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Normal, k.Priority, k.Upcoming, k.Filter, k.Add, k.Edit, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Normal, k.Priority, k.Upcoming, k.Reload},
		{k.Up, k.Down, k.Next, k.Prev},
		{k.Filter, k.ClearFilters, k.ClearCategory, k.GoCategory},
		{k.Open, k.Add, k.Edit, k.Delete},
		{k.Notifications, k.Help, k.Quit},
	}
}
