package app

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding handled in handleKey.
type keyMap struct {
	Quit        key.Binding
	Play        key.Binding
	Seek        key.Binding
	Back        key.Binding
	Forward     key.Binding
	Focus       key.Binding
	Next        key.Binding
	Prev        key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Open        key.Binding
	Record      key.Binding
	PauseRecord key.Binding
	StopRecord  key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "Quit")),
		Play:        key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "Play/Pause")),
		Seek:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Jump")),
		Back:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←→", "Scrub")),
		Forward:     key.NewBinding(key.WithKeys("right", "l")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Focus")),
		Next:        key.NewBinding(key.WithKeys("j"), key.WithHelp("j/k", "Nav")),
		Prev:        key.NewBinding(key.WithKeys("k")),
		ScrollUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑↓", "Scroll")),
		ScrollDown:  key.NewBinding(key.WithKeys("down")),
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "Open")),
		Record:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Record")),
		PauseRecord: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "Pause")),
		StopRecord:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Stop")),
		Confirm:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "Submit")),
		Cancel:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "Discard")),
	}
}

// Prompt keys are matched against the raw key string while the path prompt
// has focus.
const (
	KeyPromptSubmit = "enter"
	KeyPromptCancel = "esc"
)
