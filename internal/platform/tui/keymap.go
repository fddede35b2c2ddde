package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

// PlayKeyMap defines the key bindings during a match.
type PlayKeyMap struct {
	Left      key.Binding
	Right     key.Binding
	SoftDrop  key.Binding
	HardDrop  key.Binding
	RotateCW  key.Binding
	RotateCCW key.Binding
	Hold      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PlayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.RotateCW, k.HardDrop, k.Hold, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k PlayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.SoftDrop, k.HardDrop},
		{k.RotateCW, k.RotateCCW, k.Hold, k.Quit},
	}
}

// DefaultPlayKeyMap returns the default match key bindings.
func DefaultPlayKeyMap() PlayKeyMap {
	return PlayKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("left/a", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("right/d", "move right"),
		),
		SoftDrop: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("down/s", "soft drop"),
		),
		HardDrop: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "hard drop"),
		),
		RotateCW: key.NewBinding(
			key.WithKeys("up", "w", "x"),
			key.WithHelp("up/x", "rotate cw"),
		),
		RotateCCW: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "rotate ccw"),
		),
		Hold: key.NewBinding(
			key.WithKeys("c", "shift+tab"),
			key.WithHelp("c", "hold"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MapKey translates a key message to a simulation key. Terminals report
// presses only, so every mapped key is delivered as a tap.
func (k PlayKeyMap) MapKey(msg tea.KeyMsg) (protocol.Key, bool) {
	switch {
	case key.Matches(msg, k.Left):
		return protocol.KeyMoveLeft, true
	case key.Matches(msg, k.Right):
		return protocol.KeyMoveRight, true
	case key.Matches(msg, k.SoftDrop):
		return protocol.KeySoftDrop, true
	case key.Matches(msg, k.HardDrop):
		return protocol.KeyHardDrop, true
	case key.Matches(msg, k.RotateCW):
		return protocol.KeyRotateCW, true
	case key.Matches(msg, k.RotateCCW):
		return protocol.KeyRotateCCW, true
	case key.Matches(msg, k.Hold):
		return protocol.KeyHold, true
	}
	return 0, false
}
