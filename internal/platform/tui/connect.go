package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/OpenBrickProtocolFoundation/client/internal/config"
	"github.com/OpenBrickProtocolFoundation/client/internal/netplay"
	"github.com/OpenBrickProtocolFoundation/client/internal/storage"
)

type sessionReadyMsg struct {
	session  *netplay.Session
	opponent string
}

type connectFailedMsg struct{ err error }

// ConnectModel runs matchmaking in the background and hands over to a
// MatchModel once the session is up. It exists for front ends that cannot
// block before the first frame, like SSH sessions.
type ConnectModel struct {
	cfg    config.Config
	store  *storage.Store
	logger *log.Logger
	err    error
}

// NewConnectModel creates a model that connects using the given config.
func NewConnectModel(cfg config.Config, store *storage.Store, logger *log.Logger) ConnectModel {
	return ConnectModel{cfg: cfg, store: store, logger: logger}
}

// Init kicks off matchmaking.
func (m ConnectModel) Init() tea.Cmd {
	cfg, logger := m.cfg, m.logger
	return func() tea.Msg {
		session, opponent, err := netplay.Connect(context.Background(), cfg, logger)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return sessionReadyMsg{session: session, opponent: opponent}
	}
}

// Update waits for the session and switches to the match model.
func (m ConnectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionReadyMsg:
		match := NewMatchModel(msg.session, m.store, msg.opponent)
		return match, match.Init()

	case connectFailedMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View shows connection progress.
func (m ConnectModel) View() string {
	if m.err != nil {
		return overStyle.Render("could not connect: " + m.err.Error())
	}
	return "looking for a match..."
}
