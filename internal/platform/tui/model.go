package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/OpenBrickProtocolFoundation/client/internal/netplay"
	"github.com/OpenBrickProtocolFoundation/client/internal/storage"
)

// MatchModel is the Bubble Tea model for one networked match. The session
// must already be started: the game-start handshake happens before the UI
// comes up so connection errors surface on the command line instead of
// inside the alternate screen.
type MatchModel struct {
	session  *netplay.Session
	store    *storage.Store
	keys     PlayKeyMap
	help     help.Model
	opponent string

	started    time.Time
	quitting   bool
	finished   bool
	saved      bool
	sessionErr error
}

// NewMatchModel creates a model for a started session.
func NewMatchModel(session *netplay.Session, store *storage.Store, opponent string) MatchModel {
	return MatchModel{
		session:  session,
		store:    store,
		keys:     DefaultPlayKeyMap(),
		help:     help.New(),
		opponent: opponent,
		started:  time.Now(),
	}
}

// Init starts the render loop.
func (m MatchModel) Init() tea.Cmd {
	return tickCmd(netplay.FrameRate)
}

// Update handles messages and updates the model state.
func (m MatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	return m, nil
}

func (m MatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	}

	if m.finished {
		return m, nil
	}
	if simKey, ok := m.keys.MapKey(msg); ok {
		m.session.Tap(simKey)
	}
	return m, nil
}

func (m MatchModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	select {
	case <-m.session.Done():
		m.sessionErr = m.session.Err()
		m.finished = true
	default:
	}

	if !m.finished && !m.session.SelfDriven() {
		if err := m.session.Step(now); err != nil {
			m.sessionErr = err
			m.finished = true
		}
	}

	if !m.finished {
		if local, remote, ok := m.session.Views(); ok && (local.GameOver || remote.GameOver) {
			m.finished = true
			m.saveResult(local, remote)
		}
	}

	return m, tickCmd(netplay.FrameRate)
}

// saveResult writes the finished match to the local history, once.
func (m *MatchModel) saveResult(local, remote netplay.PlayerView) {
	if m.saved || m.store == nil {
		return
	}
	m.saved = true

	reason := "topped_out"
	if !local.GameOver {
		reason = "opponent_topped_out"
	}
	//nolint:errcheck // Best-effort save, the result screen shows regardless
	m.store.SaveMatch(storage.MatchRecord{
		Opponent:      m.opponent,
		Seed:          m.session.Seed(),
		MyScore:       local.Score,
		MyLines:       local.Lines,
		OpponentScore: remote.Score,
		OpponentLines: remote.Lines,
		Won:           !local.GameOver && remote.GameOver,
		EndReason:     reason,
		DurationSecs:  int(time.Since(m.started).Seconds()),
	})
}

// View renders both boards side by side.
func (m MatchModel) View() string {
	if m.quitting {
		return ""
	}

	local, remote, ok := m.session.Views()
	if !ok {
		return "waiting for game start..."
	}

	body := RenderMatch("you", m.opponent, local, remote)

	var status string
	switch {
	case m.sessionErr != nil:
		status = overStyle.Render("connection lost: " + m.sessionErr.Error())
	case m.finished && local.GameOver && remote.GameOver:
		status = titleStyle.Render("draw")
	case m.finished && local.GameOver:
		status = overStyle.Render("you lost")
	case m.finished:
		status = titleStyle.Render("you won!")
	default:
		status = m.help.View(m.keys)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, "", status)
}

// Run starts the Bubble Tea program for a match and blocks until it ends.
func Run(session *netplay.Session, store *storage.Store, opponent string) error {
	model := NewMatchModel(session, store, opponent)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
