package netplay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/OpenBrickProtocolFoundation/client/internal/config"
	"github.com/OpenBrickProtocolFoundation/client/internal/lobby"
)

// Connect runs the whole matchmaking path: authenticate against the lobby
// server, join or host a lobby, dial the game server it announces, and wait
// for the game start. The returned session is started; the opponent name is
// best effort and falls back to "opponent".
func Connect(ctx context.Context, cfg config.Config, logger *log.Logger) (*Session, string, error) {
	variant, err := cfg.Netplay.ProtocolVariant()
	if err != nil {
		return nil, "", err
	}

	client := lobby.NewClient(cfg.Lobby.URL, logger)
	creds, err := client.Authenticate(ctx, cfg.Lobby.Username, cfg.Lobby.Password)
	if err != nil {
		return nil, "", fmt.Errorf("lobby login: %w", err)
	}

	match, err := client.QuickMatch(ctx, creds, lobby.MatchOptions{
		LobbyName: cfg.Lobby.Name,
		Size:      cfg.Lobby.Size,
	})
	if err != nil {
		return nil, "", fmt.Errorf("matchmaking: %w", err)
	}

	opponent := opponentName(ctx, client, creds, match.LobbyID)

	port := match.Port
	if cfg.Server.Port != 0 {
		port = cfg.Server.Port
	}
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(int(port)))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("dial game server %s: %w", addr, err)
	}
	logger.Info("connected to game server", "addr", addr)

	session := NewSession(conn, Config{
		Variant:        variant,
		InputDelay:     cfg.Netplay.InputDelay,
		PlaybackMargin: cfg.Netplay.PlaybackMargin,
	}, logger)
	if match.IsHost {
		session.OnClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Destroy(ctx, creds, match.LobbyID); err != nil {
				logger.Warn("destroy lobby", "lobby", match.LobbyID, "error", err)
			}
		})
	}

	if err := session.Start(ctx); err != nil {
		session.Close()
		return nil, "", err
	}

	return session, opponent, nil
}

func opponentName(ctx context.Context, client *lobby.Client, creds lobby.Credentials, lobbyID string) string {
	details, err := client.Details(ctx, creds, lobbyID)
	if err != nil {
		return "opponent"
	}
	for _, p := range append(details.Players, details.Host) {
		if p.Name != "" && p.Name != creds.Username {
			return p.Name
		}
	}
	return "opponent"
}
