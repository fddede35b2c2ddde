package lobby

import (
	"context"
	"fmt"
	"time"
)

const readyPollInterval = 500 * time.Millisecond

// MatchOptions controls QuickMatch.
type MatchOptions struct {
	// LobbyName is used when this client ends up hosting.
	LobbyName string

	// Size is the player count for a hosted lobby.
	Size int
}

// Match is the outcome of QuickMatch: where the game server listens, and
// whether the caller hosts the lobby (hosts are responsible for destroying
// it when the game ends).
type Match struct {
	Port    uint16
	LobbyID string
	IsHost  bool
}

// QuickMatch joins the first open lobby if one exists, otherwise creates one
// and waits for it to fill. Either way it blocks until the game server for
// the lobby is up and returns its port.
func (c *Client) QuickMatch(ctx context.Context, creds Credentials, opts MatchOptions) (Match, error) {
	lobbies, err := c.List(ctx)
	if err != nil {
		return Match{}, err
	}

	if len(lobbies) > 0 {
		id := lobbies[0].ID
		if err := c.Join(ctx, creds, id); err != nil {
			return Match{}, err
		}
		port, err := c.SetReady(ctx, creds, id)
		if err != nil {
			return Match{}, err
		}
		return Match{Port: port, LobbyID: id, IsHost: false}, nil
	}

	created, err := c.Create(ctx, creds, opts.LobbyName, opts.Size)
	if err != nil {
		return Match{}, err
	}
	if err := c.waitUntilFull(ctx, creds, created.ID, opts.Size); err != nil {
		return Match{}, err
	}
	port, err := c.Start(ctx, creds, created.ID)
	if err != nil {
		return Match{}, err
	}
	return Match{Port: port, LobbyID: created.ID, IsHost: true}, nil
}

// waitUntilFull polls the lobby until every seat is taken and every joined
// player is ready. The host counts as ready.
func (c *Client) waitUntilFull(ctx context.Context, creds Credentials, lobbyID string, size int) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		details, err := c.Details(ctx, creds, lobbyID)
		if err != nil {
			return err
		}
		if full(details, size) {
			return nil
		}
		c.logger.Debug("waiting for players", "have", len(details.Players)+1, "want", size)

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for lobby %s: %w", lobbyID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func full(details Details, size int) bool {
	if len(details.Players)+1 < size {
		return false
	}
	for _, p := range details.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}
