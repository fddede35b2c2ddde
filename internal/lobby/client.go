// Package lobby talks to the lobby server that brokers matches. The lobby
// server owns accounts and waiting rooms and spawns a game server per
// started lobby; this package only covers what the client needs to get from
// "logged in" to "game server port in hand".
package lobby

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnauthorized reports rejected credentials or an expired token.
	ErrUnauthorized = errors.New("lobby: unauthorized")

	// ErrNotFound reports a lobby that no longer exists.
	ErrNotFound = errors.New("lobby: not found")

	// ErrLobbyFull reports a join attempt on a lobby at capacity.
	ErrLobbyFull = errors.New("lobby: full")
)

const defaultTimeout = 10 * time.Second

// Credentials is an authenticated user: the bearer token plus the username
// it was issued for.
type Credentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Info is one entry of the lobby list.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int    `json:"size"`
	NumPlayers int    `json:"num_players_in_lobby"`
}

// PlayerInfo describes one player inside a lobby.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Details is the full state of a single lobby.
type Details struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Size    int          `json:"size"`
	Host    PlayerInfo   `json:"host_info"`
	Players []PlayerInfo `json:"client_infos"`
}

// Client is an HTTP client for one lobby server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient returns a client for the lobby server at baseURL, for example
// "http://127.0.0.1:5000".
func NewClient(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// Authenticate logs in and returns a token for the remaining calls.
func (c *Client) Authenticate(ctx context.Context, username, password string) (Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &resp); err != nil {
		return Credentials{}, err
	}
	c.logger.Debug("authenticated", "username", username)
	return Credentials{Username: username, Token: resp.Token}, nil
}

// List returns every lobby currently known to the server.
func (c *Client) List(ctx context.Context) ([]Info, error) {
	var resp struct {
		Lobbies []Info `json:"lobbies"`
	}
	if err := c.do(ctx, http.MethodGet, "/lobbies", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lobbies, nil
}

// Create opens a new lobby with the caller as host.
func (c *Client) Create(ctx context.Context, creds Credentials, name string, size int) (Info, error) {
	body := map[string]any{"name": name, "size": size}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/lobbies", creds.Token, body, &resp); err != nil {
		return Info{}, err
	}
	c.logger.Info("created lobby", "name", name, "id", resp.ID)
	return Info{ID: resp.ID, Name: name, Size: size, NumPlayers: 1}, nil
}

// Details fetches the current players and ready states of a lobby.
func (c *Client) Details(ctx context.Context, creds Credentials, lobbyID string) (Details, error) {
	var resp Details
	if err := c.do(ctx, http.MethodGet, "/lobbies/"+lobbyID, creds.Token, nil, &resp); err != nil {
		return Details{}, err
	}
	return resp, nil
}

// Join enters an existing lobby as a regular player.
func (c *Client) Join(ctx context.Context, creds Credentials, lobbyID string) error {
	if err := c.do(ctx, http.MethodPost, "/lobbies/"+lobbyID+"/join", creds.Token, nil, nil); err != nil {
		return err
	}
	c.logger.Info("joined lobby", "id", lobbyID)
	return nil
}

// SetReady marks the caller ready and returns the port of the game server
// assigned to the lobby. The port is only usable once the host has started
// the game.
func (c *Client) SetReady(ctx context.Context, creds Credentials, lobbyID string) (uint16, error) {
	var resp struct {
		Port uint16 `json:"port"`
	}
	if err := c.do(ctx, http.MethodPost, "/lobbies/"+lobbyID+"/ready", creds.Token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Port, nil
}

// Start launches the game server for the lobby and returns its port. Only
// the host may call this.
func (c *Client) Start(ctx context.Context, creds Credentials, lobbyID string) (uint16, error) {
	var resp struct {
		Port uint16 `json:"port"`
	}
	if err := c.do(ctx, http.MethodPost, "/lobbies/"+lobbyID+"/start", creds.Token, nil, &resp); err != nil {
		return 0, err
	}
	c.logger.Info("lobby started", "id", lobbyID, "port", resp.Port)
	return resp.Port, nil
}

// Destroy removes the lobby. Only the host may call this.
func (c *Client) Destroy(ctx context.Context, creds Credentials, lobbyID string) error {
	return c.do(ctx, http.MethodDelete, "/lobbies/"+lobbyID, creds.Token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrLobbyFull
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
