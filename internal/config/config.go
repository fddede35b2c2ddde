// Package config provides YAML-based configuration loading for the client.
package config

import (
	"fmt"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

// Config is the full client configuration.
type Config struct {
	Lobby   LobbyConfig   `yaml:"lobby"`
	Server  ServerConfig  `yaml:"server"`
	Netplay NetplayConfig `yaml:"netplay"`
	Storage StorageConfig `yaml:"storage"`
	SSH     SSHConfig     `yaml:"ssh"`
}

// LobbyConfig describes the lobby server and the account to use.
type LobbyConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"` // name for lobbies this client hosts
	Size     int    `yaml:"size"`
}

// ServerConfig overrides where the game server is dialed. When Port is 0
// the port announced by the lobby is used.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// NetplayConfig tunes the synchronization layer.
type NetplayConfig struct {
	// Variant selects the input encoding: "events" or "heartbeat".
	Variant string `yaml:"variant"`

	// InputDelay is how many frames behind the local player the remote
	// board is held in the events variant.
	InputDelay uint64 `yaml:"input_delay"`

	// PlaybackMargin is how many frames of remote input the heartbeat
	// variant keeps buffered before playing them back.
	PlaybackMargin uint64 `yaml:"playback_margin"`
}

// StorageConfig locates the local match history database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SSHConfig configures the optional SSH front end served by `obpf serve`.
type SSHConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	HostKeyPath string `yaml:"host_key_path"`
}

// ProtocolVariant maps the configured variant name to the wire codec
// variant.
func (c NetplayConfig) ProtocolVariant() (protocol.Variant, error) {
	switch c.Variant {
	case "events":
		return protocol.VariantEvents, nil
	case "heartbeat":
		return protocol.VariantHeartbeat, nil
	default:
		return 0, fmt.Errorf("config: unknown netplay variant %q", c.Variant)
	}
}

// Validate reports the first problem that would prevent the client from
// running.
func (c Config) Validate() error {
	if c.Lobby.URL == "" {
		return fmt.Errorf("config: lobby.url must be set")
	}
	if c.Lobby.Size < 2 {
		return fmt.Errorf("config: lobby.size must be at least 2, got %d", c.Lobby.Size)
	}
	if _, err := c.Netplay.ProtocolVariant(); err != nil {
		return err
	}
	if c.Netplay.InputDelay == 0 {
		return fmt.Errorf("config: netplay.input_delay must be positive")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path must be set")
	}
	return nil
}
