package config

import (
	_ "embed"
)

//go:embed defaults/config.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It points at a lobby server on
// localhost and uses the edge-triggered input encoding.
func Default() Config {
	return Config{
		Lobby: LobbyConfig{
			URL:  "http://127.0.0.1:5000",
			Name: "obpf lobby",
			Size: 2,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
		},
		Netplay: NetplayConfig{
			Variant:        "events",
			InputDelay:     30,
			PlaybackMargin: 60,
		},
		Storage: StorageConfig{
			Path: "~/.obpf/matches.db",
		},
		SSH: SSHConfig{
			Host:        "0.0.0.0",
			Port:        23235,
			HostKeyPath: "~/.obpf/ssh_host_key",
		},
	}
}
