// obpf is a terminal client for networked two-player falling-block matches.
//
// Usage:
//
//	obpf play                - Find a match and play
//	obpf matches             - Show the local match history
//	obpf serve               - Start an SSH server for remote play
//
// Global flags:
//
//	--config <path>  - Path to a config YAML (default: ~/.obpf/config.yaml)
//	--db <path>      - Path to the match database (overrides config)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenBrickProtocolFoundation/client/internal/config"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "obpf",
	Short: "OBPF - Networked falling-block matches in your terminal",
	Long: `obpf is a terminal client for two-player falling-block matches.
It finds an opponent through a lobby server and keeps both boards in
lockstep over a TCP connection to a game server.

Available commands:
  play     - Find a match and play
  matches  - View the local match history
  serve    - Start an SSH server for remote play

Examples:
  obpf play
  obpf play --username coder2k
  obpf matches
  obpf serve --ssh :2222`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to match database (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	return cfg, nil
}
