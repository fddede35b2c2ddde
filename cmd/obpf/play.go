package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/OpenBrickProtocolFoundation/client/internal/netplay"
	"github.com/OpenBrickProtocolFoundation/client/internal/platform/tui"
	"github.com/OpenBrickProtocolFoundation/client/internal/storage"
)

var (
	flagLobbyURL string
	flagUsername string
	flagPassword string
	flagHost     string
	flagPort     uint16
	flagVariant  string
	flagVerbose  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Find a match and play",
	Long: `Log in to the lobby server, join or host a lobby, and play a match.

Controls:
  Left/A     - Move left
  Right/D    - Move right
  Down/S     - Soft drop
  Space      - Hard drop
  Up/W/X     - Rotate clockwise
  Z          - Rotate counterclockwise
  C          - Hold
  Q/Ctrl+C   - Quit

Examples:
  obpf play
  obpf play --username coder2k --password secret
  obpf play --lobby http://lobby.example:5000
  obpf play --variant heartbeat`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagLobbyURL, "lobby", "", "Lobby server URL (overrides config)")
	playCmd.Flags().StringVar(&flagUsername, "username", "", "Lobby username (overrides config)")
	playCmd.Flags().StringVar(&flagPassword, "password", "", "Lobby password (overrides config)")
	playCmd.Flags().StringVar(&flagHost, "host", "", "Game server host (overrides config)")
	playCmd.Flags().Uint16Var(&flagPort, "port", 0, "Game server port (0 = use lobby-announced port)")
	playCmd.Flags().StringVar(&flagVariant, "variant", "", "Input encoding: events or heartbeat")
	playCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if flagLobbyURL != "" {
		cfg.Lobby.URL = flagLobbyURL
	}
	if flagUsername != "" {
		cfg.Lobby.Username = flagUsername
	}
	if flagPassword != "" {
		cfg.Lobby.Password = flagPassword
	}
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagVariant != "" {
		cfg.Netplay.Variant = flagVariant
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "obpf"})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	// Connect before entering the alternate screen so matchmaking errors
	// stay readable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	session, opponent, err := netplay.Connect(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open match database: %v\n", err)
		// Continue without storage - the match still works
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	if err := tui.Run(session, store, opponent); err != nil {
		fmt.Fprintf(os.Stderr, "Error running match: %v\n", err)
		os.Exit(1)
	}
}
