package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenBrickProtocolFoundation/client/internal/platform/tui"
)

var (
	flagSSHAddr string
	flagHostKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an SSH server for remote play",
	Long: `Start an SSH server that lets users play matches without installing
the client. Each SSH connection runs matchmaking with the server's lobby
credentials, under the connecting user's name.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, the path from the config is used, auto-generating a key
    at ~/.obpf/ssh_host_key by default

Examples:
  obpf serve                           # Listen on the configured address
  obpf serve --ssh :2222               # Listen on port 2222
  obpf serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh <player-name>@localhost -p 23235`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if flagSSHAddr != "" {
		host, portStr, splitErr := net.SplitHostPort(flagSSHAddr)
		if splitErr != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --ssh address %q: %v\n", flagSSHAddr, splitErr)
			os.Exit(1)
		}
		port, portErr := strconv.Atoi(portStr)
		if portErr != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --ssh port %q\n", portStr)
			os.Exit(1)
		}
		cfg.SSH.Host = host
		cfg.SSH.Port = port
	}
	if flagHostKey != "" {
		cfg.SSH.HostKeyPath = flagHostKey
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting SSH server on %s\n", server.Addr())
	fmt.Println("Connect with: ssh <name>@localhost -p", cfg.SSH.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
