package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/OpenBrickProtocolFoundation/client/internal/platform/tui"
	"github.com/OpenBrickProtocolFoundation/client/internal/storage"
)

var flagPlain bool

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show the local match history",
	Long: `Display the recorded results of past matches.

Examples:
  obpf matches
  obpf matches --plain`,
	Args: cobra.NoArgs,
	Run:  runMatches,
}

func init() {
	matchesCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print plain text instead of the interactive view")
}

func runMatches(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening match database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagPlain {
		printMatches(store)
		return
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	if err := tui.RunHistory(store, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printMatches(store *storage.Store) {
	matches, err := store.RecentMatches(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving matches: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Match history")
	fmt.Println()

	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Run 'obpf play' to play your first match!")
		return
	}

	fmt.Printf("  %-16s  %-6s  %-11s  %-9s  %-8s  %s\n", "Opponent", "Result", "Score", "Lines", "Length", "Date")
	fmt.Printf("  %-16s  %-6s  %-11s  %-9s  %-8s  %s\n", "--------", "------", "-----", "-----", "------", "----")

	for _, rec := range matches {
		result := "loss"
		if rec.Won {
			result = "win"
		}
		fmt.Printf("  %-16s  %-6s  %-11s  %-9s  %-8s  %s\n",
			rec.Opponent,
			result,
			fmt.Sprintf("%d:%d", rec.MyScore, rec.OpponentScore),
			fmt.Sprintf("%d:%d", rec.MyLines, rec.OpponentLines),
			(time.Duration(rec.DurationSecs) * time.Second).String(),
			rec.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	if stats, err := store.Stats(); err == nil {
		fmt.Println()
		fmt.Printf("Played: %d  Won: %d  Best score: %d\n", stats.MatchesPlayed, stats.MatchesWon, stats.BestScore)
	}
}
