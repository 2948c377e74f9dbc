package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/invaders/internal/config"
	"github.com/vovakirdan/invaders/internal/platform/tui"
)

var flagWatchURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Spectate a running server",
	Long: `Open the spectator dashboard for a running server in this terminal.

Controls:
  F/Tab      - Toggle the playfield
  Up/Down    - Scroll the player table
  ?          - More help
  Q/Ctrl+C   - Quit

Examples:
  invaders watch
  invaders watch --url ws://game.example.com:8080/spectate`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchURL, "url", "ws://localhost:8080/spectate", "Spectate websocket URL")
}

func runWatch(_ *cobra.Command, _ []string) {
	// Canvas geometry comes from the local config; the server does not send it.
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Default()
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	feed, err := tui.DialFeed(ctx, flagWatchURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer feed.Close()

	if err := tui.RunDashboard(tui.DashboardConfigFrom(cfg.Game), feed, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
