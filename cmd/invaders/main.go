// invaders is a multiplayer invaders session server with a terminal spectator
// dashboard.
//
// Usage:
//
//	invaders serve           - Run the game server (websocket + SSH spectators)
//	invaders watch           - Watch a running server in this terminal
//	invaders config          - Print the effective configuration
//
// Global flags:
//
//	--config <path>      - Config file (default: search ~/.invaders, ./configs)
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/invaders/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "invaders",
	Short: "Invaders - multiplayer session server",
	Long: `Invaders runs a shared game session: players descend toward the
platform while a ship fires at them. The first to land wins.

Available commands:
  serve    - Run the game server
  watch    - Spectate a running server in this terminal
  config   - Print the effective configuration

Examples:
  invaders serve
  invaders serve --http :9000 --ssh ""
  invaders watch --url ws://game.example.com:8080/spectate
  invaders config --config ./invaders.yaml`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// newLogger builds the root logger. Components derive prefixed loggers from it.
func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "invaders",
	})
	logger.SetLevel(lvl)
	return logger, nil
}
