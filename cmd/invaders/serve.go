package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/gateway"
	"github.com/vovakirdan/invaders/internal/hub"
	"github.com/vovakirdan/invaders/internal/platform/tui"
	"github.com/vovakirdan/invaders/internal/session"
)

var (
	flagHTTPAddr string
	flagSSHAddr  string
	flagHostKey  string
	flagSeed     int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invaders game server",
	Long: `Run the authoritative game session.

Players connect over websocket:
  GET /auth                         - issue a client id and token
  GET /ws?token=...&nickname=...    - play
  GET /spectate                     - read-only game stream
  GET /lobby                        - session status
  GET /health                       - liveness

Spectators can also watch over SSH unless --ssh is empty.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.invaders/host_key

Examples:
  invaders serve                         # HTTP on :8080, SSH on :23234
  invaders serve --http :9000            # Different websocket port
  invaders serve --ssh ""                # No SSH spectators
  invaders serve --seed 42               # Reproducible spawns

Spectate with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/websocket address (overrides server.http_addr)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH spectator address, empty disables (overrides server.ssh_addr)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	flags := cmd.Flags()
	if flags.Changed("http") {
		cfg.Server.HTTPAddr = flagHTTPAddr
	}
	if flags.Changed("ssh") {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		cfg.Server.HostKeyPath = flagHostKey
	}
	if flags.Changed("seed") {
		cfg.Game.Seed = flagSeed
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Server.TokenSecret == "" {
		cfg.Server.TokenSecret = uuid.NewString()
		logger.Warn("no token secret configured, tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.New(bus.DefaultBufferSize, logger)
	defer b.Close()

	engine := session.NewEngine(cfg, hub.NewPublisher(b, logger), logger)
	h := hub.New(b, engine, logger)
	gw := gateway.New(cfg, b, engine, logger)

	var sshServer *tui.SSHServer
	if cfg.Server.SSHAddr != "" {
		feeds := func() tui.Feed { return tui.NewBusFeed(b) }
		sshServer, err = tui.NewSSHServer(tui.SSHServerConfigFrom(cfg.Server), tui.DashboardConfigFrom(cfg.Game), feeds, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SSH server: %v\n", err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })
	g.Go(func() error { return h.Run(gctx) })
	g.Go(func() error { return gw.ListenAndServe(gctx, cfg.Server.HTTPAddr) })
	if sshServer != nil {
		g.Go(func() error { return sshServer.ListenAndServe(gctx) })
	}

	fmt.Printf("Invaders server on %s (%d-%d players)\n", cfg.Server.HTTPAddr, cfg.Game.MinPlayers, cfg.Game.MaxPlayers)
	if sshServer != nil {
		fmt.Printf("Spectate with: ssh localhost -p %s\n", portOf(sshServer.Addr()))
	}
	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// portOf returns the port part of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
