package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/config"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/dumpstore"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/httpapi"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/mcp"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/symbolstore"
)

// idleTickInterval bounds how often the session manager sweeps for expired
// sessions and the dump store sweeps orphaned directories, per spec.md
// §4.4's idle-eviction note.
const idleTickInterval = time.Minute

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debugging service's HTTP and MCP surfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional)")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	logger := obs.NewComponentLogger("Server")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := obs.NewTelemetry(ctx, "dbgmcpd")
	if err != nil {
		return err
	}
	defer telemetry.Shutdown(context.Background())

	sessions, err := session.NewManager(cfg.StorageRoot, cfg.MaxSessionsPerUser, cfg.IdleSessionTTL)
	if err != nil {
		return err
	}
	dumps, err := dumpstore.New(cfg.StorageRoot, sessions)
	if err != nil {
		return err
	}
	symbols, err := symbolstore.New(cfg.StorageRoot)
	if err != nil {
		return err
	}
	dispatcher := mcp.New(sessions, dumps, symbols)

	router := httpapi.NewRouter(httpapi.Deps{
		Sessions:  sessions,
		Dumps:     dumps,
		Symbols:   symbols,
		MCP:       dispatcher,
		Config:    cfg,
		Telemetry: telemetry,
		Version:   version,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go runIdleSweeper(ctx, sessions, dumps, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runIdleSweeper evicts idle sessions and sweeps orphaned dump directories
// on a fixed interval until ctx is cancelled, per spec.md §4.4/§4.1.
func runIdleSweeper(ctx context.Context, sessions *session.Manager, dumps *dumpstore.Store, logger obs.Logger) {
	ticker := time.NewTicker(idleTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Tick()
			if err := dumps.Sweep(); err != nil {
				logger.Warn("dump sweep failed: %v", err)
			}
		}
	}
}
