package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/api"
	"github.com/warp/comp-engine/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer runStore.Close()

		jobs := api.NewJobManager(runStore, logger)
		defer jobs.Shutdown()

		handler := api.NewHandler(runStore, jobs, cfg.Globals(), logger)
		router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// openStore builds the configured RunStore backend.
func openStore(ctx context.Context) (store.RunStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.OpenSQLite(cfg.Store.DSN)
	case "postgres":
		return store.OpenPostgres(ctx, cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
