package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/bankmock/pkg/engine"
	"github.com/getmockd/bankmock/pkg/repository"
	"github.com/getmockd/bankmock/pkg/resource"
)

var serveKeys = map[string]string{
	"addr":          "server.addr",
	"read-timeout":  "server.readTimeout",
	"write-timeout": "server.writeTimeout",
	"page-size":     "pagination.defaultPageSize",
	"max-page-size": "pagination.maxPageSize",
	"next-page":     "pagination.nextPage",
	"seed":          "seed.enabled",
}

func newServeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server (foreground)",
		Long: `Start the mock server. The database schema is created if missing.
With --seed, an empty database is filled with generated fixtures first.
The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  # Start with defaults on :8000
  bankmock serve

  # Throwaway database with fixtures
  bankmock serve --db :memory: --seed

  # Custom port and paging
  bankmock serve --addr :9000 --page-size 25 --max-page-size 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, serveKeys)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8000)")
	cmd.Flags().Int("read-timeout", 0, "Read timeout in seconds")
	cmd.Flags().Int("write-timeout", 0, "Write timeout in seconds")
	cmd.Flags().Int("page-size", 0, "Default list page size")
	cmd.Flags().Int("max-page-size", 0, "Maximum list page size")
	cmd.Flags().String("next-page", "", "next_page policy (lookahead, full_page)")
	cmd.Flags().Bool("seed", false, "Seed an empty database with fixtures before serving")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Seed.Enabled {
		if err := seedIfEmpty(ctx, a, db); err != nil {
			return err
		}
	}

	metrics := engine.NewMetricsObserver()
	e, err := a.newEngine(db, metrics)
	if err != nil {
		return err
	}

	handler := engine.NewHandler(e,
		engine.WithHandlerLogger(a.log),
		engine.WithMetrics(metrics),
		engine.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
	)

	srv := engine.NewServer(engine.ServerConfig{
		Addr:            a.cfg.Server.Addr,
		ReadTimeout:     seconds(a.cfg.Server.ReadTimeout),
		WriteTimeout:    seconds(a.cfg.Server.WriteTimeout),
		ShutdownTimeout: seconds(a.cfg.Server.ShutdownTimeout),
	}, handler, a.log)

	return srv.Run(ctx)
}

// seedIfEmpty seeds only when no accounts exist, so restarts over a file
// database do not duplicate fixtures.
func seedIfEmpty(ctx context.Context, a *app, db *sql.DB) error {
	repo := repository.New()

	total := 0
	for _, kind := range []resource.Kind{resource.KindPhysicalAccount, resource.KindLegalAccount} {
		n, err := repo.Count(ctx, db, resource.Lookup(kind))
		if err != nil {
			return fmt.Errorf("count %s: %w", kind, err)
		}
		total += n
	}
	if total > 0 {
		a.log.Info("database already holds accounts, skipping fixtures", "accounts", total)
		return nil
	}

	_, err := runSeed(ctx, a, db)
	return err
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
