package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/bankmock/internal/storage"
	"github.com/getmockd/bankmock/pkg/config"
	"github.com/getmockd/bankmock/pkg/engine"
	"github.com/getmockd/bankmock/pkg/logging"
	"github.com/getmockd/bankmock/pkg/resource"
)

// persistentKeys maps root flags onto configuration keys.
var persistentKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"db":         "database.path",
}

// app is the state shared by a single command invocation.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	out     io.Writer
	json    bool
	closers []func() error
}

// newApp resolves configuration for cmd and opens the logger. keys maps the
// command's own flags onto configuration keys; only flags the user set are
// applied.
func newApp(cmd *cobra.Command, g *globalFlags, keys map[string]string) (*app, error) {
	path := g.configFile
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}

	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for _, m := range []map[string]string{persistentKeys, keys} {
		for name, key := range m {
			if !cmd.Flags().Changed(name) {
				continue
			}
			if err := cfg.Set(key, cmd.Flags().Lookup(name).Value.String(), config.SourceFlag); err != nil {
				return nil, fmt.Errorf("--%s: %w", name, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	a := &app{cfg: cfg, out: cmd.OutOrStdout(), json: g.jsonOutput}

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logCfg.Tee = f
		a.closers = append(a.closers, f.Close)
	}
	a.log = logging.New(logCfg)

	return a, nil
}

// openDB opens the configured database and brings its schema up to date.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := storage.Open(storage.Config{
		Path:          a.cfg.Database.Path,
		MaxOpenConns:  a.cfg.Database.MaxOpenConns,
		BusyTimeoutMs: a.cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if err := storage.Migrate(ctx, db); err != nil {
		return nil, err
	}
	a.log.Debug("database ready", "path", a.cfg.Database.Path)
	return db, nil
}

// newEngine builds an engine with the configured limits and paging.
func (a *app) newEngine(db *sql.DB, observer engine.Observer) (*engine.Engine, error) {
	policy, err := resource.ParseNextPagePolicy(a.cfg.Pagination.NextPage)
	if err != nil {
		return nil, err
	}

	v, err := resource.NewValidator(
		resource.WithMaxLength("name", a.cfg.Limits.NameMaxLength),
		resource.WithMaxLength("policy_number", a.cfg.Limits.PolicyNumberMaxLength),
	)
	if err != nil {
		return nil, fmt.Errorf("compile validators: %w", err)
	}

	return engine.New(db,
		engine.WithLogger(a.log),
		engine.WithObserver(observer),
		engine.WithValidator(v),
		engine.WithPageSizes(a.cfg.Pagination.DefaultPageSize, a.cfg.Pagination.MaxPageSize),
		engine.WithNextPagePolicy(policy),
	)
}

// Close releases everything the invocation opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
