package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/acctree/internal/clock"
	"github.com/roach88/acctree/internal/config"
	"github.com/roach88/acctree/internal/index"
	"github.com/roach88/acctree/internal/ledger"
	"github.com/roach88/acctree/internal/store"
)

// session is one load-operate-save cycle over the data file.
type session struct {
	cfg     config.Config
	backend store.Backend
	ledger  *ledger.Ledger
	out     *OutputFormatter
	dirty   bool
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataPath != "" {
		cfg.Storage.Path = opts.DataPath
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid flags", err)
	}
	return cfg, nil
}

// setupLogging installs the slog default for this invocation.
func setupLogging(cfg config.Config, verbose bool, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel() // validated by loadConfig
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// withSession loads the ledger, runs fn, and saves when fn succeeded and
// marked the session dirty.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg, opts.Verbose, cmd.ErrOrStderr())

	backend, err := store.Open(store.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		Logger:  logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("error closing storage", "error", closeErr)
		}
	}()

	tuples, err := backend.Load(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load accounts", err)
	}

	l := ledger.New(ledger.Options{
		Clock:         clock.NewSystem(cfg.Clock.Layout, cfg.Clock.UTC),
		InterestBasis: cfg.Interest.LogBasis,
		Logger:        logger,
	})
	stats := l.Import(tuples, index.ImportOptions{RestoreHistory: cfg.Storage.RestoreHistory})
	slog.Debug("accounts loaded",
		"path", cfg.Storage.Path,
		"backend", cfg.Storage.Backend,
		"accounts", stats.Inserted,
		"events", stats.Events)

	s := &session{
		cfg:     cfg,
		backend: backend,
		ledger:  l,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}
	if err := fn(s); err != nil {
		return err
	}
	if !s.dirty {
		return nil
	}

	if err := backend.Save(ctx, l.Export()); err != nil {
		return WrapExitError(ExitCommandError, "failed to save accounts", err)
	}
	slog.Debug("accounts saved", "path", cfg.Storage.Path, "accounts", l.Len())
	s.out.VerboseLog("saved %d accounts to %s", l.Len(), cfg.Storage.Path)
	return nil
}

// refused turns a ledger error into an ExitFailure.
func refused(op string, err error) error {
	return WrapExitError(ExitFailure, op+" failed", err)
}

func parseAccountNumber(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid account number %q", arg))
	}
	return id, nil
}

func parseAmount(arg string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", arg))
	}
	return d, nil
}
