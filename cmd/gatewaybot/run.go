package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/gateway/discord"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
)

const (
	shutdownTimeout = 10 * time.Second
	remindWait      = 30 * time.Second
	dedupWindow     = 10 * time.Minute
)

var errNoToken = errors.New("discord token is required (--token, EVENTMGR_TOKEN or token in the config file)")

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and dispatch gateway events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.Token == "" {
				return errNoToken
			}

			logger, logCloser, err := newLogger(settings.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logCloser.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, logger)
		},
	}
	addSettingsFlags(cmd)
	return cmd
}

func run(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	store, err := openJournal(settings.Journal)
	if err != nil {
		return err
	}

	client, err := discord.New(discord.Options{
		Token:   settings.Token,
		Intents: settings.Intents,
		Manager: managerConfig(settings, logger, store),
		Dedup:   dedupWindow,
	})
	if err != nil {
		store.Close()
		return err
	}

	b := newBot(client, logger, remindWait)
	if err := b.register(client.Manager()); err != nil {
		return multierror.Append(err, client.Close(context.Background())).ErrorOrNil()
	}

	if err := client.Open(); err != nil {
		return multierror.Append(err, client.Close(context.Background())).ErrorOrNil()
	}
	logger.Info("gateway bot running",
		slog.Duration("listener_timeout", settings.Manager.Timeout),
		slog.Int("workers", settings.Manager.Workers),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Close(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	stats := client.Manager().Stats()
	logger.Info("stopped",
		slog.Uint64("dispatched", stats.Dispatched),
		slog.Uint64("failed", stats.Failed),
		slog.Uint64("timed_out", stats.TimedOut),
	)
	return nil
}

// managerConfig builds the manager configuration. The manager's lifecycle
// is not tied to the signal context: client.Close ends it after the
// session stops delivering events.
func managerConfig(settings config.Settings, logger *slog.Logger, store journal.Store) eventmgr.Config {
	var pool eventmgr.Pool = eventmgr.GoPool{}
	if settings.Manager.Workers > 0 {
		pool = eventmgr.NewBoundedPool(settings.Manager.Workers)
	}
	return eventmgr.Config{
		Pool:    pool,
		Parent:  context.Background(),
		Timeout: settings.Manager.Timeout,
		Logger:  logger,
		Metrics: observability.NewMetricsRecorder(),
		Spans:   observability.NewSpanManager(),
		Journal: store,
	}
}

func openJournal(s config.JournalSettings) (journal.Store, error) {
	if s.Path == "" {
		return journal.NewMemoryStore(s.Capacity), nil
	}
	store, err := journal.NewSQLiteStore(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open incident journal: %w", err)
	}
	return store, nil
}
