package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/hindsight/internal/browser"
	"github.com/runnerr0/hindsight/internal/ingest"
	"github.com/runnerr0/hindsight/internal/snapshot"
)

// Execute implements the go-flags Commander interface for RunCommand.
func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Interval > 0 {
		cfg.IntervalSeconds = c.Interval
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg, c.globals != nil && c.globals.Verbose)
	slog.SetDefault(logger)

	browsers, err := cfg.EnabledBrowsers()
	if err != nil {
		return err
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	tmpDir := cfg.Snapshot.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	reader := snapshot.NewReaderWith(
		snapshot.DirectCopier{},
		snapshot.ShadowCopier{Timeout: time.Duration(cfg.Snapshot.ShadowTimeoutSeconds) * time.Second},
		tmpDir,
		logger,
	)

	coordinator := ingest.NewCoordinator(browsers, browser.NewLocator(), reader, store, logger)
	scheduler := ingest.NewScheduler(cfg.Interval(), coordinator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("hindsight engine starting",
		"version", c.version,
		"browsers", cfg.Browsers,
		"interval_seconds", cfg.IntervalSeconds)

	return scheduler.Run(ctx)
}
