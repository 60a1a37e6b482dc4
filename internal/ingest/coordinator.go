// Package ingest orchestrates polling cycles: one pass over every
// enabled browser and profile, merging new history rows into the
// durable store with duplicate suppression, driven on a fixed interval.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/runnerr0/hindsight/internal/browser"
	"github.com/runnerr0/hindsight/internal/snapshot"
	"github.com/runnerr0/hindsight/internal/storage"
)

// Locator enumerates the installed profiles of a browser.
type Locator interface {
	Locate(b browser.Browser) ([]browser.Profile, error)
}

// SnapshotReader extracts visit rows newer than a cursor from a
// profile's history store.
type SnapshotReader interface {
	Visits(ctx context.Context, b browser.Browser, p browser.Profile, cur *storage.Cursor) ([]storage.Visit, error)
}

// CycleStats summarizes one completed polling cycle.
type CycleStats struct {
	Units       int   // (browser, profile) pairs processed
	Unavailable int   // units skipped because the store could not be copied
	NewVisits   int64 // rows newly inserted this cycle
}

// Coordinator runs one polling cycle across all configured browsers.
// It is the sole writer of visits, summaries, and cursors. Failures
// are contained per (browser, profile) unit and never escalate.
type Coordinator struct {
	browsers []browser.Browser
	locator  Locator
	reader   SnapshotReader
	store    storage.Store
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator over the given collaborators.
func NewCoordinator(browsers []browser.Browser, locator Locator, reader SnapshotReader, store storage.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		browsers: browsers,
		locator:  locator,
		reader:   reader,
		store:    store,
		logger:   logger,
	}
}

// RunCycle performs one complete polling pass. The only error it
// returns is ctx's, checked between units so an in-flight unit always
// finishes its writes before shutdown.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleStats, error) {
	stats := &CycleStats{}

	for _, b := range c.browsers {
		profiles, err := c.locator.Locate(b)
		if err != nil {
			c.logger.Warn("cannot enumerate profiles, skipping browser",
				"browser", b, "error", err)
			continue
		}
		if len(profiles) == 0 {
			c.logger.Debug("browser not installed", "browser", b)
			continue
		}

		for _, p := range profiles {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Units++
			c.runUnit(ctx, b, p, stats)
		}
	}

	return stats, nil
}

// runUnit ingests one (browser, profile) pair. Every failure is logged
// and contained here; a unit that fails leaves its cursor untouched
// and is retried on the next cycle.
func (c *Coordinator) runUnit(ctx context.Context, b browser.Browser, p browser.Profile, stats *CycleStats) {
	cur, _, err := c.store.Cursor(ctx, string(b), p.ID)
	if err != nil {
		c.logger.Error("cursor read failed", "browser", b, "profile", p.ID, "error", err)
		return
	}

	visits, err := c.reader.Visits(ctx, b, p, cur)
	if err != nil {
		if errors.Is(err, snapshot.ErrStoreUnavailable) {
			stats.Unavailable++
			c.logger.Warn("store unavailable, skipping unit",
				"browser", b, "profile", p.ID, "error", err)
			return
		}
		c.logger.Error("extraction failed", "browser", b, "profile", p.ID, "error", err)
		return
	}
	if len(visits) == 0 {
		return
	}

	// The cursor bound normally prevents re-delivery; the dedup key on
	// the insert is the second line of defense against overlapping
	// source rows, absorbed silently.
	var inserted int64
	var last *storage.Visit
	for i := range visits {
		v := &visits[i]

		ok, err := c.store.InsertVisit(ctx, v)
		if err != nil {
			c.logger.Error("durable write failed, aborting unit",
				"browser", b, "profile", p.ID, "url", v.URL, "error", err)
			break
		}
		if ok {
			if err := c.store.UpsertDailySummary(ctx, v); err != nil {
				c.logger.Error("summary write failed, aborting unit",
					"browser", b, "profile", p.ID, "error", err)
				break
			}
			inserted++
		}
		last = v
	}

	if inserted == 0 {
		return
	}
	stats.NewVisits += inserted

	// Advance only past rows whose writes are durable. If this fails
	// the rows are re-delivered next cycle and absorbed as duplicates.
	next := &storage.Cursor{
		Browser:       string(b),
		Profile:       p.ID,
		LastVisitedAt: last.VisitedAt,
		LastRowID:     last.SourceID,
	}
	if err := c.store.AdvanceCursor(ctx, next); err != nil {
		c.logger.Error("cursor advance failed", "browser", b, "profile", p.ID, "error", err)
		return
	}

	c.logger.Info("unit ingested", "browser", b, "profile", p.ID, "new_rows", inserted)
}
