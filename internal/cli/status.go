package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/hindsight/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version             string            `json:"version"`
	TotalVisits         int64             `json:"total_visits"`
	UniqueURLs          int64             `json:"unique_urls"`
	OldestVisit         string            `json:"oldest_visit,omitempty"`
	NewestVisit         string            `json:"newest_visit,omitempty"`
	ByBrowser           []browserRowJSON  `json:"by_browser"`
	TopDomains          []domainRowJSON   `json:"top_domains"`
	MostActiveDay       string            `json:"most_active_day,omitempty"`
	MostActiveDayVisits int64             `json:"most_active_day_visits,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store)
}

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(store storage.Store) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats)
	}
	c.printStatusHuman(stats)
	return nil
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats) {
	fmt.Println("Hindsight Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Visits:        %s\n", formatNumber(stats.TotalVisits))
	fmt.Printf("Unique URLs:   %s\n", formatNumber(stats.UniqueURLs))

	if stats.TotalVisits > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestVisit.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestVisit.Local().Format("2006-01-02"))
	}

	if len(stats.ByBrowser) > 0 {
		fmt.Println()
		fmt.Println("Browser usage:")
		for _, bc := range stats.ByBrowser {
			pct := float64(bc.Count) / float64(stats.TotalVisits) * 100
			fmt.Printf("  %-10s %8s (%.1f%%)\n", bc.Browser, formatNumber(bc.Count), pct)
		}
	}

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top domains:")
		for _, dc := range stats.TopDomains {
			fmt.Printf("  %-40s %s\n", dc.Domain, formatNumber(dc.Count))
		}
	}

	if stats.MostActiveDay != "" {
		fmt.Println()
		fmt.Printf("Most active day: %s (%s visits)\n",
			stats.MostActiveDay, formatNumber(stats.MostActiveDayVisits))
	}
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats) error {
	out := statusJSON{
		Version:             c.version,
		TotalVisits:         stats.TotalVisits,
		UniqueURLs:          stats.UniqueURLs,
		ByBrowser:           []browserRowJSON{},
		TopDomains:          []domainRowJSON{},
		MostActiveDay:       stats.MostActiveDay,
		MostActiveDayVisits: stats.MostActiveDayVisits,
	}
	if stats.TotalVisits > 0 {
		out.OldestVisit = stats.OldestVisit.UTC().Format("2006-01-02")
		out.NewestVisit = stats.NewestVisit.UTC().Format("2006-01-02")
	}
	for _, bc := range stats.ByBrowser {
		out.ByBrowser = append(out.ByBrowser, browserRowJSON{Browser: bc.Browser, Visits: bc.Count})
	}
	for _, dc := range stats.TopDomains {
		out.TopDomains = append(out.TopDomains, domainRowJSON{Domain: dc.Domain, Visits: dc.Count})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
