package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/hindsight/internal/storage"
)

// reportJSON is the JSON output structure for the report command.
type reportJSON struct {
	Date     string           `json:"date"`
	Domains  []reportRowJSON  `json:"domains"`
	Browsers []browserRowJSON `json:"browsers"`
}

type reportRowJSON struct {
	Domain  string `json:"domain"`
	Browser string `json:"browser"`
	Visits  int64  `json:"visits"`
}

type browserRowJSON struct {
	Browser string `json:"browser"`
	Visits  int64  `json:"visits"`
}

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
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

// executeWithStore runs report against a provided store (for testing).
func (c *ReportCommand) executeWithStore(store storage.Store) error {
	date := c.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", c.Date)
	}

	ctx := context.Background()
	rows, err := store.DailyReport(ctx, date)
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}
	totals, err := store.BrowserTotals(ctx, date)
	if err != nil {
		return fmt.Errorf("browser totals: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := reportJSON{Date: date, Domains: []reportRowJSON{}, Browsers: []browserRowJSON{}}
		for _, r := range rows {
			out.Domains = append(out.Domains, reportRowJSON{Domain: r.Domain, Browser: r.Browser, Visits: r.Visits})
		}
		for _, t := range totals {
			out.Browsers = append(out.Browsers, browserRowJSON{Browser: t.Browser, Visits: t.Count})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printReportHuman(date, rows, totals)
	return nil
}

func printReportHuman(date string, rows []storage.ReportRow, totals []storage.BrowserCount) {
	fmt.Printf("Daily Report - %s\n", date)
	fmt.Println("========================")

	if len(rows) == 0 {
		fmt.Println("No browsing activity recorded for this day.")
		return
	}

	fmt.Println("\nTop sites:")
	for _, r := range rows {
		fmt.Printf("  %-40s %6s  [%s]\n", r.Domain, formatNumber(r.Visits), r.Browser)
	}

	fmt.Println("\nBrowser usage:")
	for _, t := range totals {
		fmt.Printf("  %-10s %s visits\n", t.Browser, formatNumber(t.Count))
	}
}
