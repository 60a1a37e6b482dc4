package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/hindsight/internal/storage"
)

// topJSON is the JSON output structure for the top command.
type topJSON struct {
	Days    int             `json:"days"`
	Domains []domainRowJSON `json:"domains"`
}

type domainRowJSON struct {
	Domain string `json:"domain"`
	Visits int64  `json:"visits"`
}

// Execute implements the go-flags Commander interface for TopCommand.
func (c *TopCommand) Execute(args []string) error {
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

// executeWithStore runs top against a provided store (for testing).
func (c *TopCommand) executeWithStore(store storage.Store) error {
	sites, err := store.TopSites(context.Background(), c.Days)
	if err != nil {
		return fmt.Errorf("top sites: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := topJSON{Days: c.Days, Domains: []domainRowJSON{}}
		for _, s := range sites {
			out.Domains = append(out.Domains, domainRowJSON{Domain: s.Domain, Visits: s.Count})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Top Visited Sites (last %d days)\n", c.Days)
	fmt.Println("================================")
	if len(sites) == 0 {
		fmt.Println("No data available.")
		return nil
	}
	for i, s := range sites {
		fmt.Printf("%2d. %-40s %s visits\n", i+1, s.Domain, formatNumber(s.Count))
	}
	return nil
}
