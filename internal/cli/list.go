package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/hindsight/internal/storage"
)

// visitJSON is the JSON output structure for a single visit.
type visitJSON struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Browser    string `json:"browser"`
	Profile    string `json:"profile"`
	VisitedAt  string `json:"visited_at"`
	VisitCount int64  `json:"visit_count"`
}

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
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

// executeWithStore runs list against a provided store (for testing).
func (c *ListCommand) executeWithStore(store storage.Store) error {
	visits, err := store.RecentVisits(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("list visits: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printVisitsJSON(visits)
	}
	printVisitsHuman(visits)
	return nil
}

func printVisitsJSON(visits []storage.Visit) error {
	out := make([]visitJSON, 0, len(visits))
	for _, v := range visits {
		out = append(out, visitJSON{
			URL:        v.URL,
			Title:      v.Title,
			Browser:    v.Browser,
			Profile:    v.Profile,
			VisitedAt:  v.VisitedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			VisitCount: v.VisitCount,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printVisitsHuman(visits []storage.Visit) {
	if len(visits) == 0 {
		fmt.Println("No visits captured yet.")
		return
	}
	for _, v := range visits {
		fmt.Printf("[%s] [%s/%s]\n", v.VisitedAt.Local().Format("2006-01-02 15:04:05"), v.Browser, v.Profile)
		if v.Title != "" {
			fmt.Printf("  Title: %s\n", v.Title)
		}
		fmt.Printf("  URL:   %s\n", v.URL)
	}
	fmt.Printf("\n%s visits shown\n", formatNumber(int64(len(visits))))
}
