package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/hindsight/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
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

// executeWithStore runs search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(store storage.Store) error {
	visits, err := store.SearchVisits(context.Background(), c.Args.Term, c.Limit)
	if err != nil {
		return fmt.Errorf("search visits: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printVisitsJSON(visits)
	}

	if len(visits) == 0 {
		fmt.Printf("No results for %q\n", c.Args.Term)
		return nil
	}
	fmt.Printf("Results for %q:\n\n", c.Args.Term)
	printVisitsHuman(visits)
	return nil
}
