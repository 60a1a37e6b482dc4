package storage

import "database/sql"

// migrateV001 creates the initial Hindsight schema. Every statement
// uses IF NOT EXISTS for idempotency.
//
// visits holds one row per browsing event; the unique index on
// (url, browser, profile, visited_at) is the deduplication key.
// daily_summary holds one counter row per (date, domain, browser).
// ingest_cursors is internal bookkeeping and is not part of the
// reporting contract.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visits (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			url         TEXT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			visit_count INTEGER NOT NULL DEFAULT 0,
			browser     TEXT NOT NULL,
			profile     TEXT NOT NULL DEFAULT 'Default',
			visited_at  DATETIME NOT NULL,
			ingested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS daily_summary (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			date        TEXT NOT NULL,
			domain      TEXT NOT NULL,
			browser     TEXT NOT NULL,
			visit_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(date, domain, browser)
		)`,

		`CREATE TABLE IF NOT EXISTS ingest_cursors (
			browser         TEXT NOT NULL,
			profile         TEXT NOT NULL,
			last_visited_at DATETIME NOT NULL,
			last_row_id     INTEGER NOT NULL DEFAULT 0,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (browser, profile)
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_visits_dedup
			ON visits(url, browser, profile, visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_visited_at ON visits(visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_url        ON visits(url)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_browser    ON visits(browser)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_date      ON daily_summary(date)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_domain    ON daily_summary(domain)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
