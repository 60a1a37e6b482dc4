package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store defines the interface for Hindsight data operations. The
// ingestion coordinator is the sole writer; reporting commands only
// use the read side.
type Store interface {
	InsertVisit(ctx context.Context, visit *Visit) (inserted bool, err error)
	UpsertDailySummary(ctx context.Context, visit *Visit) error
	Cursor(ctx context.Context, browser, profile string) (*Cursor, bool, error)
	AdvanceCursor(ctx context.Context, cursor *Cursor) error

	RecentVisits(ctx context.Context, limit int) ([]Visit, error)
	SearchVisits(ctx context.Context, term string, limit int) ([]Visit, error)
	DailyReport(ctx context.Context, date string) ([]ReportRow, error)
	BrowserTotals(ctx context.Context, date string) ([]BrowserCount, error)
	TopSites(ctx context.Context, days int) ([]DomainCount, error)
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertVisit   *sql.Stmt
	upsertSummary *sql.Stmt
	getCursor     *sql.Stmt
	putCursor     *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and
// migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO visits (url, title, visit_count, browser, profile, visited_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.upsertSummary, err = s.db.Prepare(`
		INSERT INTO daily_summary (date, domain, browser, visit_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(date, domain, browser)
		DO UPDATE SET visit_count = visit_count + 1
	`)
	if err != nil {
		return err
	}

	s.getCursor, err = s.db.Prepare(`
		SELECT browser, profile, last_visited_at, last_row_id
		FROM ingest_cursors WHERE browser = ? AND profile = ?
	`)
	if err != nil {
		return err
	}

	s.putCursor, err = s.db.Prepare(`
		INSERT INTO ingest_cursors (browser, profile, last_visited_at, last_row_id, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(browser, profile)
		DO UPDATE SET last_visited_at = excluded.last_visited_at,
		              last_row_id     = excluded.last_row_id,
		              updated_at      = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}

	return nil
}

// formatTime renders a timestamp for storage. RFC3339Nano keeps the
// microsecond precision the dedup key depends on.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// extractDomain pulls the hostname from a URL string. Falls back to the
// raw input for things that don't parse as URLs (file paths, etc.).
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

// isDuplicate reports whether err is the unique-constraint violation
// raised by an insert that hit the dedup key.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// InsertVisit inserts a visit. A conflict on the dedup key
// (url, browser, profile, visited_at) is not an error; it returns
// (false, nil) and the row is left untouched.
func (s *SQLiteStore) InsertVisit(ctx context.Context, visit *Visit) (bool, error) {
	if visit.IngestedAt.IsZero() {
		visit.IngestedAt = time.Now()
	}

	res, err := s.insertVisit.ExecContext(ctx,
		visit.URL, visit.Title, visit.VisitCount, visit.Browser, visit.Profile,
		formatTime(visit.VisitedAt), formatTime(visit.IngestedAt),
	)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert visit: %w", err)
	}

	visit.ID, _ = res.LastInsertId()
	return true, nil
}

// UpsertDailySummary credits one visit to the (date, domain, browser)
// counter for the visit's own day, creating the row on first sight.
func (s *SQLiteStore) UpsertDailySummary(ctx context.Context, visit *Visit) error {
	date := visit.VisitedAt.UTC().Format("2006-01-02")
	domain := extractDomain(visit.URL)

	if _, err := s.upsertSummary.ExecContext(ctx, date, domain, visit.Browser); err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	return nil
}

// Cursor returns the ingestion cursor for (browser, profile). The
// second return value is false when no cursor exists yet; the caller
// then treats every source row as new.
func (s *SQLiteStore) Cursor(ctx context.Context, browser, profile string) (*Cursor, bool, error) {
	var c Cursor
	var tsStr string

	err := s.getCursor.QueryRowContext(ctx, browser, profile).Scan(
		&c.Browser, &c.Profile, &tsStr, &c.LastRowID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cursor: %w", err)
	}

	c.LastVisitedAt, err = parseTimestamp(tsStr)
	if err != nil {
		return nil, false, fmt.Errorf("get cursor: %w", err)
	}

	return &c, true, nil
}

// AdvanceCursor overwrites the cursor for (browser, profile)
// unconditionally. Idempotent.
func (s *SQLiteStore) AdvanceCursor(ctx context.Context, cursor *Cursor) error {
	_, err := s.putCursor.ExecContext(ctx,
		cursor.Browser, cursor.Profile,
		formatTime(cursor.LastVisitedAt), cursor.LastRowID,
	)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

// RecentVisits returns the most recent visits, newest first.
func (s *SQLiteStore) RecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.scanVisits(ctx, `
		SELECT id, url, title, visit_count, browser, profile, visited_at, ingested_at
		FROM visits ORDER BY visited_at DESC LIMIT ?
	`, limit)
}

// SearchVisits returns visits whose URL or title contains term,
// newest first.
func (s *SQLiteStore) SearchVisits(ctx context.Context, term string, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + term + "%"
	return s.scanVisits(ctx, `
		SELECT id, url, title, visit_count, browser, profile, visited_at, ingested_at
		FROM visits
		WHERE url LIKE ? OR title LIKE ?
		ORDER BY visited_at DESC LIMIT ?
	`, pattern, pattern, limit)
}

// scanVisits executes a query and scans results into Visit slices.
func (s *SQLiteStore) scanVisits(ctx context.Context, query string, args ...interface{}) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var visitedStr, ingestedStr string
		if err := rows.Scan(
			&v.ID, &v.URL, &v.Title, &v.VisitCount, &v.Browser, &v.Profile,
			&visitedStr, &ingestedStr,
		); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.VisitedAt, _ = parseTimestamp(visitedStr)
		v.IngestedAt, _ = parseTimestamp(ingestedStr)
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice rather than nil
	if visits == nil {
		visits = []Visit{}
	}

	return visits, nil
}

// DailyReport returns per-domain, per-browser visit totals for one day,
// busiest domains first.
func (s *SQLiteStore) DailyReport(ctx context.Context, date string) ([]ReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, browser, SUM(visit_count) AS total
		FROM daily_summary
		WHERE date = ?
		GROUP BY domain, browser
		ORDER BY total DESC
		LIMIT 20
	`, date)
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	defer rows.Close()

	var report []ReportRow
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(&r.Domain, &r.Browser, &r.Visits); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

// BrowserTotals returns per-browser visit totals for one day.
func (s *SQLiteStore) BrowserTotals(ctx context.Context, date string) ([]BrowserCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT browser, SUM(visit_count) AS total
		FROM daily_summary
		WHERE date = ?
		GROUP BY browser
		ORDER BY total DESC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("browser totals: %w", err)
	}
	defer rows.Close()

	var totals []BrowserCount
	for rows.Next() {
		var bc BrowserCount
		if err := rows.Scan(&bc.Browser, &bc.Count); err != nil {
			return nil, fmt.Errorf("scan browser total: %w", err)
		}
		totals = append(totals, bc)
	}
	return totals, rows.Err()
}

// TopSites returns the most visited domains over the trailing window.
func (s *SQLiteStore) TopSites(ctx context.Context, days int) ([]DomainCount, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, SUM(visit_count) AS total
		FROM daily_summary
		WHERE date >= ?
		GROUP BY domain
		ORDER BY total DESC
		LIMIT 30
	`, since)
	if err != nil {
		return nil, fmt.Errorf("top sites: %w", err)
	}
	defer rows.Close()

	var sites []DomainCount
	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan top site: %w", err)
		}
		sites = append(sites, dc)
	}
	return sites, rows.Err()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT url) FROM visits").Scan(&stats.UniqueURLs)
	if err != nil {
		return nil, fmt.Errorf("count unique urls: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalVisits > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx,
			"SELECT MIN(visited_at), MAX(visited_at) FROM visits",
		).Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit, _ = parseTimestamp(oldestStr)
		stats.NewestVisit, _ = parseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT browser, COUNT(*) AS cnt FROM visits GROUP BY browser ORDER BY cnt DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("browser breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bc BrowserCount
		if err := rows.Scan(&bc.Browser, &bc.Count); err != nil {
			return nil, err
		}
		stats.ByBrowser = append(stats.ByBrowser, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	topRows, err := s.db.QueryContext(ctx, `
		SELECT domain, SUM(visit_count) AS total
		FROM daily_summary
		GROUP BY domain ORDER BY total DESC LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var dc DomainCount
		if err := topRows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}
	if err := topRows.Err(); err != nil {
		return nil, err
	}

	var day sql.NullString
	var dayTotal sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT date, SUM(visit_count) AS total
		FROM daily_summary
		GROUP BY date ORDER BY total DESC LIMIT 1
	`).Scan(&day, &dayTotal)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("most active day: %w", err)
	}
	if day.Valid {
		stats.MostActiveDay = day.String
		stats.MostActiveDayVisits = dayTotal.Int64
	}

	return stats, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed — that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertVisit, s.upsertSummary, s.getCursor, s.putCursor,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
