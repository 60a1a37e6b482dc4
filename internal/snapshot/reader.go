package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/hindsight/internal/browser"
	"github.com/runnerr0/hindsight/internal/storage"
)

// ErrStoreUnavailable is returned when both the direct copy and the
// shadow copy of a history store fail. The caller skips the
// (browser, profile) unit for this cycle and retries on the next.
var ErrStoreUnavailable = errors.New("history store unavailable")

// Extraction queries per store family. The bound excludes the cursor
// row itself: strictly newer timestamp, or same timestamp with a
// higher row id. The `> 0` guard keeps never-visited placeholder rows
// out when no cursor exists yet. Ascending order lets the coordinator
// take the last row as the new cursor.
const (
	chromiumQuery = `
		SELECT id, url, IFNULL(title, ''), IFNULL(visit_count, 0), last_visit_time
		FROM urls
		WHERE last_visit_time > 0
		  AND (last_visit_time > ? OR (last_visit_time = ? AND id > ?))
		ORDER BY last_visit_time ASC, id ASC
	`
	mozillaQuery = `
		SELECT id, url, IFNULL(title, ''), IFNULL(visit_count, 0), IFNULL(last_visit_date, 0)
		FROM moz_places
		WHERE last_visit_date > 0
		  AND (last_visit_date > ? OR (last_visit_date = ? AND id > ?))
		ORDER BY last_visit_date ASC, id ASC
	`
)

// SQLite sidecar files that may accompany a store mid-write. They are
// copied along with the store so recent rows are not lost, and cleaned
// up with it.
var sidecarSuffixes = []string{"-wal", "-shm"}

// Reader extracts visit rows newer than a cursor from a browser's
// history store, via a private temporary copy.
type Reader struct {
	primary  Copier
	fallback Copier
	tmpDir   string
	logger   *slog.Logger
}

// NewReader creates a Reader with the default copy chain: direct copy
// first, host shadow copy as the locked-file fallback.
func NewReader(logger *slog.Logger) *Reader {
	return NewReaderWith(DirectCopier{}, ShadowCopier{}, os.TempDir(), logger)
}

// NewReaderWith creates a Reader with explicit copiers and temp
// directory. Tests use it to simulate lock contention.
func NewReaderWith(primary, fallback Copier, tmpDir string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{primary: primary, fallback: fallback, tmpDir: tmpDir, logger: logger}
}

// Visits returns the visit rows in p's store that are newer than cur,
// ascending by timestamp then source row id. A nil cur means every
// visited row is new. The temporary copy is always removed before
// returning, on every path.
func (r *Reader) Visits(ctx context.Context, b browser.Browser, p browser.Profile, cur *storage.Cursor) ([]storage.Visit, error) {
	fam := b.Family()

	var nativeTS, lastRowID int64
	if cur != nil {
		var err error
		nativeTS, err = fam.FromTime(cur.LastVisitedAt)
		if err != nil {
			return nil, fmt.Errorf("encode cursor for %s: %w", b, err)
		}
		lastRowID = cur.LastRowID
	}

	// Unique per (browser, profile) unit so concurrent units never
	// collide on the temp path.
	snap := filepath.Join(r.tmpDir, fmt.Sprintf("hindsight-%s-%s.sqlite", b, uuid.NewString()))
	defer func() {
		os.Remove(snap)
		for _, suf := range sidecarSuffixes {
			os.Remove(snap + suf)
		}
	}()

	if err := r.snapshot(ctx, r.primary, p.StorePath, snap); err != nil {
		r.logger.Warn("direct copy failed, trying shadow copy",
			"browser", b, "profile", p.ID, "error", err)
		if err := r.snapshot(ctx, r.fallback, p.StorePath, snap); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrStoreUnavailable, b, p.ID, err)
		}
	}

	// The copy is private, so sqlite may recover the sidecar WAL on
	// open; only SELECTs run against it and the live store is untouched.
	db, err := sql.Open("sqlite3", "file:"+snap+"?_busy_timeout=1000")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	query := chromiumQuery
	if fam == browser.Mozilla {
		query = mozillaQuery
	}

	rows, err := db.QueryContext(ctx, query, nativeTS, nativeTS, lastRowID)
	if err != nil {
		return nil, fmt.Errorf("extract %s %s: %w", b, p.ID, err)
	}
	defer rows.Close()

	var visits []storage.Visit
	for rows.Next() {
		var (
			rowID, visitCount, native int64
			rawURL, title             string
		)
		if err := rows.Scan(&rowID, &rawURL, &title, &visitCount, &native); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", b, err)
		}
		if rawURL == "" {
			continue
		}

		ts, err := fam.ToTime(native)
		if err != nil {
			return nil, fmt.Errorf("decode %s timestamp: %w", b, err)
		}

		visits = append(visits, storage.Visit{
			URL:        rawURL,
			Title:      title,
			VisitCount: visitCount,
			Browser:    string(b),
			Profile:    p.ID,
			VisitedAt:  ts,
			SourceID:   rowID,
		})
	}

	return visits, rows.Err()
}

// snapshot copies the store and any present sidecar files with the
// given copier. Failure on any file fails the whole snapshot.
func (r *Reader) snapshot(ctx context.Context, c Copier, src, dst string) error {
	if err := c.Copy(ctx, src, dst); err != nil {
		return err
	}
	for _, suf := range sidecarSuffixes {
		side := src + suf
		if _, err := os.Stat(side); err != nil {
			continue
		}
		if err := c.Copy(ctx, side, dst+suf); err != nil {
			return err
		}
	}
	return nil
}
