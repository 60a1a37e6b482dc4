package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/hindsight/internal/browser"
	"github.com/runnerr0/hindsight/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sourceRow struct {
	id         int64
	url        string
	title      string
	visitCount int64
	visitedAt  time.Time
}

// createChromiumStore writes a Chromium-shaped history database.
func createChromiumStore(t *testing.T, path string, rows []sourceRow) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE urls (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		visit_count INTEGER,
		typed_count INTEGER DEFAULT 0,
		last_visit_time INTEGER,
		hidden INTEGER DEFAULT 0
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		native := int64(0)
		if !r.visitedAt.IsZero() {
			native, err = browser.Chromium.FromTime(r.visitedAt)
			require.NoError(t, err)
		}
		_, err = db.Exec(
			"INSERT INTO urls (id, url, title, visit_count, last_visit_time) VALUES (?, ?, ?, ?, ?)",
			r.id, r.url, r.title, r.visitCount, native,
		)
		require.NoError(t, err)
	}
}

// createFirefoxStore writes a Firefox-shaped places database.
func createFirefoxStore(t *testing.T, path string, rows []sourceRow) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE moz_places (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		visit_count INTEGER,
		last_visit_date INTEGER
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		native := int64(0)
		if !r.visitedAt.IsZero() {
			native, err = browser.Mozilla.FromTime(r.visitedAt)
			require.NoError(t, err)
		}
		_, err = db.Exec(
			"INSERT INTO moz_places (id, url, title, visit_count, last_visit_date) VALUES (?, ?, ?, ?, ?)",
			r.id, r.url, r.title, r.visitCount, native,
		)
		require.NoError(t, err)
	}
}

// failCopier always fails, simulating a browser holding an exclusive lock.
type failCopier struct {
	calls int
}

func (c *failCopier) Copy(ctx context.Context, src, dst string) error {
	c.calls++
	return errors.New("sharing violation: file locked by browser")
}

func baseTime() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func TestVisits_Chromium_NoCursor(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	t1, t2, t3 := baseTime(), baseTime().Add(time.Minute), baseTime().Add(2*time.Minute)
	createChromiumStore(t, store, []sourceRow{
		{id: 3, url: "https://c.com", title: "C", visitCount: 1, visitedAt: t3},
		{id: 1, url: "https://a.com", title: "A", visitCount: 5, visitedAt: t1},
		{id: 2, url: "https://b.com", title: "B", visitCount: 2, visitedAt: t2},
		{id: 4, url: "https://never-visited.com", title: "placeholder"}, // last_visit_time = 0
	})

	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, t.TempDir(), testLogger())

	visits, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	require.NoError(t, err)
	require.Len(t, visits, 3, "never-visited placeholder rows are excluded")

	// Ascending by timestamp, so the last row is the next cursor.
	assert.Equal(t, "https://a.com", visits[0].URL)
	assert.Equal(t, "https://b.com", visits[1].URL)
	assert.Equal(t, "https://c.com", visits[2].URL)
	assert.True(t, visits[0].VisitedAt.Equal(t1))
	assert.True(t, visits[2].VisitedAt.Equal(t3))
	assert.Equal(t, int64(3), visits[2].SourceID)
	assert.Equal(t, "chrome", visits[2].Browser)
	assert.Equal(t, "Default", visits[2].Profile)
	assert.Equal(t, int64(5), visits[0].VisitCount)
}

func TestVisits_CursorBoundExcludesSeenRows(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	t1, t2, t3 := baseTime(), baseTime().Add(time.Minute), baseTime().Add(2*time.Minute)
	createChromiumStore(t, store, []sourceRow{
		{id: 1, url: "https://a.com", visitedAt: t1},
		{id: 2, url: "https://b.com", visitedAt: t2},
		{id: 3, url: "https://c.com", visitedAt: t3},
	})

	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, t.TempDir(), testLogger())

	cur := &storage.Cursor{Browser: "chrome", Profile: "Default", LastVisitedAt: t2, LastRowID: 2}
	visits, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, cur)
	require.NoError(t, err)
	require.Len(t, visits, 1, "cursor row and older rows excluded")
	assert.Equal(t, "https://c.com", visits[0].URL)
}

func TestVisits_CursorTieBreakOnRowID(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	ts := baseTime()
	createChromiumStore(t, store, []sourceRow{
		{id: 1, url: "https://a.com", visitedAt: ts},
		{id: 2, url: "https://b.com", visitedAt: ts}, // same timestamp, higher row id
	})

	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, t.TempDir(), testLogger())

	cur := &storage.Cursor{LastVisitedAt: ts, LastRowID: 1}
	visits, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, cur)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "https://b.com", visits[0].URL)
}

func TestVisits_Firefox(t *testing.T) {
	store := filepath.Join(t.TempDir(), "places.sqlite")
	t1 := baseTime()
	createFirefoxStore(t, store, []sourceRow{
		{id: 1, url: "https://mozilla.org", title: "Mozilla", visitCount: 7, visitedAt: t1},
		{id: 2, url: "https://bookmarked-only.org", title: "no visits"}, // NULL-ish visit date
	})

	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, t.TempDir(), testLogger())

	visits, err := r.Visits(context.Background(), browser.Firefox, browser.Profile{ID: "abcd.default", StorePath: store}, nil)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "https://mozilla.org", visits[0].URL)
	assert.Equal(t, "firefox", visits[0].Browser)
	assert.Equal(t, "abcd.default", visits[0].Profile)
	assert.True(t, visits[0].VisitedAt.Equal(t1))
}

func TestVisits_FallbackAfterLockedPrimary(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	createChromiumStore(t, store, []sourceRow{
		{id: 1, url: "https://a.com", visitedAt: baseTime()},
	})

	locked := &failCopier{}
	r := NewReaderWith(locked, DirectCopier{}, t.TempDir(), testLogger())

	visits, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	require.NoError(t, err, "fallback copier should rescue the snapshot")
	assert.Len(t, visits, 1)
	assert.Positive(t, locked.calls, "primary must be attempted first")
}

func TestVisits_BothCopiersFail(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	createChromiumStore(t, store, nil)

	primary := &failCopier{}
	fallback := &failCopier{}
	r := NewReaderWith(primary, fallback, t.TempDir(), testLogger())

	_, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Positive(t, primary.calls)
	assert.Positive(t, fallback.calls, "fallback attempted before giving up")
}

func TestVisits_TempCopyAlwaysRemoved(t *testing.T) {
	store := filepath.Join(t.TempDir(), "History")
	createChromiumStore(t, store, []sourceRow{
		{id: 1, url: "https://a.com", visitedAt: baseTime()},
	})

	tmpDir := t.TempDir()
	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, tmpDir, testLogger())

	_, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	require.NoError(t, err)
	assertDirEmpty(t, tmpDir)

	// Failure path cleans up too.
	rFail := NewReaderWith(&failCopier{}, &failCopier{}, tmpDir, testLogger())
	_, err = rFail.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	require.Error(t, err)
	assertDirEmpty(t, tmpDir)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary snapshot files must be removed")
}

func TestVisits_CopiesWALSidecar(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "History")
	createChromiumStore(t, store, []sourceRow{
		{id: 1, url: "https://a.com", visitedAt: baseTime()},
	})
	// A sidecar the browser left mid-write. Content does not matter for
	// the copy; an empty WAL is ignored by sqlite on open.
	require.NoError(t, os.WriteFile(store+"-wal", nil, 0644))

	tmpDir := t.TempDir()
	r := NewReaderWith(DirectCopier{}, ShadowCopier{}, tmpDir, testLogger())

	visits, err := r.Visits(context.Background(), browser.Chrome, browser.Profile{ID: "Default", StorePath: store}, nil)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
	assertDirEmpty(t, tmpDir)
}
