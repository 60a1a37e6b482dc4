package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand_EmptyDatabase(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "0.1.0-test"}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	assert.Contains(t, out, "Hindsight Status")
	assert.Contains(t, out, "0.1.0-test")
	assert.Contains(t, out, "Visits:        0")
}

func TestStatusCommand_WithData(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedVisit(t, store, "https://go.dev/doc", "Docs", "chrome", base)
	seedVisit(t, store, "https://go.dev/blog", "Blog", "chrome", base.Add(time.Minute))
	seedVisit(t, store, "https://example.com/", "", "firefox", base.Add(2*time.Minute))

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "test"}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	assert.Contains(t, out, "Visits:        3")
	assert.Contains(t, out, "Browser usage:")
	assert.Contains(t, out, "chrome")
	assert.Contains(t, out, "firefox")
	assert.Contains(t, out, "Top domains:")
	assert.Contains(t, out, "go.dev")
}

func TestStatusCommand_JSONOutput(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedVisit(t, store, "https://go.dev/doc", "Docs", "chrome", base)
	seedVisit(t, store, "https://go.dev/doc", "Docs", "firefox", base)

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "1.0.0"}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var got statusJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, int64(2), got.TotalVisits)
	assert.Equal(t, int64(1), got.UniqueURLs)
	assert.Equal(t, "2026-03-14", got.OldestVisit)
	assert.Len(t, got.ByBrowser, 2)
	require.NotEmpty(t, got.TopDomains)
	assert.Equal(t, "go.dev", got.TopDomains[0].Domain)
	assert.Equal(t, "2026-03-14", got.MostActiveDay)
	assert.Equal(t, int64(2), got.MostActiveDayVisits)
}
