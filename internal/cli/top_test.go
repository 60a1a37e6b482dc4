package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopCommand_RanksByVisits(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	// TopSites works on a trailing window, so seed relative to now.
	now := time.Now().UTC()
	seedVisit(t, store, "https://go.dev/a", "", "chrome", now.Add(-3*time.Hour))
	seedVisit(t, store, "https://go.dev/b", "", "chrome", now.Add(-2*time.Hour))
	seedVisit(t, store, "https://example.com/x", "", "firefox", now.Add(-time.Hour))

	cmd := &TopCommand{Days: 7, globals: &GlobalFlags{JSON: true}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var got topJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 7, got.Days)
	require.Len(t, got.Domains, 2)
	assert.Equal(t, "go.dev", got.Domains[0].Domain)
	assert.Equal(t, int64(2), got.Domains[0].Visits)
	assert.Equal(t, "example.com", got.Domains[1].Domain)
}

func TestTopCommand_WindowExcludesOldVisits(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	now := time.Now().UTC()
	seedVisit(t, store, "https://recent.example.com/", "", "chrome", now.Add(-time.Hour))
	seedVisit(t, store, "https://ancient.example.com/", "", "chrome", now.AddDate(0, 0, -30))

	cmd := &TopCommand{Days: 7, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "recent.example.com")
	assert.NotContains(t, out, "ancient.example.com")
}

func TestTopCommand_Empty(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	cmd := &TopCommand{Days: 7, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "No data available.")
}
