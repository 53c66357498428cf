package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifiscout/wifi"
)

var testSnapshot = wifi.Snapshot{
	CurrentSSID: "Home",
	Networks: []wifi.Network{
		{SSID: "Home", Signal: -40, Security: "WPA2 Personal", Channel: "36", BSSID: "Home-36", IsCurrent: true},
		{SSID: "Cafe", Signal: -70, Security: "Open", Channel: "6", BSSID: "aa:bb:cc:dd:ee:ff"},
	},
}

// fakeClock returns a clock that can be advanced by tests.
func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestCache_ReadEmpty(t *testing.T) {
	c := New(nil, nil)
	_, ok := c.Read()
	assert.False(t, ok)
}

func TestCache_WriteRead(t *testing.T) {
	c := New(nil, nil)
	now, advance := fakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c.Now = now

	c.Write(testSnapshot)
	got, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, testSnapshot, got)

	advance(MaxAge - time.Millisecond)
	_, ok = c.Read()
	assert.True(t, ok, "still fresh just before MaxAge")

	advance(time.Millisecond)
	_, ok = c.Read()
	assert.False(t, ok, "stale once MaxAge has elapsed")
}

func TestCache_VersionMismatch(t *testing.T) {
	c := New(nil, nil)
	c.Write(testSnapshot)

	c.version = Version + 1
	_, ok := c.Read()
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(nil, nil)
	c.Write(testSnapshot)
	c.Invalidate()
	_, ok := c.Read()
	assert.False(t, ok)
}

func TestCache_WriteOverwrites(t *testing.T) {
	c := New(nil, nil)
	c.Write(testSnapshot)
	c.Write(wifi.Snapshot{Networks: []wifi.Network{}})

	got, ok := c.Read()
	require.True(t, ok)
	assert.Empty(t, got.Networks)
	assert.Equal(t, "", got.CurrentSSID)
}

func TestCache_Persisted(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "sub", "networks.toml")}
	now, advance := fakeClock(time.Now())

	c := New(store, nil)
	c.Now = now
	c.Write(testSnapshot)

	// A second process starting cold picks up the persisted entry.
	cold := New(store, nil)
	cold.Now = now
	got, ok := cold.Read()
	require.True(t, ok)
	assert.Equal(t, testSnapshot, got)

	advance(MaxAge)
	stale := New(store, nil)
	stale.Now = now
	_, ok = stale.Read()
	assert.False(t, ok)

	c.Invalidate()
	_, err := os.Stat(store.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_PersistedEmptyScan(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "networks.toml")}
	now, _ := fakeClock(time.Now())

	c := New(store, nil)
	c.Now = now
	c.Write(wifi.Snapshot{Networks: []wifi.Network{}})

	cold := New(store, nil)
	cold.Now = now
	got, ok := cold.Read()
	require.True(t, ok)
	require.NotNil(t, got.Networks)
	assert.Empty(t, got.Networks)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"current_ssid": "", "networks": []}`, string(out))
}

func TestFileStore(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "networks.toml")}

	_, err := store.Load()
	assert.ErrorIs(t, err, wifi.ErrNotFound)
	assert.NoError(t, store.Clear(), "clearing a missing file is fine")

	captured := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(Entry{Version: Version, CapturedAt: captured, Snapshot: testSnapshot}))

	entry, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Version, entry.Version)
	assert.True(t, captured.Equal(entry.CapturedAt))
	assert.Equal(t, testSnapshot, entry.Snapshot)

	require.NoError(t, os.WriteFile(store.Path, []byte("version = "), 0o600))
	_, err = store.Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, wifi.ErrNotFound)
}

func TestCache_CorruptStoreIsColdStart(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "networks.toml")}
	require.NoError(t, os.WriteFile(store.Path, []byte("not toml at all ["), 0o600))

	c := New(store, nil)
	_, ok := c.Read()
	assert.False(t, ok)

	c.Write(testSnapshot)
	got, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, testSnapshot, got)
}
