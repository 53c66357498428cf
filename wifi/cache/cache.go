// Package cache keeps the most recent scan snapshot for a short time so that
// repeated requests don't rescan.
package cache

import (
	"log/slog"
	"time"

	"github.com/shazow/wifiscout/wifi"
)

// Version is bumped whenever the stored entry layout changes, so entries
// written by an older build are discarded.
const Version = 2

// MaxAge is how long a snapshot stays fresh.
const MaxAge = 5 * time.Second

// Entry is a snapshot stamped with the build version and capture time.
type Entry struct {
	Version    int           `toml:"version"`
	CapturedAt time.Time     `toml:"captured_at"`
	Snapshot   wifi.Snapshot `toml:"snapshot"`
}

// Store persists a single entry outside the process.
type Store interface {
	// Load returns the stored entry, or an error wrapping wifi.ErrNotFound.
	Load() (Entry, error)
	Save(Entry) error
	Clear() error
}

// Cache holds at most one snapshot.
type Cache struct {
	// Now is the clock used to stamp and age entries.
	Now func() time.Time

	store   Store
	logger  *slog.Logger
	version int
	entry   *Entry
}

// New creates a cache. The store may be nil to keep entries in memory only.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		Now:     time.Now,
		store:   store,
		logger:  logger,
		version: Version,
	}
}

// Read returns the cached snapshot if it is present, written by this version,
// and younger than MaxAge.
func (c *Cache) Read() (wifi.Snapshot, bool) {
	if c.entry == nil && c.store != nil {
		entry, err := c.store.Load()
		if err != nil {
			c.logger.Debug("no persisted scan", "error", err)
		} else {
			c.entry = &entry
		}
	}
	if c.entry == nil {
		return wifi.Snapshot{}, false
	}
	if c.entry.Version != c.version {
		c.logger.Debug("discarding scan from another version", "version", c.entry.Version)
		return wifi.Snapshot{}, false
	}
	if age := c.Now().Sub(c.entry.CapturedAt); age >= MaxAge || age < 0 {
		return wifi.Snapshot{}, false
	}
	return c.entry.Snapshot, true
}

// Write replaces the cached snapshot.
func (c *Cache) Write(s wifi.Snapshot) {
	c.entry = &Entry{
		Version:    c.version,
		CapturedAt: c.Now(),
		Snapshot:   s,
	}
	if c.store == nil {
		return
	}
	if err := c.store.Save(*c.entry); err != nil {
		c.logger.Warn("failed to persist scan", "error", err)
	}
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.entry = nil
	if c.store == nil {
		return
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear persisted scan", "error", err)
	}
}
