package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/shazow/wifiscout/wifi"
)

// FileStore keeps the entry in a TOML file. The file is disposable: deleting
// it is the same as a cold start.
type FileStore struct {
	Path string
}

// DefaultPath returns the cache file location under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wifiscout", "networks.toml"), nil
}

// Load decodes the stored entry.
func (s FileStore) Load() (Entry, error) {
	var entry Entry
	_, err := toml.DecodeFile(s.Path, &entry)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, fmt.Errorf("%s: %w", s.Path, wifi.ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	// TOML has no empty array of tables, so an empty scan decodes as nil.
	if entry.Snapshot.Networks == nil {
		entry.Snapshot.Networks = []wifi.Network{}
	}
	return entry, nil
}

// Save writes the entry atomically.
func (s FileStore) Save(entry Entry) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".networks-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if err := toml.NewEncoder(f).Encode(entry); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmpPath, s.Path)
}

// Clear removes the file. A missing file is not an error.
func (s FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
