//go:build !darwin && !mock

package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shazow/wifiscout/wifi"
)

// GetBackend returns an error for unsupported operating systems.
func GetBackend(cfg backendConfig, logger *slog.Logger) (wifi.Backend, error) {
	return nil, fmt.Errorf("%s: %w", runtime.GOOS, wifi.ErrNotSupported)
}
