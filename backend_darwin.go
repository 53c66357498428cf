//go:build darwin && !mock

package main

import (
	"log/slog"

	"github.com/shazow/wifiscout/wifi"
	"github.com/shazow/wifiscout/wifi/darwin"
)

func GetBackend(cfg backendConfig, logger *slog.Logger) (wifi.Backend, error) {
	b, err := darwin.New(cfg.Interface, logger)
	if err != nil {
		return nil, err
	}
	b.FocusApp = cfg.FocusApp
	return b, nil
}
