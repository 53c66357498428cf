//go:build mock

package main

import (
	"log/slog"

	"github.com/shazow/wifiscout/wifi"
	"github.com/shazow/wifiscout/wifi/mock"
)

func GetBackend(cfg backendConfig, logger *slog.Logger) (wifi.Backend, error) {
	logger.Debug("using mock backend")
	return mock.New(), nil
}
