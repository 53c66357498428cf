package darwin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shazow/wifiscout/wifi"
)

const (
	// DefaultInterface is used unless configured otherwise.
	DefaultInterface = "en0"
	// AutoInterface asks New to look up the Wi-Fi hardware port.
	AutoInterface = "auto"

	scanTimeout     = 15 * time.Second
	scanOutputLimit = 20 << 20
	joinTimeout     = 10 * time.Second

	keychainDescription = "AirPort network password"
	// security(1) exits with this status when no item matches.
	keychainItemNotFound = 44
)

// Backend implements the wifi.Backend interface for macOS by shelling out to
// system_profiler, networksetup and security.
type Backend struct {
	WifiInterface string
	// FocusApp is re-activated after a Keychain lookup, which may have raised
	// a system authentication prompt. Empty disables it.
	FocusApp string
	Runner   Runner

	logger *slog.Logger
}

// New creates a new darwin.Backend for the given interface.
func New(iface string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{
		WifiInterface: iface,
		Runner:        ExecRunner{},
		logger:        logger,
	}
	if iface == "" {
		b.WifiInterface = DefaultInterface
	}
	if iface != AutoInterface {
		return b, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()
	out, err := b.Runner.Run(ctx, 0, "networksetup", "-listallhardwareports")
	if err != nil {
		return nil, fmt.Errorf("failed to list hardware ports: %w: %s", wifi.ErrNotAvailable, err)
	}
	device, err := findWifiDevice(string(out))
	if err != nil {
		return nil, err
	}
	logger.Debug("found wifi interface", "interface", device)
	b.WifiInterface = device
	return b, nil
}

// ScanReport returns the raw system_profiler Wi-Fi report.
func (b *Backend) ScanReport(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	start := time.Now()
	out, err := b.Runner.Run(ctx, scanOutputLimit, "system_profiler", "SPAirPortDataType")
	if err != nil {
		return "", fmt.Errorf("failed to scan for networks: %w", err)
	}
	b.logger.Debug("scanned networks", "bytes", len(out), "duration", time.Since(start))
	return strings.ToValidUTF8(string(out), "�"), nil
}

// JoinNetwork associates the interface with ssid.
func (b *Backend) JoinNetwork(ctx context.Context, ssid string, password string) error {
	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	b.logger.Debug("joining network", "ssid", ssid, "interface", b.WifiInterface, "password", password != "")
	out, err := b.Runner.Run(ctx, 0, "/bin/sh", "-c", joinCommandLine(b.WifiInterface, ssid, password))
	msg := strings.TrimSpace(string(out))
	if err != nil {
		// err describes the command line, which holds the password.
		return &wifi.JoinFailure{SSID: ssid, Diagnostic: msg, Err: joinRunError(err)}
	}
	// networksetup reports failures on stdout and still exits 0.
	if joinFailed(msg) {
		return &wifi.JoinFailure{SSID: ssid, Diagnostic: msg, Err: wifi.ErrOperationFailed}
	}
	return nil
}

func joinRunError(err error) error {
	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, wifi.ErrTimeout):
		return wifi.ErrTimeout
	case errors.Is(err, wifi.ErrOutputTooLarge):
		return wifi.ErrOutputTooLarge
	case errors.As(err, &exitErr):
		return fmt.Errorf("networksetup exited with status %d: %w", exitErr.ExitCode(), wifi.ErrOperationFailed)
	}
	return wifi.ErrOperationFailed
}

// GetSecrets retrieves the saved password for ssid from the Keychain.
func (b *Backend) GetSecrets(ctx context.Context, ssid string) (string, error) {
	out, err := b.Runner.Run(ctx, 0, "security", "find-generic-password", "-D", keychainDescription, "-a", ssid, "-w")
	b.restoreFocus(ctx)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == keychainItemNotFound {
		return "", fmt.Errorf("no saved password for %q: %w", ssid, wifi.ErrCredentialNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keychain: %w", err)
	}

	password := strings.TrimRight(string(out), "\r\n")
	if password == "" {
		return "", fmt.Errorf("empty saved password for %q: %w", ssid, wifi.ErrCredentialNotFound)
	}
	return password, nil
}

// restoreFocus brings FocusApp back to the front. Failures are only logged.
func (b *Backend) restoreFocus(ctx context.Context) {
	if b.FocusApp == "" {
		return
	}
	_, err := b.Runner.Run(ctx, 0, "open", "-a", b.FocusApp)
	if err == nil {
		return
	}
	b.logger.Debug("open -a failed, falling back to osascript", "app", b.FocusApp, "error", err)

	script := fmt.Sprintf("tell application %q to activate", b.FocusApp)
	if _, err := b.Runner.Run(ctx, 0, "osascript", "-e", script); err != nil {
		b.logger.Debug("failed to restore focus", "app", b.FocusApp, "error", err)
	}
}
