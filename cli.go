package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/shazow/wifiscout/wifi"
	"github.com/shazow/wifiscout/wifi/controller"
)

// Signal gradient endpoints, for dark and light backgrounds.
const (
	signalHighDark  = "#00FF00"
	signalLowDark   = "#BC3C00"
	signalHighLight = "#00B300"
	signalLowLight  = "#D05F00"
)

// signalColor blends between the low and high signal colors by quality.
func signalColor(quality uint8, dark bool) lipgloss.Color {
	low, high := signalLowLight, signalHighLight
	if dark {
		low, high = signalLowDark, signalHighDark
	}
	start, _ := colorful.Hex(low)
	end, _ := colorful.Hex(high)
	blend := start.BlendRgb(end, float64(quality)/100.0)
	return lipgloss.Color(blend.Hex())
}

func formatNetwork(n wifi.Network) (strength string, details string) {
	strength = fmt.Sprintf("%d%%", n.Quality())

	parts := []string{
		fmt.Sprintf("%d dBm", n.Signal),
		"ch " + n.Channel,
		n.Security,
	}
	if n.IsCurrent {
		parts = append(parts, "current")
	}
	return strength, strings.Join(parts, ", ")
}

// warnScan reports a failed scan without failing the command.
func warnScan(w io.Writer, err error) error {
	if errors.Is(err, wifi.ErrScanUnavailable) {
		fmt.Fprintf(w, "warning: %v\n", err)
		return nil
	}
	return err
}

func runList(ctx context.Context, w io.Writer, errW io.Writer, jsonOut bool, refresh bool, c *controller.Controller) error {
	s, err := c.Networks(ctx, refresh)
	if err != nil {
		if err := warnScan(errW, err); err != nil {
			return fmt.Errorf("failed to list networks: %w", err)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	// Colors are only emitted when w is a terminal.
	r := lipgloss.NewRenderer(w)
	dark := r.HasDarkBackground()
	for _, n := range s.Networks {
		strength, details := formatNetwork(n)
		strength = r.NewStyle().Foreground(signalColor(n.Quality(), dark)).Render(strength)
		fmt.Fprintf(w, "%s\t%s, %s\n", n.SSID, strength, details)
	}
	return nil
}

func runShow(ctx context.Context, w io.Writer, jsonOut bool, refresh bool, ssid string, c *controller.Controller) error {
	n, err := c.Lookup(ctx, ssid, refresh)
	if errors.Is(err, wifi.ErrNotFound) {
		return fmt.Errorf("network not found: %s", ssid)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(n)
	}

	fmt.Fprintf(w, "SSID: %s\n", n.SSID)
	fmt.Fprintf(w, "Current: %t\n", n.IsCurrent)
	fmt.Fprintf(w, "Security: %s\n", n.Security)
	fmt.Fprintf(w, "Open: %t\n", n.IsOpen())
	fmt.Fprintf(w, "Channel: %s\n", n.Channel)
	fmt.Fprintf(w, "BSSID: %s\n", n.BSSID)
	fmt.Fprintf(w, "Signal: %d dBm\n", n.Signal)
	fmt.Fprintf(w, "Strength: %d%%\n", n.Quality())
	return nil
}

// connectOptions are the connect subcommand's inputs.
type connectOptions struct {
	SSID string
	// Password is nil when none was given.
	Password *string
	// Hidden networks are joined without requiring them in the scan.
	Hidden   bool
	Security string
	Refresh  bool
	// Prompt asks for a password when one is required. It may be nil.
	Prompt func(prompt string) (string, error)
}

// securityLabel maps the -security flag onto a label as the OS reports it.
func securityLabel(s string) (string, error) {
	switch s {
	case "open":
		return "Open", nil
	case "wep":
		return "WEP", nil
	case "wpa":
		return "WPA2 Personal", nil
	}
	return "", fmt.Errorf("invalid security type: %s", s)
}

func runConnect(ctx context.Context, w io.Writer, opts connectOptions, c *controller.Controller) error {
	n, err := c.Lookup(ctx, opts.SSID, opts.Refresh)
	switch {
	case err == nil:
	case opts.Hidden:
		security, err := securityLabel(opts.Security)
		if err != nil {
			return err
		}
		n = wifi.Network{SSID: opts.SSID, Security: security}
	case errors.Is(err, wifi.ErrNotFound):
		return fmt.Errorf("network not found: %s", opts.SSID)
	default:
		return err
	}

	a := c.Connect(ctx, n, opts.Password)
	if a.Outcome == controller.OutcomePasswordRequired && opts.Prompt != nil {
		slog.Debug("prompting for password", "ssid", n.SSID, "reason", a.Reason)
		password, err := opts.Prompt(fmt.Sprintf("%s. Password for '%s': ", capitalize(a.Reason), n.SSID))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		a = c.Connect(ctx, n, &password)
	}

	switch a.Outcome {
	case controller.OutcomeConnected:
		fmt.Fprintln(w, a.Reason)
		return nil
	case controller.OutcomePasswordRequired:
		return fmt.Errorf("%s, rerun with -passphrase", a.Reason)
	}
	return fmt.Errorf("failed to connect to '%s': %w", n.SSID, a.Err)
}

func runShare(ctx context.Context, w io.Writer, ssid string, c *controller.Controller) error {
	n, err := c.Lookup(ctx, ssid, false)
	if errors.Is(err, wifi.ErrNotFound) {
		return fmt.Errorf("network not found: %s", ssid)
	}
	if err != nil {
		return err
	}

	secret, err := c.ShareCredential(ctx, n)
	if err != nil {
		return err
	}

	code, err := GenerateWifiQRCode(n.SSID, secret, n.SecurityType(), n.SSID == "")
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	fmt.Fprint(w, code)
	fmt.Fprintf(w, "SSID: %s\n", n.SSID)
	if !n.IsOpen() {
		fmt.Fprintf(w, "Passphrase: %s\n", secret)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
