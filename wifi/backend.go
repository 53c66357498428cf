package wifi

import (
	"context"
	"strings"
)

// SecurityType represents the security protocol of a network.
type SecurityType int

const (
	SecurityUnknown SecurityType = iota
	SecurityOpen
	SecurityWEP
	SecurityWPA
)

// Network represents a single network sighting from one scan.
type Network struct {
	SSID     string `json:"ssid" toml:"ssid"`
	Signal   int    `json:"signal" toml:"signal"` // dBm
	Security string `json:"security" toml:"security"`
	Channel  string `json:"channel" toml:"channel"`
	// BSSID is best-effort. When the report omits it, it is derived from the
	// SSID and channel and only stable within one scan.
	BSSID     string `json:"bssid" toml:"bssid"`
	IsCurrent bool   `json:"current" toml:"current"`
}

// Key identifies a network within a snapshot.
func (n Network) Key() string {
	return n.SSID + "\x00" + n.Channel
}

// Quality maps the signal level in dBm onto 0-100.
func (n Network) Quality() uint8 {
	if n.Signal >= 0 || n.Signal <= -100 {
		return 0
	}
	strength := 2 * (n.Signal + 100)
	if strength > 100 {
		strength = 100
	}
	return uint8(strength)
}

// IsOpen reports whether the network needs no password.
func (n Network) IsOpen() bool {
	return strings.EqualFold(n.Security, "Open") || n.Security == "None"
}

// SecurityType classifies the security label reported by the OS.
func (n Network) SecurityType() SecurityType {
	if n.IsOpen() {
		return SecurityOpen
	}
	s := strings.ToLower(n.Security)
	switch {
	case strings.Contains(s, "wpa"):
		return SecurityWPA
	case strings.Contains(s, "wep"):
		return SecurityWEP
	}
	return SecurityUnknown
}

// Snapshot is the structured result of one scan.
type Snapshot struct {
	CurrentSSID string    `json:"current_ssid" toml:"current_ssid"`
	Networks    []Network `json:"networks" toml:"networks"`
}

// Find returns the strongest sighting of ssid.
func (s Snapshot) Find(ssid string) (Network, bool) {
	// Networks are sorted strongest first.
	for _, n := range s.Networks {
		if n.SSID == ssid {
			return n, true
		}
	}
	return Network{}, false
}

// Backend defines the OS primitives used to discover and join networks.
type Backend interface {
	// ScanReport returns the raw text report describing the current network
	// and all visible networks.
	ScanReport(ctx context.Context) (string, error)
	// JoinNetwork associates the wireless interface with ssid. The password is
	// empty for open networks.
	JoinNetwork(ctx context.Context, ssid string, password string) error
	// GetSecrets retrieves the saved password for ssid. It returns an error
	// wrapping ErrCredentialNotFound when there is none.
	GetSecrets(ctx context.Context, ssid string) (string, error)
}
