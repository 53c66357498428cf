package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shazow/wifiscout/wifi"
)

// DefaultActionSleep is the delay New gives every action, so a frontend can
// be watched while it waits.
var DefaultActionSleep = 500 * time.Millisecond

// JoinCall records one invocation of JoinNetwork.
type JoinCall struct {
	SSID     string
	Password string
}

// MockBackend is a mock implementation of the wifi.Backend interface for testing.
type MockBackend struct {
	// Networks are rendered into a system_profiler style report on every scan,
	// unless Report is set.
	Networks []wifi.Network
	Current  string
	Report   string

	// Secrets are the saved passwords by SSID.
	Secrets map[string]string
	// Passwords are what the simulated OS accepts by SSID. Networks without
	// an entry accept any password.
	Passwords map[string]string

	ScanError       error
	JoinError       error
	GetSecretsError error

	ScanCalls     int
	JoinCalls     []JoinCall
	SecretLookups []string

	// ActionSleep is a delay before every action, to better emulate a real-world backend for the frontend. Set to 0 during testing.
	ActionSleep time.Duration
}

// New creates a new mock.Backend with a list of fun wifi networks.
func New() *MockBackend {
	return &MockBackend{
		Networks: []wifi.Network{
			{SSID: "HideYoKidsHideYoWiFi", Channel: "36", Security: "WPA2 Personal", Signal: -48},
			{SSID: "TacoBoutAGoodSignal", Channel: "149", Security: "WPA3 Personal", Signal: -41, BSSID: "00:11:22:33:44:55"},
			{SSID: "Unencrypted_Honeypot", Channel: "6", Security: "None", Signal: -67},
			{SSID: "NeverGonnaGiveYouIP", Channel: "11", Security: "WEP", Signal: -82},
			{SSID: "Password is password", Channel: "1", Security: "WPA2 Personal", Signal: -58},
			{SSID: "Multi-AP Network", Channel: "1", Security: "WPA2 Personal", Signal: -71, BSSID: "AA:BB:CC:DD:EE:01"},
			{SSID: "Multi-AP Network", Channel: "44", Security: "WPA2 Personal", Signal: -60, BSSID: "AA:BB:CC:DD:EE:02"},
			{SSID: "Dunder MiffLAN", Channel: "6", Security: "WPA/WPA2 Personal", Signal: -77},
		},
		Current: "HideYoKidsHideYoWiFi",
		Secrets: map[string]string{
			"HideYoKidsHideYoWiFi": "hidden",
			"Password is password": "password",
		},
		Passwords: map[string]string{
			"HideYoKidsHideYoWiFi": "hidden",
			"Password is password": "password",
			"Multi-AP Network":     "correct horse battery staple",
		},
		ActionSleep: DefaultActionSleep,
	}
}

// ScanReport renders the mock networks.
func (m *MockBackend) ScanReport(ctx context.Context) (string, error) {
	time.Sleep(m.ActionSleep)

	m.ScanCalls++
	if m.ScanError != nil {
		return "", m.ScanError
	}
	if m.Report != "" {
		return m.Report, nil
	}
	return m.render(), nil
}

func (m *MockBackend) render() string {
	var b strings.Builder
	b.WriteString("Wi-Fi:\n\n      Interfaces:\n        en0:\n          Card Type: Wi-Fi\n")

	var others []wifi.Network
	var current *wifi.Network
	for i, n := range m.Networks {
		if current == nil && m.Current != "" && n.SSID == m.Current {
			current = &m.Networks[i]
			continue
		}
		others = append(others, n)
	}

	if current != nil {
		b.WriteString("          Status: Connected\n")
		b.WriteString("          Current Network Information:\n")
		writeNetwork(&b, *current)
	} else {
		b.WriteString("          Status: Not Connected\n")
	}
	b.WriteString("          Other Local Wi-Fi Networks:\n")
	for _, n := range others {
		writeNetwork(&b, n)
	}
	b.WriteString("        awdl0:\n          Status: Off\n")
	return b.String()
}

func writeNetwork(b *strings.Builder, n wifi.Network) {
	fmt.Fprintf(b, "            %s:\n", n.SSID)
	fmt.Fprintf(b, "              PHY Mode: 802.11ax\n")
	if n.BSSID != "" {
		fmt.Fprintf(b, "              BSSID: %s\n", n.BSSID)
	}
	fmt.Fprintf(b, "              Channel: %s (5GHz, 80MHz)\n", n.Channel)
	fmt.Fprintf(b, "              Network Type: Infrastructure\n")
	fmt.Fprintf(b, "              Security: %s\n", n.Security)
	fmt.Fprintf(b, "              Signal / Noise: %d dBm / -92 dBm\n", n.Signal)
}

func (m *MockBackend) find(ssid string) (wifi.Network, bool) {
	for _, n := range m.Networks {
		if n.SSID == ssid {
			return n, true
		}
	}
	return wifi.Network{}, false
}

// JoinNetwork simulates networksetup, including its free-text failures.
func (m *MockBackend) JoinNetwork(ctx context.Context, ssid string, password string) error {
	time.Sleep(m.ActionSleep)

	m.JoinCalls = append(m.JoinCalls, JoinCall{SSID: ssid, Password: password})
	if m.JoinError != nil {
		return m.JoinError
	}
	n, ok := m.find(ssid)
	if !ok {
		return &wifi.JoinFailure{
			SSID:       ssid,
			Diagnostic: fmt.Sprintf("Could not find network %s.", ssid),
			Err:        wifi.ErrOperationFailed,
		}
	}
	if want, ok := m.Passwords[ssid]; ok && !n.IsOpen() && want != password {
		return &wifi.JoinFailure{
			SSID:       ssid,
			Diagnostic: fmt.Sprintf("Failed to join network %s. Error: -3905 authentication failed", ssid),
			Err:        wifi.ErrOperationFailed,
		}
	}

	m.Current = ssid
	if password != "" {
		// The OS saves credentials of networks it joined.
		if m.Secrets == nil {
			m.Secrets = make(map[string]string)
		}
		m.Secrets[ssid] = password
	}
	return nil
}

// GetSecrets returns the saved password for ssid.
func (m *MockBackend) GetSecrets(ctx context.Context, ssid string) (string, error) {
	time.Sleep(m.ActionSleep)

	m.SecretLookups = append(m.SecretLookups, ssid)
	if m.GetSecretsError != nil {
		return "", m.GetSecretsError
	}
	if secret, ok := m.Secrets[ssid]; ok {
		return secret, nil
	}
	return "", fmt.Errorf("no secrets for %s: %w", ssid, wifi.ErrCredentialNotFound)
}
