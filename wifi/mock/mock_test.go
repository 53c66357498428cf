package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/wifiscout/wifi"
	"github.com/shazow/wifiscout/wifi/report"
)

func newTestBackend() *MockBackend {
	m := New()
	m.ActionSleep = 0
	return m
}

func TestNew(t *testing.T) {
	m := New()
	if len(m.Networks) == 0 {
		t.Fatal("New() returned no networks")
	}
	if m.ActionSleep != DefaultActionSleep {
		t.Errorf("expected ActionSleep to be %v, got %v", DefaultActionSleep, m.ActionSleep)
	}
}

func TestScanReport(t *testing.T) {
	m := newTestBackend()

	out, err := m.ScanReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.ScanCalls)

	snapshot := report.Parse(out)
	assert.Equal(t, "HideYoKidsHideYoWiFi", snapshot.CurrentSSID)
	require.Len(t, snapshot.Networks, len(m.Networks))

	// Strongest first.
	assert.Equal(t, "TacoBoutAGoodSignal", snapshot.Networks[0].SSID)
	assert.Equal(t, "00:11:22:33:44:55", snapshot.Networks[0].BSSID)

	current := 0
	for _, n := range snapshot.Networks {
		if n.IsCurrent {
			current++
			assert.Equal(t, "HideYoKidsHideYoWiFi", n.SSID)
		}
	}
	assert.Equal(t, 1, current)
}

func TestScanReport_Override(t *testing.T) {
	m := newTestBackend()
	m.Report = "garbage"

	out, err := m.ScanReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "garbage", out)

	m.ScanError = errors.New("system_profiler hung")
	_, err = m.ScanReport(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, m.ScanCalls)
}

func TestScanReport_NotConnected(t *testing.T) {
	m := newTestBackend()
	m.Current = ""

	out, err := m.ScanReport(context.Background())
	require.NoError(t, err)
	snapshot := report.Parse(out)
	assert.Equal(t, "", snapshot.CurrentSSID)
	assert.Len(t, snapshot.Networks, len(m.Networks))
}

func TestJoinNetwork(t *testing.T) {
	m := newTestBackend()
	ctx := context.Background()

	err := m.JoinNetwork(ctx, "Multi-AP Network", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Equal(t, "HideYoKidsHideYoWiFi", m.Current)

	require.NoError(t, m.JoinNetwork(ctx, "Multi-AP Network", "correct horse battery staple"))
	assert.Equal(t, "Multi-AP Network", m.Current)
	assert.Equal(t, "correct horse battery staple", m.Secrets["Multi-AP Network"], "joined credentials are saved")

	require.NoError(t, m.JoinNetwork(ctx, "Unencrypted_Honeypot", ""))
	_, saved := m.Secrets["Unencrypted_Honeypot"]
	assert.False(t, saved)

	err = m.JoinNetwork(ctx, "Nowhere", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find network")
	var failure *wifi.JoinFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "Could not find network Nowhere.", failure.Diagnostic)
	assert.ErrorIs(t, err, wifi.ErrOperationFailed)

	assert.Len(t, m.JoinCalls, 4)
	assert.Equal(t, JoinCall{SSID: "Multi-AP Network", Password: "wrong"}, m.JoinCalls[0])
}

func TestGetSecrets(t *testing.T) {
	m := newTestBackend()
	ctx := context.Background()

	secret, err := m.GetSecrets(ctx, "Password is password")
	require.NoError(t, err)
	assert.Equal(t, "password", secret)

	_, err = m.GetSecrets(ctx, "Dunder MiffLAN")
	assert.ErrorIs(t, err, wifi.ErrCredentialNotFound)

	m.GetSecretsError = errors.New("keychain locked")
	_, err = m.GetSecrets(ctx, "Password is password")
	assert.EqualError(t, err, "keychain locked")

	assert.Equal(t, []string{"Password is password", "Dunder MiffLAN", "Password is password"}, m.SecretLookups)
}
