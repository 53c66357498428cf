package controller

import (
	"errors"
	"strings"

	"github.com/shazow/wifiscout/wifi"
)

var (
	authFailureMarkers = []string{"password", "authenticat", "credential", "802.1x"}
	notFoundMarkers    = []string{"could not find", "not found", "no network", "not available", "out of range"}
)

// JoinError is a join failure sorted into one of wifi.ErrAuthenticationFailed,
// wifi.ErrNetworkUnavailable or wifi.ErrOperationFailed.
type JoinError struct {
	Kind error
	Raw  error
}

func (e *JoinError) Error() string {
	if e.Kind == wifi.ErrOperationFailed {
		return e.Raw.Error()
	}
	return e.Kind.Error()
}

func (e *JoinError) Unwrap() []error {
	return []error{e.Kind, e.Raw}
}

// ClassifyJoinError sorts a join failure by sniffing its text, since
// networksetup only reports free-text diagnostics. For a wifi.JoinFailure only
// the diagnostic is read, with the SSID removed so that a network named
// "Free Password WiFi" cannot look like an authentication failure.
func ClassifyJoinError(err error) error {
	if err == nil {
		return nil
	}
	var joinErr *JoinError
	if errors.As(err, &joinErr) {
		return joinErr
	}

	msg := err.Error()
	var failure *wifi.JoinFailure
	if errors.As(err, &failure) {
		msg = failure.Diagnostic
		if failure.SSID != "" {
			msg = strings.ReplaceAll(msg, failure.SSID, "")
		}
	}
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, authFailureMarkers):
		return &JoinError{Kind: wifi.ErrAuthenticationFailed, Raw: err}
	case containsAny(msg, notFoundMarkers):
		return &JoinError{Kind: wifi.ErrNetworkUnavailable, Raw: err}
	}
	return &JoinError{Kind: wifi.ErrOperationFailed, Raw: err}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
