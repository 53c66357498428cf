package wifi

import (
	"errors"
	"fmt"
)

var (
	ErrNotSupported    = errors.New("not supported")
	ErrNotFound        = errors.New("not found")
	ErrNotAvailable    = errors.New("not available")
	ErrOperationFailed = errors.New("operation failed")
	ErrTimeout         = errors.New("timed out")
	ErrOutputTooLarge  = errors.New("output too large")

	ErrScanUnavailable      = errors.New("scan unavailable")
	ErrCredentialNotFound   = errors.New("saved password not found")
	ErrAuthenticationFailed = errors.New("incorrect password or authentication failed")
	ErrNetworkUnavailable   = errors.New("network not available")
)

// JoinFailure is returned by Backend.JoinNetwork. Diagnostic is only what the
// OS primitive printed, never the command line it was run with, which may
// hold the password.
type JoinFailure struct {
	SSID       string
	Diagnostic string
	// Err is a sentinel such as ErrTimeout or ErrOperationFailed.
	Err error
}

func (e *JoinFailure) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("failed to join %q: %v", e.SSID, e.Err)
	}
	return fmt.Sprintf("failed to join %q: %s", e.SSID, e.Diagnostic)
}

func (e *JoinFailure) Unwrap() error {
	return e.Err
}
