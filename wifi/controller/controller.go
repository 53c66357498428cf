// Package controller drives scans and connection attempts on top of a
// wifi.Backend.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shazow/wifiscout/wifi"
	"github.com/shazow/wifiscout/wifi/cache"
	"github.com/shazow/wifiscout/wifi/report"
)

// SavedPasswordRejected is the reason given when a saved password was tried
// and the join failed.
const SavedPasswordRejected = "saved password didn't work"

// State is the phase of the current connection attempt.
type State int

const (
	StateIdle State = iota
	StateAwaitingCredential
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCredential:
		return "awaiting credential"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is how a connection attempt resolved.
type Outcome int

const (
	OutcomeConnected Outcome = iota + 1
	OutcomePasswordRequired
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConnected:
		return "connected"
	case OutcomePasswordRequired:
		return "password required"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Attempt describes one call to Connect.
type Attempt struct {
	ID      uuid.UUID
	Network wifi.Network
	// Password is the password supplied by the caller, if any.
	Password            *string
	UsedSavedCredential bool

	Outcome Outcome
	Reason  string
	Err     error
}

// Status is sent to Controller.Notify on every state transition of an attempt.
type Status struct {
	AttemptID uuid.UUID
	SSID      string
	State     State
	Outcome   Outcome // Set once the attempt resolves.
	Message   string
}

// Controller scans through a cache and joins networks, trying saved
// credentials before asking for a password. It is not safe for concurrent use.
type Controller struct {
	Backend wifi.Backend
	Cache   *cache.Cache
	// Notify receives attempt state transitions. It may be nil.
	Notify func(Status)
	// Classify maps a join failure onto a user-facing error.
	Classify func(error) error

	logger *slog.Logger
	state  State
}

// New creates a Controller.
func New(b wifi.Backend, c *cache.Cache, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(nil, logger)
	}
	return &Controller{
		Backend:  b,
		Cache:    c,
		Classify: ClassifyJoinError,
		logger:   logger,
	}
}

// State returns the state of the attempt in progress, or StateIdle.
func (c *Controller) State() State {
	return c.state
}

// Networks returns the cached snapshot, scanning if it is stale or refresh is
// set. A failed scan yields an empty snapshot together with an error wrapping
// wifi.ErrScanUnavailable; callers may show the error as a warning.
func (c *Controller) Networks(ctx context.Context, refresh bool) (wifi.Snapshot, error) {
	if refresh {
		c.Cache.Invalidate()
	} else if s, ok := c.Cache.Read(); ok {
		c.logger.Debug("using cached scan", "networks", len(s.Networks))
		return s, nil
	}

	text, err := c.Backend.ScanReport(ctx)
	if err != nil {
		c.logger.Warn("scan failed", "error", err)
		return report.Parse(""), fmt.Errorf("%w: %w", wifi.ErrScanUnavailable, err)
	}

	s := report.Parse(text)
	c.logger.Debug("scan complete", "networks", len(s.Networks), "current", s.CurrentSSID)
	c.Cache.Write(s)
	return s, nil
}

// Lookup finds the strongest sighting of ssid.
func (c *Controller) Lookup(ctx context.Context, ssid string, refresh bool) (wifi.Network, error) {
	s, err := c.Networks(ctx, refresh)
	if err != nil {
		return wifi.Network{}, err
	}
	n, ok := s.Find(ssid)
	if !ok {
		return wifi.Network{}, fmt.Errorf("network %q: %w", ssid, wifi.ErrNotFound)
	}
	return n, nil
}

// Connect joins n. Open networks are joined without a password. Otherwise the
// supplied password is used, or failing that the saved one. Without either,
// or when the saved one is rejected, the attempt resolves to
// OutcomePasswordRequired and the caller should retry with a password.
func (c *Controller) Connect(ctx context.Context, n wifi.Network, password *string) Attempt {
	a := Attempt{
		ID:       uuid.New(),
		Network:  n,
		Password: password,
	}
	defer func() { c.state = StateIdle }()

	var secret string
	switch {
	case n.IsOpen():
	case password != nil:
		secret = *password
	default:
		c.transition(a, StateAwaitingCredential, fmt.Sprintf("Looking up saved password for '%s'...", n.SSID))
		saved, err := c.Backend.GetSecrets(ctx, n.SSID)
		if err != nil {
			if !errors.Is(err, wifi.ErrCredentialNotFound) {
				c.logger.Warn("failed to read saved password", "ssid", n.SSID, "error", err)
			}
			return c.resolve(a, OutcomePasswordRequired, "password required", err)
		}
		secret = saved
		a.UsedSavedCredential = true
	}

	c.transition(a, StateConnecting, fmt.Sprintf("Connecting to '%s'...", n.SSID))
	err := c.Backend.JoinNetwork(ctx, n.SSID, secret)
	// The association may have changed either way.
	c.Cache.Invalidate()
	if err == nil {
		return c.resolve(a, OutcomeConnected, fmt.Sprintf("Connected to '%s'", n.SSID), nil)
	}

	c.logger.Debug("join failed", "ssid", n.SSID, "saved", a.UsedSavedCredential, "error", err)
	classified := c.Classify(err)
	if a.UsedSavedCredential {
		return c.resolve(a, OutcomePasswordRequired, SavedPasswordRejected, classified)
	}
	return c.resolve(a, OutcomeFailed, classified.Error(), classified)
}

// ShareCredential returns the saved password for n, for sharing. Passwords
// that were typed but never saved are not shared.
func (c *Controller) ShareCredential(ctx context.Context, n wifi.Network) (string, error) {
	if n.IsOpen() {
		return "", nil
	}
	secret, err := c.Backend.GetSecrets(ctx, n.SSID)
	if errors.Is(err, wifi.ErrCredentialNotFound) {
		return "", fmt.Errorf("no saved password for '%s', connect to it successfully first: %w", n.SSID, err)
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (c *Controller) transition(a Attempt, s State, msg string) {
	c.state = s
	c.logger.Debug("connection attempt", "id", a.ID, "ssid", a.Network.SSID, "state", s)
	if c.Notify != nil {
		c.Notify(Status{
			AttemptID: a.ID,
			SSID:      a.Network.SSID,
			State:     s,
			Outcome:   a.Outcome,
			Message:   msg,
		})
	}
}

func (c *Controller) resolve(a Attempt, o Outcome, reason string, err error) Attempt {
	a.Outcome = o
	a.Reason = reason
	a.Err = err

	s := StateFailed
	switch o {
	case OutcomeConnected:
		s = StateConnected
	case OutcomePasswordRequired:
		s = StateAwaitingCredential
	}
	c.transition(a, s, reason)
	return a
}
