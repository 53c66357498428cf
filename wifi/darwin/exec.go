package darwin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shazow/wifiscout/wifi"
)

const waitDelay = time.Second

// Runner runs an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, limit int, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run runs the command, failing if it outlives ctx or prints more than limit
// bytes to stdout. A limit of 0 means no limit.
func (ExecRunner) Run(ctx context.Context, limit int, name string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, name, args...)
	stdout := &limitedBuffer{limit: limit}
	var stderr strings.Builder
	c.Stdout = stdout
	c.Stderr = &stderr
	// Children that inherit the pipes must not keep Run waiting after a kill.
	c.WaitDelay = waitDelay

	// Errors name only the program; arguments may hold secrets.
	err := c.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return stdout.Bytes(), fmt.Errorf("command %s: %w", name, wifi.ErrTimeout)
	}
	if stdout.overflow {
		return stdout.Bytes(), fmt.Errorf("command %s printed more than %d bytes: %w", name, limit, wifi.ErrOutputTooLarge)
	}
	if err != nil {
		return stdout.Bytes(), fmt.Errorf("failed to run command %s: %w: %s", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// limitedBuffer keeps up to limit bytes and discards the rest, so a runaway
// command is not blocked on a full pipe.
type limitedBuffer struct {
	bytes.Buffer
	limit    int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.limit > 0 && b.Len()+len(p) > b.limit {
		b.overflow = true
		if room := b.limit - b.Len(); room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}
