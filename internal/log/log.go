package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// maxLogs is how many records are retained.
const maxLogs = 20

type ring struct {
	mu   sync.Mutex
	logs []slog.Record
}

// Handler is a slog.Handler that retains the most recent records, including
// those below the level of the handler it wraps, so they can be dumped after
// a failure.
type Handler struct {
	slog.Handler
	ring *ring

	// attrs were added with WithAttrs, keyed with their group prefix.
	attrs []slog.Attr
	group string
}

// NewHandler creates a new Handler.
func NewHandler(handler slog.Handler) *Handler {
	return &Handler{
		Handler: handler,
		ring:    &ring{},
	}
}

// Enabled accepts every level so that everything is retained.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle stores the record and passes it on if the wrapped handler wants it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	h.ring.mu.Lock()
	h.ring.logs = append(h.ring.logs, h.retained(r))
	if len(h.ring.logs) > maxLogs {
		h.ring.logs = h.ring.logs[1:]
	}
	h.ring.mu.Unlock()

	if !h.Handler.Enabled(ctx, r.Level) {
		return nil
	}
	return h.Handler.Handle(ctx, r)
}

// retained flattens the handler's attributes and groups into a copy of r.
func (h *Handler) retained(r slog.Record) slog.Record {
	if len(h.attrs) == 0 && h.group == "" {
		return r.Clone()
	}
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.AddAttrs(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(slog.Attr{Key: h.group + a.Key, Value: a.Value})
		return true
	})
	return out
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &Handler{
		Handler: h.Handler.WithAttrs(attrs),
		ring:    h.ring,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		group:   h.group,
	}
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.group + a.Key, Value: a.Value})
	}
	return next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{
		Handler: h.Handler.WithGroup(name),
		ring:    h.ring,
		attrs:   h.attrs,
		group:   h.group + name + ".",
	}
}

// Logs returns the stored log messages.
func (h *Handler) Logs() []slog.Record {
	h.ring.mu.Lock()
	defer h.ring.mu.Unlock()
	return append([]slog.Record(nil), h.ring.logs...)
}

var defaultHandler *Handler

// Init initializes the default logger and returns it.
func Init(handler slog.Handler) *slog.Logger {
	defaultHandler = NewHandler(handler)
	logger := slog.New(defaultHandler)
	slog.SetDefault(logger)
	return logger
}

// Logs returns the stored log messages from the default logger.
func Logs() []slog.Record {
	if defaultHandler == nil {
		return nil
	}
	return defaultHandler.Logs()
}

// WriteLogs writes records one per line.
func WriteLogs(w io.Writer, logs []slog.Record) {
	for _, r := range logs {
		var attrs []string
		r.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a.String())
			return true
		})
		line := fmt.Sprintf("%s %s %s", r.Time.Format("15:04:05.000"), r.Level, r.Message)
		if len(attrs) > 0 {
			line += " " + strings.Join(attrs, " ")
		}
		fmt.Fprintln(w, line)
	}
}
