// Package audit defines the audit-log writer seam. The spec names the
// audit-log writer as an out-of-scope external collaborator; Writer is
// the interface the resource store writes through, with a slog-backed
// default implementation standing in for a real audit pipeline.
package audit

import (
	"context"
	"log/slog"
)

// Event is one audit-worthy mutation.
type Event struct {
	Action     string
	ResourceID string
	ActorID    string
	At         int64
	Metadata   map[string]interface{}
}

// Writer persists audit events. Per §7, a write failure here is logged but
// must never fail the response: the primary write already succeeded.
type Writer interface {
	Write(ctx context.Context, event Event)
}

// NullWriter discards every event; used in tests where audit noise isn't
// relevant.
type NullWriter struct{}

func (NullWriter) Write(context.Context, Event) {}

// SlogWriter logs audit events as structured JSON via the shared logger.
type SlogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter builds a SlogWriter backed by logger.
func NewSlogWriter(logger *slog.Logger) *SlogWriter {
	return &SlogWriter{logger: logger}
}

func (w *SlogWriter) Write(_ context.Context, event Event) {
	w.logger.Info("audit_event",
		slog.String("action", event.Action),
		slog.String("resource_id", event.ResourceID),
		slog.String("actor_id", event.ActorID),
		slog.Int64("at", event.At),
		slog.Any("metadata", event.Metadata),
	)
}
