// Package audit emits structured audit events for the operations of the
// encryption and sharing core. Emission is best-effort: persisting events is
// the job of an external collaborator consuming the log stream, and a
// failure to emit never blocks or fails the primary operation.
package audit

import (
	"context"
	"time"

	"github.com/akarpov/sealbox/internal/logging"
)

// Kind names one auditable operation outcome.
type Kind string

const (
	KindFileEncrypted      Kind = "file-encrypted"
	KindFileDeleted        Kind = "file-deleted"
	KindShareCreated       Kind = "share-created"
	KindShareUpdated       Kind = "share-updated"
	KindShareRevoked       Kind = "share-revoked"
	KindDecryptFailed      Kind = "decrypt-failed"
	KindIntegrityViolation Kind = "integrity-violation"
	KindAccessDenied       Kind = "access-denied"
)

// Event carries enough context for the audit collaborator to persist.
type Event struct {
	Kind    Kind
	ActorID string
	FileID  string
	// TargetID is the affected counterparty, e.g. the share recipient.
	TargetID string
	Success  bool
	// ErrKind is the failure taxonomy kind for unsuccessful operations.
	ErrKind string
}

// Emitter publishes audit events.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// LogEmitter writes events to the structured log, one line per event.
type LogEmitter struct {
	log logging.Logger
}

// NewLogEmitter returns an Emitter backed by the given logger.
func NewLogEmitter(log logging.Logger) *LogEmitter {
	return &LogEmitter{log: log.With("component", "audit")}
}

// Emit writes one event. It never returns an error; a broken log sink only
// loses the event, not the operation that produced it.
func (l *LogEmitter) Emit(ctx context.Context, e Event) {
	args := []any{
		"kind", string(e.Kind),
		"actor_id", e.ActorID,
		"file_id", e.FileID,
		"success", e.Success,
		"ts", time.Now().UTC().Format(time.RFC3339Nano),
	}
	if e.TargetID != "" {
		args = append(args, "target_id", e.TargetID)
	}
	if e.ErrKind != "" {
		args = append(args, "error_kind", e.ErrKind)
	}
	if e.Success {
		l.log.Info(ctx, "audit event", args...)
	} else {
		l.log.Warn(ctx, "audit event", args...)
	}
}

// Nop discards all events; useful in tests.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
