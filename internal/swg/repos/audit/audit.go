// Package audit records the engine's decisions durably so blocking actions
// and classifier latency can be reviewed after the fact.
package audit

import "github.com/haukened/swgd/internal/swg/domain"

// Log receives one event per evaluated request. Implementations must be safe
// for concurrent use; recording is best-effort from the engine's point of
// view and never affects the verdict.
type Log interface {
	Record(event domain.AuditEvent) error
	Close() error
}

// NopLog discards all events. Used when auditing is not configured.
type NopLog struct{}

func (NopLog) Record(domain.AuditEvent) error { return nil }
func (NopLog) Close() error                   { return nil }
