package domain

import "time"

// AuditEvent is one durable record of a decision the engine made.
type AuditEvent struct {
	Time     time.Time     `json:"time"`
	Domain   string        `json:"domain"`
	Category Category      `json:"category"`
	Action   Action        `json:"action"`
	Cached   bool          `json:"cached"`
	Latency  time.Duration `json:"latency,omitempty"`
}
