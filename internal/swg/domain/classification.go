package domain

import "time"

// Classification is the transient result of one classifier call. Only the
// category is ever persisted; latency is reported for observability.
type Classification struct {
	Category Category
	Latency  time.Duration
}
