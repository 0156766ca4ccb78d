package domain

import (
	"net/http"
	"time"
)

// BlockStatusCode is the HTTP status returned with a substituted block page.
const BlockStatusCode = http.StatusForbidden

// Verdict is the outcome of evaluating one intercepted request.
// Pure value type, no external dependencies.
type Verdict struct {
	Domain   string        // registrable domain, empty when normalization failed
	Category Category      // empty when no category was determined
	Action   Action        // allow or block
	Cached   bool          // category came from the cache, no classifier call
	Latency  time.Duration // classifier call duration, zero on cache hits
	Page     []byte        // block page body, set only when blocked
}

// Blocked reports whether the transport must substitute the block response.
func (v Verdict) Blocked() bool { return v.Action == ActionBlock }

// AllowVerdict returns a pass-through verdict for the given domain.
func AllowVerdict(name string) Verdict {
	return Verdict{Domain: name, Action: ActionAllow}
}
