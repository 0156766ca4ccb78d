package engine

import (
	"context"

	"github.com/haukened/swgd/internal/swg/domain"
)

// CategoryStore is the persistent domain → category cache. Get must never
// block on I/O; Put applies the in-memory update even when the durable write
// fails and returns the write error for logging.
type CategoryStore interface {
	Get(name string) (domain.Category, bool)
	Put(name string, c domain.Category) error
	All() map[string]domain.Category
}

// PolicyStore is the persistent category → action map. Ensure inserts an
// allow default for an unseen category exactly once, never touching existing
// entries.
type PolicyStore interface {
	Decision(c domain.Category) (domain.Action, bool)
	Ensure(c domain.Category) (inserted bool, err error)
}

// Classifier resolves a registrable domain to a category. Implementations
// return an error (not a label) when the backend is unavailable, so the
// engine can fail open without caching garbage.
type Classifier interface {
	Classify(ctx context.Context, name string) (domain.Classification, error)
}

// BlockPage supplies the HTML body for block responses.
type BlockPage interface {
	Content() []byte
}

// AuditLog receives one event per decision. Best-effort from the engine's
// point of view.
type AuditLog interface {
	Record(event domain.AuditEvent) error
}

// Evaluator is what the interception transport calls per request. The
// transport handles all TLS and proxying mechanics; the engine only sees a
// host string and answers with a verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, host string) domain.Verdict
}

// Transport is an interception front end. Implementations own the network
// protocol entirely and dispatch each intercepted request to the Evaluator.
type Transport interface {
	// Start begins intercepting and dispatching requests to the handler.
	Start(ctx context.Context, handler Evaluator) error

	// Stop gracefully shuts the transport down.
	Stop() error

	// Address returns the address the transport is bound to.
	Address() string
}
