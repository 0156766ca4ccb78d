// Package engine orchestrates per-request policy decisions: normalize the
// host, look up or classify its category, keep the stores consistent, and
// produce an allow or block verdict. The design fails open on infrastructure
// failure and fails closed only on an explicit policy decision.
package engine

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/haukened/swgd/internal/swg/common/clock"
	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/common/utils"
	"github.com/haukened/swgd/internal/swg/domain"
)

const (
	// failureBackoff is how long a domain is exempt from re-classification
	// after the backend failed for it. In-memory only, nothing durable.
	failureBackoff = 30 * time.Second

	failureCacheSize = 512
)

// Options collects the engine's collaborators. Categories, Policies,
// Classifier and BlockPage are required; the rest default to no-ops.
type Options struct {
	Categories CategoryStore
	Policies   PolicyStore
	Classifier Classifier
	BlockPage  BlockPage
	Audit      AuditLog
	Clock      clock.Clock
	Logger     log.Logger
}

// Engine implements Evaluator. Safe for concurrent use: store writes are
// serialized inside the stores, and concurrent cache misses for the same
// domain collapse into a single classifier call.
type Engine struct {
	categories CategoryStore
	policies   PolicyStore
	classifier Classifier
	blockPage  BlockPage
	audit      AuditLog
	clock      clock.Clock
	logger     log.Logger

	group    singleflight.Group
	failures *lru.Cache[string, time.Time]
}

// New constructs an Engine from the supplied collaborators.
func New(opts Options) *Engine {
	if opts.Audit == nil {
		opts.Audit = nopAudit{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	// size is a positive constant, the only error case
	failures, _ := lru.New[string, time.Time](failureCacheSize)
	return &Engine{
		categories: opts.Categories,
		policies:   opts.Policies,
		classifier: opts.Classifier,
		blockPage:  opts.BlockPage,
		audit:      opts.Audit,
		clock:      opts.Clock,
		logger:     opts.Logger,
		failures:   failures,
	}
}

// Evaluate decides one intercepted request. State machine: normalize →
// cache lookup → classify on miss (writing category and policy default
// back) → policy check → allow or block. Every failure short of an explicit
// block policy resolves to allow.
func (e *Engine) Evaluate(ctx context.Context, host string) domain.Verdict {
	name, err := utils.RegistrableDomain(host)
	if err != nil {
		e.logger.Warn(map[string]any{
			"host":  host,
			"error": err.Error(),
		}, "Could not extract a registrable domain, allowing")
		return domain.AllowVerdict("")
	}

	var (
		category domain.Category
		cached   bool
		latency  time.Duration
	)

	if c, ok := e.categories.Get(name); ok {
		category, cached = c, true
		e.logger.Debug(map[string]any{"domain": name, "category": category}, "Category cache hit")
	} else {
		if e.inBackoff(name) {
			e.logger.Debug(map[string]any{"domain": name}, "Classifier in backoff for domain, allowing")
			return domain.AllowVerdict(name)
		}
		res, err := e.classifyAndStore(ctx, name)
		if err != nil {
			e.failures.Add(name, e.clock.Now().Add(failureBackoff))
			e.logger.Error(map[string]any{
				"domain": name,
				"error":  err.Error(),
			}, "Classification unavailable, allowing")
			return domain.AllowVerdict(name)
		}
		category, latency = res.Category, res.Latency
	}

	action, ok := e.policies.Decision(category)
	if !ok {
		// Should not happen: Ensure runs before any decision and Reconcile
		// repairs stale files at startup. Repair and fail open.
		if _, err := e.policies.Ensure(category); err != nil {
			e.logger.Error(map[string]any{
				"category": category,
				"error":    err.Error(),
			}, "Failed to repair missing policy entry")
		}
		action = domain.ActionAllow
	}

	verdict := domain.Verdict{
		Domain:   name,
		Category: category,
		Action:   action,
		Cached:   cached,
		Latency:  latency,
	}
	if verdict.Blocked() {
		verdict.Page = e.blockPage.Content()
		e.logger.Warn(map[string]any{
			"domain":   name,
			"category": category,
		}, "Blocking request")
	}

	e.recordAudit(verdict)
	return verdict
}

// classifyAndStore runs the classifier for a cache miss and folds the result
// into both stores. Concurrent misses for the same domain share one call.
// The policy default is ensured before returning so the policy check that
// follows can never miss.
func (e *Engine) classifyAndStore(ctx context.Context, name string) (domain.Classification, error) {
	v, err, _ := e.group.Do(name, func() (any, error) {
		// another flight may have finished while this one queued
		if c, ok := e.categories.Get(name); ok {
			return domain.Classification{Category: c}, nil
		}

		res, err := e.classifier.Classify(ctx, name)
		if err != nil {
			return nil, err
		}

		if err := e.categories.Put(name, res.Category); err != nil {
			// In-memory update already applied; the next successful flush
			// rewrites the full map and self-heals the file.
			e.logger.Error(map[string]any{
				"domain": name,
				"error":  err.Error(),
			}, "Failed to persist category cache")
		}
		inserted, err := e.policies.Ensure(res.Category)
		if err != nil {
			e.logger.Error(map[string]any{
				"category": res.Category,
				"error":    err.Error(),
			}, "Failed to persist policy default")
		} else if inserted {
			e.logger.Info(map[string]any{
				"category": res.Category,
			}, "New category added to policy with allow default")
		}
		return res, nil
	})
	if err != nil {
		return domain.Classification{}, err
	}
	return v.(domain.Classification), nil
}

// inBackoff reports whether a recent classification failure exempts the
// domain from another attempt right now.
func (e *Engine) inBackoff(name string) bool {
	until, ok := e.failures.Get(name)
	if !ok {
		return false
	}
	if e.clock.Now().After(until) {
		e.failures.Remove(name)
		return false
	}
	return true
}

// Reconcile ensures every category present in the cache has a policy entry.
// Run once at startup so hand-edited or restored files cannot leave orphan
// categories at decision time.
func (e *Engine) Reconcile() error {
	for name, c := range e.categories.All() {
		if _, ok := e.policies.Decision(c); ok {
			continue
		}
		inserted, err := e.policies.Ensure(c)
		if err != nil {
			return fmt.Errorf("ensuring policy for category %q (domain %s): %w", c, name, err)
		}
		if inserted {
			e.logger.Info(map[string]any{
				"category": c,
			}, "Reconciled orphan category into policy with allow default")
		}
	}
	return nil
}

func (e *Engine) recordAudit(v domain.Verdict) {
	event := domain.AuditEvent{
		Time:     e.clock.Now(),
		Domain:   v.Domain,
		Category: v.Category,
		Action:   v.Action,
		Cached:   v.Cached,
		Latency:  v.Latency,
	}
	if err := e.audit.Record(event); err != nil {
		e.logger.Error(map[string]any{
			"domain": v.Domain,
			"error":  err.Error(),
		}, "Failed to record audit event")
	}
}

// nopAudit is the default when no audit log is configured.
type nopAudit struct{}

func (nopAudit) Record(domain.AuditEvent) error { return nil }

var _ Evaluator = (*Engine)(nil)
