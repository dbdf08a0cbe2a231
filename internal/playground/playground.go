// Package playground implements the stateless scenario runner (spec §5
// "Parallel playground"): given an already-built engine and a batch of
// scenarios, it evaluates each one through a bounded worker pool, honoring
// per-scenario cooperative timeouts and an optional first-match mode.
package playground

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	cedar "github.com/cedar-policy/cedar-go"
	"github.com/cenkalti/backoff/v5"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/logger"
)

// Scenario is one is_authorized call to run through the playground. Policies
// and Entities are scenario-local: the playground never merges them with
// anything else, since validating a hypothetical policy set is the point.
type Scenario struct {
	Name     string
	Policies *engine.PolicySet
	Entities cedar.EntityMap
	Request  cedar.Request
	Timeout  time.Duration // overrides the Runner's default when > 0
}

// Result is one scenario's outcome.
type Result struct {
	Name     string
	Decision engine.Decision
	Reason   string // "timeout" when the scenario's cooperative deadline fired
	Err      error
	Elapsed  time.Duration
}

// Default values for a Runner.
const (
	DefaultConcurrency     = 8
	DefaultScenarioTimeout = 2 * time.Second
)

// Runner is a bounded worker pool over engine.Engine.IsAuthorized.
type Runner struct {
	pe          *engine.Engine
	snaps       authz.EntitySnapshotProvider
	concurrency int
	timeout     time.Duration
	log         *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds how many scenarios evaluate at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithScenarioTimeout sets the default per-scenario cooperative timeout.
func WithScenarioTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithEntitySnapshots enriches each scenario's entities from a snapshot
// provider before evaluation, retrying transient lookup failures.
func WithEntitySnapshots(s authz.EntitySnapshotProvider) Option {
	return func(r *Runner) { r.snaps = s }
}

// NewRunner builds a Runner around an already-built Engine.
func NewRunner(pe *engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		pe:          pe,
		concurrency: DefaultConcurrency,
		timeout:     DefaultScenarioTimeout,
		log:         logger.WithComponent("playground"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every scenario, bounded by the Runner's concurrency, and
// returns results in the same order as the input scenarios.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, len(scenarios))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, s := range scenarios {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, s Scenario) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.runOne(ctx, s)
		}(i, s)
	}

	wg.Wait()
	r.log.Debug("playground run complete", "scenarios", len(scenarios))
	return results
}

// RunFirstMatch evaluates scenarios concurrently and stops the remaining
// workers as soon as one result satisfies match, using a shared atomic flag
// rather than cancelling the caller's context (so the other in-flight
// scenarios still record a real result instead of a timeout).
func (r *Runner) RunFirstMatch(ctx context.Context, scenarios []Scenario, match func(Result) bool) (Result, bool) {
	var found atomic.Bool
	var winner atomic.Value // Result
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for _, s := range scenarios {
		if found.Load() {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(s Scenario) {
			defer wg.Done()
			defer func() { <-sem }()
			if found.Load() {
				return
			}
			res := r.runOne(ctx, s)
			if match(res) && found.CompareAndSwap(false, true) {
				winner.Store(res)
			}
		}(s)
	}

	wg.Wait()

	if v := winner.Load(); v != nil {
		return v.(Result), true
	}
	return Result{}, false
}

// runOne evaluates a single scenario under its own cooperative timeout.
func (r *Runner) runOne(ctx context.Context, s Scenario) Result {
	start := time.Now()

	timeout := r.timeout
	if s.Timeout > 0 {
		timeout = s.Timeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entities, err := r.enrichEntities(sctx, s)
	if err != nil {
		res := Result{Name: s.Name, Err: err, Elapsed: time.Since(start)}
		if sctx.Err() != nil {
			res.Reason = "timeout"
		}
		return res
	}

	decision := r.pe.IsAuthorized(s.Policies, entities, s.Request)

	if sctx.Err() != nil {
		return Result{
			Name:    s.Name,
			Reason:  "timeout",
			Err:     sctx.Err(),
			Elapsed: time.Since(start),
		}
	}

	return Result{Name: s.Name, Decision: decision, Elapsed: time.Since(start)}
}

// enrichEntities asks the configured EntitySnapshotProvider for extra entity
// data, retrying transient errors with exponential backoff. Without a
// provider configured, the scenario's own entities are used as-is.
func (r *Runner) enrichEntities(ctx context.Context, s Scenario) (cedar.EntityMap, error) {
	if r.snaps == nil {
		return s.Entities, nil
	}

	uids := make([]cedar.EntityUID, 0, len(s.Entities))
	for uid := range s.Entities {
		uids = append(uids, uid)
	}

	extra, err := backoff.Retry(ctx, func() (cedar.EntityMap, error) {
		em, err := r.snaps.Snapshot(ctx, uids)
		if err != nil {
			return nil, err
		}
		return em, nil
	}, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return nil, err
	}

	merged := make(cedar.EntityMap, len(s.Entities)+len(extra))
	for uid, ent := range s.Entities {
		merged[uid] = ent
	}
	for uid, ent := range extra {
		merged[uid] = ent
	}
	return merged, nil
}
