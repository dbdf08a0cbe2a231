// Package orchestrator implements the Authorization Orchestrator (AO, spec
// §4.6): it fans out to the IAM Effective-Policy Resolver and the Org
// Effective-SCP Resolver, merges the two policy sets, builds the Cedar
// request, and delegates to the Policy Engine for the final decision.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/logger"
	"hodei-authz/internal/observability"
)

// DefaultCacheTTL is the decision cache lifetime used when WithCache is
// given a zero duration: §4.6 step 8 calls for a 5 minute default.
const DefaultCacheTTL = 5 * time.Minute

// Orchestrator implements authz.Authorizer.
type Orchestrator struct {
	iepr    authz.IamEffectivePolicies
	oesr    authz.OrgEffectiveScps
	pe      *engine.Engine
	cache   authz.DecisionCache
	audit   authz.AuditSink
	metrics authz.MetricsSink
	events  authz.DecisionEventPublisher
	snaps   authz.EntitySnapshotProvider

	cacheTTL    time.Duration
	evalTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithCache(c authz.DecisionCache, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cache = c
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

func WithAudit(a authz.AuditSink) Option { return func(o *Orchestrator) { o.audit = a } }

func WithMetrics(m authz.MetricsSink) Option { return func(o *Orchestrator) { o.metrics = m } }

func WithEvents(e authz.DecisionEventPublisher) Option { return func(o *Orchestrator) { o.events = e } }

func WithEntitySnapshots(s authz.EntitySnapshotProvider) Option {
	return func(o *Orchestrator) { o.snaps = s }
}

func WithEvaluationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.evalTimeout = d }
}

// New wires the IEPR, OESR and PE into a single Authorizer. cache, audit,
// metrics and events are optional: a nil DecisionCache/AuditSink/
// MetricsSink/DecisionEventPublisher degrades to a no-op for that concern
// rather than panicking.
func New(iepr authz.IamEffectivePolicies, oesr authz.OrgEffectiveScps, pe *engine.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		iepr:     iepr,
		oesr:     oesr,
		pe:       pe,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate implements §4.6's algorithm: cache lookup, parallel IEPR/OESR
// resolution, merge, Cedar request construction, PE delegation, and
// audit/metrics/cache/event recording of the result.
func (o *Orchestrator) Evaluate(ctx context.Context, req authz.AuthorizationRequest) (authz.AuthorizationResponse, error) {
	start := time.Now()
	ctx, span := observability.StartEvaluationSpan(ctx, req.PrincipalHRN.String(), req.Action, req.ResourceHRN.String())
	defer span.End()

	log := logger.WithComponent("orchestrator")

	if strings.TrimSpace(req.Action) == "" {
		err := &authz.Error{Kind: authz.KindInvalidRequest, Err: fmt.Errorf("action must not be empty")}
		o.recordFailure(ctx, req, err)
		return authz.AuthorizationResponse{}, err
	}

	if o.evalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.evalTimeout)
		defer cancel()
	}

	key := cacheKey(req)
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok {
			o.recordMetrics(true, "cache_hit", time.Since(start))
			observability.RecordDecision(span, string(cached.Decision), cached.Explicit, len(cached.DeterminingPolicies))
			if o.events != nil {
				o.events.PublishDecision(ctx, req, *cached)
			}
			return *cached, nil
		}
		o.recordMetrics(false, "", 0)
	}

	iamPS, orgPS, err := o.resolvePolicies(ctx, req)
	if err != nil {
		o.recordFailure(ctx, req, err)
		return authz.AuthorizationResponse{}, err
	}

	if ctx.Err() != nil {
		err := &authz.Error{Kind: authz.KindTimeout, Err: ctx.Err()}
		o.recordFailure(ctx, req, err)
		return authz.AuthorizationResponse{}, err
	}

	merged := engine.NewPolicySet()
	engine.MergePolicySet(merged, orgPS, "scp")
	engine.MergePolicySet(merged, iamPS, "iam")

	cedarReq, entities, err := o.buildRequest(ctx, req)
	if err != nil {
		o.recordFailure(ctx, req, err)
		return authz.AuthorizationResponse{}, err
	}

	decision := o.pe.IsAuthorized(merged, entities, cedarReq)

	if ctx.Err() != nil {
		// A decision was computed but the caller is gone; publishing it
		// would misrepresent a cancelled evaluation as a completed one.
		err := &authz.Error{Kind: authz.KindTimeout, Err: ctx.Err()}
		o.recordFailure(ctx, req, err)
		return authz.AuthorizationResponse{}, err
	}

	resp := shapeDecision(decision)
	observability.RecordDecision(span, string(resp.Decision), resp.Explicit, len(resp.DeterminingPolicies))

	if o.cache != nil {
		o.cache.Put(ctx, key, resp, o.cacheTTL)
	}
	if o.audit != nil {
		o.audit.LogDecision(ctx, req, resp)
	}
	if o.events != nil {
		o.events.PublishDecision(ctx, req, resp)
	}
	o.recordMetrics(false, string(resp.Decision), time.Since(start))

	log.Debug("evaluate complete",
		"principal", req.PrincipalHRN.String(),
		"action", req.Action,
		"resource", req.ResourceHRN.String(),
		"decision", resp.Decision)

	return resp, nil
}

// resolvePolicies runs IEPR and OESR concurrently using a plain
// goroutine-plus-channel fan-out, with no external sync helper.
func (o *Orchestrator) resolvePolicies(ctx context.Context, req authz.AuthorizationRequest) (iamPS, orgPS *engine.PolicySet, err error) {
	type iamResult struct {
		ps  *engine.PolicySet
		err error
	}
	type orgResult struct {
		ps  *engine.PolicySet
		err error
	}

	iamCh := make(chan iamResult, 1)
	orgCh := make(chan orgResult, 1)

	go func() {
		ps, err := o.iepr.GetEffectivePolicies(ctx, req.PrincipalHRN)
		iamCh <- iamResult{ps, err}
	}()
	go func() {
		ps, err := o.oesr.GetEffectiveScps(ctx, req.ResourceHRN)
		orgCh <- orgResult{ps, err}
	}()

	ir := <-iamCh
	or := <-orgCh

	if ir.err != nil {
		return nil, nil, &authz.Error{Kind: authz.KindIamProviderError, Err: ir.err}
	}
	if or.err != nil {
		return nil, nil, &authz.Error{Kind: authz.KindOrgProviderError, Err: or.err}
	}

	return ir.ps, or.ps, nil
}

// buildRequest constructs the minimal Cedar principal/resource entities, the
// action UID and the context record, enriching with EntitySnapshotProvider
// data when one is configured.
func (o *Orchestrator) buildRequest(ctx context.Context, req authz.AuthorizationRequest) (cedar.Request, cedar.EntityMap, error) {
	principalUID := toEntityUID(req.PrincipalHRN)
	resourceUID := toEntityUID(req.ResourceHRN)
	actionUID := actionEntityUID(req.ResourceHRN, req.Action)

	entities := cedar.EntityMap{
		principalUID: {UID: principalUID},
		resourceUID:  {UID: resourceUID},
	}

	if o.snaps != nil {
		extra, err := o.snaps.Snapshot(ctx, []cedar.EntityUID{principalUID, resourceUID})
		if err != nil {
			return cedar.Request{}, nil, &authz.Error{Kind: authz.KindRepository, Err: err}
		}
		for uid, ent := range extra {
			entities[uid] = ent
		}
	}

	return cedar.Request{
		Principal: principalUID,
		Action:    actionUID,
		Resource:  resourceUID,
		Context:   buildContext(req.Context),
	}, entities, nil
}

// toEntityUID derives a Cedar entity UID straight from an HRN's cedar type
// and resource id (§4.1 to_euid).
func toEntityUID(h hrn.HRN) cedar.EntityUID {
	euid := hrn.ToEUID(h)
	return cedar.NewEntityUID(cedar.EntityType(euid.Type), cedar.String(euid.ID))
}

// actionEntityUID names the action entity type after the resource's
// namespace, so "S3::Action::"GetObject"" groups actions per service the way
// the typed schema assembler declares them.
func actionEntityUID(resource hrn.HRN, action string) cedar.EntityUID {
	resType := string(hrn.ToCedarType(resource))
	ns := resType
	if idx := strings.Index(resType, "::"); idx >= 0 {
		ns = resType[:idx]
	}
	return cedar.NewEntityUID(cedar.EntityType(ns+"::Action"), cedar.String(action))
}

// shapeDecision maps PE's Decision onto the three outcomes of §4.6 step 7:
// explicit allow, explicit deny (an effective forbid matched) or implicit
// deny (no policy matched at all). Cedar only reports Reasons for policies
// that contributed to the decision, so a non-empty DeterminingPolicies on a
// Deny necessarily names the forbid(s) that produced it.
func shapeDecision(d engine.Decision) authz.AuthorizationResponse {
	ids := make([]string, 0, len(d.DeterminingPolicies))
	for _, id := range d.DeterminingPolicies {
		ids = append(ids, string(id))
	}

	if d.Allow {
		return authz.AuthorizationResponse{
			Decision:            authz.Allow,
			DeterminingPolicies: ids,
			Reason:              "access explicitly allowed by policy",
			Explicit:            true,
		}
	}

	if len(ids) > 0 {
		return authz.AuthorizationResponse{
			Decision:            authz.Deny,
			DeterminingPolicies: ids,
			Reason:              "access explicitly denied by a forbid policy",
			Explicit:            true,
		}
	}

	return authz.AuthorizationResponse{
		Decision:            authz.Deny,
		DeterminingPolicies: nil,
		Reason:              "no policy matched, denied by default",
		Explicit:            false,
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, req authz.AuthorizationRequest, err error) {
	if o.audit != nil {
		o.audit.LogError(ctx, req, err)
	}
	kind := "unknown"
	var aerr *authz.Error
	if e, ok := err.(*authz.Error); ok {
		aerr = e
		kind = string(aerr.Kind)
	}
	if o.metrics != nil {
		o.metrics.RecordError(kind)
	}
}

func (o *Orchestrator) recordMetrics(cacheHit bool, decisionKind string, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCacheHit(cacheHit)
	if decisionKind != "" {
		o.metrics.RecordDecision(decisionKind, elapsed)
	}
}
