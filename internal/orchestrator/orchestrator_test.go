package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/engine/typedschema"
	"hodei-authz/internal/hrn"
)

func buildTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Build(engine.BuildInput{
		EntityTypes: []typedschema.EntityTypeDescriptor{
			{Service: "iam", ResourceType: "User", IsPrincipal: true},
			{Service: "s3", ResourceType: "Bucket"},
		},
		Actions: []typedschema.ActionDescriptor{
			{Name: "GetObject", PrincipalType: "Iam::User", ResourceType: "S3::Bucket"},
		},
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return e
}

type fakeResolver struct {
	policies func() *engine.PolicySet
	err      error
}

func (f *fakeResolver) GetEffectivePolicies(context.Context, hrn.HRN) (*engine.PolicySet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.policies(), nil
}

func (f *fakeResolver) GetEffectiveScps(context.Context, hrn.HRN) (*engine.PolicySet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.policies(), nil
}

func emptyPolicySet() *engine.PolicySet { return engine.NewPolicySet() }

func policySetWith(t *testing.T, source string) *engine.PolicySet {
	t.Helper()
	ps := engine.NewPolicySet()
	p, err := engine.ParsePolicy("test", []byte(source))
	if err != nil {
		t.Fatalf("parse policy: %v", err)
	}
	ps.Add("p0", p)
	return ps
}

type fakeCache struct {
	store map[string]authz.AuthorizationResponse
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]authz.AuthorizationResponse{}} }

func (c *fakeCache) Get(_ context.Context, key string) (*authz.AuthorizationResponse, bool) {
	r, ok := c.store[key]
	if !ok {
		return nil, false
	}
	return &r, true
}

func (c *fakeCache) Put(_ context.Context, key string, resp authz.AuthorizationResponse, _ time.Duration) {
	c.store[key] = resp
}

func (c *fakeCache) InvalidatePrincipal(context.Context, hrn.HRN) {}
func (c *fakeCache) InvalidateResource(context.Context, hrn.HRN) {}

type fakeAudit struct {
	decisions int
	errs      int
}

func (a *fakeAudit) LogDecision(context.Context, authz.AuthorizationRequest, authz.AuthorizationResponse) {
	a.decisions++
}
func (a *fakeAudit) LogError(context.Context, authz.AuthorizationRequest, error) { a.errs++ }

type fakeMetrics struct {
	decisions int
	cacheHits int
	errs      int
}

func (m *fakeMetrics) RecordDecision(string, time.Duration) { m.decisions++ }
func (m *fakeMetrics) RecordError(string)                   { m.errs++ }
func (m *fakeMetrics) RecordCacheHit(hit bool) {
	if hit {
		m.cacheHits++
	}
}

type fakeEvents struct {
	published []authz.AuthorizationResponse
}

func (e *fakeEvents) PublishDecision(_ context.Context, _ authz.AuthorizationRequest, resp authz.AuthorizationResponse) {
	e.published = append(e.published, resp)
}

func testRequest(t *testing.T) authz.AuthorizationRequest {
	t.Helper()
	principal, err := hrn.Parse("hrn:aws:iam::111:user/alice")
	if err != nil {
		t.Fatal(err)
	}
	resource, err := hrn.Parse("hrn:aws:s3::111:bucket/reports")
	if err != nil {
		t.Fatal(err)
	}
	return authz.AuthorizationRequest{PrincipalHRN: principal, Action: "GetObject", ResourceHRN: resource}
}

func TestEvaluateAllow(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{policies: func() *engine.PolicySet { return policySetWith(t, `permit(principal, action, resource);`) }}
	oesr := &fakeResolver{policies: emptyPolicySet}
	audit := &fakeAudit{}
	metrics := &fakeMetrics{}

	o := New(iepr, oesr, e, WithAudit(audit), WithMetrics(metrics))
	resp, err := o.Evaluate(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Decision != authz.Allow || !resp.Explicit {
		t.Fatalf("expected explicit allow, got %+v", resp)
	}
	if audit.decisions != 1 {
		t.Fatalf("expected one decision logged, got %d", audit.decisions)
	}
}

func TestEvaluateExplicitDeny(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{policies: func() *engine.PolicySet { return policySetWith(t, `permit(principal, action, resource);`) }}
	oesr := &fakeResolver{policies: func() *engine.PolicySet { return policySetWith(t, `forbid(principal, action, resource);`) }}

	o := New(iepr, oesr, e)
	resp, err := o.Evaluate(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Decision != authz.Deny || !resp.Explicit {
		t.Fatalf("expected explicit deny (forbid overrides permit), got %+v", resp)
	}
}

func TestEvaluateImplicitDeny(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{policies: emptyPolicySet}
	oesr := &fakeResolver{policies: emptyPolicySet}

	o := New(iepr, oesr, e)
	resp, err := o.Evaluate(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Decision != authz.Deny || resp.Explicit {
		t.Fatalf("expected implicit deny, got %+v", resp)
	}
	if len(resp.DeterminingPolicies) != 0 {
		t.Fatalf("implicit deny must not name determining policies, got %v", resp.DeterminingPolicies)
	}
}

func TestEvaluatePublishesDecisionEvent(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{policies: func() *engine.PolicySet { return policySetWith(t, `permit(principal, action, resource);`) }}
	oesr := &fakeResolver{policies: emptyPolicySet}
	events := &fakeEvents{}

	o := New(iepr, oesr, e, WithEvents(events))
	resp, err := o.Evaluate(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.published) != 1 {
		t.Fatalf("expected 1 published decision event, got %d", len(events.published))
	}
	if events.published[0].Decision != resp.Decision {
		t.Fatalf("expected published decision %v, got %v", resp.Decision, events.published[0].Decision)
	}
}

func TestEvaluateCacheHitPublishesDecisionEvent(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{err: errors.New("must not be called")}
	oesr := &fakeResolver{err: errors.New("must not be called")}
	cache := newFakeCache()
	events := &fakeEvents{}

	req := testRequest(t)
	cached := authz.AuthorizationResponse{Decision: authz.Allow, Explicit: true, Reason: "cached"}
	cache.store[cacheKey(req)] = cached

	o := New(iepr, oesr, e, WithCache(cache, time.Minute), WithEvents(events))
	if _, err := o.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.published) != 1 {
		t.Fatalf("expected the cached decision to publish an event too, got %d", len(events.published))
	}
}

func TestEvaluateCacheHitSkipsResolvers(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{err: errors.New("must not be called")}
	oesr := &fakeResolver{err: errors.New("must not be called")}
	cache := newFakeCache()

	req := testRequest(t)
	cached := authz.AuthorizationResponse{Decision: authz.Allow, Explicit: true, Reason: "cached"}
	cache.store[cacheKey(req)] = cached

	o := New(iepr, oesr, e, WithCache(cache, time.Minute))
	resp, err := o.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reason != "cached" {
		t.Fatalf("expected cached response, got %+v", resp)
	}
}

func TestEvaluateIamProviderErrorWrapped(t *testing.T) {
	e := buildTestEngine(t)
	iepr := &fakeResolver{err: errors.New("boom")}
	oesr := &fakeResolver{policies: emptyPolicySet}

	o := New(iepr, oesr, e)
	_, err := o.Evaluate(context.Background(), testRequest(t))

	var aerr *authz.Error
	if !errors.As(err, &aerr) || aerr.Kind != authz.KindIamProviderError {
		t.Fatalf("expected IamProviderError, got %v", err)
	}
}

func TestEvaluateRejectsEmptyAction(t *testing.T) {
	e := buildTestEngine(t)
	o := New(&fakeResolver{policies: emptyPolicySet}, &fakeResolver{policies: emptyPolicySet}, e)

	req := testRequest(t)
	req.Action = ""
	_, err := o.Evaluate(context.Background(), req)

	var aerr *authz.Error
	if !errors.As(err, &aerr) || aerr.Kind != authz.KindInvalidRequest {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
}
