package playground

import (
	"context"
	"errors"
	"testing"
	"time"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/engine"
	"hodei-authz/internal/engine/typedschema"
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

func testScenario(name string, ps *engine.PolicySet) Scenario {
	principal := cedar.NewEntityUID("Iam::User", "alice")
	resource := cedar.NewEntityUID("S3::Bucket", "bucket1")
	action := cedar.NewEntityUID("Iam::Action", "GetObject")

	return Scenario{
		Name:     name,
		Policies: ps,
		Entities: cedar.EntityMap{
			principal: {UID: principal},
			resource:  {UID: resource},
		},
		Request: cedar.Request{
			Principal: principal,
			Action:    action,
			Resource:  resource,
			Context:   cedar.NewRecord(cedar.RecordMap{}),
		},
	}
}

func TestRunAllowAndDeny(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e)

	scenarios := []Scenario{
		testScenario("allow", policySetWith(t, `permit(principal, action, resource);`)),
		testScenario("deny", emptyPolicySet()),
	}

	results := r.Run(context.Background(), scenarios)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Decision.Allow {
		t.Errorf("expected scenario 0 to allow, got %+v", results[0])
	}
	if results[1].Decision.Allow {
		t.Errorf("expected scenario 1 to deny, got %+v", results[1])
	}
}

func emptyPolicySet() *engine.PolicySet { return engine.NewPolicySet() }

func TestRunPreservesOrder(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e, WithConcurrency(2))

	var scenarios []Scenario
	for i := 0; i < 10; i++ {
		ps := emptyPolicySet()
		if i%2 == 0 {
			ps = policySetWith(t, `permit(principal, action, resource);`)
		}
		scenarios = append(scenarios, testScenario(string(rune('a'+i)), ps))
	}

	results := r.Run(context.Background(), scenarios)
	for i, res := range results {
		want := i%2 == 0
		if res.Decision.Allow != want {
			t.Errorf("scenario %d: expected Allow=%v, got %v", i, want, res.Decision.Allow)
		}
	}
}

func TestRunFirstMatchStopsEarly(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e, WithConcurrency(4))

	scenarios := []Scenario{
		testScenario("deny-1", emptyPolicySet()),
		testScenario("allow", policySetWith(t, `permit(principal, action, resource);`)),
		testScenario("deny-2", emptyPolicySet()),
	}

	res, ok := r.RunFirstMatch(context.Background(), scenarios, func(r Result) bool {
		return r.Decision.Allow
	})
	if !ok {
		t.Fatal("expected a matching result")
	}
	if res.Name != "allow" {
		t.Errorf("expected the allow scenario to match, got %q", res.Name)
	}
}

func TestRunFirstMatchNoneMatch(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e)

	scenarios := []Scenario{
		testScenario("deny-1", emptyPolicySet()),
		testScenario("deny-2", emptyPolicySet()),
	}

	_, ok := r.RunFirstMatch(context.Background(), scenarios, func(r Result) bool {
		return r.Decision.Allow
	})
	if ok {
		t.Error("expected no match")
	}
}

func TestRunScenarioTimeout(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e, WithEntitySnapshots(&slowSnapshotProvider{delay: 50 * time.Millisecond}))

	s := testScenario("slow", policySetWith(t, `permit(principal, action, resource);`))
	s.Timeout = 5 * time.Millisecond

	results := r.Run(context.Background(), []Scenario{s})
	if results[0].Reason != "timeout" && results[0].Err == nil {
		t.Errorf("expected a timeout or error, got %+v", results[0])
	}
}

type slowSnapshotProvider struct {
	delay time.Duration
}

func (s *slowSnapshotProvider) Snapshot(ctx context.Context, uids []cedar.EntityUID) (cedar.EntityMap, error) {
	select {
	case <-time.After(s.delay):
		return cedar.EntityMap{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type alwaysFailSnapshotProvider struct{}

func (alwaysFailSnapshotProvider) Snapshot(context.Context, []cedar.EntityUID) (cedar.EntityMap, error) {
	return nil, errors.New("provider unavailable")
}

func TestRunEntitySnapshotFailurePropagates(t *testing.T) {
	e := buildTestEngine(t)
	r := NewRunner(e, WithEntitySnapshots(alwaysFailSnapshotProvider{}), WithScenarioTimeout(200*time.Millisecond))

	s := testScenario("snap-fail", policySetWith(t, `permit(principal, action, resource);`))
	results := r.Run(context.Background(), []Scenario{s})

	if results[0].Err == nil {
		t.Fatal("expected an error when the snapshot provider always fails")
	}
}
