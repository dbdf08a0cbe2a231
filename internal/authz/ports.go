package authz

import (
	"context"
	"time"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/domain"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/hrn"
)

// Ports consumed by the core (spec §6). Implementations live outside the
// core — the composition root in cmd/authzd wires concrete adapters
// (internal/repository, internal/cache, internal/audit, internal/metrics)
// against these capability interfaces. The orchestrator depends only on the
// capability, never on the implementing type (§9 re-architecture note).

type PrincipalLookup interface {
	FindUser(ctx context.Context, h hrn.HRN) (*domain.Principal, error)
}

type GroupLookup interface {
	FindGroupsFor(ctx context.Context, h hrn.HRN) ([]domain.Group, error)
}

type PolicyLookup interface {
	FindPoliciesFor(ctx context.Context, h hrn.HRN) ([]domain.PolicySource, error)
}

type AccountLookup interface {
	FindAccount(ctx context.Context, h hrn.HRN) (*domain.Account, error)
}

type OuLookup interface {
	FindOu(ctx context.Context, h hrn.HRN) (*domain.OrganizationalUnit, error)
}

type ScpLookup interface {
	FindScp(ctx context.Context, h hrn.HRN) (*domain.ScpSource, error)
}

// DecisionCache caches AuthorizationResponse by a request-derived key.
// InvalidatePrincipal/InvalidateResource exist per §6 but nothing in this
// repo calls them automatically — per §9's Open Question, triggering is
// left to the (out-of-scope) mutating use cases.
type DecisionCache interface {
	Get(ctx context.Context, key string) (*AuthorizationResponse, bool)
	Put(ctx context.Context, key string, resp AuthorizationResponse, ttl time.Duration)
	InvalidatePrincipal(ctx context.Context, h hrn.HRN)
	InvalidateResource(ctx context.Context, h hrn.HRN)
}

type AuditSink interface {
	LogDecision(ctx context.Context, req AuthorizationRequest, resp AuthorizationResponse)
	LogError(ctx context.Context, req AuthorizationRequest, err error)
}

type MetricsSink interface {
	RecordDecision(kind string, elapsed time.Duration)
	RecordError(kind string)
	RecordCacheHit(hit bool)
}

// DecisionEventPublisher fires a fire-and-forget event for every terminal
// authorization decision (§4.6 step 9), so downstream consumers (e.g. a
// cache invalidator subscribed by HRN) can react without the orchestrator
// blocking on them.
type DecisionEventPublisher interface {
	PublishDecision(ctx context.Context, req AuthorizationRequest, resp AuthorizationResponse)
}

// EntitySnapshotProvider is optional: it supplies extra entity attributes
// for entities referenced by policy conditions beyond principal/resource
// themselves, keyed by Cedar EntityUID.
type EntitySnapshotProvider interface {
	Snapshot(ctx context.Context, uids []cedar.EntityUID) (cedar.EntityMap, error)
}

// Ports exposed by the core (spec §6).

type Authorizer interface {
	Evaluate(ctx context.Context, req AuthorizationRequest) (AuthorizationResponse, error)
}

type IamEffectivePolicies interface {
	GetEffectivePolicies(ctx context.Context, principalHRN hrn.HRN) (*engine.PolicySet, error)
}

type OrgEffectiveScps interface {
	GetEffectiveScps(ctx context.Context, targetHRN hrn.HRN) (*engine.PolicySet, error)
}

type PolicyValidator interface {
	Validate(source []byte) error
}
