// Package org implements the Org Effective-SCP Resolver (OESR, spec §4.5):
// it computes the Cedar PolicySet of all SCPs inherited along the OU
// ancestry of a target entity (account or OU).
package org

import (
	"context"
	"fmt"
	"strings"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/domain"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/logger"
)

// DefaultOuDepthLimit matches spec.md's suggested bound (§3, Open Question
// decided in DESIGN.md).
const DefaultOuDepthLimit = 5

type AccountLookup = authz.AccountLookup
type OuLookup = authz.OuLookup
type ScpLookup = authz.ScpLookup

// Resolver implements authz.OrgEffectiveScps.
type Resolver struct {
	accounts AccountLookup
	ous      OuLookup
	scps     ScpLookup
	depth    int
}

type Option func(*Resolver)

func WithDepthLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.depth = n
		}
	}
}

func NewResolver(accounts AccountLookup, ous OuLookup, scps ScpLookup, opts ...Option) *Resolver {
	r := &Resolver{accounts: accounts, ous: ous, scps: scps, depth: DefaultOuDepthLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetEffectiveScps implements §4.5's algorithm end to end. Collection order
// is root-to-leaf, preserved only for diagnostics — Cedar combination is
// set-based and order-independent for correctness.
func (r *Resolver) GetEffectiveScps(ctx context.Context, targetHRN hrn.HRN) (*engine.PolicySet, error) {
	log := logger.WithComponent("oesr")

	rt := strings.ToLower(targetHRN.ResourceType)
	var startOu *hrn.HRN

	switch rt {
	case "account":
		account, err := r.accounts.FindAccount(ctx, targetHRN)
		if err != nil {
			return nil, &authz.Error{Kind: authz.KindRepository, Err: err}
		}
		if account == nil {
			return nil, &authz.Error{Kind: authz.KindTargetNotFound,
				Err: fmt.Errorf("account %s not found", targetHRN)}
		}
		if account.ParentOuHRN == nil {
			return engine.NewPolicySet(), nil
		}
		startOu = account.ParentOuHRN
	case "ou":
		startOu = &targetHRN
	default:
		return nil, &authz.Error{Kind: authz.KindInvalidTargetType,
			Err: fmt.Errorf("resource_type %q is not account or ou", targetHRN.ResourceType)}
	}

	chain, err := r.walkAncestry(ctx, *startOu)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var ordered []string
	for _, ou := range chain {
		for _, s := range ou.AttachedScpHRNs {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			ordered = append(ordered, s)
		}
	}

	merged := engine.NewPolicySet()
	for i, raw := range ordered {
		h, err := hrn.Parse(raw)
		if err != nil {
			log.Warn("oesr: skipping malformed scp hrn", "hrn", raw, "error", err)
			continue
		}
		src, err := r.scps.FindScp(ctx, h)
		if err != nil {
			log.Warn("oesr: scp lookup failed, skipping", "hrn", raw, "error", err)
			continue
		}
		if src == nil {
			continue
		}
		policy, err := engine.ParsePolicy(raw, []byte(src.Document))
		if err != nil {
			log.Warn("oesr: skipping unparseable scp", "hrn", raw, "error", err)
			continue
		}
		id := cedar.PolicyID(fmt.Sprintf("scp-%d-%s", i, raw))
		merged.Add(id, policy)
	}

	return merged, nil
}

// walkAncestry walks from ou toward the root, collecting each OU visited,
// bounded by the configured depth limit.
func (r *Resolver) walkAncestry(ctx context.Context, start hrn.HRN) ([]domain.OrganizationalUnit, error) {
	var chain []domain.OrganizationalUnit
	current := &start

	for depth := 0; current != nil; depth++ {
		if depth >= r.depth {
			return nil, &authz.Error{Kind: authz.KindDepthExceeded,
				Err: fmt.Errorf("ou ancestry exceeded depth limit %d starting at %s", r.depth, start)}
		}

		ou, err := r.ous.FindOu(ctx, *current)
		if err != nil {
			return nil, &authz.Error{Kind: authz.KindRepository, Err: err}
		}
		if ou == nil {
			return nil, &authz.Error{Kind: authz.KindTargetNotFound,
				Err: fmt.Errorf("ou %s not found", *current)}
		}

		chain = append([]domain.OrganizationalUnit{*ou}, chain...)
		current = ou.ParentHRN
	}

	return chain, nil
}
