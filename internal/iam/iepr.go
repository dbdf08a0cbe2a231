// Package iam implements the IAM Effective-Policy Resolver (IEPR, spec
// §4.4): it computes the Cedar PolicySet attached to a principal, including
// transitive group policies.
package iam

import (
	"context"
	"fmt"
	"sort"
	"strings"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/logger"
)

// principalTypes are the only resource_types a principal HRN may carry,
// matched case-insensitively per §4.4 step 1.
var principalTypes = map[string]bool{
	"user":           true,
	"serviceaccount": true,
}

// Resolver implements authz.IamEffectivePolicies.
type Resolver struct {
	principals PrincipalLookup
	groups     GroupLookup
	policies   PolicyLookup
}

// PrincipalLookup, GroupLookup, PolicyLookup mirror the §6 ports by name so
// this package does not need to import internal/authz's port interfaces
// directly — any type satisfying these method sets (including the real
// authz.PrincipalLookup etc.) works as-is.
type PrincipalLookup = authz.PrincipalLookup
type GroupLookup = authz.GroupLookup
type PolicyLookup = authz.PolicyLookup

func NewResolver(principals PrincipalLookup, groups GroupLookup, policies PolicyLookup) *Resolver {
	return &Resolver{principals: principals, groups: groups, policies: policies}
}

// GetEffectivePolicies implements §4.4's algorithm end to end.
func (r *Resolver) GetEffectivePolicies(ctx context.Context, principalHRN hrn.HRN) (*engine.PolicySet, error) {
	log := logger.WithComponent("iepr")

	rt := strings.ToLower(principalHRN.ResourceType)
	if !principalTypes[rt] {
		return nil, &authz.Error{Kind: authz.KindInvalidPrincipalType,
			Err: fmt.Errorf("resource_type %q is not User or ServiceAccount", principalHRN.ResourceType)}
	}

	principal, err := r.principals.FindUser(ctx, principalHRN)
	if err != nil {
		return nil, &authz.Error{Kind: authz.KindRepository, Err: err}
	}
	if principal == nil {
		return nil, &authz.Error{Kind: authz.KindPrincipalNotFound,
			Err: fmt.Errorf("principal %s not found", principalHRN)}
	}

	groups, err := r.groups.FindGroupsFor(ctx, principalHRN)
	if err != nil {
		return nil, &authz.Error{Kind: authz.KindRepository, Err: err}
	}

	policyHRNs := map[string]struct{}{}
	for _, p := range principal.AttachedPolicyHRNs {
		policyHRNs[p] = struct{}{}
	}
	for _, g := range groups {
		for _, p := range g.AttachedPolicyHRNs {
			policyHRNs[p] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(policyHRNs))
	for p := range policyHRNs {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	merged := engine.NewPolicySet()
	for i, raw := range sorted {
		h, err := hrn.Parse(raw)
		if err != nil {
			log.Warn("iepr: skipping malformed policy hrn", "hrn", raw, "error", err)
			continue
		}
		sources, err := r.policies.FindPoliciesFor(ctx, h)
		if err != nil {
			log.Warn("iepr: policy lookup failed, skipping", "hrn", raw, "error", err)
			continue
		}
		for _, src := range sources {
			policy, err := engine.ParsePolicy(raw, []byte(src.PolicyText))
			if err != nil {
				log.Warn("iepr: skipping unparseable policy", "hrn", raw, "error", err)
				continue
			}
			id := cedar.PolicyID(fmt.Sprintf("iam-%d-%s", i, raw))
			merged.Add(id, policy)
		}
	}

	return merged, nil
}
