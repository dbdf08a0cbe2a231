package iam

import (
	"context"
	"errors"
	"testing"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/domain"
	"hodei-authz/internal/hrn"
)

type fakePrincipals struct {
	byHRN map[string]*domain.Principal
	err   error
}

func (f *fakePrincipals) FindUser(_ context.Context, h hrn.HRN) (*domain.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byHRN[h.String()], nil
}

type fakeGroups struct {
	byPrincipal map[string][]domain.Group
	err         error
}

func (f *fakeGroups) FindGroupsFor(_ context.Context, h hrn.HRN) ([]domain.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPrincipal[h.String()], nil
}

type fakePolicies struct {
	byHRN map[string][]domain.PolicySource
}

func (f *fakePolicies) FindPoliciesFor(_ context.Context, h hrn.HRN) ([]domain.PolicySource, error) {
	return f.byHRN[h.String()], nil
}

func mustParse(t *testing.T, s string) hrn.HRN {
	t.Helper()
	h, err := hrn.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return h
}

const allowAllPolicy = `permit(principal, action, resource);`

func TestGetEffectivePoliciesMergesDirectAndGroupPolicies(t *testing.T) {
	userHRN := mustParse(t, "hrn:aws:iam::111:user/alice")
	groupHRN := "hrn:aws:iam::111:group/admins"
	directPolicyHRN := "hrn:aws:iam::111:policy/direct-read"
	groupPolicyHRN := "hrn:aws:iam::111:policy/group-write"

	principals := &fakePrincipals{byHRN: map[string]*domain.Principal{
		userHRN.String(): {HRN: userHRN, AttachedPolicyHRNs: []string{directPolicyHRN}},
	}}
	groups := &fakeGroups{byPrincipal: map[string][]domain.Group{
		userHRN.String(): {{HRN: mustParse(t, groupHRN), AttachedPolicyHRNs: []string{groupPolicyHRN}}},
	}}
	policies := &fakePolicies{byHRN: map[string][]domain.PolicySource{
		directPolicyHRN: {{HRN: mustParse(t, directPolicyHRN), PolicyText: allowAllPolicy}},
		groupPolicyHRN:  {{HRN: mustParse(t, groupPolicyHRN), PolicyText: allowAllPolicy}},
	}}

	r := NewResolver(principals, groups, policies)
	ps, err := r.GetEffectivePolicies(context.Background(), userHRN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := 0
	for range ps.All() {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 merged policies, got %d", count)
	}
}

func TestGetEffectivePoliciesRejectsNonPrincipalType(t *testing.T) {
	resourceHRN := mustParse(t, "hrn:aws:s3::111:bucket/data")
	r := NewResolver(&fakePrincipals{}, &fakeGroups{}, &fakePolicies{})

	_, err := r.GetEffectivePolicies(context.Background(), resourceHRN)
	var aerr *authz.Error
	if !errors.As(err, &aerr) || aerr.Kind != authz.KindInvalidPrincipalType {
		t.Fatalf("expected InvalidPrincipalType error, got %v", err)
	}
}

func TestGetEffectivePoliciesPrincipalNotFound(t *testing.T) {
	userHRN := mustParse(t, "hrn:aws:iam::111:user/ghost")
	r := NewResolver(&fakePrincipals{byHRN: map[string]*domain.Principal{}}, &fakeGroups{}, &fakePolicies{})

	_, err := r.GetEffectivePolicies(context.Background(), userHRN)
	var aerr *authz.Error
	if !errors.As(err, &aerr) || aerr.Kind != authz.KindPrincipalNotFound {
		t.Fatalf("expected PrincipalNotFound error, got %v", err)
	}
}

func TestGetEffectivePoliciesSkipsUnparseablePolicy(t *testing.T) {
	userHRN := mustParse(t, "hrn:aws:iam::111:user/bob")
	goodPolicyHRN := "hrn:aws:iam::111:policy/good"
	badPolicyHRN := "hrn:aws:iam::111:policy/bad"

	principals := &fakePrincipals{byHRN: map[string]*domain.Principal{
		userHRN.String(): {HRN: userHRN, AttachedPolicyHRNs: []string{goodPolicyHRN, badPolicyHRN}},
	}}
	policies := &fakePolicies{byHRN: map[string][]domain.PolicySource{
		goodPolicyHRN: {{HRN: mustParse(t, goodPolicyHRN), PolicyText: allowAllPolicy}},
		badPolicyHRN:  {{HRN: mustParse(t, badPolicyHRN), PolicyText: "not cedar at all {{{"}},
	}}

	r := NewResolver(principals, &fakeGroups{}, policies)
	ps, err := r.GetEffectivePolicies(context.Background(), userHRN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := 0
	for range ps.All() {
		count++
	}
	if count != 1 {
		t.Fatalf("expected the malformed policy to be skipped, got %d policies", count)
	}
}

func TestGetEffectivePoliciesRepositoryErrorWrapped(t *testing.T) {
	userHRN := mustParse(t, "hrn:aws:iam::111:user/alice")
	r := NewResolver(&fakePrincipals{err: errors.New("connection refused")}, &fakeGroups{}, &fakePolicies{})

	_, err := r.GetEffectivePolicies(context.Background(), userHRN)
	var aerr *authz.Error
	if !errors.As(err, &aerr) || aerr.Kind != authz.KindRepository {
		t.Fatalf("expected Repository error, got %v", err)
	}
}
