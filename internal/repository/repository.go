// Package repository adapts the internal/db collections to the six lookup
// ports the authorization core consumes (spec §6): PrincipalLookup,
// GroupLookup, PolicyLookup, AccountLookup, OuLookup and ScpLookup. It is a
// thin translation layer, never a cache and never a source of truth.
package repository

import (
	"context"
	"fmt"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/db"
	"hodei-authz/internal/domain"
	"hodei-authz/internal/hrn"
)

// Repository wraps a db.Database and implements every lookup port the
// orchestrator depends on.
type Repository struct {
	db db.Database
}

var (
	_ authz.PrincipalLookup = (*Repository)(nil)
	_ authz.GroupLookup     = (*Repository)(nil)
	_ authz.PolicyLookup    = (*Repository)(nil)
	_ authz.AccountLookup   = (*Repository)(nil)
	_ authz.OuLookup        = (*Repository)(nil)
	_ authz.ScpLookup       = (*Repository)(nil)
)

// New creates a new Repository instance wrapping the provided database.
func New(database db.Database) *Repository {
	return &Repository{db: database}
}

// Database returns the underlying database interface.
func (r *Repository) Database() db.Database {
	return r.db
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// RunMigrations executes all pending database migrations.
func (r *Repository) RunMigrations() error {
	return r.db.RunMigrations()
}

// Version returns the current database schema version.
func (r *Repository) Version() (int, error) {
	return r.db.Version()
}

// FindUser implements authz.PrincipalLookup.
func (r *Repository) FindUser(ctx context.Context, h hrn.HRN) (*domain.Principal, error) {
	u, err := r.db.Users().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", h, err)
	}
	if u == nil {
		return nil, nil
	}
	return &domain.Principal{
		HRN:                h,
		Name:               u.Name,
		Email:              u.Email,
		GroupHRNs:          u.GroupHRNs,
		AttachedPolicyHRNs: u.AttachedPolicyHRNs,
		Tags:               u.Tags,
	}, nil
}

// FindGroupsFor implements authz.GroupLookup. It looks up the principal to
// discover its group memberships, then resolves each group HRN in turn.
func (r *Repository) FindGroupsFor(ctx context.Context, h hrn.HRN) ([]domain.Group, error) {
	u, err := r.db.Users().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find groups for %s: %w", h, err)
	}
	if u == nil {
		return nil, nil
	}

	groups := make([]domain.Group, 0, len(u.GroupHRNs))
	for _, groupHRN := range u.GroupHRNs {
		parsed, err := hrn.Parse(groupHRN)
		if err != nil {
			return nil, fmt.Errorf("parse group hrn %q: %w", groupHRN, err)
		}
		g, err := r.db.Groups().GetByHRN(ctx, groupHRN)
		if err != nil {
			return nil, fmt.Errorf("find group %s: %w", groupHRN, err)
		}
		if g == nil {
			continue
		}
		groups = append(groups, domain.Group{
			HRN:                parsed,
			Name:               g.Name,
			AttachedPolicyHRNs: g.AttachedPolicyHRNs,
			Tags:               g.Tags,
		})
	}
	return groups, nil
}

// FindPoliciesFor implements authz.PolicyLookup. It resolves the policy HRNs
// directly attached to the principal plus those attached through each of its
// groups, then dereferences each one into its Cedar source.
func (r *Repository) FindPoliciesFor(ctx context.Context, h hrn.HRN) ([]domain.PolicySource, error) {
	u, err := r.db.Users().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find policies for %s: %w", h, err)
	}
	if u == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var policyHRNs []string
	addAll := func(hrns []string) {
		for _, ph := range hrns {
			if !seen[ph] {
				seen[ph] = true
				policyHRNs = append(policyHRNs, ph)
			}
		}
	}
	addAll(u.AttachedPolicyHRNs)

	for _, groupHRN := range u.GroupHRNs {
		g, err := r.db.Groups().GetByHRN(ctx, groupHRN)
		if err != nil {
			return nil, fmt.Errorf("find group %s: %w", groupHRN, err)
		}
		if g == nil {
			continue
		}
		addAll(g.AttachedPolicyHRNs)
	}

	return r.resolvePolicies(ctx, policyHRNs)
}

func (r *Repository) resolvePolicies(ctx context.Context, policyHRNs []string) ([]domain.PolicySource, error) {
	policies := make([]domain.PolicySource, 0, len(policyHRNs))
	for _, ph := range policyHRNs {
		parsed, err := hrn.Parse(ph)
		if err != nil {
			return nil, fmt.Errorf("parse policy hrn %q: %w", ph, err)
		}
		p, err := r.db.Policies().GetByHRN(ctx, ph)
		if err != nil {
			return nil, fmt.Errorf("find policy %s: %w", ph, err)
		}
		if p == nil {
			continue
		}
		policies = append(policies, domain.PolicySource{
			HRN:         parsed,
			Name:        p.Name,
			Description: p.Description,
			PolicyText:  p.PolicyText,
		})
	}
	return policies, nil
}

// FindAccount implements authz.AccountLookup.
func (r *Repository) FindAccount(ctx context.Context, h hrn.HRN) (*domain.Account, error) {
	a, err := r.db.Accounts().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", h, err)
	}
	if a == nil {
		return nil, nil
	}
	var parentHRN *hrn.HRN
	if a.ParentOuHRN != nil {
		parsed, err := hrn.Parse(*a.ParentOuHRN)
		if err != nil {
			return nil, fmt.Errorf("parse parent ou hrn %q: %w", *a.ParentOuHRN, err)
		}
		parentHRN = &parsed
	}
	return &domain.Account{
		HRN:             h,
		Name:            a.Name,
		ParentOuHRN:     parentHRN,
		AttachedScpHRNs: a.AttachedScpHRNs,
	}, nil
}

// FindOu implements authz.OuLookup.
func (r *Repository) FindOu(ctx context.Context, h hrn.HRN) (*domain.OrganizationalUnit, error) {
	o, err := r.db.Ous().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find ou %s: %w", h, err)
	}
	if o == nil {
		return nil, nil
	}
	var parentHRN *hrn.HRN
	if o.ParentHRN != nil {
		parsed, err := hrn.Parse(*o.ParentHRN)
		if err != nil {
			return nil, fmt.Errorf("parse parent ou hrn %q: %w", *o.ParentHRN, err)
		}
		parentHRN = &parsed
	}
	return &domain.OrganizationalUnit{
		HRN:             h,
		Name:            o.Name,
		ParentHRN:       parentHRN,
		AttachedScpHRNs: o.AttachedScpHRNs,
	}, nil
}

// FindScp implements authz.ScpLookup.
func (r *Repository) FindScp(ctx context.Context, h hrn.HRN) (*domain.ScpSource, error) {
	s, err := r.db.Scps().GetByHRN(ctx, h.String())
	if err != nil {
		return nil, fmt.Errorf("find scp %s: %w", h, err)
	}
	if s == nil {
		return nil, nil
	}
	return &domain.ScpSource{
		HRN:      h,
		Name:     s.Name,
		Document: s.Document,
	}, nil
}

// Config holds repository configuration.
type Config = db.Config

// NewWithConfig creates a new repository with the specified configuration.
// This is a convenience wrapper around db.New.
func NewWithConfig(config Config) (*Repository, error) {
	database, err := db.New(config)
	if err != nil {
		return nil, err
	}
	return New(database), nil
}
