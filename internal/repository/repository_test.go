package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"hodei-authz/internal/db"
	"hodei-authz/internal/domain"
	"hodei-authz/internal/hrn"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	database, err := db.NewSQLite(db.Config{DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return New(database)
}

func mustParse(t *testing.T, s string) hrn.HRN {
	t.Helper()
	h, err := hrn.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return h
}

func TestFindUserTranslatesDBModelToDomain(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	now := time.Now().UTC()
	if err := repo.Database().Users().Create(ctx, &db.User{
		HRN:                "hrn:aws:iam::111:user/alice",
		Name:               "alice",
		Email:              "alice@example.com",
		AttachedPolicyHRNs: []string{"hrn:aws:iam::111:policy/direct-read"},
		CreatedAt:          now,
		UpdatedAt:          now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := repo.FindUser(ctx, mustParse(t, "hrn:aws:iam::111:user/alice"))
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	want := &domain.Principal{
		HRN:                mustParse(t, "hrn:aws:iam::111:user/alice"),
		Name:               "alice",
		Email:              "alice@example.com",
		AttachedPolicyHRNs: []string{"hrn:aws:iam::111:policy/direct-read"},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("principal mismatch (-want +got):\n%s", diff)
	}
}

func TestFindUserMissingReturnsNilNotError(t *testing.T) {
	repo := newTestRepository(t)
	got, err := repo.FindUser(context.Background(), mustParse(t, "hrn:aws:iam::111:user/ghost"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing user, got %+v", got)
	}
}

func TestFindPoliciesForMergesDirectAndGroupPolicies(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Now().UTC()

	if err := repo.Database().Groups().Create(ctx, &db.Group{
		HRN:                "hrn:aws:iam::111:group/admins",
		Name:               "admins",
		AttachedPolicyHRNs: []string{"hrn:aws:iam::111:policy/group-write"},
		CreatedAt:          now,
		UpdatedAt:          now,
	}); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	if err := repo.Database().Users().Create(ctx, &db.User{
		HRN:                "hrn:aws:iam::111:user/alice",
		Name:               "alice",
		GroupHRNs:          []string{"hrn:aws:iam::111:group/admins"},
		AttachedPolicyHRNs: []string{"hrn:aws:iam::111:policy/direct-read"},
		CreatedAt:          now,
		UpdatedAt:          now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, p := range []*db.IamPolicy{
		{HRN: "hrn:aws:iam::111:policy/direct-read", Name: "direct-read", PolicyText: "permit(principal, action, resource);", CreatedAt: now, UpdatedAt: now},
		{HRN: "hrn:aws:iam::111:policy/group-write", Name: "group-write", PolicyText: "permit(principal, action, resource);", CreatedAt: now, UpdatedAt: now},
	} {
		if err := repo.Database().Policies().Create(ctx, p); err != nil {
			t.Fatalf("seed policy %s: %v", p.HRN, err)
		}
	}

	policies, err := repo.FindPoliciesFor(ctx, mustParse(t, "hrn:aws:iam::111:user/alice"))
	if err != nil {
		t.Fatalf("find policies: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("expected 2 policies (direct + group), got %d", len(policies))
	}
}

func TestFindAccountResolvesParentOu(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Now().UTC()

	ouHRN := "hrn:aws:organizations::root:ou/engineering"
	if err := repo.Database().Ous().Create(ctx, &db.Ou{HRN: ouHRN, Name: "engineering", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed ou: %v", err)
	}
	if err := repo.Database().Accounts().Create(ctx, &db.Account{
		HRN:         "hrn:aws:organizations::root:account/t1",
		Name:        "t1",
		ParentOuHRN: &ouHRN,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	account, err := repo.FindAccount(ctx, mustParse(t, "hrn:aws:organizations::root:account/t1"))
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if account.ParentOuHRN == nil || account.ParentOuHRN.String() != ouHRN {
		t.Fatalf("expected parent ou %q, got %v", ouHRN, account.ParentOuHRN)
	}
}

func TestFindScpMissingReturnsNilNotError(t *testing.T) {
	repo := newTestRepository(t)
	got, err := repo.FindScp(context.Background(), mustParse(t, "hrn:aws:organizations::root:scp/ghost"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing scp, got %+v", got)
	}
}
