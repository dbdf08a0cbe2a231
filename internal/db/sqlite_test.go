package db

import (
	"context"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	database, err := NewSQLite(Config{DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestSQLiteRunMigrationsIsIdempotent(t *testing.T) {
	database := newTestSQLite(t)
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
	version, err := database.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestSQLiteUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	database := newTestSQLite(t)

	user := &User{
		HRN:                "hrn:aws:iam::111:user/alice",
		Name:               "alice",
		Email:              "alice@example.com",
		GroupHRNs:          []string{"hrn:aws:iam::111:group/admins"},
		AttachedPolicyHRNs: []string{"hrn:aws:iam::111:policy/direct-read"},
		Tags:               map[string]string{"team": "platform"},
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	if err := database.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := database.Users().GetByHRN(ctx, user.HRN)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.Email != user.Email {
		t.Fatalf("expected email %q, got %q", user.Email, got.Email)
	}
	if len(got.GroupHRNs) != 1 || got.GroupHRNs[0] != user.GroupHRNs[0] {
		t.Fatalf("expected group hrns %v, got %v", user.GroupHRNs, got.GroupHRNs)
	}
	if got.Tags["team"] != "platform" {
		t.Fatalf("expected tag team=platform, got %v", got.Tags)
	}
}

func TestSQLiteUserGetByHRNMissingReturnsNil(t *testing.T) {
	database := newTestSQLite(t)
	got, err := database.Users().GetByHRN(context.Background(), "hrn:aws:iam::111:user/ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing user, got %+v", got)
	}
}

func TestSQLiteOuParentChainRoundTrip(t *testing.T) {
	ctx := context.Background()
	database := newTestSQLite(t)

	root := &Ou{HRN: "hrn:aws:organizations::root:ou/root", Name: "root", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := database.Ous().Create(ctx, root); err != nil {
		t.Fatalf("create root ou: %v", err)
	}

	childParent := root.HRN
	child := &Ou{
		HRN:             "hrn:aws:organizations::root:ou/engineering",
		Name:            "engineering",
		ParentHRN:       &childParent,
		AttachedScpHRNs: []string{"hrn:aws:organizations::root:scp/deny-root-actions"},
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := database.Ous().Create(ctx, child); err != nil {
		t.Fatalf("create child ou: %v", err)
	}

	got, err := database.Ous().GetByHRN(ctx, child.HRN)
	if err != nil {
		t.Fatalf("get ou: %v", err)
	}
	if got.ParentHRN == nil || *got.ParentHRN != root.HRN {
		t.Fatalf("expected parent %q, got %v", root.HRN, got.ParentHRN)
	}
	if len(got.AttachedScpHRNs) != 1 {
		t.Fatalf("expected 1 attached scp, got %d", len(got.AttachedScpHRNs))
	}
}

func TestSQLiteAccountDeleteRemovesRow(t *testing.T) {
	ctx := context.Background()
	database := newTestSQLite(t)

	account := &Account{HRN: "hrn:aws:organizations::root:account/t1", Name: "t1", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := database.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := database.Accounts().Delete(ctx, account.HRN); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	got, err := database.Accounts().GetByHRN(ctx, account.HRN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got != nil {
		t.Fatalf("expected account to be gone, got %+v", got)
	}
}
