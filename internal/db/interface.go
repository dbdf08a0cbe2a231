// Package db provides database interfaces and implementations backing the
// six lookup ports (spec §6): principals, groups, IAM policies, accounts,
// organizational units and SCPs.
package db

import (
	"context"
	"database/sql"
	"time"
)

// Database is the main interface for database operations.
type Database interface {
	// Connection management
	Ping(ctx context.Context) error
	Close() error
	DB() *sql.DB // Returns underlying *sql.DB for audit logging

	// Transaction support
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)

	// Raw query execution
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Repository accessors
	Users() UserRepository
	Groups() GroupRepository
	Policies() PolicyRepository
	Accounts() AccountRepository
	Ous() OuRepository
	Scps() ScpRepository

	// Migration support
	RunMigrations() error
	Version() (int, error)
}

// UserRepository defines principal data access operations. "User" covers
// both IAM users and service accounts; the resource_type segment of the
// HRN is what tells the two apart (§4.4).
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByHRN(ctx context.Context, hrn string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, hrn string) error
	List(ctx context.Context, partition, account string, limit, offset int) ([]User, error)
}

// GroupRepository defines group data access operations.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByHRN(ctx context.Context, hrn string) (*Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, hrn string) error
	List(ctx context.Context, partition, account string, limit, offset int) ([]Group, error)
}

// PolicyRepository defines IAM policy data access operations.
type PolicyRepository interface {
	Create(ctx context.Context, policy *IamPolicy) error
	GetByHRN(ctx context.Context, hrn string) (*IamPolicy, error)
	Update(ctx context.Context, policy *IamPolicy) error
	Delete(ctx context.Context, hrn string) error
	List(ctx context.Context, partition, account string, limit, offset int) ([]IamPolicy, error)
}

// AccountRepository defines organization account data access operations.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByHRN(ctx context.Context, hrn string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, hrn string) error
	List(ctx context.Context, partition string, limit, offset int) ([]Account, error)
}

// OuRepository defines organizational unit data access operations.
type OuRepository interface {
	Create(ctx context.Context, ou *Ou) error
	GetByHRN(ctx context.Context, hrn string) (*Ou, error)
	Update(ctx context.Context, ou *Ou) error
	Delete(ctx context.Context, hrn string) error
	GetChildren(ctx context.Context, parentHRN string) ([]Ou, error)
	List(ctx context.Context, partition string, limit, offset int) ([]Ou, error)
}

// ScpRepository defines service control policy data access operations.
type ScpRepository interface {
	Create(ctx context.Context, scp *Scp) error
	GetByHRN(ctx context.Context, hrn string) (*Scp, error)
	Update(ctx context.Context, scp *Scp) error
	Delete(ctx context.Context, hrn string) error
	List(ctx context.Context, partition string, limit, offset int) ([]Scp, error)
}

// Config holds database configuration.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}
