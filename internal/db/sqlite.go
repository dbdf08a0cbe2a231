package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteDB implements the Database interface for SQLite.
type SQLiteDB struct {
	db     *sql.DB
	config Config
	repos  *repositories
}

// repositories holds all SQLite repository implementations.
type repositories struct {
	users    *sqliteUserRepo
	groups   *sqliteGroupRepo
	policies *sqlitePolicyRepo
	accounts *sqliteAccountRepo
	ous      *sqliteOuRepo
	scps     *sqliteScpRepo
}

// NewSQLite creates a new SQLite database connection.
func NewSQLite(config Config) (*SQLiteDB, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = "hodei-authz.db"
	}

	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(1) // SQLite only supports one writer
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	database := &SQLiteDB{
		db:     db,
		config: config,
	}

	database.repos = &repositories{
		users:    &sqliteUserRepo{db: db},
		groups:   &sqliteGroupRepo{db: db},
		policies: &sqlitePolicyRepo{db: db},
		accounts: &sqliteAccountRepo{db: db},
		ous:      &sqliteOuRepo{db: db},
		scps:     &sqliteScpRepo{db: db},
	}

	return database, nil
}

// Ping checks the database connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *SQLiteDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, opts)
}

// ExecContext executes a query without returning rows.
func (s *SQLiteDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (s *SQLiteDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row.
func (s *SQLiteDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// Repository accessors
func (s *SQLiteDB) Users() UserRepository       { return s.repos.users }
func (s *SQLiteDB) Groups() GroupRepository     { return s.repos.groups }
func (s *SQLiteDB) Policies() PolicyRepository  { return s.repos.policies }
func (s *SQLiteDB) Accounts() AccountRepository { return s.repos.accounts }
func (s *SQLiteDB) Ous() OuRepository           { return s.repos.ous }
func (s *SQLiteDB) Scps() ScpRepository         { return s.repos.scps }

// DB returns the underlying *sql.DB for migrations and advanced operations.
func (s *SQLiteDB) DB() *sql.DB { return s.db }

// RunMigrations executes all pending migrations.
func (s *SQLiteDB) RunMigrations() error {
	content, err := migrationsFS.ReadFile("migrations/001_initial_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	statements := strings.Split(string(content), ";")

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		_, err := s.db.Exec(stmt)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to execute migration statement: %w", err)
		}
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO schema_migrations (version) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return nil
}

// Version returns the current schema version.
func (s *SQLiteDB) Version() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// sqliteUserRepo implements UserRepository for SQLite.
type sqliteUserRepo struct{ db *sql.DB }

func (r *sqliteUserRepo) Create(ctx context.Context, user *User) error {
	groupHRNs, err := marshalHRNs(user.GroupHRNs)
	if err != nil {
		return err
	}
	policyHRNs, err := marshalHRNs(user.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(user.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO users (hrn, name, email, group_hrns, attached_policy_hrns, tags, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, user.HRN, user.Name, user.Email, groupHRNs, policyHRNs, tags, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *sqliteUserRepo) GetByHRN(ctx context.Context, hrn string) (*User, error) {
	u := &User{}
	var groupHRNs, policyHRNs, tags string
	query := `SELECT hrn, name, email, group_hrns, attached_policy_hrns, tags, created_at, updated_at FROM users WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&u.HRN, &u.Name, &u.Email, &groupHRNs, &policyHRNs, &tags, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.GroupHRNs, err = unmarshalHRNs(groupHRNs); err != nil {
		return nil, err
	}
	if u.AttachedPolicyHRNs, err = unmarshalHRNs(policyHRNs); err != nil {
		return nil, err
	}
	if u.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *sqliteUserRepo) Update(ctx context.Context, user *User) error {
	groupHRNs, err := marshalHRNs(user.GroupHRNs)
	if err != nil {
		return err
	}
	policyHRNs, err := marshalHRNs(user.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(user.Tags)
	if err != nil {
		return err
	}
	query := `UPDATE users SET name = ?, email = ?, group_hrns = ?, attached_policy_hrns = ?, tags = ?, updated_at = ? WHERE hrn = ?`
	_, err = r.db.ExecContext(ctx, query, user.Name, user.Email, groupHRNs, policyHRNs, tags, user.UpdatedAt, user.HRN)
	return err
}

func (r *sqliteUserRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE hrn = ?`, hrn)
	return err
}

func (r *sqliteUserRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, email, group_hrns, attached_policy_hrns, tags, created_at, updated_at
			  FROM users WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var groupHRNs, policyHRNs, tags string
		if err := rows.Scan(&u.HRN, &u.Name, &u.Email, &groupHRNs, &policyHRNs, &tags, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if u.GroupHRNs, err = unmarshalHRNs(groupHRNs); err != nil {
			return nil, err
		}
		if u.AttachedPolicyHRNs, err = unmarshalHRNs(policyHRNs); err != nil {
			return nil, err
		}
		if u.Tags, err = unmarshalTags(tags); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// sqliteGroupRepo implements GroupRepository for SQLite.
type sqliteGroupRepo struct{ db *sql.DB }

func (r *sqliteGroupRepo) Create(ctx context.Context, group *Group) error {
	policyHRNs, err := marshalHRNs(group.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(group.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO groups (hrn, name, attached_policy_hrns, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, group.HRN, group.Name, policyHRNs, tags, group.CreatedAt, group.UpdatedAt)
	return err
}

func (r *sqliteGroupRepo) GetByHRN(ctx context.Context, hrn string) (*Group, error) {
	g := &Group{}
	var policyHRNs, tags string
	query := `SELECT hrn, name, attached_policy_hrns, tags, created_at, updated_at FROM groups WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&g.HRN, &g.Name, &policyHRNs, &tags, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if g.AttachedPolicyHRNs, err = unmarshalHRNs(policyHRNs); err != nil {
		return nil, err
	}
	if g.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *sqliteGroupRepo) Update(ctx context.Context, group *Group) error {
	policyHRNs, err := marshalHRNs(group.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(group.Tags)
	if err != nil {
		return err
	}
	query := `UPDATE groups SET name = ?, attached_policy_hrns = ?, tags = ?, updated_at = ? WHERE hrn = ?`
	_, err = r.db.ExecContext(ctx, query, group.Name, policyHRNs, tags, group.UpdatedAt, group.HRN)
	return err
}

func (r *sqliteGroupRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE hrn = ?`, hrn)
	return err
}

func (r *sqliteGroupRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]Group, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, attached_policy_hrns, tags, created_at, updated_at
			  FROM groups WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		var policyHRNs, tags string
		if err := rows.Scan(&g.HRN, &g.Name, &policyHRNs, &tags, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if g.AttachedPolicyHRNs, err = unmarshalHRNs(policyHRNs); err != nil {
			return nil, err
		}
		if g.Tags, err = unmarshalTags(tags); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// sqlitePolicyRepo implements PolicyRepository for SQLite.
type sqlitePolicyRepo struct{ db *sql.DB }

func (r *sqlitePolicyRepo) Create(ctx context.Context, policy *IamPolicy) error {
	query := `INSERT INTO iam_policies (hrn, name, description, policy_text, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, policy.HRN, policy.Name, policy.Description, policy.PolicyText, policy.CreatedAt, policy.UpdatedAt)
	return err
}

func (r *sqlitePolicyRepo) GetByHRN(ctx context.Context, hrn string) (*IamPolicy, error) {
	p := &IamPolicy{}
	query := `SELECT hrn, name, description, policy_text, created_at, updated_at FROM iam_policies WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&p.HRN, &p.Name, &p.Description, &p.PolicyText, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *sqlitePolicyRepo) Update(ctx context.Context, policy *IamPolicy) error {
	query := `UPDATE iam_policies SET name = ?, description = ?, policy_text = ?, updated_at = ? WHERE hrn = ?`
	_, err := r.db.ExecContext(ctx, query, policy.Name, policy.Description, policy.PolicyText, policy.UpdatedAt, policy.HRN)
	return err
}

func (r *sqlitePolicyRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM iam_policies WHERE hrn = ?`, hrn)
	return err
}

func (r *sqlitePolicyRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]IamPolicy, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, description, policy_text, created_at, updated_at
			  FROM iam_policies WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []IamPolicy
	for rows.Next() {
		var p IamPolicy
		if err := rows.Scan(&p.HRN, &p.Name, &p.Description, &p.PolicyText, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// sqliteAccountRepo implements AccountRepository for SQLite.
type sqliteAccountRepo struct{ db *sql.DB }

func (r *sqliteAccountRepo) Create(ctx context.Context, account *Account) error {
	scpHRNs, err := marshalHRNs(account.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `INSERT INTO accounts (hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, account.HRN, account.Name, account.ParentOuHRN, scpHRNs, account.CreatedAt, account.UpdatedAt)
	return err
}

func (r *sqliteAccountRepo) GetByHRN(ctx context.Context, hrn string) (*Account, error) {
	a := &Account{}
	var scpHRNs string
	query := `SELECT hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at FROM accounts WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&a.HRN, &a.Name, &a.ParentOuHRN, &scpHRNs, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.AttachedScpHRNs, err = unmarshalHRNs(scpHRNs); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *sqliteAccountRepo) Update(ctx context.Context, account *Account) error {
	scpHRNs, err := marshalHRNs(account.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `UPDATE accounts SET name = ?, parent_ou_hrn = ?, attached_scp_hrns = ?, updated_at = ? WHERE hrn = ?`
	_, err = r.db.ExecContext(ctx, query, account.Name, account.ParentOuHRN, scpHRNs, account.UpdatedAt, account.HRN)
	return err
}

func (r *sqliteAccountRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE hrn = ?`, hrn)
	return err
}

func (r *sqliteAccountRepo) List(ctx context.Context, partition string, limit, offset int) ([]Account, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at
			  FROM accounts WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var scpHRNs string
		if err := rows.Scan(&a.HRN, &a.Name, &a.ParentOuHRN, &scpHRNs, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if a.AttachedScpHRNs, err = unmarshalHRNs(scpHRNs); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// sqliteOuRepo implements OuRepository for SQLite.
type sqliteOuRepo struct{ db *sql.DB }

func (r *sqliteOuRepo) Create(ctx context.Context, ou *Ou) error {
	scpHRNs, err := marshalHRNs(ou.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `INSERT INTO ous (hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, ou.HRN, ou.Name, ou.ParentHRN, scpHRNs, ou.CreatedAt, ou.UpdatedAt)
	return err
}

func (r *sqliteOuRepo) GetByHRN(ctx context.Context, hrn string) (*Ou, error) {
	o := &Ou{}
	var scpHRNs string
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at FROM ous WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&o.HRN, &o.Name, &o.ParentHRN, &scpHRNs, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.AttachedScpHRNs, err = unmarshalHRNs(scpHRNs); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *sqliteOuRepo) Update(ctx context.Context, ou *Ou) error {
	scpHRNs, err := marshalHRNs(ou.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `UPDATE ous SET name = ?, parent_hrn = ?, attached_scp_hrns = ?, updated_at = ? WHERE hrn = ?`
	_, err = r.db.ExecContext(ctx, query, ou.Name, ou.ParentHRN, scpHRNs, ou.UpdatedAt, ou.HRN)
	return err
}

func (r *sqliteOuRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ous WHERE hrn = ?`, hrn)
	return err
}

func (r *sqliteOuRepo) GetChildren(ctx context.Context, parentHRN string) ([]Ou, error) {
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at FROM ous WHERE parent_hrn = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, parentHRN)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ous []Ou
	for rows.Next() {
		var o Ou
		var scpHRNs string
		if err := rows.Scan(&o.HRN, &o.Name, &o.ParentHRN, &scpHRNs, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if o.AttachedScpHRNs, err = unmarshalHRNs(scpHRNs); err != nil {
			return nil, err
		}
		ous = append(ous, o)
	}
	return ous, rows.Err()
}

func (r *sqliteOuRepo) List(ctx context.Context, partition string, limit, offset int) ([]Ou, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at
			  FROM ous WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ous []Ou
	for rows.Next() {
		var o Ou
		var scpHRNs string
		if err := rows.Scan(&o.HRN, &o.Name, &o.ParentHRN, &scpHRNs, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if o.AttachedScpHRNs, err = unmarshalHRNs(scpHRNs); err != nil {
			return nil, err
		}
		ous = append(ous, o)
	}
	return ous, rows.Err()
}

// sqliteScpRepo implements ScpRepository for SQLite.
type sqliteScpRepo struct{ db *sql.DB }

func (r *sqliteScpRepo) Create(ctx context.Context, scp *Scp) error {
	query := `INSERT INTO scps (hrn, name, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, scp.HRN, scp.Name, scp.Document, scp.CreatedAt, scp.UpdatedAt)
	return err
}

func (r *sqliteScpRepo) GetByHRN(ctx context.Context, hrn string) (*Scp, error) {
	s := &Scp{}
	query := `SELECT hrn, name, document, created_at, updated_at FROM scps WHERE hrn = ?`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&s.HRN, &s.Name, &s.Document, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *sqliteScpRepo) Update(ctx context.Context, scp *Scp) error {
	query := `UPDATE scps SET name = ?, document = ?, updated_at = ? WHERE hrn = ?`
	_, err := r.db.ExecContext(ctx, query, scp.Name, scp.Document, scp.UpdatedAt, scp.HRN)
	return err
}

func (r *sqliteScpRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM scps WHERE hrn = ?`, hrn)
	return err
}

func (r *sqliteScpRepo) List(ctx context.Context, partition string, limit, offset int) ([]Scp, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, document, created_at, updated_at
			  FROM scps WHERE hrn LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scps []Scp
	for rows.Next() {
		var s Scp
		if err := rows.Scan(&s.HRN, &s.Name, &s.Document, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		scps = append(scps, s)
	}
	return scps, rows.Err()
}
