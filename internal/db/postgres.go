package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var postgresMigrationsFS embed.FS

// PostgresDB implements the Database interface for PostgreSQL.
type PostgresDB struct {
	db     *sql.DB
	config Config
	repos  *pgRepositories
}

// pgRepositories holds all PostgreSQL repository implementations.
type pgRepositories struct {
	users    *pgUserRepo
	groups   *pgGroupRepo
	policies *pgPolicyRepo
	accounts *pgAccountRepo
	ous      *pgOuRepo
	scps     *pgScpRepo
}

// NewPostgres creates a new PostgreSQL database connection with retry logic.
func NewPostgres(config Config) (*PostgresDB, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("PostgreSQL DSN is required")
	}

	maxOpenConns := config.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	maxIdleConns := config.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	connMaxLifetime := config.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 15 * time.Minute
	}
	connMaxIdleTime := config.ConnMaxIdleTime
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 5 * time.Minute
	}

	var db *sql.DB
	var err error
	maxRetries := 3
	retryDelay := 1 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("postgres", config.DSN)
		if err != nil {
			if attempt < maxRetries {
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return nil, fmt.Errorf("failed to open postgres database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
		db.SetConnMaxIdleTime(connMaxIdleTime)

		log.Printf("[db] pool configured: max_open=%d max_idle=%d lifetime=%v idle_time=%v",
			maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()

		if err == nil {
			break
		}

		db.Close()

		if attempt < maxRetries {
			fmt.Printf("PostgreSQL connection attempt %d/%d failed: %v. Retrying in %v...\n", attempt, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
		} else {
			return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, err)
		}
	}

	database := &PostgresDB{
		db:     db,
		config: config,
	}

	database.repos = &pgRepositories{
		users:    &pgUserRepo{db: db},
		groups:   &pgGroupRepo{db: db},
		policies: &pgPolicyRepo{db: db},
		accounts: &pgAccountRepo{db: db},
		ous:      &pgOuRepo{db: db},
		scps:     &pgScpRepo{db: db},
	}

	return database, nil
}

// Ping checks the database connection.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// BeginTx starts a new transaction.
func (p *PostgresDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return p.db.BeginTx(ctx, opts)
}

// ExecContext executes a query without returning rows.
func (p *PostgresDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (p *PostgresDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row.
func (p *PostgresDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Repository accessors
func (p *PostgresDB) Users() UserRepository       { return p.repos.users }
func (p *PostgresDB) Groups() GroupRepository     { return p.repos.groups }
func (p *PostgresDB) Policies() PolicyRepository  { return p.repos.policies }
func (p *PostgresDB) Accounts() AccountRepository { return p.repos.accounts }
func (p *PostgresDB) Ous() OuRepository           { return p.repos.ous }
func (p *PostgresDB) Scps() ScpRepository         { return p.repos.scps }

// DB returns the underlying *sql.DB for migrations and advanced operations.
func (p *PostgresDB) DB() *sql.DB { return p.db }

// RunMigrations executes all pending migrations.
func (p *PostgresDB) RunMigrations() error {
	content, err := postgresMigrationsFS.ReadFile("migrations/001_initial_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	pgSQL := convertToPostgres(string(content))
	statements := splitStatements(pgSQL)

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		_, err := p.db.Exec(stmt)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to execute migration statement: %w", err)
		}
	}

	_, err = p.db.Exec(`INSERT INTO schema_migrations (version) VALUES (1) ON CONFLICT (version) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return nil
}

// Version returns the current schema version.
func (p *PostgresDB) Version() (int, error) {
	var version int
	err := p.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// convertToPostgres converts SQLite SQL to PostgreSQL compatible SQL.
func convertToPostgres(sql string) string {
	replacements := map[string]string{
		"INTEGER PRIMARY KEY": "SERIAL PRIMARY KEY",
		"BOOLEAN":             "BOOLEAN",
		"BLOB":                "BYTEA",
		"TEXT":                "TEXT",
		"INTEGER":             "INTEGER",
		"REAL":                "DOUBLE PRECISION",
		"CURRENT_TIMESTAMP":   "CURRENT_TIMESTAMP",
	}

	result := sql
	for old, new := range replacements {
		result = strings.ReplaceAll(result, old, new)
	}

	lines := strings.Split(result, "\n")
	var filtered []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "PRAGMA") && !strings.HasPrefix(trimmed, "-- PRAGMA") {
			filtered = append(filtered, line)
		}
	}

	return strings.Join(filtered, "\n")
}

// splitStatements splits SQL into individual statements.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	for i, ch := range sql {
		if !inString && (ch == '\'' || ch == '"') {
			inString = true
			stringChar = ch
		} else if inString && ch == stringChar {
			if i > 0 && sql[i-1] != '\\' {
				inString = false
			}
		} else if !inString && ch == ';' {
			statements = append(statements, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}

// marshalTags serializes a tag map for TEXT storage.
func marshalTags(tags map[string]string) (string, error) {
	if tags == nil {
		tags = map[string]string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

// unmarshalTags deserializes a tag map from TEXT storage.
func unmarshalTags(raw string) (map[string]string, error) {
	tags := map[string]string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// marshalHRNs serializes an HRN list for TEXT storage.
func marshalHRNs(hrns []string) (string, error) {
	if hrns == nil {
		hrns = []string{}
	}
	b, err := json.Marshal(hrns)
	return string(b), err
}

// unmarshalHRNs deserializes an HRN list from TEXT storage.
func unmarshalHRNs(raw string) ([]string, error) {
	hrns := []string{}
	if raw == "" {
		return hrns, nil
	}
	if err := json.Unmarshal([]byte(raw), &hrns); err != nil {
		return nil, err
	}
	return hrns, nil
}

// pgUserRepo implements UserRepository for PostgreSQL.
type pgUserRepo struct{ db *sql.DB }

func (r *pgUserRepo) Create(ctx context.Context, user *User) error {
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
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query, user.HRN, user.Name, user.Email, groupHRNs, policyHRNs, tags, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *pgUserRepo) GetByHRN(ctx context.Context, hrn string) (*User, error) {
	u := &User{}
	var groupHRNs, policyHRNs, tags string
	query := `SELECT hrn, name, email, group_hrns, attached_policy_hrns, tags, created_at, updated_at FROM users WHERE hrn = $1`
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

func (r *pgUserRepo) Update(ctx context.Context, user *User) error {
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
	query := `UPDATE users SET name = $1, email = $2, group_hrns = $3, attached_policy_hrns = $4, tags = $5, updated_at = $6 WHERE hrn = $7`
	_, err = r.db.ExecContext(ctx, query, user.Name, user.Email, groupHRNs, policyHRNs, tags, user.UpdatedAt, user.HRN)
	return err
}

func (r *pgUserRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE hrn = $1`, hrn)
	return err
}

func (r *pgUserRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, email, group_hrns, attached_policy_hrns, tags, created_at, updated_at
			  FROM users WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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

// pgGroupRepo implements GroupRepository for PostgreSQL.
type pgGroupRepo struct{ db *sql.DB }

func (r *pgGroupRepo) Create(ctx context.Context, group *Group) error {
	policyHRNs, err := marshalHRNs(group.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(group.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO groups (hrn, name, attached_policy_hrns, tags, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, query, group.HRN, group.Name, policyHRNs, tags, group.CreatedAt, group.UpdatedAt)
	return err
}

func (r *pgGroupRepo) GetByHRN(ctx context.Context, hrn string) (*Group, error) {
	g := &Group{}
	var policyHRNs, tags string
	query := `SELECT hrn, name, attached_policy_hrns, tags, created_at, updated_at FROM groups WHERE hrn = $1`
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

func (r *pgGroupRepo) Update(ctx context.Context, group *Group) error {
	policyHRNs, err := marshalHRNs(group.AttachedPolicyHRNs)
	if err != nil {
		return err
	}
	tags, err := marshalTags(group.Tags)
	if err != nil {
		return err
	}
	query := `UPDATE groups SET name = $1, attached_policy_hrns = $2, tags = $3, updated_at = $4 WHERE hrn = $5`
	_, err = r.db.ExecContext(ctx, query, group.Name, policyHRNs, tags, group.UpdatedAt, group.HRN)
	return err
}

func (r *pgGroupRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE hrn = $1`, hrn)
	return err
}

func (r *pgGroupRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]Group, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, attached_policy_hrns, tags, created_at, updated_at
			  FROM groups WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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

// pgPolicyRepo implements PolicyRepository for PostgreSQL.
type pgPolicyRepo struct{ db *sql.DB }

func (r *pgPolicyRepo) Create(ctx context.Context, policy *IamPolicy) error {
	query := `INSERT INTO iam_policies (hrn, name, description, policy_text, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, policy.HRN, policy.Name, policy.Description, policy.PolicyText, policy.CreatedAt, policy.UpdatedAt)
	return err
}

func (r *pgPolicyRepo) GetByHRN(ctx context.Context, hrn string) (*IamPolicy, error) {
	p := &IamPolicy{}
	query := `SELECT hrn, name, description, policy_text, created_at, updated_at FROM iam_policies WHERE hrn = $1`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&p.HRN, &p.Name, &p.Description, &p.PolicyText, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *pgPolicyRepo) Update(ctx context.Context, policy *IamPolicy) error {
	query := `UPDATE iam_policies SET name = $1, description = $2, policy_text = $3, updated_at = $4 WHERE hrn = $5`
	_, err := r.db.ExecContext(ctx, query, policy.Name, policy.Description, policy.PolicyText, policy.UpdatedAt, policy.HRN)
	return err
}

func (r *pgPolicyRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM iam_policies WHERE hrn = $1`, hrn)
	return err
}

func (r *pgPolicyRepo) List(ctx context.Context, partition, account string, limit, offset int) ([]IamPolicy, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:iam::%s:", partition, account)
	query := `SELECT hrn, name, description, policy_text, created_at, updated_at
			  FROM iam_policies WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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

// pgAccountRepo implements AccountRepository for PostgreSQL.
type pgAccountRepo struct{ db *sql.DB }

func (r *pgAccountRepo) Create(ctx context.Context, account *Account) error {
	scpHRNs, err := marshalHRNs(account.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `INSERT INTO accounts (hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, query, account.HRN, account.Name, account.ParentOuHRN, scpHRNs, account.CreatedAt, account.UpdatedAt)
	return err
}

func (r *pgAccountRepo) GetByHRN(ctx context.Context, hrn string) (*Account, error) {
	a := &Account{}
	var scpHRNs string
	query := `SELECT hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at FROM accounts WHERE hrn = $1`
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

func (r *pgAccountRepo) Update(ctx context.Context, account *Account) error {
	scpHRNs, err := marshalHRNs(account.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `UPDATE accounts SET name = $1, parent_ou_hrn = $2, attached_scp_hrns = $3, updated_at = $4 WHERE hrn = $5`
	_, err = r.db.ExecContext(ctx, query, account.Name, account.ParentOuHRN, scpHRNs, account.UpdatedAt, account.HRN)
	return err
}

func (r *pgAccountRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE hrn = $1`, hrn)
	return err
}

func (r *pgAccountRepo) List(ctx context.Context, partition string, limit, offset int) ([]Account, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, parent_ou_hrn, attached_scp_hrns, created_at, updated_at
			  FROM accounts WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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

// pgOuRepo implements OuRepository for PostgreSQL.
type pgOuRepo struct{ db *sql.DB }

func (r *pgOuRepo) Create(ctx context.Context, ou *Ou) error {
	scpHRNs, err := marshalHRNs(ou.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `INSERT INTO ous (hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, query, ou.HRN, ou.Name, ou.ParentHRN, scpHRNs, ou.CreatedAt, ou.UpdatedAt)
	return err
}

func (r *pgOuRepo) GetByHRN(ctx context.Context, hrn string) (*Ou, error) {
	o := &Ou{}
	var scpHRNs string
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at FROM ous WHERE hrn = $1`
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

func (r *pgOuRepo) Update(ctx context.Context, ou *Ou) error {
	scpHRNs, err := marshalHRNs(ou.AttachedScpHRNs)
	if err != nil {
		return err
	}
	query := `UPDATE ous SET name = $1, parent_hrn = $2, attached_scp_hrns = $3, updated_at = $4 WHERE hrn = $5`
	_, err = r.db.ExecContext(ctx, query, ou.Name, ou.ParentHRN, scpHRNs, ou.UpdatedAt, ou.HRN)
	return err
}

func (r *pgOuRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ous WHERE hrn = $1`, hrn)
	return err
}

func (r *pgOuRepo) GetChildren(ctx context.Context, parentHRN string) ([]Ou, error) {
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at FROM ous WHERE parent_hrn = $1 ORDER BY created_at`
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

func (r *pgOuRepo) List(ctx context.Context, partition string, limit, offset int) ([]Ou, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, parent_hrn, attached_scp_hrns, created_at, updated_at
			  FROM ous WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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

// pgScpRepo implements ScpRepository for PostgreSQL.
type pgScpRepo struct{ db *sql.DB }

func (r *pgScpRepo) Create(ctx context.Context, scp *Scp) error {
	query := `INSERT INTO scps (hrn, name, document, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, scp.HRN, scp.Name, scp.Document, scp.CreatedAt, scp.UpdatedAt)
	return err
}

func (r *pgScpRepo) GetByHRN(ctx context.Context, hrn string) (*Scp, error) {
	s := &Scp{}
	query := `SELECT hrn, name, document, created_at, updated_at FROM scps WHERE hrn = $1`
	err := r.db.QueryRowContext(ctx, query, hrn).Scan(&s.HRN, &s.Name, &s.Document, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *pgScpRepo) Update(ctx context.Context, scp *Scp) error {
	query := `UPDATE scps SET name = $1, document = $2, updated_at = $3 WHERE hrn = $4`
	_, err := r.db.ExecContext(ctx, query, scp.Name, scp.Document, scp.UpdatedAt, scp.HRN)
	return err
}

func (r *pgScpRepo) Delete(ctx context.Context, hrn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM scps WHERE hrn = $1`, hrn)
	return err
}

func (r *pgScpRepo) List(ctx context.Context, partition string, limit, offset int) ([]Scp, error) {
	if limit <= 0 {
		limit = 100
	}
	prefix := fmt.Sprintf("hrn:%s:organizations::", partition)
	query := `SELECT hrn, name, document, created_at, updated_at
			  FROM scps WHERE hrn LIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
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
