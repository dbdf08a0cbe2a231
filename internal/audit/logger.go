package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger persists audit events to a SQL store (Postgres or SQLite, via
// internal/db's driver selection).
type Logger struct {
	db     *sql.DB
	config Config
}

// Config configures the audit logger.
type Config struct {
	BufferSize    int
	FlushInterval time.Duration
	MaxRetries    int
	AsyncLogging  bool
}

// DefaultConfig returns default audit configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		MaxRetries:    3,
		AsyncLogging:  true,
	}
}

// NewLogger creates a new audit logger.
func NewLogger(db *sql.DB, config Config) *Logger {
	return &Logger{db: db, config: config}
}

// LogDecision records a completed authorization decision.
func (l *Logger) LogDecision(ctx context.Context, principalHRN, action, resourceHRN, decision string, explicit bool, reason string, determiningPolicies []string) error {
	eventType := EventDecisionAllow
	if decision != "Allow" {
		eventType = EventDecisionDeny
	}
	return l.Store(ctx, Event{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now().UTC(),
		Type:                eventType,
		Severity:            SeverityForEventType(eventType),
		PrincipalHRN:        principalHRN,
		Action:              action,
		ResourceHRN:         resourceHRN,
		Decision:            decision,
		Explicit:            explicit,
		Reason:              reason,
		DeterminingPolicies: determiningPolicies,
	})
}

// LogEvaluationError records a failed evaluation attempt.
func (l *Logger) LogEvaluationError(ctx context.Context, principalHRN, action, resourceHRN string, evalErr error) error {
	return l.Store(ctx, Event{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Type:         EventEvaluationError,
		Severity:     SeverityForEventType(EventEvaluationError),
		PrincipalHRN: principalHRN,
		Action:       action,
		ResourceHRN:  resourceHRN,
		Error:        evalErr.Error(),
	})
}

// Store persists an audit event to the database.
func (l *Logger) Store(ctx context.Context, event Event) error {
	policiesJSON, err := json.Marshal(event.DeterminingPolicies)
	if err != nil {
		policiesJSON = []byte("[]")
	}

	query := `
		INSERT INTO audit_log (
			id, timestamp, type, severity,
			principal_hrn, action, resource_hrn,
			decision, explicit, reason, determining_policies, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = l.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.Type,
		event.Severity,
		event.PrincipalHRN,
		event.Action,
		event.ResourceHRN,
		event.Decision,
		event.Explicit,
		event.Reason,
		policiesJSON,
		event.Error,
	)

	return err
}

// Query retrieves audit events matching the filter.
func (l *Logger) Query(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := `
		SELECT id, timestamp, type, severity,
			principal_hrn, action, resource_hrn,
			decision, explicit, reason, determining_policies, error
		FROM audit_log
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 0

	if len(filter.Types) > 0 {
		argIndex++
		query += fmt.Sprintf(" AND type = ANY($%d)", argIndex)
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
	}

	if filter.PrincipalHRN != "" {
		argIndex++
		query += fmt.Sprintf(" AND principal_hrn = $%d", argIndex)
		args = append(args, filter.PrincipalHRN)
	}

	if filter.ResourceHRN != "" {
		argIndex++
		query += fmt.Sprintf(" AND resource_hrn = $%d", argIndex)
		args = append(args, filter.ResourceHRN)
	}

	if filter.StartTime != nil {
		argIndex++
		query += fmt.Sprintf(" AND timestamp >= $%d", argIndex)
		args = append(args, *filter.StartTime)
	}

	if filter.EndTime != nil {
		argIndex++
		query += fmt.Sprintf(" AND timestamp <= $%d", argIndex)
		args = append(args, *filter.EndTime)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		argIndex++
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		argIndex++
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var policiesJSON []byte

		err := rows.Scan(
			&event.ID, &event.Timestamp, &event.Type, &event.Severity,
			&event.PrincipalHRN, &event.Action, &event.ResourceHRN,
			&event.Decision, &event.Explicit, &event.Reason, &policiesJSON, &event.Error,
		)
		if err != nil {
			return nil, err
		}

		json.Unmarshal(policiesJSON, &event.DeterminingPolicies)
		events = append(events, event)
	}

	return events, rows.Err()
}

// CountEvents returns the count of events matching the filter.
func (l *Logger) CountEvents(ctx context.Context, filter EventFilter) (int, error) {
	query := `SELECT COUNT(*) FROM audit_log WHERE 1=1`
	args := []interface{}{}
	argIndex := 0

	if len(filter.Types) > 0 {
		argIndex++
		query += fmt.Sprintf(" AND type = ANY($%d)", argIndex)
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
	}

	if filter.PrincipalHRN != "" {
		argIndex++
		query += fmt.Sprintf(" AND principal_hrn = $%d", argIndex)
		args = append(args, filter.PrincipalHRN)
	}

	var count int
	err := l.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// PurgeOldEvents removes events older than the retention period.
func (l *Logger) PurgeOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := l.db.ExecContext(ctx, "DELETE FROM audit_log WHERE timestamp < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
