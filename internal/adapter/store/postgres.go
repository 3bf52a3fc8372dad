package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Audit Events ---

const auditInsertQuery = `
	INSERT INTO audit_events (
		id, action, severity, resource, resource_id, description,
		metadata, changes, success, error_message, timestamp,
		user_id, user_email, user_role, ip, user_agent, session_id, request_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (id) DO NOTHING`

// InsertMany implements port.AuditEventStore. In tolerant mode each entry is
// inserted independently so one bad record does not block the batch; the
// batch only fails as a whole when no entry could be written.
func (s *PostgresStore) InsertMany(ctx context.Context, entries []domain.AuditEntry, tolerant bool) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	if !tolerant {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin audit batch: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, auditInsertQuery, auditInsertArgs(e)...); err != nil {
				return 0, fmt.Errorf("insert audit entry: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit audit batch: %w", err)
		}
		return len(entries), nil
	}

	inserted := 0
	var lastErr error
	for _, e := range entries {
		if _, err := s.db.ExecContext(ctx, auditInsertQuery, auditInsertArgs(e)...); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				// Server rejected this row (constraint, encoding); the rest of
				// the batch can still land.
				lastErr = err
				continue
			}
			// Driver or connection failure: the remaining rows have no chance.
			return inserted, fmt.Errorf("insert audit batch after %d of %d: %w", inserted, len(entries), err)
		}
		inserted++
	}
	if inserted == 0 && lastErr != nil {
		return 0, fmt.Errorf("insert audit batch: %w", lastErr)
	}
	return inserted, nil
}

func auditInsertArgs(e domain.AuditEntry) []any {
	return []any{
		e.ID, e.Action, string(e.Severity), e.Resource, e.ResourceID, e.Description,
		marshalJSON(e.Metadata), marshalJSON(e.Changes), e.Success, e.ErrorMessage, e.Timestamp.UTC(),
		e.UserID, e.UserEmail, e.UserRole, e.IP, e.UserAgent, e.SessionID, e.RequestID,
	}
}

// marshalJSON renders a value for a jsonb column, falling back to an empty
// object so a bad metadata bag never fails the insert.
func marshalJSON(v any) []byte {
	if v == nil {
		return []byte(`{}`)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{}`)
	}
	return b
}

// buildAuditFindQuery renders the filtered SELECT for Find: optional WHERE
// conditions with positional args, timestamp-descending order, and
// LIMIT/OFFSET pagination (limit defaults to 100).
func buildAuditFindQuery(q domain.AuditQuery) (string, []any) {
	query := `SELECT id, action, severity, resource, resource_id, description,
	                 COALESCE(metadata::text, '{}'), COALESCE(changes::text, '{}'),
	                 success, error_message, timestamp,
	                 user_id, user_email, user_role, ip, user_agent, session_id, request_id
	          FROM audit_events`
	args := []any{}
	conds := []string{}
	argIdx := 1

	addCond := func(cond string, value any) {
		conds = append(conds, fmt.Sprintf(cond, argIdx))
		args = append(args, value)
		argIdx++
	}

	if q.UserID != "" {
		addCond("user_id = $%d", q.UserID)
	}
	if q.Action != "" {
		addCond("action = $%d", q.Action)
	}
	if q.Resource != "" {
		addCond("resource = $%d", q.Resource)
	}
	if q.ResourceID != "" {
		addCond("resource_id = $%d", q.ResourceID)
	}
	if q.Severity != "" {
		addCond("severity = $%d", string(q.Severity))
	}
	if !q.From.IsZero() {
		addCond("timestamp >= $%d", q.From.UTC())
	}
	if !q.To.IsZero() {
		addCond("timestamp <= $%d", q.To.UTC())
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY timestamp DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)
	argIdx++
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, q.Offset)
	}

	return query, args
}

// Find implements port.AuditEventStore with dynamic filters, ordered by
// timestamp descending.
func (s *PostgresStore) Find(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error) {
	query, args := buildAuditFindQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e                 domain.AuditEntry
			metadata, changes []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Action, &e.Severity, &e.Resource, &e.ResourceID, &e.Description,
			&metadata, &changes, &e.Success, &e.ErrorMessage, &e.Timestamp,
			&e.UserID, &e.UserEmail, &e.UserRole, &e.IP, &e.UserAgent, &e.SessionID, &e.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(metadata) > 0 && string(metadata) != "{}" {
			_ = json.Unmarshal(metadata, &e.Metadata)
		}
		if len(changes) > 0 && string(changes) != "{}" {
			var c domain.AuditChanges
			if json.Unmarshal(changes, &c) == nil {
				e.Changes = &c
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

// --- Claim History ---

// CountClaimsByEmployeeSince counts one employee's claims since the given time.
func (s *PostgresStore) CountClaimsByEmployeeSince(ctx context.Context, employeeID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM coupons WHERE employee_id = $1 AND claimed_at >= $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, employeeID, since.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count employee claims: %w", err)
	}
	return count, nil
}

// CountClaimsSince counts claims across all employees since the given time.
func (s *PostgresStore) CountClaimsSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM coupons WHERE claimed_at >= $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, since.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count platform claims: %w", err)
	}
	return count, nil
}

// --- Employees ---

// GetEmployeeByID retrieves an employee by ID.
func (s *PostgresStore) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT id, company_id, email, name, role, status, created_at, updated_at
	          FROM employees WHERE id = $1`

	var e domain.Employee
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.CompanyID, &e.Email, &e.Name, &e.Role, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// --- Merchants ---

// GetMerchantByID retrieves a merchant by ID.
func (s *PostgresStore) GetMerchantByID(ctx context.Context, id string) (*domain.Merchant, error) {
	query := `SELECT id, name, contact_email, COALESCE(website, ''), status, created_at, updated_at
	          FROM merchants WHERE id = $1`

	var m domain.Merchant
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.ContactEmail, &m.Website, &m.Status,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return &m, nil
}

// --- Coupons ---

// HasActiveCoupon reports whether the employee holds an active coupon for
// the merchant.
func (s *PostgresStore) HasActiveCoupon(ctx context.Context, employeeID, merchantID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM coupons
	            WHERE employee_id = $1 AND merchant_id = $2 AND status = $3
	          )`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, employeeID, merchantID, domain.CouponStatusActive).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active coupon: %w", err)
	}
	return exists, nil
}

// CountRedeemedByMerchant counts all coupons ever redeemed at a merchant.
func (s *PostgresStore) CountRedeemedByMerchant(ctx context.Context, merchantID string) (int, error) {
	query := `SELECT COUNT(*) FROM coupons WHERE merchant_id = $1 AND status = $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, merchantID, domain.CouponStatusRedeemed).Scan(&count); err != nil {
		return 0, fmt.Errorf("count redeemed coupons: %w", err)
	}
	return count, nil
}
