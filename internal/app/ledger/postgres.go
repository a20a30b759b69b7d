package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"videosdk/internal/app/db"
	"videosdk/internal/pkg/auth/jwt"
)

// ErrDuplicateEntry means an entry with the same ID was already recorded.
var ErrDuplicateEntry = errors.New("issuance already recorded")

// DBTX is the subset of *pgxpool.Pool the recorder needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRecorder writes entries to the token_issuances table.
type PostgresRecorder struct {
	db DBTX
}

// NewPostgresRecorder returns a recorder over an already migrated database.
func NewPostgresRecorder(conn DBTX) *PostgresRecorder {
	return &PostgresRecorder{db: conn}
}

const insertIssuance = `
INSERT INTO token_issuances (id, session_name, role_type, user_identity, issued_at, expires_at, remote_ip)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.db.Exec(ctx, insertIssuance,
		e.ID, e.SessionName, int16(e.Role), e.UserIdentity, e.IssuedAt, e.ExpiresAt, e.RemoteIP)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("insert issuance: %w", err)
	}
	return nil
}

const selectBySession = `
SELECT id, session_name, role_type, user_identity, issued_at, expires_at, remote_ip
FROM token_issuances
WHERE session_name = $1
ORDER BY issued_at DESC, id
LIMIT $2`

// ListBySession returns the latest issuances of sessionName, newest first.
func (r *PostgresRecorder) ListBySession(ctx context.Context, sessionName string, limit int) ([]Entry, error) {
	rows, err := r.db.Query(ctx, selectBySession, sessionName, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query issuances: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e    Entry
			role int16
		)
		err := row.Scan(&e.ID, &e.SessionName, &role, &e.UserIdentity, &e.IssuedAt, &e.ExpiresAt, &e.RemoteIP)
		e.Role = jwt.RoleType(role)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan issuances: %w", err)
	}

	return entries, nil
}
