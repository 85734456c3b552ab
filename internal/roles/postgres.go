package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// rolesQuery returns one row per role, or a single NULL row for a user without roles.
// No rows at all means the user does not exist.
const rolesQuery = `
SELECT ur.role
FROM platform_users u
LEFT JOIN platform_user_roles ur ON ur.user_id = u.id
WHERE lower(u.email) = lower($1)
ORDER BY ur.position`

// PostgresOptions contains connection pool settings.
type PostgresOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresSource reads roles from the platform user directory.
type PostgresSource struct {
	db *sql.DB
}

var _ Source = (*PostgresSource)(nil)

// OpenPostgres opens a pgx-backed pool and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*PostgresSource, error) {
	if dsn == "" {
		return nil, errors.New(constants.ErrDatabaseURLMissing)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{db: db}, nil
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Roles queries the directory. Source order (position) is preserved.
func (s *PostgresSource) Roles(ctx context.Context, email string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, rolesQuery, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf(constants.ErrRoleSourceQuery, err)
	}
	defer rows.Close()
	return scanRoles(rows)
}

// Close releases the pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRoles(rows rowScanner) ([]string, error) {
	found := false
	list := []string{}
	for rows.Next() {
		found = true
		var role sql.NullString
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf(constants.ErrRoleSourceQuery, err)
		}
		if role.Valid {
			list = append(list, role.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(constants.ErrRoleSourceQuery, err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return list, nil
}
