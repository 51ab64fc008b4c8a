package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/library-circulation/internal/persistence"
)

// migration is a schema step applied exactly once, tracked in
// schema_migrations by version.
type migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "base circulation schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS libraries (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				city TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT UNIQUE,
				document TEXT,
				phone TEXT,
				password TEXT,
				role TEXT NOT NULL,
				library_id TEXT REFERENCES libraries(id),
				active INTEGER NOT NULL DEFAULT 1,
				lgpd_consent INTEGER NOT NULL DEFAULT 0,
				blocked_until TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS books (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				isbn TEXT,
				publisher TEXT,
				category TEXT,
				year INTEGER,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS copies (
				id TEXT PRIMARY KEY,
				book_id TEXT NOT NULL REFERENCES books(id),
				library_id TEXT NOT NULL REFERENCES libraries(id),
				code TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'disponivel',
				acquired_at TEXT,
				UNIQUE(library_id, code)
			)`,
			`CREATE TABLE IF NOT EXISTS loans (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				copy_id TEXT NOT NULL REFERENCES copies(id),
				library_id TEXT NOT NULL REFERENCES libraries(id),
				loan_date TEXT NOT NULL,
				due_date TEXT NOT NULL,
				return_date TEXT,
				renewals_count INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'aberto'
			)`,
			`CREATE TABLE IF NOT EXISTS audit_logs (
				id TEXT PRIMARY KEY,
				action TEXT NOT NULL,
				user_id TEXT NOT NULL,
				details TEXT NOT NULL DEFAULT '',
				timestamp TEXT NOT NULL
			)`,
		},
	},
	{
		Version:     2,
		Description: "circulation lookup indexes",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_loans_user_status ON loans(user_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_loans_library_status ON loans(library_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_copies_library_status ON copies(library_id, status)`,
		},
	},
}

// Migrate applies all pending schema migrations. It is idempotent and safe to
// run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	var current sql.NullInt64
	if err := s.db.GetContext(ctx, &current, `SELECT MAX(version) FROM schema_migrations`); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.Version) <= current.Int64 {
			continue
		}

		err := s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("statement failed: %w", err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Description, formatTime(nowUTC()))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}

	return nil
}

// SeedParams describes the one-time bootstrap rows created when the network
// has no administrator yet.
type SeedParams struct {
	Admin   persistence.User
	Library persistence.Library
}

// SeedNetworkAdmin inserts the network administrator account and the default
// library when no administrator exists. Re-running it is a no-op.
func (s *Store) SeedNetworkAdmin(ctx context.Context, params SeedParams) error {
	return s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM users WHERE role = ?`, persistence.RoleNetworkAdmin); err != nil {
			return mapError(err)
		}
		if count > 0 {
			return nil
		}

		if params.Admin.ID == "" || params.Admin.PasswordHash == "" {
			return errors.New("sqlite: seed admin requires id and password hash")
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password, role, active, lgpd_consent, created_at)
			 VALUES (?, ?, ?, ?, ?, 1, 1, ?)`,
			params.Admin.ID,
			params.Admin.Name,
			nullString(params.Admin.Email),
			params.Admin.PasswordHash,
			persistence.RoleNetworkAdmin,
			formatTime(params.Admin.CreatedAt),
		); err != nil {
			return mapError(err)
		}

		if params.Library.ID == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO libraries (id, name, city, address, active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
			params.Library.ID,
			params.Library.Name,
			params.Library.City,
			params.Library.Address,
			formatTime(params.Library.CreatedAt),
		); err != nil {
			return mapError(err)
		}

		return nil
	})
}
