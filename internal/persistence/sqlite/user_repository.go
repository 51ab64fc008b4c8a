package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/library-circulation/internal/persistence"
)

// UserRepository implements persistence.UserRepository for staff accounts and
// readers.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        sql.NullString `db:"email"`
	Document     sql.NullString `db:"document"`
	Phone        sql.NullString `db:"phone"`
	PasswordHash sql.NullString `db:"password"`
	Role         string         `db:"role"`
	LibraryID    sql.NullString `db:"library_id"`
	Active       bool           `db:"active"`
	Consent      bool           `db:"lgpd_consent"`
	BlockedUntil sql.NullString `db:"blocked_until"`
	CreatedAt    string         `db:"created_at"`
}

const userColumns = `id, name, email, document, phone, password, role, library_id, active, lgpd_consent, blocked_until, created_at`

func (row userRow) toModel() (persistence.User, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	blockedUntil, err := datePtr(row.BlockedUntil)
	if err != nil {
		return persistence.User{}, err
	}
	return persistence.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        stringValue(row.Email),
		Document:     stringValue(row.Document),
		Phone:        stringValue(row.Phone),
		PasswordHash: stringValue(row.PasswordHash),
		Role:         row.Role,
		LibraryID:    stringPtr(row.LibraryID),
		Active:       row.Active,
		Consent:      row.Consent,
		BlockedUntil: blockedUntil,
		CreatedAt:    createdAt,
	}, nil
}

// CreateUser inserts a staff account or reader.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.Role == "" {
		return persistence.ErrConstraintViolation
	}

	var libraryID any
	if user.LibraryID != nil {
		libraryID = *user.LibraryID
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		nullString(normalizeEmail(user.Email)),
		nullString(user.Document),
		nullString(user.Phone),
		nullString(user.PasswordHash),
		user.Role,
		libraryID,
		user.Active,
		user.Consent,
		nullDate(user.BlockedUntil),
		formatTime(user.CreatedAt),
	)
	return mapError(err)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	var row userRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapError(err)
	}

	return row.toModel()
}

// GetUserByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	var row userRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapError(err)
	}

	return row.toModel()
}

// ListStaff returns administrator and coordinator accounts ordered by name.
func (r *UserRepository) ListStaff(ctx context.Context) ([]persistence.User, error) {
	var rows []userRow
	err := r.store.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE role IN (?, ?) ORDER BY name ASC, id ASC`,
		persistence.RoleNetworkAdmin, persistence.RoleLocalCoordinator)
	if err != nil {
		return nil, mapError(err)
	}
	return rowsToUsers(rows)
}

// ListReaders returns the readers affiliated with a library ordered by name.
func (r *UserRepository) ListReaders(ctx context.Context, libraryID string) ([]persistence.User, error) {
	var rows []userRow
	err := r.store.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE role = ? AND library_id = ? ORDER BY name ASC, id ASC`,
		persistence.RoleReader, libraryID)
	if err != nil {
		return nil, mapError(err)
	}
	return rowsToUsers(rows)
}

func rowsToUsers(rows []userRow) ([]persistence.User, error) {
	users := make([]persistence.User, 0, len(rows))
	for _, row := range rows {
		user, err := row.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// normalizeEmail normalizes email addresses for consistent storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
