package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/library-circulation/internal/persistence"
)

// LibraryRepository implements persistence.LibraryRepository.
type LibraryRepository struct {
	store *Store
}

// NewLibraryRepository creates a SQLite-backed library repository.
func NewLibraryRepository(store *Store) *LibraryRepository {
	return &LibraryRepository{store: store}
}

type libraryRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	City      string `db:"city"`
	Address   string `db:"address"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
}

func (row libraryRow) toModel() (persistence.Library, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.Library{}, err
	}
	return persistence.Library{
		ID:        row.ID,
		Name:      row.Name,
		City:      row.City,
		Address:   row.Address,
		Active:    row.Active,
		CreatedAt: createdAt,
	}, nil
}

// CreateLibrary inserts a new library unit.
func (r *LibraryRepository) CreateLibrary(ctx context.Context, library persistence.Library) error {
	if library.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO libraries (id, name, city, address, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		library.ID,
		library.Name,
		library.City,
		library.Address,
		library.Active,
		formatTime(library.CreatedAt),
	)
	return mapError(err)
}

// GetLibrary retrieves a library by ID.
func (r *LibraryRepository) GetLibrary(ctx context.Context, id string) (persistence.Library, error) {
	if id == "" {
		return persistence.Library{}, persistence.ErrNotFound
	}

	var row libraryRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT id, name, city, address, active, created_at FROM libraries WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Library{}, persistence.ErrNotFound
		}
		return persistence.Library{}, mapError(err)
	}

	return row.toModel()
}

// ListLibraries returns libraries ordered by name, optionally restricted to
// active units.
func (r *LibraryRepository) ListLibraries(ctx context.Context, onlyActive bool) ([]persistence.Library, error) {
	query := `SELECT id, name, city, address, active, created_at FROM libraries`
	if onlyActive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	var rows []libraryRow
	if err := r.store.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapError(err)
	}

	libraries := make([]persistence.Library, 0, len(rows))
	for _, row := range rows {
		library, err := row.toModel()
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, library)
	}
	return libraries, nil
}
