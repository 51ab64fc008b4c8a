package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/library-circulation/internal/persistence"
)

// CopyRepository implements persistence.CopyRepository.
type CopyRepository struct {
	store *Store
}

// NewCopyRepository creates a SQLite-backed copy repository.
func NewCopyRepository(store *Store) *CopyRepository {
	return &CopyRepository{store: store}
}

type copyRow struct {
	ID         string         `db:"id"`
	BookID     string         `db:"book_id"`
	LibraryID  string         `db:"library_id"`
	Code       string         `db:"code"`
	Status     string         `db:"status"`
	AcquiredAt sql.NullString `db:"acquired_at"`
}

func (row copyRow) toModel() (persistence.Copy, error) {
	acquiredAt, err := datePtr(row.AcquiredAt)
	if err != nil {
		return persistence.Copy{}, err
	}
	return persistence.Copy{
		ID:         row.ID,
		BookID:     row.BookID,
		LibraryID:  row.LibraryID,
		Code:       row.Code,
		Status:     row.Status,
		AcquiredAt: acquiredAt,
	}, nil
}

// CreateCopy registers a physical copy in a library. The (library, code) pair
// is unique.
func (r *CopyRepository) CreateCopy(ctx context.Context, copy persistence.Copy) error {
	if copy.ID == "" || copy.BookID == "" || copy.LibraryID == "" {
		return persistence.ErrConstraintViolation
	}

	status := copy.Status
	if status == "" {
		status = persistence.CopyStatusAvailable
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO copies (id, book_id, library_id, code, status, acquired_at) VALUES (?, ?, ?, ?, ?, ?)`,
		copy.ID,
		copy.BookID,
		copy.LibraryID,
		copy.Code,
		status,
		nullDate(copy.AcquiredAt),
	)
	return mapError(err)
}

// GetCopy retrieves a copy by ID.
func (r *CopyRepository) GetCopy(ctx context.Context, id string) (persistence.Copy, error) {
	if id == "" {
		return persistence.Copy{}, persistence.ErrNotFound
	}

	var row copyRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT id, book_id, library_id, code, status, acquired_at FROM copies WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Copy{}, persistence.ErrNotFound
		}
		return persistence.Copy{}, mapError(err)
	}

	return row.toModel()
}
