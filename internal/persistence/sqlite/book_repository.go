package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/library-circulation/internal/persistence"
)

// BookRepository implements persistence.BookRepository for the shared
// bibliographic catalog.
type BookRepository struct {
	store *Store
}

// NewBookRepository creates a SQLite-backed book repository.
func NewBookRepository(store *Store) *BookRepository {
	return &BookRepository{store: store}
}

type bookRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Author    string         `db:"author"`
	ISBN      sql.NullString `db:"isbn"`
	Publisher sql.NullString `db:"publisher"`
	Category  sql.NullString `db:"category"`
	Year      sql.NullInt64  `db:"year"`
	CreatedAt string         `db:"created_at"`
}

func (row bookRow) toModel() (persistence.Book, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.Book{}, err
	}
	return persistence.Book{
		ID:        row.ID,
		Title:     row.Title,
		Author:    row.Author,
		ISBN:      stringValue(row.ISBN),
		Publisher: stringValue(row.Publisher),
		Category:  stringValue(row.Category),
		Year:      int(row.Year.Int64),
		CreatedAt: createdAt,
	}, nil
}

// CreateBook inserts a new work into the shared catalog.
func (r *BookRepository) CreateBook(ctx context.Context, book persistence.Book) error {
	if book.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var year any
	if book.Year > 0 {
		year = book.Year
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, isbn, publisher, category, year, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		book.Author,
		nullString(book.ISBN),
		nullString(book.Publisher),
		nullString(book.Category),
		year,
		formatTime(book.CreatedAt),
	)
	return mapError(err)
}

// GetBook retrieves a work by ID.
func (r *BookRepository) GetBook(ctx context.Context, id string) (persistence.Book, error) {
	if id == "" {
		return persistence.Book{}, persistence.ErrNotFound
	}

	var row bookRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT id, title, author, isbn, publisher, category, year, created_at FROM books WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Book{}, persistence.ErrNotFound
		}
		return persistence.Book{}, mapError(err)
	}

	return row.toModel()
}

// ListBooks returns all works ordered by title.
func (r *BookRepository) ListBooks(ctx context.Context) ([]persistence.Book, error) {
	var rows []bookRow
	err := r.store.db.SelectContext(ctx, &rows,
		`SELECT id, title, author, isbn, publisher, category, year, created_at FROM books ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}

	books := make([]persistence.Book, 0, len(rows))
	for _, row := range rows {
		book, err := row.toModel()
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
