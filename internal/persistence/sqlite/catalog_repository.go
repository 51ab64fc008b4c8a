package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration

	"github.com/example/library-circulation/internal/persistence"
)

var dialect = goqu.Dialect("sqlite3")

// CatalogRepository implements persistence.CatalogRepository, the read paths
// joining books, copies and libraries. The search query is composed
// dynamically, so it is built with goqu instead of hand-concatenated SQL.
type CatalogRepository struct {
	store *Store
}

// NewCatalogRepository creates a SQLite-backed catalog repository.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

type catalogRow struct {
	Title    string         `db:"title"`
	Author   string         `db:"author"`
	Category sql.NullString `db:"category"`
	Library  string         `db:"library"`
	Status   string         `db:"status"`
}

// Search returns public catalog rows whose title or author contains the term,
// optionally restricted to a library by name. An empty term yields no rows.
func (r *CatalogRepository) Search(ctx context.Context, filter persistence.CatalogFilter) ([]persistence.CatalogEntry, error) {
	term := strings.TrimSpace(filter.Term)
	if term == "" {
		return nil, nil
	}
	pattern := "%" + term + "%"

	ds := dialect.From(goqu.T("copies").As("c")).
		InnerJoin(goqu.T("books").As("b"), goqu.On(goqu.I("c.book_id").Eq(goqu.I("b.id")))).
		InnerJoin(goqu.T("libraries").As("l"), goqu.On(goqu.I("c.library_id").Eq(goqu.I("l.id")))).
		Select(
			goqu.I("b.title").As("title"),
			goqu.I("b.author").As("author"),
			goqu.I("b.category").As("category"),
			goqu.I("l.name").As("library"),
			goqu.I("c.status").As("status"),
		).
		Where(goqu.Or(
			goqu.I("b.title").Like(pattern),
			goqu.I("b.author").Like(pattern),
		))

	if library := strings.TrimSpace(filter.Library); library != "" {
		ds = ds.Where(goqu.I("l.name").Eq(library))
	}

	ds = ds.Order(goqu.I("b.title").Asc(), goqu.I("l.name").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []catalogRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	entries := make([]persistence.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, persistence.CatalogEntry{
			Title:    row.Title,
			Author:   row.Author,
			Category: stringValue(row.Category),
			Library:  row.Library,
			Status:   row.Status,
		})
	}
	return entries, nil
}

type inventoryRow struct {
	CopyID string `db:"copy_id"`
	Code   string `db:"code"`
	Title  string `db:"title"`
	Author string `db:"author"`
	Status string `db:"status"`
}

// ListInventory returns all copies held by a library with their work
// attributes, ordered by status then title.
func (r *CatalogRepository) ListInventory(ctx context.Context, libraryID string) ([]persistence.InventoryItem, error) {
	return r.listCopies(ctx, libraryID, "")
}

// ListAvailableCopies returns the lendable copies of a library ordered by
// title, feeding the checkout desk.
func (r *CatalogRepository) ListAvailableCopies(ctx context.Context, libraryID string) ([]persistence.InventoryItem, error) {
	return r.listCopies(ctx, libraryID, persistence.CopyStatusAvailable)
}

func (r *CatalogRepository) listCopies(ctx context.Context, libraryID, status string) ([]persistence.InventoryItem, error) {
	ds := dialect.From(goqu.T("copies").As("c")).
		InnerJoin(goqu.T("books").As("b"), goqu.On(goqu.I("c.book_id").Eq(goqu.I("b.id")))).
		Select(
			goqu.I("c.id").As("copy_id"),
			goqu.I("c.code").As("code"),
			goqu.I("b.title").As("title"),
			goqu.I("b.author").As("author"),
			goqu.I("c.status").As("status"),
		).
		Where(goqu.I("c.library_id").Eq(libraryID))

	if status != "" {
		ds = ds.Where(goqu.I("c.status").Eq(status)).
			Order(goqu.I("b.title").Asc(), goqu.I("c.code").Asc())
	} else {
		ds = ds.Order(goqu.I("c.status").Asc(), goqu.I("b.title").Asc(), goqu.I("c.code").Asc())
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []inventoryRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	items := make([]persistence.InventoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, persistence.InventoryItem{
			CopyID: row.CopyID,
			Code:   row.Code,
			Title:  row.Title,
			Author: row.Author,
			Status: row.Status,
		})
	}
	return items, nil
}
