package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/library-circulation/internal/persistence"
	"github.com/example/library-circulation/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Store     *sqlite.Store
	Libraries persistence.LibraryRepository
	Users     persistence.UserRepository
	Books     persistence.BookRepository
	Copies    persistence.CopyRepository
	Loans     persistence.LoanRepository
	Audits    persistence.AuditRepository
	Catalog   persistence.CatalogRepository
	Reports   persistence.ReportRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Cleanup is registered with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "sgbc.db")

	store, err := sqlite.Open("file:" + path + "?_pragma=foreign_keys(1)")
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &SQLiteHarness{
		Store:     store,
		Libraries: sqlite.NewLibraryRepository(store),
		Users:     sqlite.NewUserRepository(store),
		Books:     sqlite.NewBookRepository(store),
		Copies:    sqlite.NewCopyRepository(store),
		Loans:     sqlite.NewLoanRepository(store),
		Audits:    sqlite.NewAuditRepository(store),
		Catalog:   sqlite.NewCatalogRepository(store),
		Reports:   sqlite.NewReportRepository(store),
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
