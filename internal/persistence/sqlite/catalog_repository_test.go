package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/library-circulation/internal/persistence"
	"github.com/example/library-circulation/internal/testfixtures"
)

type catalogSeed struct {
	Central persistence.Library
	Branch  persistence.Library
	DomCasmurro,
	QuincasBorba,
	Vidas persistence.Book
}

// seedCatalog spreads three works over two libraries so searches can be
// checked against title, author and library filters.
func seedCatalog(t *testing.T, h *testfixtures.SQLiteHarness) catalogSeed {
	t.Helper()
	ctx := context.Background()

	central := testfixtures.NewLibrary(testfixtures.WithLibraryName("Biblioteca Central"))
	branch := testfixtures.NewLibrary(testfixtures.WithLibraryName("Biblioteca do Bairro"))
	for _, library := range []persistence.Library{central, branch} {
		if err := h.Libraries.CreateLibrary(ctx, library); err != nil {
			t.Fatalf("failed to create library: %v", err)
		}
	}

	domCasmurro := testfixtures.NewBook(
		testfixtures.WithBookTitle("Dom Casmurro"),
		testfixtures.WithBookAuthor("Machado de Assis"))
	quincasBorba := testfixtures.NewBook(
		testfixtures.WithBookTitle("Quincas Borba"),
		testfixtures.WithBookAuthor("Machado de Assis"))
	vidas := testfixtures.NewBook(
		testfixtures.WithBookTitle("Vidas Secas"),
		testfixtures.WithBookAuthor("Graciliano Ramos"))
	for _, book := range []persistence.Book{domCasmurro, quincasBorba, vidas} {
		if err := h.Books.CreateBook(ctx, book); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}
	}

	copies := []persistence.Copy{
		testfixtures.NewCopy(domCasmurro.ID, central.ID),
		testfixtures.NewCopy(quincasBorba.ID, central.ID, testfixtures.WithCopyStatus(persistence.CopyStatusOnLoan)),
		testfixtures.NewCopy(vidas.ID, branch.ID),
	}
	for _, record := range copies {
		if err := h.Copies.CreateCopy(ctx, record); err != nil {
			t.Fatalf("failed to create copy: %v", err)
		}
	}

	return catalogSeed{
		Central:      central,
		Branch:       branch,
		DomCasmurro:  domCasmurro,
		QuincasBorba: quincasBorba,
		Vidas:        vidas,
	}
}

func TestCatalogSearchByTitleSubstring(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seedCatalog(t, h)
	ctx := context.Background()

	entries, err := h.Catalog.Search(ctx, persistence.CatalogFilter{Term: "casmurro"})
	if err != nil {
		t.Fatalf("failed to search catalog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 result, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Title != "Dom Casmurro" || entry.Author != "Machado de Assis" {
		t.Fatalf("unexpected result: %+v", entry)
	}
	if entry.Library != "Biblioteca Central" {
		t.Fatalf("expected library name in result, got %q", entry.Library)
	}
	if entry.Status != persistence.CopyStatusAvailable {
		t.Fatalf("expected status %q, got %q", persistence.CopyStatusAvailable, entry.Status)
	}
}

func TestCatalogSearchByAuthorAcrossStatuses(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seedCatalog(t, h)
	ctx := context.Background()

	entries, err := h.Catalog.Search(ctx, persistence.CatalogFilter{Term: "machado"})
	if err != nil {
		t.Fatalf("failed to search catalog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 results, got %d", len(entries))
	}
	// Ordered by title: Dom Casmurro before Quincas Borba.
	if entries[0].Title != "Dom Casmurro" || entries[1].Title != "Quincas Borba" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].Status != persistence.CopyStatusOnLoan {
		t.Fatalf("expected second result on loan, got %q", entries[1].Status)
	}
}

func TestCatalogSearchFiltersByLibrary(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCatalog(t, h)
	ctx := context.Background()

	entries, err := h.Catalog.Search(ctx, persistence.CatalogFilter{Term: "a", Library: seed.Branch.Name})
	if err != nil {
		t.Fatalf("failed to search catalog: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Vidas Secas" {
		t.Fatalf("expected only the branch copy, got %+v", entries)
	}
}

func TestCatalogSearchEmptyTermReturnsNothing(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seedCatalog(t, h)
	ctx := context.Background()

	entries, err := h.Catalog.Search(ctx, persistence.CatalogFilter{Term: "   "})
	if err != nil {
		t.Fatalf("failed to search catalog: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no results for blank term, got %d", len(entries))
	}
}

func TestCatalogListInventoryAndAvailableCopies(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCatalog(t, h)
	ctx := context.Background()

	inventory, err := h.Catalog.ListInventory(ctx, seed.Central.ID)
	if err != nil {
		t.Fatalf("failed to list inventory: %v", err)
	}
	if len(inventory) != 2 {
		t.Fatalf("expected 2 inventory items, got %d", len(inventory))
	}
	for _, item := range inventory {
		if item.CopyID == "" || item.Code == "" || item.Title == "" {
			t.Fatalf("incomplete inventory item: %+v", item)
		}
	}

	available, err := h.Catalog.ListAvailableCopies(ctx, seed.Central.ID)
	if err != nil {
		t.Fatalf("failed to list available copies: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("expected 1 available copy, got %d", len(available))
	}
	if available[0].Title != "Dom Casmurro" || available[0].Status != persistence.CopyStatusAvailable {
		t.Fatalf("unexpected available copy: %+v", available[0])
	}
}
