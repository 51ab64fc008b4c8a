package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/library-circulation/internal/persistence"
)

// CatalogService serves the public catalog search and the per-unit inventory
// views. Search requires no session; inventory views are coordinator scoped.
type CatalogService struct {
	catalog   persistence.CatalogRepository
	libraries persistence.LibraryRepository
}

// NewCatalogService wires dependencies for the catalog service.
func NewCatalogService(catalog persistence.CatalogRepository, libraries persistence.LibraryRepository) *CatalogService {
	return &CatalogService{catalog: catalog, libraries: libraries}
}

// Search looks up catalog entries by title or author, optionally filtered by
// library name. A blank term returns no results.
func (s *CatalogService) Search(ctx context.Context, term, library string) ([]persistence.CatalogEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}

	entries, err := s.catalog.Search(ctx, persistence.CatalogFilter{Term: term, Library: library})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return entries, nil
}

// ListActiveLibraries returns the active units offered as search filters.
func (s *CatalogService) ListActiveLibraries(ctx context.Context) ([]persistence.Library, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}

	libraries, err := s.libraries.ListLibraries(ctx, true)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return libraries, nil
}

// Inventory returns every copy of the coordinator's unit.
func (s *CatalogService) Inventory(ctx context.Context, principal Principal) ([]persistence.InventoryItem, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return nil, ErrUnauthorized
	}

	items, err := s.catalog.ListInventory(ctx, principal.libraryID())
	if err != nil {
		return nil, mapStoreError(err)
	}
	return items, nil
}

// AvailableCopies returns the lendable copies of the coordinator's unit.
func (s *CatalogService) AvailableCopies(ctx context.Context, principal Principal) ([]persistence.InventoryItem, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return nil, ErrUnauthorized
	}

	items, err := s.catalog.ListAvailableCopies(ctx, principal.libraryID())
	if err != nil {
		return nil, mapStoreError(err)
	}
	return items, nil
}
