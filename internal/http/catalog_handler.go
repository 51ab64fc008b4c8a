package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/library-circulation/internal/application"
	"github.com/example/library-circulation/internal/persistence"
)

type catalogService interface {
	Search(ctx context.Context, term, library string) ([]persistence.CatalogEntry, error)
	ListActiveLibraries(ctx context.Context) ([]persistence.Library, error)
	Inventory(ctx context.Context, principal application.Principal) ([]persistence.InventoryItem, error)
	AvailableCopies(ctx context.Context, principal application.Principal) ([]persistence.InventoryItem, error)
}

// CatalogHandler serves the public catalog search and the coordinator
// inventory views.
type CatalogHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	base := defaultLogger(logger)
	return &CatalogHandler{service: service, responder: newResponder(base), logger: base}
}

// Search handles the unauthenticated catalog lookup.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	entries, err := h.service.Search(r.Context(), query.Get("q"), query.Get("library"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]catalogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		results = append(results, catalogEntryResponse{
			Title:    entry.Title,
			Author:   entry.Author,
			Category: entry.Category,
			Library:  entry.Library,
			Status:   entry.Status,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, catalogSearchResponse{Results: results})
}

// ListLibraries returns the active units offered as public search filters.
func (h *CatalogHandler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	libraries, err := h.service.ListActiveLibraries(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]libraryResponse, 0, len(libraries))
	for _, library := range libraries {
		results = append(results, newLibraryResponse(library))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

// Inventory returns the full copy inventory of the coordinator's unit.
func (h *CatalogHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	h.listCopies(w, r, false)
}

// AvailableCopies returns only the lendable copies of the coordinator's unit.
func (h *CatalogHandler) AvailableCopies(w http.ResponseWriter, r *http.Request) {
	h.listCopies(w, r, true)
}

func (h *CatalogHandler) listCopies(w http.ResponseWriter, r *http.Request, onlyAvailable bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var (
		items []persistence.InventoryItem
		err   error
	)
	if onlyAvailable {
		items, err = h.service.AvailableCopies(r.Context(), principal)
	} else {
		items, err = h.service.Inventory(r.Context(), principal)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]inventoryItemResponse, 0, len(items))
	for _, item := range items {
		results = append(results, inventoryItemResponse{
			CopyID: item.CopyID,
			Code:   item.Code,
			Title:  item.Title,
			Author: item.Author,
			Status: item.Status,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

type catalogSearchResponse struct {
	Results []catalogEntryResponse `json:"results"`
}

type catalogEntryResponse struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category,omitempty"`
	Library  string `json:"library"`
	Status   string `json:"status"`
}

type inventoryItemResponse struct {
	CopyID string `json:"copy_id"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Status string `json:"status"`
}
