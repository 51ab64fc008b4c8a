package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/library-circulation/internal/application"
	"github.com/example/library-circulation/internal/persistence"
)

type libraryService interface {
	CreateLibrary(ctx context.Context, principal application.Principal, input application.CreateLibraryInput) (persistence.Library, error)
	ListLibraries(ctx context.Context, principal application.Principal) ([]persistence.Library, error)
}

// LibraryHandler manages library units for network administrators.
type LibraryHandler struct {
	service   libraryService
	responder responder
	logger    *slog.Logger
}

func NewLibraryHandler(service libraryService, logger *slog.Logger) *LibraryHandler {
	base := defaultLogger(logger)
	return &LibraryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LibraryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LibraryHandler", operation, attrs...)
}

func (h *LibraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode library request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	library, err := h.service.CreateLibrary(r.Context(), principal, application.CreateLibraryInput{
		Name:    req.Name,
		City:    req.City,
		Address: req.Address,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newLibraryResponse(library))
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	libraries, err := h.service.ListLibraries(r.Context(), principal)
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

type createLibraryRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type libraryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	City      string `json:"city"`
	Address   string `json:"address,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func newLibraryResponse(library persistence.Library) libraryResponse {
	return libraryResponse{
		ID:        library.ID,
		Name:      library.Name,
		City:      library.City,
		Address:   library.Address,
		Active:    library.Active,
		CreatedAt: library.CreatedAt.UTC().Format(time.RFC3339),
	}
}
