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

type bookService interface {
	CreateBook(ctx context.Context, principal application.Principal, input application.CreateBookInput) (persistence.Book, error)
	ListBooks(ctx context.Context, principal application.Principal) ([]persistence.Book, error)
	AddCopy(ctx context.Context, principal application.Principal, input application.AddCopyInput) (persistence.Copy, error)
}

// BookHandler manages the shared catalog of works and the per-unit copies.
type BookHandler struct {
	service   bookService
	responder responder
	logger    *slog.Logger
}

func NewBookHandler(service bookService, logger *slog.Logger) *BookHandler {
	base := defaultLogger(logger)
	return &BookHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookHandler", operation, attrs...)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode book request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	book, err := h.service.CreateBook(r.Context(), principal, application.CreateBookInput{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Publisher: req.Publisher,
		Category:  req.Category,
		Year:      req.Year,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newBookResponse(book))
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	books, err := h.service.ListBooks(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]bookResponse, 0, len(books))
	for _, book := range books {
		results = append(results, newBookResponse(book))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

func (h *BookHandler) AddCopy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req addCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddCopy", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode copy request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	copyRecord, err := h.service.AddCopy(r.Context(), principal, application.AddCopyInput{
		BookID: req.BookID,
		Code:   req.Code,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, copyResponse{
		ID:        copyRecord.ID,
		BookID:    copyRecord.BookID,
		LibraryID: copyRecord.LibraryID,
		Code:      copyRecord.Code,
		Status:    copyRecord.Status,
	})
}

type createBookRequest struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Publisher string `json:"publisher"`
	Category  string `json:"category"`
	Year      int    `json:"year"`
}

type addCopyRequest struct {
	BookID string `json:"book_id"`
	Code   string `json:"code"`
}

type bookResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Category  string `json:"category,omitempty"`
	Year      int    `json:"year,omitempty"`
	CreatedAt string `json:"created_at"`
}

type copyResponse struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	LibraryID string `json:"library_id"`
	Code      string `json:"code"`
	Status    string `json:"status"`
}

func newBookResponse(book persistence.Book) bookResponse {
	return bookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		ISBN:      book.ISBN,
		Publisher: book.Publisher,
		Category:  book.Category,
		Year:      book.Year,
		CreatedAt: book.CreatedAt.UTC().Format(time.RFC3339),
	}
}
