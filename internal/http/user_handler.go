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

type userService interface {
	CreateStaff(ctx context.Context, principal application.Principal, input application.CreateStaffInput) (persistence.User, error)
	RegisterReader(ctx context.Context, principal application.Principal, input application.RegisterReaderInput) (persistence.User, error)
	ListStaff(ctx context.Context, principal application.Principal) ([]persistence.User, error)
	ListReaders(ctx context.Context, principal application.Principal) ([]persistence.User, error)
}

// UserHandler manages staff accounts and reader enrollments.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateStaff", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.CreateStaff(r.Context(), principal, application.CreateStaffInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		LibraryID: req.LibraryID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newUserResponse(user))
}

func (h *UserHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	staff, err := h.service.ListStaff(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]userResponse, 0, len(staff))
	for _, user := range staff {
		results = append(results, newUserResponse(user))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

func (h *UserHandler) RegisterReader(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req registerReaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "RegisterReader", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reader request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reader, err := h.service.RegisterReader(r.Context(), principal, application.RegisterReaderInput{
		Name:     req.Name,
		Email:    req.Email,
		Document: req.Document,
		Phone:    req.Phone,
		Consent:  req.Consent,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newUserResponse(reader))
}

func (h *UserHandler) ListReaders(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	readers, err := h.service.ListReaders(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]userResponse, 0, len(readers))
	for _, reader := range readers {
		results = append(results, newUserResponse(reader))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

type createStaffRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	LibraryID string `json:"library_id"`
}

type registerReaderRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Consent  bool   `json:"consent"`
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Document     string `json:"document,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	LibraryID    string `json:"library_id,omitempty"`
	Active       bool   `json:"active"`
	BlockedUntil string `json:"blocked_until,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func newUserResponse(user persistence.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Document:  user.Document,
		Phone:     user.Phone,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.LibraryID != nil {
		resp.LibraryID = *user.LibraryID
	}
	if user.BlockedUntil != nil {
		resp.BlockedUntil = user.BlockedUntil.UTC().Format("2006-01-02")
	}
	return resp
}
