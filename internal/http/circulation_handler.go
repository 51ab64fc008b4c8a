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

type circulationService interface {
	Checkout(ctx context.Context, principal application.Principal, input application.CheckoutInput) (application.CheckoutResult, error)
	Return(ctx context.Context, principal application.Principal, loanID string) (application.ReturnResult, error)
	ListLoans(ctx context.Context, principal application.Principal, status string) ([]persistence.Loan, error)
}

// CirculationHandler drives the checkout and return desk.
type CirculationHandler struct {
	service   circulationService
	responder responder
	logger    *slog.Logger
}

func NewCirculationHandler(service circulationService, logger *slog.Logger) *CirculationHandler {
	base := defaultLogger(logger)
	return &CirculationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CirculationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CirculationHandler", operation, attrs...)
}

func (h *CirculationHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Checkout", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode checkout request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Checkout(r.Context(), principal, application.CheckoutInput{
		UserID: req.UserID,
		CopyID: req.CopyID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newLoanResponse(result.Loan))
}

func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	loanID, ok := LoanIDFromContext(r.Context())
	if !ok || loanID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingLoanID)
		return
	}

	result, err := h.service.Return(r.Context(), principal, loanID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := returnResponse{
		Loan:     newLoanResponse(result.Loan),
		DaysLate: result.DaysLate,
	}
	if result.BlockedUntil != nil {
		resp.BlockedUntil = *result.BlockedUntil
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *CirculationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	loans, err := h.service.ListLoans(r.Context(), principal, r.URL.Query().Get("status"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	results := make([]loanResponse, 0, len(loans))
	for _, loan := range loans {
		results = append(results, newLoanResponse(loan))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, results)
}

type checkoutRequest struct {
	UserID string `json:"user_id"`
	CopyID string `json:"copy_id"`
}

type loanResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	CopyID     string `json:"copy_id"`
	LibraryID  string `json:"library_id"`
	LoanDate   string `json:"loan_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Renewals   int    `json:"renewals"`
	Status     string `json:"status"`
}

type returnResponse struct {
	Loan         loanResponse `json:"loan"`
	DaysLate     int          `json:"days_late"`
	BlockedUntil string       `json:"blocked_until,omitempty"`
}

func newLoanResponse(loan persistence.Loan) loanResponse {
	resp := loanResponse{
		ID:        loan.ID,
		UserID:    loan.UserID,
		CopyID:    loan.CopyID,
		LibraryID: loan.LibraryID,
		LoanDate:  loan.LoanDate.UTC().Format("2006-01-02"),
		DueDate:   loan.DueDate.UTC().Format("2006-01-02"),
		Renewals:  loan.Renewals,
		Status:    loan.Status,
	}
	if loan.ReturnDate != nil {
		resp.ReturnDate = loan.ReturnDate.UTC().Format(time.RFC3339)
	}
	return resp
}
