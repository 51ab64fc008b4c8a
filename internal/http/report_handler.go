package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/library-circulation/internal/application"
	"github.com/example/library-circulation/internal/persistence"
)

type reportService interface {
	NetworkSummary(ctx context.Context, principal application.Principal) (persistence.NetworkSummary, error)
	LocalReport(ctx context.Context, principal application.Principal) (application.LocalReport, error)
	WriteLoanHistoryCSV(ctx context.Context, principal application.Principal, w io.Writer) error
}

// ReportHandler serves the dashboards and the loan history export.
type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) NetworkSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	summary, err := h.service.NetworkSummary(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, networkSummaryResponse{
		Libraries: summary.Libraries,
		Books:     summary.Books,
		OpenLoans: summary.OpenLoans,
	})
}

func (h *ReportHandler) LocalReport(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	report, err := h.service.LocalReport(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := localReportResponse{
		LoansPerMonth: make([]monthCountResponse, 0, len(report.LoansPerMonth)),
		StatusCounts:  make([]statusCountResponse, 0, len(report.StatusCounts)),
		History:       make([]loanHistoryResponse, 0, len(report.History)),
	}
	for _, month := range report.LoansPerMonth {
		resp.LoansPerMonth = append(resp.LoansPerMonth, monthCountResponse{Month: month.Month, Count: month.Count})
	}
	for _, status := range report.StatusCounts {
		resp.StatusCounts = append(resp.StatusCounts, statusCountResponse{Status: status.Status, Count: status.Count})
	}
	for _, entry := range report.History {
		item := loanHistoryResponse{
			LoanID:     entry.LoanID,
			ReaderName: entry.ReaderName,
			Title:      entry.Title,
			Code:       entry.Code,
			LoanDate:   entry.LoanDate.Format("2006-01-02"),
			DueDate:    entry.DueDate.Format("2006-01-02"),
			Status:     entry.Status,
		}
		if entry.ReturnDate != nil {
			item.ReturnDate = entry.ReturnDate.UTC().Format("2006-01-02")
		}
		resp.History = append(resp.History, item)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *ReportHandler) ExportLoanHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	// Headers must precede the first write, so authorization errors are
	// resolved by the service before any CSV bytes are produced.
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historico_emprestimos.csv"`)

	if err := h.service.WriteLoanHistoryCSV(r.Context(), principal, w); err != nil {
		w.Header().Del("Content-Type")
		w.Header().Del("Content-Disposition")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
}

type networkSummaryResponse struct {
	Libraries int `json:"libraries"`
	Books     int `json:"books"`
	OpenLoans int `json:"open_loans"`
}

type monthCountResponse struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type statusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type loanHistoryResponse struct {
	LoanID     string `json:"loan_id"`
	ReaderName string `json:"reader_name"`
	Title      string `json:"title"`
	Code       string `json:"code"`
	LoanDate   string `json:"loan_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Status     string `json:"status"`
}

type localReportResponse struct {
	LoansPerMonth []monthCountResponse  `json:"loans_per_month"`
	StatusCounts  []statusCountResponse `json:"status_counts"`
	History       []loanHistoryResponse `json:"history"`
}
