package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/example/library-circulation/internal/persistence"
)

// ReportService serves the dashboard aggregates and the loan history export.
// The network summary is an administrator view; the local report belongs to
// the coordinator of the unit it describes.
type ReportService struct {
	reports persistence.ReportRepository
}

// NewReportService wires dependencies for the report service.
func NewReportService(reports persistence.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// NetworkSummary returns network-wide counters for administrators.
func (s *ReportService) NetworkSummary(ctx context.Context, principal Principal) (persistence.NetworkSummary, error) {
	if s == nil {
		return persistence.NetworkSummary{}, fmt.Errorf("ReportService is nil")
	}
	if !principal.IsNetworkAdmin() {
		return persistence.NetworkSummary{}, ErrUnauthorized
	}

	summary, err := s.reports.NetworkSummary(ctx)
	if err != nil {
		return persistence.NetworkSummary{}, mapStoreError(err)
	}
	return summary, nil
}

// LocalReport returns the dashboard aggregates of the coordinator's unit.
func (s *ReportService) LocalReport(ctx context.Context, principal Principal) (LocalReport, error) {
	if s == nil {
		return LocalReport{}, fmt.Errorf("ReportService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return LocalReport{}, ErrUnauthorized
	}

	libraryID := principal.libraryID()
	perMonth, err := s.reports.LoansPerMonth(ctx, libraryID)
	if err != nil {
		return LocalReport{}, mapStoreError(err)
	}
	statusCounts, err := s.reports.LoanStatusCounts(ctx, libraryID)
	if err != nil {
		return LocalReport{}, mapStoreError(err)
	}
	history, err := s.reports.LoanHistory(ctx, libraryID)
	if err != nil {
		return LocalReport{}, mapStoreError(err)
	}

	return LocalReport{
		LoansPerMonth: perMonth,
		StatusCounts:  statusCounts,
		History:       history,
	}, nil
}

// WriteLoanHistoryCSV streams the coordinator's loan history as CSV.
func (s *ReportService) WriteLoanHistoryCSV(ctx context.Context, principal Principal, w io.Writer) error {
	if s == nil {
		return fmt.Errorf("ReportService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return ErrUnauthorized
	}

	history, err := s.reports.LoanHistory(ctx, principal.libraryID())
	if err != nil {
		return mapStoreError(err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"emprestimo", "leitor", "titulo", "exemplar", "retirada", "devolucao_prevista", "devolucao", "dias_atraso", "status"}); err != nil {
		return err
	}
	for _, entry := range history {
		returned := ""
		daysLate := 0
		if entry.ReturnDate != nil {
			returned = entry.ReturnDate.UTC().Format("2006-01-02")
			if late := int(entry.ReturnDate.Sub(entry.DueDate).Hours() / 24); late > 0 {
				daysLate = late
			}
		}
		record := []string{
			entry.LoanID,
			entry.ReaderName,
			entry.Title,
			entry.Code,
			entry.LoanDate.Format("2006-01-02"),
			entry.DueDate.Format("2006-01-02"),
			returned,
			strconv.Itoa(daysLate),
			entry.Status,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
