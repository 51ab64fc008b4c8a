package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

// DefaultLoanPeriodDays is the lending window applied to new loans.
const DefaultLoanPeriodDays = 14

// returnToleranceDays is the grace period after the due date within which a
// return does not block the reader. Due dates are stored at day granularity,
// so the tolerance is counted in calendar days as well.
const returnToleranceDays = 1

// CirculationService drives the loan lifecycle. Checkout and return are
// coordinator operations scoped to the coordinator's own unit; the eligibility
// rules and the late-return assessment run inside the repository transaction
// so concurrent requests cannot outrun them.
type CirculationService struct {
	loans       persistence.LoanRepository
	audits      persistence.AuditRepository
	eligibility *EligibilityEngine
	periodDays  int
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCirculationService wires dependencies for the circulation service.
func NewCirculationService(loans persistence.LoanRepository, audits persistence.AuditRepository, eligibility *EligibilityEngine, periodDays int, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CirculationService {
	if now == nil {
		now = time.Now
	}
	if eligibility == nil {
		eligibility = NewEligibilityEngine(DefaultLoanLimit, now)
	}
	if periodDays <= 0 {
		periodDays = DefaultLoanPeriodDays
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &CirculationService{
		loans:       loans,
		audits:      audits,
		eligibility: eligibility,
		periodDays:  periodDays,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CirculationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CirculationService", operation, attrs...)
}

// Checkout lends a copy to a reader. The eligibility rules are evaluated
// against a snapshot read in the same transaction that inserts the loan and
// flips the copy status.
func (s *CirculationService) Checkout(ctx context.Context, principal Principal, input CheckoutInput) (result CheckoutResult, err error) {
	if s == nil {
		err = fmt.Errorf("CirculationService is nil")
		return
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		err = ErrUnauthorized
		return
	}

	userID := strings.TrimSpace(input.UserID)
	copyID := strings.TrimSpace(input.CopyID)

	logger := s.loggerWith(ctx, "Checkout",
		"acting_user", principal.UserID,
		"reader_id", userID,
		"copy_id", copyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "checkout failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("loan_id", result.Loan.ID).InfoContext(ctx, "loan created")
	}()

	vErr := &ValidationError{}
	if userID == "" {
		vErr.add("user_id", "reader is required")
	}
	if copyID == "" {
		vErr.add("copy_id", "copy is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	loanDate := s.now().UTC()
	loan := persistence.Loan{
		ID:        s.idGenerator(),
		UserID:    userID,
		CopyID:    copyID,
		LibraryID: principal.libraryID(),
		LoanDate:  loanDate,
		DueDate:   loanDate.AddDate(0, 0, s.periodDays),
		Status:    persistence.LoanStatusOpen,
	}

	decide := func(snapshot persistence.ReaderSnapshot) error {
		decision := s.eligibility.Evaluate(snapshot)
		if !decision.Eligible {
			return &EligibilityError{Reason: decision.Reason}
		}
		return nil
	}

	var persisted persistence.Loan
	persisted, err = s.loans.CreateLoan(ctx, loan, decide)
	if err != nil {
		var eErr *EligibilityError
		if !errors.As(err, &eErr) {
			err = mapStoreError(err)
		}
		return
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "loan_create", principal.UserID,
		fmt.Sprintf("loan=%s reader=%s copy=%s", persisted.ID, userID, copyID), s.now())

	result = CheckoutResult{Loan: persisted}
	return
}

// Return closes an open loan of the coordinator's unit. A return later than
// one day past the due date blocks the reader for twice the days late,
// replacing any earlier block.
func (s *CirculationService) Return(ctx context.Context, principal Principal, loanID string) (result ReturnResult, err error) {
	if s == nil {
		err = fmt.Errorf("CirculationService is nil")
		return
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		err = ErrUnauthorized
		return
	}

	loanID = strings.TrimSpace(loanID)
	logger := s.loggerWith(ctx, "Return",
		"acting_user", principal.UserID,
		"loan_id", loanID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "return failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("days_late", result.DaysLate).InfoContext(ctx, "loan returned")
	}()

	if loanID == "" {
		vErr := &ValidationError{}
		vErr.add("loan_id", "loan is required")
		err = vErr
		return
	}

	assess := func(loan persistence.Loan) persistence.ReturnAssessment {
		now := s.now().UTC()
		assessment := persistence.ReturnAssessment{ReturnedAt: now}
		// Day granularity on both sides: the stored due date carries no
		// time of day, so neither may the return instant.
		dueDay := truncateToDay(loan.DueDate)
		returnDay := truncateToDay(now)
		if returnDay.After(dueDay.AddDate(0, 0, returnToleranceDays)) {
			daysLate := int(returnDay.Sub(dueDay).Hours() / 24)
			blockedUntil := now.AddDate(0, 0, daysLate*2)
			assessment.DaysLate = daysLate
			assessment.BlockedUntil = &blockedUntil
		}
		return assessment
	}

	var returned persistence.ReturnedLoan
	returned, err = s.loans.ReturnLoan(ctx, loanID, principal.libraryID(), assess)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "loan_return", principal.UserID,
		fmt.Sprintf("loan=%s days_late=%d", loanID, returned.DaysLate), s.now())

	result = ReturnResult{Loan: returned.Loan, DaysLate: returned.DaysLate}
	if returned.BlockedUntil != nil {
		formatted := returned.BlockedUntil.UTC().Format("2006-01-02")
		result.BlockedUntil = &formatted
	}
	return
}

// ListLoans returns the loans of the coordinator's unit, optionally filtered
// by status.
func (s *CirculationService) ListLoans(ctx context.Context, principal Principal, status string) ([]persistence.Loan, error) {
	if s == nil {
		return nil, fmt.Errorf("CirculationService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return nil, ErrUnauthorized
	}

	filter := persistence.LoanFilter{
		LibraryID: principal.libraryID(),
		Status:    strings.TrimSpace(status),
	}
	loans, err := s.loans.ListLoans(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return loans, nil
}
