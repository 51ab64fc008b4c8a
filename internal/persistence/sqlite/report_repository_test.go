package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/library-circulation/internal/persistence"
	"github.com/example/library-circulation/internal/testfixtures"
)

func TestReportNetworkSummary(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCirculation(t, h)
	ctx := context.Background()

	other := testfixtures.NewLibrary()
	if err := h.Libraries.CreateLibrary(ctx, other); err != nil {
		t.Fatalf("failed to create second library: %v", err)
	}
	closed := testfixtures.NewLibrary(testfixtures.WithLibraryInactive())
	if err := h.Libraries.CreateLibrary(ctx, closed); err != nil {
		t.Fatalf("failed to create deactivated library: %v", err)
	}

	loan := testfixtures.NewLoan(seed.Reader.ID, seed.Copy.ID, seed.Library.ID)
	if _, err := h.Loans.CreateLoan(ctx, loan, nil); err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}

	summary, err := h.Reports.NetworkSummary(ctx)
	if err != nil {
		t.Fatalf("failed to load network summary: %v", err)
	}
	// Deactivated units still count toward the network total.
	if summary.Libraries != 3 {
		t.Fatalf("expected 3 libraries, got %d", summary.Libraries)
	}
	if summary.Books != 1 {
		t.Fatalf("expected 1 book, got %d", summary.Books)
	}
	if summary.OpenLoans != 1 {
		t.Fatalf("expected 1 open loan, got %d", summary.OpenLoans)
	}

	if _, err := h.Loans.ReturnLoan(ctx, loan.ID, seed.Library.ID, nil); err != nil {
		t.Fatalf("failed to return loan: %v", err)
	}
	summary, err = h.Reports.NetworkSummary(ctx)
	if err != nil {
		t.Fatalf("failed to reload network summary: %v", err)
	}
	if summary.OpenLoans != 0 {
		t.Fatalf("expected 0 open loans after return, got %d", summary.OpenLoans)
	}
}

func TestReportLoansPerMonth(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCirculation(t, h)
	ctx := context.Background()

	base := testfixtures.ReferenceTime()
	secondCopy := testfixtures.NewCopy(seed.Book.ID, seed.Library.ID)
	thirdCopy := testfixtures.NewCopy(seed.Book.ID, seed.Library.ID)
	for _, record := range []persistence.Copy{secondCopy, thirdCopy} {
		if err := h.Copies.CreateCopy(ctx, record); err != nil {
			t.Fatalf("failed to create copy: %v", err)
		}
	}

	loans := []persistence.Loan{
		testfixtures.NewLoan(seed.Reader.ID, seed.Copy.ID, seed.Library.ID,
			testfixtures.WithLoanDates(base.AddDate(0, -1, 0), base.AddDate(0, -1, 14))),
		testfixtures.NewLoan(seed.Reader.ID, secondCopy.ID, seed.Library.ID,
			testfixtures.WithLoanDates(base, base.AddDate(0, 0, 14))),
		testfixtures.NewLoan(seed.Reader.ID, thirdCopy.ID, seed.Library.ID,
			testfixtures.WithLoanDates(base.AddDate(0, 0, 1), base.AddDate(0, 0, 15))),
	}
	for _, loan := range loans {
		if _, err := h.Loans.CreateLoan(ctx, loan, nil); err != nil {
			t.Fatalf("failed to create loan: %v", err)
		}
	}

	months, err := h.Reports.LoansPerMonth(ctx, seed.Library.ID)
	if err != nil {
		t.Fatalf("failed to load loans per month: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(months))
	}
	if months[0].Month != "2025-02" || months[0].Count != 1 {
		t.Fatalf("unexpected first bucket: %+v", months[0])
	}
	if months[1].Month != "2025-03" || months[1].Count != 2 {
		t.Fatalf("unexpected second bucket: %+v", months[1])
	}
}

func TestReportLoanStatusCounts(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCirculation(t, h)
	ctx := context.Background()

	secondCopy := testfixtures.NewCopy(seed.Book.ID, seed.Library.ID)
	if err := h.Copies.CreateCopy(ctx, secondCopy); err != nil {
		t.Fatalf("failed to create copy: %v", err)
	}

	first := testfixtures.NewLoan(seed.Reader.ID, seed.Copy.ID, seed.Library.ID)
	if _, err := h.Loans.CreateLoan(ctx, first, nil); err != nil {
		t.Fatalf("failed to create first loan: %v", err)
	}
	second := testfixtures.NewLoan(seed.Reader.ID, secondCopy.ID, seed.Library.ID)
	if _, err := h.Loans.CreateLoan(ctx, second, nil); err != nil {
		t.Fatalf("failed to create second loan: %v", err)
	}
	if _, err := h.Loans.ReturnLoan(ctx, second.ID, seed.Library.ID, nil); err != nil {
		t.Fatalf("failed to return second loan: %v", err)
	}

	counts, err := h.Reports.LoanStatusCounts(ctx, seed.Library.ID)
	if err != nil {
		t.Fatalf("failed to load status counts: %v", err)
	}
	byStatus := make(map[string]int, len(counts))
	for _, count := range counts {
		byStatus[count.Status] = count.Count
	}
	if byStatus[persistence.LoanStatusOpen] != 1 {
		t.Fatalf("expected 1 open loan, got %d", byStatus[persistence.LoanStatusOpen])
	}
	if byStatus[persistence.LoanStatusReturned] != 1 {
		t.Fatalf("expected 1 returned loan, got %d", byStatus[persistence.LoanStatusReturned])
	}
}

func TestReportLoanHistoryJoinsReaderAndWork(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	seed := seedCirculation(t, h)
	ctx := context.Background()

	loan := testfixtures.NewLoan(seed.Reader.ID, seed.Copy.ID, seed.Library.ID)
	if _, err := h.Loans.CreateLoan(ctx, loan, nil); err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}

	history, err := h.Reports.LoanHistory(ctx, seed.Library.ID)
	if err != nil {
		t.Fatalf("failed to load loan history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.LoanID != loan.ID {
		t.Fatalf("expected loan %s, got %s", loan.ID, entry.LoanID)
	}
	if entry.ReaderName != seed.Reader.Name {
		t.Fatalf("expected reader %q, got %q", seed.Reader.Name, entry.ReaderName)
	}
	if entry.Title != seed.Book.Title || entry.Code != seed.Copy.Code {
		t.Fatalf("unexpected work attributes: %+v", entry)
	}
	if entry.ReturnDate != nil {
		t.Fatalf("expected open loan without return date, got %v", entry.ReturnDate)
	}
	if entry.Status != persistence.LoanStatusOpen {
		t.Fatalf("expected status %q, got %q", persistence.LoanStatusOpen, entry.Status)
	}

	other := testfixtures.NewLibrary()
	if err := h.Libraries.CreateLibrary(ctx, other); err != nil {
		t.Fatalf("failed to create second library: %v", err)
	}
	empty, err := h.Reports.LoanHistory(ctx, other.ID)
	if err != nil {
		t.Fatalf("failed to load empty history: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no history for other library, got %d", len(empty))
	}
}
