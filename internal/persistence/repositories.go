package persistence

import (
	"context"
	"time"
)

// LibraryRepository exposes persistence operations for library units.
type LibraryRepository interface {
	CreateLibrary(ctx context.Context, library Library) error
	GetLibrary(ctx context.Context, id string) (Library, error)
	ListLibraries(ctx context.Context, onlyActive bool) ([]Library, error)
}

// UserRepository exposes persistence operations for staff accounts and
// readers.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListStaff(ctx context.Context) ([]User, error)
	ListReaders(ctx context.Context, libraryID string) ([]User, error)
}

// BookRepository exposes persistence operations for the shared bibliographic
// catalog.
type BookRepository interface {
	CreateBook(ctx context.Context, book Book) error
	GetBook(ctx context.Context, id string) (Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
}

// CopyRepository exposes persistence operations for physical copies.
type CopyRepository interface {
	CreateCopy(ctx context.Context, copy Copy) error
	GetCopy(ctx context.Context, id string) (Copy, error)
}

// EligibilityDecider inspects the reader snapshot read inside the checkout
// transaction. A non-nil error aborts the transaction without mutating state.
type EligibilityDecider func(snapshot ReaderSnapshot) error

// ReturnAssessment carries the outcome of the late-return rule computed by
// the caller for the loan loaded inside the return transaction.
type ReturnAssessment struct {
	ReturnedAt   time.Time
	BlockedUntil *time.Time
	DaysLate     int
}

// ReturnAssessor computes the return assessment for an open loan.
type ReturnAssessor func(loan Loan) ReturnAssessment

// ReturnedLoan reports the state written by a completed return.
type ReturnedLoan struct {
	Loan         Loan
	BlockedUntil *time.Time
	DaysLate     int
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	LibraryID string
	UserID    string
	Status    string
}

// LoanRepository stores loans and drives the coupled loan/copy state
// transitions. CreateLoan and ReturnLoan each run in a single transaction so
// that the loan row and the copy status never diverge.
type LoanRepository interface {
	// CreateLoan inserts the loan and flips the referenced copy to
	// "emprestado". The decider is applied to the reader snapshot read inside
	// the transaction; the copy must belong to loan.LibraryID and still be
	// "disponivel" at write time, otherwise ErrCopyUnavailable is returned.
	CreateLoan(ctx context.Context, loan Loan, decide EligibilityDecider) (Loan, error)
	// ReturnLoan closes the open loan scoped to libraryID, flips the copy
	// back to "disponivel" and, when the assessment sets BlockedUntil,
	// overwrites the reader's block date.
	ReturnLoan(ctx context.Context, loanID, libraryID string, assess ReturnAssessor) (ReturnedLoan, error)
	GetLoan(ctx context.Context, id string) (Loan, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, error)
}

// AuditRepository records mutating actions. Entries are append-only and never
// read back by the service itself.
type AuditRepository interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// CatalogFilter narrows the public catalog search.
type CatalogFilter struct {
	Term    string
	Library string
}

// CatalogEntry is a public search result row.
type CatalogEntry struct {
	Title    string
	Author   string
	Category string
	Library  string
	Status   string
}

// InventoryItem is a copy of the local collection joined with its work.
type InventoryItem struct {
	CopyID string
	Code   string
	Title  string
	Author string
	Status string
}

// CatalogRepository provides the read paths joining books, copies and
// libraries.
type CatalogRepository interface {
	Search(ctx context.Context, filter CatalogFilter) ([]CatalogEntry, error)
	ListInventory(ctx context.Context, libraryID string) ([]InventoryItem, error)
	ListAvailableCopies(ctx context.Context, libraryID string) ([]InventoryItem, error)
}

// NetworkSummary aggregates network-wide dashboard counters.
type NetworkSummary struct {
	Libraries int
	Books     int
	OpenLoans int
}

// MonthCount buckets loans by the YYYY-MM month of their loan date.
type MonthCount struct {
	Month string
	Count int
}

// StatusCount counts loans per status.
type StatusCount struct {
	Status string
	Count  int
}

// LoanHistoryEntry is a loan joined with reader and work attributes for
// reporting and export.
type LoanHistoryEntry struct {
	LoanID     string
	ReaderName string
	Title      string
	Code       string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     string
}

// ReportRepository provides the aggregate read paths behind dashboards and
// exports.
type ReportRepository interface {
	NetworkSummary(ctx context.Context) (NetworkSummary, error)
	LoansPerMonth(ctx context.Context, libraryID string) ([]MonthCount, error)
	LoanStatusCounts(ctx context.Context, libraryID string) ([]StatusCount, error)
	LoanHistory(ctx context.Context, libraryID string) ([]LoanHistoryEntry, error)
}
