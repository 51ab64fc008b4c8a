package application

import (
	"github.com/example/library-circulation/internal/persistence"
)

// Principal identifies the authenticated user acting on a request.
type Principal struct {
	UserID      string
	Name        string
	Role        string
	LibraryID   *string
	LibraryName string
}

// IsNetworkAdmin reports whether the principal manages the whole network.
func (p Principal) IsNetworkAdmin() bool {
	return p.Role == persistence.RoleNetworkAdmin
}

// IsCoordinator reports whether the principal coordinates a library unit.
func (p Principal) IsCoordinator() bool {
	return p.Role == persistence.RoleLocalCoordinator
}

// libraryID returns the coordinator's unit, or empty when unassigned.
func (p Principal) libraryID() string {
	if p.LibraryID == nil {
		return ""
	}
	return *p.LibraryID
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult carries the issued token and the authenticated principal.
type AuthenticateResult struct {
	Token     string
	Principal Principal
}

// CreateLibraryInput carries the attributes of a new library unit.
type CreateLibraryInput struct {
	Name    string
	City    string
	Address string
}

// CreateStaffInput carries the attributes of a new staff account.
type CreateStaffInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	LibraryID string
}

// RegisterReaderInput carries the attributes of a new reader enrollment.
type RegisterReaderInput struct {
	Name     string
	Email    string
	Document string
	Phone    string
	Consent  bool
}

// CreateBookInput carries the attributes of a new cataloged work.
type CreateBookInput struct {
	Title     string
	Author    string
	ISBN      string
	Publisher string
	Category  string
	Year      int
}

// AddCopyInput carries the attributes of a new physical copy.
type AddCopyInput struct {
	BookID string
	Code   string
}

// CheckoutInput identifies the reader and copy of a new loan.
type CheckoutInput struct {
	UserID string
	CopyID string
}

// CheckoutResult reports the recorded loan.
type CheckoutResult struct {
	Loan persistence.Loan
}

// ReturnResult reports the closed loan and any block applied to the reader.
type ReturnResult struct {
	Loan         persistence.Loan
	DaysLate     int
	BlockedUntil *string
}

// LocalReport bundles the per-library dashboard aggregates.
type LocalReport struct {
	LoansPerMonth []persistence.MonthCount
	StatusCounts  []persistence.StatusCount
	History       []persistence.LoanHistoryEntry
}
