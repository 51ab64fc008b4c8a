package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

var (
	libraryCounter uint64
	userCounter    uint64
	bookCounter    uint64
	copyCounter    uint64
	loanCounter    uint64
)

var referenceTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Library fixtures ----------------------------

// LibraryOption configures a generated library record.
type LibraryOption func(*persistence.Library)

// NewLibrary returns a deterministic library record with optional overrides.
func NewLibrary(opts ...LibraryOption) persistence.Library {
	idx := atomic.AddUint64(&libraryCounter, 1)
	library := persistence.Library{
		ID:        fmt.Sprintf("library-%03d", idx),
		Name:      fmt.Sprintf("Biblioteca %03d", idx),
		City:      "Capital",
		Active:    true,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&library)
	}
	return library
}

// WithLibraryID overrides the generated library ID.
func WithLibraryID(id string) LibraryOption {
	return func(l *persistence.Library) {
		l.ID = id
	}
}

// WithLibraryName overrides the generated library name.
func WithLibraryName(name string) LibraryOption {
	return func(l *persistence.Library) {
		l.Name = name
	}
}

// WithLibraryCity overrides the generated city.
func WithLibraryCity(city string) LibraryOption {
	return func(l *persistence.Library) {
		l.City = city
	}
}

// WithLibraryInactive marks the library as deactivated.
func WithLibraryInactive() LibraryOption {
	return func(l *persistence.Library) {
		l.Active = false
	}
}

// ------------------------------ User fixtures -----------------------------

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewReader returns a deterministic reader enrolled at the given library.
func NewReader(libraryID string, opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("reader-%03d", idx)
	user := persistence.User{
		ID:        id,
		Name:      fmt.Sprintf("Leitor %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Role:      persistence.RoleReader,
		LibraryID: &libraryID,
		Active:    true,
		Consent:   true,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// NewCoordinator returns a deterministic coordinator for the given library.
func NewCoordinator(libraryID string, opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("coord-%03d", idx)
	user := persistence.User{
		ID:           id,
		Name:         fmt.Sprintf("Coordenador %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         persistence.RoleLocalCoordinator,
		LibraryID:    &libraryID,
		Active:       true,
		Consent:      true,
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// NewNetworkAdmin returns a deterministic network administrator.
func NewNetworkAdmin(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("admin-%03d", idx)
	user := persistence.User{
		ID:           id,
		Name:         fmt.Sprintf("Administrador %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         persistence.RoleNetworkAdmin,
		Active:       true,
		Consent:      true,
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
	}
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) {
		u.PasswordHash = hash
	}
}

// WithUserInactive marks the user as deactivated.
func WithUserInactive() UserOption {
	return func(u *persistence.User) {
		u.Active = false
	}
}

// WithUserBlockedUntil sets a circulation block on the user.
func WithUserBlockedUntil(t time.Time) UserOption {
	return func(u *persistence.User) {
		blocked := t
		u.BlockedUntil = &blocked
	}
}

// ------------------------------ Book fixtures -----------------------------

// BookOption configures a generated book record.
type BookOption func(*persistence.Book)

// NewBook returns a deterministic cataloged work with optional overrides.
func NewBook(opts ...BookOption) persistence.Book {
	idx := atomic.AddUint64(&bookCounter, 1)
	book := persistence.Book{
		ID:        fmt.Sprintf("book-%03d", idx),
		Title:     fmt.Sprintf("Obra %03d", idx),
		Author:    fmt.Sprintf("Autor %03d", idx),
		Category:  "Romance",
		Year:      2020,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&book)
	}
	return book
}

// WithBookID overrides the generated book ID.
func WithBookID(id string) BookOption {
	return func(b *persistence.Book) {
		b.ID = id
	}
}

// WithBookTitle overrides the generated title.
func WithBookTitle(title string) BookOption {
	return func(b *persistence.Book) {
		b.Title = title
	}
}

// WithBookAuthor overrides the generated author.
func WithBookAuthor(author string) BookOption {
	return func(b *persistence.Book) {
		b.Author = author
	}
}

// ------------------------------ Copy fixtures -----------------------------

// CopyOption configures a generated copy record.
type CopyOption func(*persistence.Copy)

// NewCopy returns a deterministic available copy of a work at a library.
func NewCopy(bookID, libraryID string, opts ...CopyOption) persistence.Copy {
	idx := atomic.AddUint64(&copyCounter, 1)
	acquired := referenceTime
	record := persistence.Copy{
		ID:         fmt.Sprintf("copy-%03d", idx),
		BookID:     bookID,
		LibraryID:  libraryID,
		Code:       fmt.Sprintf("EX-%03d", idx),
		Status:     persistence.CopyStatusAvailable,
		AcquiredAt: &acquired,
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithCopyID overrides the generated copy ID.
func WithCopyID(id string) CopyOption {
	return func(c *persistence.Copy) {
		c.ID = id
	}
}

// WithCopyStatus overrides the generated status.
func WithCopyStatus(status string) CopyOption {
	return func(c *persistence.Copy) {
		c.Status = status
	}
}

// ------------------------------ Loan fixtures -----------------------------

// LoanOption configures a generated loan record.
type LoanOption func(*persistence.Loan)

// NewLoan returns a deterministic open loan starting at ReferenceTime.
func NewLoan(userID, copyID, libraryID string, opts ...LoanOption) persistence.Loan {
	idx := atomic.AddUint64(&loanCounter, 1)
	loan := persistence.Loan{
		ID:        fmt.Sprintf("loan-%03d", idx),
		UserID:    userID,
		CopyID:    copyID,
		LibraryID: libraryID,
		LoanDate:  referenceTime,
		DueDate:   referenceTime.AddDate(0, 0, 14),
		Status:    persistence.LoanStatusOpen,
	}
	for _, opt := range opts {
		opt(&loan)
	}
	return loan
}

// WithLoanID overrides the generated loan ID.
func WithLoanID(id string) LoanOption {
	return func(l *persistence.Loan) {
		l.ID = id
	}
}

// WithLoanDates sets the loan and due dates.
func WithLoanDates(loanDate, dueDate time.Time) LoanOption {
	return func(l *persistence.Loan) {
		l.LoanDate = loanDate
		l.DueDate = dueDate
	}
}

// WithLoanReturned closes the loan at the given time.
func WithLoanReturned(returnedAt time.Time) LoanOption {
	return func(l *persistence.Loan) {
		returned := returnedAt
		l.ReturnDate = &returned
		l.Status = persistence.LoanStatusReturned
	}
}
