package persistence

import "time"

// Roles assigned to user accounts. The wire values are inherited from the
// original network database and must not change while existing data exists.
const (
	RoleNetworkAdmin     = "admin_rede"
	RoleLocalCoordinator = "coord_local"
	RoleReader           = "leitor"
)

// Copy status values. Only "disponivel" and "emprestado" are driven by the
// circulation workflow; the remaining values are administrative.
const (
	CopyStatusAvailable   = "disponivel"
	CopyStatusOnLoan      = "emprestado"
	CopyStatusReserved    = "reservado"
	CopyStatusMaintenance = "manutencao"
	CopyStatusLost        = "extraviado"
)

// Loan status values.
const (
	LoanStatusOpen     = "aberto"
	LoanStatusReturned = "devolvido"
)

// Library represents a unit of the library network.
type Library struct {
	ID        string
	Name      string
	City      string
	Address   string
	Active    bool
	CreatedAt time.Time
}

// User represents a staff account or a registered reader. Readers carry no
// password hash and cannot log in.
type User struct {
	ID           string
	Name         string
	Email        string
	Document     string
	Phone        string
	PasswordHash string
	Role         string
	LibraryID    *string
	Active       bool
	Consent      bool
	BlockedUntil *time.Time
	CreatedAt    time.Time
}

// Book is a bibliographic work shared network-wide; physical holdings are
// tracked per library as copies.
type Book struct {
	ID        string
	Title     string
	Author    string
	ISBN      string
	Publisher string
	Category  string
	Year      int
	CreatedAt time.Time
}

// Copy is a single physical item of a work held by one library. The (library,
// code) pair is unique.
type Copy struct {
	ID         string
	BookID     string
	LibraryID  string
	Code       string
	Status     string
	AcquiredAt *time.Time
}

// Loan couples a reader and a copy. A loan is created open and transitions
// exactly once to returned.
type Loan struct {
	ID         string
	UserID     string
	CopyID     string
	LibraryID  string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Renewals   int
	Status     string
}

// AuditEntry is an append-only record of a mutating action.
type AuditEntry struct {
	ID        string
	Action    string
	UserID    string
	Details   string
	Timestamp time.Time
}

// ReaderSnapshot captures the circulation state of a reader at the moment the
// checkout transaction reads it.
type ReaderSnapshot struct {
	UserID       string
	Active       bool
	BlockedUntil *time.Time
	OverdueLoans int
	OpenLoans    int
}
