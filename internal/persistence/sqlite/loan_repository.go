package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/library-circulation/internal/persistence"
)

// LoanRepository implements persistence.LoanRepository. Checkout and return
// each run inside a single transaction so the loan row and the copy status
// never diverge, and so the reader snapshot the eligibility decision sees is
// the one the mutation is based on.
type LoanRepository struct {
	store *Store
}

// NewLoanRepository creates a SQLite-backed loan repository.
func NewLoanRepository(store *Store) *LoanRepository {
	return &LoanRepository{store: store}
}

type loanRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	CopyID     string         `db:"copy_id"`
	LibraryID  string         `db:"library_id"`
	LoanDate   string         `db:"loan_date"`
	DueDate    string         `db:"due_date"`
	ReturnDate sql.NullString `db:"return_date"`
	Renewals   int            `db:"renewals_count"`
	Status     string         `db:"status"`
}

const loanColumns = `id, user_id, copy_id, library_id, loan_date, due_date, return_date, renewals_count, status`

func (row loanRow) toModel() (persistence.Loan, error) {
	loanDate, err := parseDate(row.LoanDate)
	if err != nil {
		return persistence.Loan{}, err
	}
	dueDate, err := parseDate(row.DueDate)
	if err != nil {
		return persistence.Loan{}, err
	}
	returnDate, err := timePtr(row.ReturnDate)
	if err != nil {
		return persistence.Loan{}, err
	}
	return persistence.Loan{
		ID:         row.ID,
		UserID:     row.UserID,
		CopyID:     row.CopyID,
		LibraryID:  row.LibraryID,
		LoanDate:   loanDate,
		DueDate:    dueDate,
		ReturnDate: returnDate,
		Renewals:   row.Renewals,
		Status:     row.Status,
	}, nil
}

// CreateLoan inserts the loan and flips the referenced copy to "emprestado"
// in one transaction. The eligibility decider runs against the reader
// snapshot read inside the transaction and aborts it by returning an error.
// The copy status flip is conditioned on the copy still being "disponivel";
// a concurrent checkout of the same copy loses with ErrCopyUnavailable.
func (r *LoanRepository) CreateLoan(ctx context.Context, loan persistence.Loan, decide persistence.EligibilityDecider) (persistence.Loan, error) {
	if loan.ID == "" || loan.UserID == "" || loan.CopyID == "" || loan.LibraryID == "" {
		return persistence.Loan{}, persistence.ErrConstraintViolation
	}

	err := r.store.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		snapshot, err := readerSnapshotTx(ctx, tx, loan.UserID, formatDate(loan.LoanDate))
		if err != nil {
			return err
		}
		if decide != nil {
			if err := decide(snapshot); err != nil {
				return err
			}
		}

		var copy copyRow
		err = tx.GetContext(ctx, &copy,
			`SELECT id, book_id, library_id, code, status, acquired_at FROM copies WHERE id = ?`, loan.CopyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return mapError(err)
		}
		if copy.LibraryID != loan.LibraryID {
			// Coordinators only lend out their own collection.
			return persistence.ErrNotFound
		}
		if copy.Status != persistence.CopyStatusAvailable {
			return persistence.ErrCopyUnavailable
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			loan.ID,
			loan.UserID,
			loan.CopyID,
			loan.LibraryID,
			formatDate(loan.LoanDate),
			formatDate(loan.DueDate),
			nullTime(loan.ReturnDate),
			loan.Renewals,
			persistence.LoanStatusOpen,
		); err != nil {
			return mapError(err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE copies SET status = ? WHERE id = ? AND status = ?`,
			persistence.CopyStatusOnLoan, loan.CopyID, persistence.CopyStatusAvailable)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrCopyUnavailable
		}

		return nil
	})
	if err != nil {
		return persistence.Loan{}, err
	}

	loan.Status = persistence.LoanStatusOpen
	return loan, nil
}

// ReturnLoan closes an open loan scoped to a library, releases its copy and
// applies the block the assessor computes, all in one transaction.
func (r *LoanRepository) ReturnLoan(ctx context.Context, loanID, libraryID string, assess persistence.ReturnAssessor) (persistence.ReturnedLoan, error) {
	if loanID == "" || libraryID == "" {
		return persistence.ReturnedLoan{}, persistence.ErrNotFound
	}

	var returned persistence.ReturnedLoan
	err := r.store.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var row loanRow
		err := tx.GetContext(ctx, &row,
			`SELECT `+loanColumns+` FROM loans WHERE id = ?`, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return mapError(err)
		}
		if row.LibraryID != libraryID || row.Status != persistence.LoanStatusOpen {
			return persistence.ErrNotFound
		}

		loan, err := row.toModel()
		if err != nil {
			return err
		}

		assessment := persistence.ReturnAssessment{}
		if assess != nil {
			assessment = assess(loan)
		}
		if assessment.ReturnedAt.IsZero() {
			assessment.ReturnedAt = nowUTC()
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE loans SET status = ?, return_date = ? WHERE id = ? AND status = ?`,
			persistence.LoanStatusReturned, formatTime(assessment.ReturnedAt), loanID, persistence.LoanStatusOpen)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE copies SET status = ? WHERE id = ?`,
			persistence.CopyStatusAvailable, loan.CopyID); err != nil {
			return mapError(err)
		}

		if assessment.BlockedUntil != nil {
			// Overwrites any previous block; late returns do not compound.
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET blocked_until = ? WHERE id = ?`,
				formatDate(*assessment.BlockedUntil), loan.UserID); err != nil {
				return mapError(err)
			}
		}

		returnedAt := assessment.ReturnedAt
		loan.Status = persistence.LoanStatusReturned
		loan.ReturnDate = &returnedAt
		returned = persistence.ReturnedLoan{
			Loan:         loan,
			BlockedUntil: assessment.BlockedUntil,
			DaysLate:     assessment.DaysLate,
		}
		return nil
	})
	if err != nil {
		return persistence.ReturnedLoan{}, err
	}

	return returned, nil
}

// GetLoan retrieves a loan by ID.
func (r *LoanRepository) GetLoan(ctx context.Context, id string) (persistence.Loan, error) {
	if id == "" {
		return persistence.Loan{}, persistence.ErrNotFound
	}

	var row loanRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Loan{}, persistence.ErrNotFound
		}
		return persistence.Loan{}, mapError(err)
	}

	return row.toModel()
}

// ListLoans returns loans matching the filter ordered by loan date then ID.
func (r *LoanRepository) ListLoans(ctx context.Context, filter persistence.LoanFilter) ([]persistence.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE 1 = 1`
	args := make([]any, 0, 3)
	if filter.LibraryID != "" {
		query += ` AND library_id = ?`
		args = append(args, filter.LibraryID)
	}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY loan_date ASC, id ASC`

	var rows []loanRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	loans := make([]persistence.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := row.toModel()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// readerSnapshotTx reads the circulation state of a reader inside the
// checkout transaction. The reference date anchors the overdue comparison to
// the loan date the caller is about to write.
func readerSnapshotTx(ctx context.Context, tx *sqlx.Tx, userID, referenceDate string) (persistence.ReaderSnapshot, error) {
	var reader struct {
		Active       bool           `db:"active"`
		BlockedUntil sql.NullString `db:"blocked_until"`
	}
	err := tx.GetContext(ctx, &reader,
		`SELECT active, blocked_until FROM users WHERE id = ? AND role = ?`,
		userID, persistence.RoleReader)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ReaderSnapshot{}, persistence.ErrNotFound
		}
		return persistence.ReaderSnapshot{}, mapError(err)
	}

	blockedUntil, err := datePtr(reader.BlockedUntil)
	if err != nil {
		return persistence.ReaderSnapshot{}, err
	}

	var overdue int
	if err := tx.GetContext(ctx, &overdue,
		`SELECT COUNT(*) FROM loans WHERE user_id = ? AND status = ? AND due_date < ?`,
		userID, persistence.LoanStatusOpen, referenceDate); err != nil {
		return persistence.ReaderSnapshot{}, mapError(err)
	}

	var open int
	if err := tx.GetContext(ctx, &open,
		`SELECT COUNT(*) FROM loans WHERE user_id = ? AND status = ?`,
		userID, persistence.LoanStatusOpen); err != nil {
		return persistence.ReaderSnapshot{}, mapError(err)
	}

	return persistence.ReaderSnapshot{
		UserID:       userID,
		Active:       reader.Active,
		BlockedUntil: blockedUntil,
		OverdueLoans: overdue,
		OpenLoans:    open,
	}, nil
}
