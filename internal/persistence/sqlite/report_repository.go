package sqlite

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/example/library-circulation/internal/persistence"
)

// ReportRepository implements persistence.ReportRepository, the aggregate
// queries behind the network and local dashboards.
type ReportRepository struct {
	store *Store
}

// NewReportRepository creates a SQLite-backed report repository.
func NewReportRepository(store *Store) *ReportRepository {
	return &ReportRepository{store: store}
}

// NetworkSummary counts libraries, cataloged works and open loans across the
// whole network. Deactivated units stay in the library count; the dashboard
// reports the network's size, not its active slice.
func (r *ReportRepository) NetworkSummary(ctx context.Context) (persistence.NetworkSummary, error) {
	var summary persistence.NetworkSummary
	const query = `
		SELECT
			(SELECT COUNT(*) FROM libraries) AS libraries,
			(SELECT COUNT(*) FROM books) AS books,
			(SELECT COUNT(*) FROM loans WHERE status = ?) AS open_loans`
	row := r.store.db.QueryRowContext(ctx, query, persistence.LoanStatusOpen)
	if err := row.Scan(&summary.Libraries, &summary.Books, &summary.OpenLoans); err != nil {
		return persistence.NetworkSummary{}, mapError(err)
	}
	return summary, nil
}

type monthCountRow struct {
	Month string `db:"month"`
	Count int    `db:"count"`
}

// LoansPerMonth buckets a library's loans by the YYYY-MM prefix of the loan
// date, in chronological order.
func (r *ReportRepository) LoansPerMonth(ctx context.Context, libraryID string) ([]persistence.MonthCount, error) {
	ds := dialect.From(goqu.T("loans")).
		Select(
			goqu.L("substr(loan_date, 1, 7)").As("month"),
			goqu.COUNT(goqu.Star()).As("count"),
		).
		Where(goqu.C("library_id").Eq(libraryID)).
		GroupBy(goqu.L("substr(loan_date, 1, 7)")).
		Order(goqu.I("month").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []monthCountRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	counts := make([]persistence.MonthCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, persistence.MonthCount{Month: row.Month, Count: row.Count})
	}
	return counts, nil
}

type statusCountRow struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// LoanStatusCounts counts a library's loans per status.
func (r *ReportRepository) LoanStatusCounts(ctx context.Context, libraryID string) ([]persistence.StatusCount, error) {
	ds := dialect.From(goqu.T("loans")).
		Select(
			goqu.C("status").As("status"),
			goqu.COUNT(goqu.Star()).As("count"),
		).
		Where(goqu.C("library_id").Eq(libraryID)).
		GroupBy(goqu.C("status")).
		Order(goqu.I("status").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []statusCountRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	counts := make([]persistence.StatusCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, persistence.StatusCount{Status: row.Status, Count: row.Count})
	}
	return counts, nil
}

type loanHistoryRow struct {
	LoanID     string         `db:"loan_id"`
	ReaderName string         `db:"reader_name"`
	Title      string         `db:"title"`
	Code       string         `db:"code"`
	LoanDate   string         `db:"loan_date"`
	DueDate    string         `db:"due_date"`
	ReturnDate sql.NullString `db:"return_date"`
	Status     string         `db:"status"`
}

// LoanHistory lists a library's loans joined with reader and work attributes,
// most recent first. This query feeds both the on-screen report and the CSV
// export.
func (r *ReportRepository) LoanHistory(ctx context.Context, libraryID string) ([]persistence.LoanHistoryEntry, error) {
	ds := dialect.From(goqu.T("loans").As("ln")).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("ln.user_id").Eq(goqu.I("u.id")))).
		InnerJoin(goqu.T("copies").As("c"), goqu.On(goqu.I("ln.copy_id").Eq(goqu.I("c.id")))).
		InnerJoin(goqu.T("books").As("b"), goqu.On(goqu.I("c.book_id").Eq(goqu.I("b.id")))).
		Select(
			goqu.I("ln.id").As("loan_id"),
			goqu.I("u.name").As("reader_name"),
			goqu.I("b.title").As("title"),
			goqu.I("c.code").As("code"),
			goqu.I("ln.loan_date").As("loan_date"),
			goqu.I("ln.due_date").As("due_date"),
			goqu.I("ln.return_date").As("return_date"),
			goqu.I("ln.status").As("status"),
		).
		Where(goqu.I("ln.library_id").Eq(libraryID)).
		Order(goqu.I("ln.loan_date").Desc(), goqu.I("ln.id").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []loanHistoryRow
	if err := r.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	entries := make([]persistence.LoanHistoryEntry, 0, len(rows))
	for _, row := range rows {
		loanDate, err := parseDate(row.LoanDate)
		if err != nil {
			return nil, err
		}
		dueDate, err := parseDate(row.DueDate)
		if err != nil {
			return nil, err
		}
		entry := persistence.LoanHistoryEntry{
			LoanID:     row.LoanID,
			ReaderName: row.ReaderName,
			Title:      row.Title,
			Code:       row.Code,
			LoanDate:   loanDate,
			DueDate:    dueDate,
			Status:     row.Status,
		}
		if row.ReturnDate.Valid {
			returned, err := parseTime(row.ReturnDate.String)
			if err != nil {
				return nil, err
			}
			entry.ReturnDate = &returned
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
