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

// BookService manages the shared bibliographic catalog and the physical copies
// held by each unit. Works are cataloged network-wide by administrators;
// copies are attached to a unit by its coordinator.
type BookService struct {
	books       persistence.BookRepository
	copies      persistence.CopyRepository
	audits      persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookService wires dependencies for the book service.
func NewBookService(books persistence.BookRepository, copies persistence.CopyRepository, audits persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookService{
		books:       books,
		copies:      copies,
		audits:      audits,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookService", operation, attrs...)
}

// CreateBook catalogs a new work for network administrators.
func (s *BookService) CreateBook(ctx context.Context, principal Principal, input CreateBookInput) (persistence.Book, error) {
	if s == nil {
		return persistence.Book{}, fmt.Errorf("BookService is nil")
	}
	if !principal.IsNetworkAdmin() {
		return persistence.Book{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "CreateBook", "acting_user", principal.UserID)

	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)

	vErr := &ValidationError{}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if author == "" {
		vErr.add("author", "author is required")
	}
	if vErr.HasErrors() {
		return persistence.Book{}, vErr
	}

	book := persistence.Book{
		ID:        s.idGenerator(),
		Title:     title,
		Author:    author,
		ISBN:      strings.TrimSpace(input.ISBN),
		Publisher: strings.TrimSpace(input.Publisher),
		Category:  strings.TrimSpace(input.Category),
		Year:      input.Year,
		CreatedAt: s.now(),
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to catalog book", "error", err, "error_kind", ErrorKind(err))
		return persistence.Book{}, err
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "create_book", principal.UserID,
		fmt.Sprintf("title=%s author=%s", book.Title, book.Author), s.now())

	logger.With("book_id", book.ID).InfoContext(ctx, "book cataloged")
	return book, nil
}

// ListBooks returns the shared catalog for staff users.
func (s *BookService) ListBooks(ctx context.Context, principal Principal) ([]persistence.Book, error) {
	if s == nil {
		return nil, fmt.Errorf("BookService is nil")
	}
	if !principal.IsNetworkAdmin() && !principal.IsCoordinator() {
		return nil, ErrUnauthorized
	}

	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return books, nil
}

// AddCopy registers a physical copy of a cataloged work at the coordinator's
// own unit. A copy starts out available for lending.
func (s *BookService) AddCopy(ctx context.Context, principal Principal, input AddCopyInput) (persistence.Copy, error) {
	if s == nil {
		return persistence.Copy{}, fmt.Errorf("BookService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return persistence.Copy{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "AddCopy", "acting_user", principal.UserID)

	bookID := strings.TrimSpace(input.BookID)
	code := strings.TrimSpace(input.Code)

	vErr := &ValidationError{}
	if bookID == "" {
		vErr.add("book_id", "book is required")
	}
	if code == "" {
		vErr.add("code", "code is required")
	}
	if vErr.HasErrors() {
		return persistence.Copy{}, vErr
	}

	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		err = mapStoreError(err)
		if errors.Is(err, ErrNotFound) {
			vErr.add("book_id", "book does not exist")
			return persistence.Copy{}, vErr
		}
		return persistence.Copy{}, err
	}

	acquired := s.now()
	copyRecord := persistence.Copy{
		ID:         s.idGenerator(),
		BookID:     bookID,
		LibraryID:  principal.libraryID(),
		Code:       code,
		Status:     persistence.CopyStatusAvailable,
		AcquiredAt: &acquired,
	}

	if err := s.copies.CreateCopy(ctx, copyRecord); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to register copy", "error", err, "error_kind", ErrorKind(err))
		return persistence.Copy{}, err
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "create_copy", principal.UserID,
		fmt.Sprintf("copy=%s book=%s", copyRecord.Code, bookID), s.now())

	logger.With("copy_id", copyRecord.ID).InfoContext(ctx, "copy registered")
	return copyRecord, nil
}
