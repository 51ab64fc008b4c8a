package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

// LibraryService manages the library units of the network. Creating units is
// restricted to network administrators.
type LibraryService struct {
	libraries   persistence.LibraryRepository
	audits      persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLibraryService wires dependencies for the library service.
func NewLibraryService(libraries persistence.LibraryRepository, audits persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LibraryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LibraryService{
		libraries:   libraries,
		audits:      audits,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *LibraryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LibraryService", operation, attrs...)
}

// CreateLibrary registers a new library unit for network administrators.
func (s *LibraryService) CreateLibrary(ctx context.Context, principal Principal, input CreateLibraryInput) (persistence.Library, error) {
	if s == nil {
		return persistence.Library{}, fmt.Errorf("LibraryService is nil")
	}
	if !principal.IsNetworkAdmin() {
		return persistence.Library{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "CreateLibrary", "acting_user", principal.UserID)

	name := strings.TrimSpace(input.Name)
	city := strings.TrimSpace(input.City)

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if city == "" {
		vErr.add("city", "city is required")
	}
	if vErr.HasErrors() {
		return persistence.Library{}, vErr
	}

	library := persistence.Library{
		ID:        s.idGenerator(),
		Name:      name,
		City:      city,
		Address:   strings.TrimSpace(input.Address),
		Active:    true,
		CreatedAt: s.now(),
	}

	if err := s.libraries.CreateLibrary(ctx, library); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to create library", "error", err, "error_kind", ErrorKind(err))
		return persistence.Library{}, err
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "create_library", principal.UserID,
		fmt.Sprintf("library=%s city=%s", library.Name, library.City), s.now())

	logger.With("library_id", library.ID).InfoContext(ctx, "library created")
	return library, nil
}

// ListLibraries returns every library unit for staff users.
func (s *LibraryService) ListLibraries(ctx context.Context, principal Principal) ([]persistence.Library, error) {
	if s == nil {
		return nil, fmt.Errorf("LibraryService is nil")
	}
	if !principal.IsNetworkAdmin() && !principal.IsCoordinator() {
		return nil, ErrUnauthorized
	}

	libraries, err := s.libraries.ListLibraries(ctx, false)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return libraries, nil
}
