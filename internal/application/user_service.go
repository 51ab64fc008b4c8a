package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

// UserService manages staff accounts and reader enrollments. Staff creation is
// restricted to network administrators; reader registration is a local
// coordinator task scoped to the coordinator's own unit.
type UserService struct {
	users        persistence.UserRepository
	libraries    persistence.LibraryRepository
	audits       persistence.AuditRepository
	hashPassword func(string) string
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, libraries persistence.LibraryRepository, audits persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		libraries:    libraries,
		audits:       audits,
		hashPassword: HashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateStaff registers a network administrator or local coordinator account.
func (s *UserService) CreateStaff(ctx context.Context, principal Principal, input CreateStaffInput) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsNetworkAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "CreateStaff", "acting_user", principal.UserID)

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	role := strings.TrimSpace(input.Role)
	libraryID := strings.TrimSpace(input.LibraryID)

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if input.Password == "" {
		vErr.add("password", "password is required")
	}
	switch role {
	case persistence.RoleNetworkAdmin:
	case persistence.RoleLocalCoordinator:
		if libraryID == "" {
			vErr.add("library_id", "library is required for coordinators")
		}
	default:
		vErr.add("role", "role is invalid")
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	user := persistence.User{
		ID:           s.idGenerator(),
		Name:         name,
		Email:        email,
		PasswordHash: s.hashPassword(input.Password),
		Role:         role,
		Active:       true,
		Consent:      true,
		CreatedAt:    s.now(),
	}
	if role == persistence.RoleLocalCoordinator {
		if _, err := s.libraries.GetLibrary(ctx, libraryID); err != nil {
			err = mapStoreError(err)
			if errors.Is(err, ErrNotFound) {
				vErr.add("library_id", "library does not exist")
				return persistence.User{}, vErr
			}
			return persistence.User{}, err
		}
		user.LibraryID = &libraryID
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to create staff account", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "create_staff", principal.UserID,
		fmt.Sprintf("staff=%s role=%s", user.Email, user.Role), s.now())

	logger.With("user_id", user.ID, "role", user.Role).InfoContext(ctx, "staff account created")
	return user, nil
}

// RegisterReader enrolls a reader at the coordinator's own library unit.
// Enrollment requires explicit consent to the data processing terms.
func (s *UserService) RegisterReader(ctx context.Context, principal Principal, input RegisterReaderInput) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return persistence.User{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RegisterReader", "acting_user", principal.UserID)

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}
	if !input.Consent {
		vErr.add("consent", "consent is required")
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	libraryID := principal.libraryID()
	reader := persistence.User{
		ID:        s.idGenerator(),
		Name:      name,
		Email:     email,
		Document:  strings.TrimSpace(input.Document),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      persistence.RoleReader,
		LibraryID: &libraryID,
		Active:    true,
		Consent:   true,
		CreatedAt: s.now(),
	}

	if err := s.users.CreateUser(ctx, reader); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to register reader", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}

	appendAudit(ctx, s.audits, logger, s.idGenerator(), "create_reader", principal.UserID,
		fmt.Sprintf("reader=%s library=%s", reader.Name, libraryID), s.now())

	logger.With("user_id", reader.ID).InfoContext(ctx, "reader registered")
	return reader, nil
}

// ListStaff returns every staff account for network administrators.
func (s *UserService) ListStaff(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsNetworkAdmin() {
		return nil, ErrUnauthorized
	}

	staff, err := s.users.ListStaff(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return staff, nil
}

// ListReaders returns the readers enrolled at the coordinator's own unit.
func (s *UserService) ListReaders(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsCoordinator() || principal.libraryID() == "" {
		return nil, ErrUnauthorized
	}

	readers, err := s.users.ListReaders(ctx, principal.libraryID())
	if err != nil {
		return nil, mapStoreError(err)
	}
	return readers, nil
}
