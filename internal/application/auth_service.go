package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/library-circulation/internal/persistence"
)

// AuthService coordinates staff authentication and session management.
// Readers never hold credentials, so only network administrators and local
// coordinators can sign in.
type AuthService struct {
	users          persistence.UserRepository
	libraries      persistence.LibraryRepository
	sessions       *SessionStore
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, libraries persistence.LibraryRepository, sessions *SessionStore, verify PasswordVerifier, tokenGenerator func() string, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if sessions == nil {
		sessions = NewSessionStore()
	}
	return &AuthService{
		users:          users,
		libraries:      libraries,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates staff credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.Principal.UserID,
			"role", result.Principal.Role,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapStoreError(err), ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		return
	}

	if !user.Active || user.Role == persistence.RoleReader || user.PasswordHash == "" {
		err = ErrInvalidCredentials
		return
	}

	if err = s.verifyPassword(user.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	principal := Principal{
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		LibraryID: user.LibraryID,
	}
	if user.LibraryID != nil && s.libraries != nil {
		var library persistence.Library
		library, err = s.libraries.GetLibrary(ctx, *user.LibraryID)
		if err != nil {
			err = mapStoreError(err)
			return
		}
		principal.LibraryName = library.Name
	}

	token := s.tokenGenerator()
	if token == "" {
		err = fmt.Errorf("token generator produced an empty token")
		return
	}
	s.sessions.Put(token, principal)

	result = AuthenticateResult{Token: token, Principal: principal}
	return
}

// ValidateSession resolves a token to the principal it was issued for.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrUnauthorized
	}

	principal, ok := s.sessions.Get(trimmed)
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	return principal, nil
}

// RevokeSession invalidates a session token. Unknown tokens are ignored.
func (s *AuthService) RevokeSession(ctx context.Context, token string) {
	if s == nil {
		return
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return
	}
	s.sessions.Delete(trimmed)
	s.loggerWith(ctx, "RevokeSession").InfoContext(ctx, "session revoked")
}
