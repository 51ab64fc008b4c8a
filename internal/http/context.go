package http

import (
	"context"

	"github.com/example/library-circulation/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	loanIDContextKey    contextKey = "loan_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLoanID injects the loan identifier resolved from the request path.
func ContextWithLoanID(ctx context.Context, loanID string) context.Context {
	return context.WithValue(ctx, loanIDContextKey, loanID)
}

// LoanIDFromContext extracts a loan identifier previously associated with the context.
func LoanIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(loanIDContextKey).(string)
	return id, ok
}
