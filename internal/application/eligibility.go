package application

import (
	"fmt"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

// DefaultLoanLimit is the number of simultaneous open loans a reader may hold.
const DefaultLoanLimit = 3

// Decision is the outcome of evaluating a reader against the lending rules.
type Decision struct {
	Eligible bool
	Reason   string
}

// EligibilityEngine evaluates whether a reader may take out a new loan. The
// checks run in a fixed order and the first failure wins: registration status,
// active block, overdue items, open loan capacity.
type EligibilityEngine struct {
	loanLimit int
	now       func() time.Time
}

// NewEligibilityEngine constructs an engine with the provided loan limit and
// clock.
func NewEligibilityEngine(loanLimit int, now func() time.Time) *EligibilityEngine {
	if loanLimit <= 0 {
		loanLimit = DefaultLoanLimit
	}
	if now == nil {
		now = time.Now
	}
	return &EligibilityEngine{loanLimit: loanLimit, now: now}
}

// Evaluate applies the lending rules to a reader snapshot.
func (e *EligibilityEngine) Evaluate(snapshot persistence.ReaderSnapshot) Decision {
	if !snapshot.Active {
		return Decision{Reason: "Usuário inativo."}
	}

	if snapshot.BlockedUntil != nil {
		// Blocks expire at day granularity: a block dated today still holds.
		today := truncateToDay(e.now().UTC())
		blocked := truncateToDay(snapshot.BlockedUntil.UTC())
		if !blocked.Before(today) {
			return Decision{Reason: fmt.Sprintf("Usuário bloqueado até %s por atrasos anteriores.", blocked.Format("2006-01-02"))}
		}
	}

	if snapshot.OverdueLoans > 0 {
		return Decision{Reason: "Usuário possui itens em atraso. Regularize antes de novos empréstimos."}
	}

	if snapshot.OpenLoans >= e.loanLimit {
		return Decision{Reason: fmt.Sprintf("Limite de empréstimos atingido (%d itens).", e.loanLimit)}
	}

	return Decision{Eligible: true, Reason: "Elegível"}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
