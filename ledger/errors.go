/*
errors.go - Errors for the write side of the budget store

PURPOSE:
  The reconciliation pipeline itself is total: malformed dates and dangling
  references fail the match instead of raising (see date.go, reconcile.go).
  Errors only exist on the write side - setting budgets and recording
  installments - where the numbering and cap invariants are enforced.

USAGE:
  if errors.Is(err, ledger.ErrBudgetExceeded) { ... }

  var capErr *ledger.BudgetExceededError
  if errors.As(err, &capErr) { ... capErr.Requested ... }
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBudgetExceeded is returned when recording an installment would push
	// the committed sum past the campaign budget's TCA.
	ErrBudgetExceeded = errors.New("installments exceed total committed amount")

	// ErrRetailerNotFound is returned when a referenced retailer doesn't exist.
	ErrRetailerNotFound = errors.New("retailer not found")

	// ErrCampaignNotFound is returned when a referenced campaign doesn't exist.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrBudgetNotFound is returned when no budget record exists for the pair.
	ErrBudgetNotFound = errors.New("campaign budget not found")

	// ErrInstallmentNotFound is returned when an installment number doesn't exist.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrInvalidAmount is returned for zero or negative installment amounts.
	ErrInvalidAmount = errors.New("installment amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// BudgetExceededError carries the figures behind a TCA cap rejection.
type BudgetExceededError struct {
	RetailerID string
	CampaignID string
	TCA        decimal.Decimal
	Committed  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("installment %v would exceed tca %v (already committed %v)",
		e.Requested, e.TCA, e.Committed)
}

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }
