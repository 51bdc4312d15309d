/*
store.go - Persistence interface for the retailer/campaign/budget universe

PURPOSE:
  Defines the interface between the engine and the data layer. The engine
  itself only ever consumes Snapshot(); the write operations exist for the
  set-budget and installment flows that feed it, and they are where the
  write-time invariants (installment numbering, TCA cap) are enforced.

READ MODEL:
  Snapshot returns the whole universe at once. The data volumes here are
  bounded (hundreds of rows, not millions); every filter change re-runs the
  pure pipeline over the in-memory snapshot rather than querying per filter.

IMPLEMENTATIONS:
  - store/sqlite: production persistence
  - store/memory: in-memory for testing and dev

SEE ALSO:
  - budget.go: The write-side rules both implementations apply
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store persists the universe the engine reconciles over.
type Store interface {
	// Snapshot returns the full universe. The caller owns the returned
	// value; later writes never mutate a snapshot already handed out.
	Snapshot(ctx context.Context) (Snapshot, error)

	// CreateRetailer stores a retailer, minting an id if absent.
	CreateRetailer(ctx context.Context, r Retailer) (Retailer, error)

	// CreateCampaign stores a campaign, minting an id if absent.
	CreateCampaign(ctx context.Context, c Campaign) (Campaign, error)

	// SetCampaignBudget creates or updates the budget target for a
	// (retailer, campaign) pair. Existing installments are kept and the
	// stored paid/pending caches refreshed against the new TCA.
	SetCampaignBudget(ctx context.Context, retailerID, campaignID string, tca decimal.Decimal) error

	// AddInstallment records a payment. The installment number is assigned
	// by the store (max existing + 1); the input's Number is ignored.
	// Fails with ErrBudgetExceeded when the cap would be violated.
	AddInstallment(ctx context.Context, retailerID, campaignID string, ins Installment) (Installment, error)

	// DeleteInstallment removes an installment by number. Numbers are not
	// reused afterwards.
	DeleteInstallment(ctx context.Context, retailerID, campaignID string, number int) error

	Close() error
}
