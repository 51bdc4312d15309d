/*
budget.go - Write-side rules for campaign budgets

PURPOSE:
  The numbering and cap invariants that the "set budget" / "add installment"
  flows enforce at write time. They live here, next to the types, so both
  store implementations apply identical rules - but note the reconciliation
  pipeline never depends on them holding: it tolerates and recomputes over
  historically violated records.

INVARIANTS:
  1. Installment numbers are unique within a CampaignBudget and the next
     assigned number is always max(existing) + 1 (1 if none exist).
     Numbers are never reused after a delete.
  2. The sum of installment amounts never exceeds TCA at write time.
*/
package ledger

import "github.com/shopspring/decimal"

// NextInstallmentNo returns the number to assign to a new installment.
func NextInstallmentNo(installments []Installment) int {
	next := 1
	for _, ins := range installments {
		if ins.Number >= next {
			next = ins.Number + 1
		}
	}
	return next
}

// CommittedTotal sums all installment amounts (unfiltered).
func CommittedTotal(installments []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, ins := range installments {
		total = total.Add(ins.Amount)
	}
	return total
}

// ValidateInstallment checks a candidate installment against the budget's
// remaining headroom. It does not mutate anything.
func (cb CampaignBudget) ValidateInstallment(retailerID string, ins Installment) error {
	if !ins.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	committed := CommittedTotal(cb.Installments)
	if committed.Add(ins.Amount).GreaterThan(cb.TCA) {
		return &BudgetExceededError{
			RetailerID: retailerID,
			CampaignID: cb.Campaign.ID,
			TCA:        cb.TCA,
			Committed:  committed,
			Requested:  ins.Amount,
		}
	}
	return nil
}

// RefreshTotals recomputes the stored cPaid/cPending caches from the
// installment list. Stores call this after every write so the caches stay a
// faithful summary of the unfiltered list.
func (cb *CampaignBudget) RefreshTotals() {
	cb.Paid = CommittedTotal(cb.Installments)
	cb.Pending = cb.TCA.Sub(cb.Paid)
}
