/*
reconcile.go - Window filtering and ledger row construction

PURPOSE:
  Recomputes paid/pending figures for campaign budgets under a date window
  and assembles the filtered ledger rows the table screens and exports run
  on. This is the consolidation of the reconciliation logic that the four
  screen modules each used to carry a drifted copy of.

MATCHING RULES:
  A (retailer, campaign) pair produces a ledger row when ALL of:
  1. The budget's retailer reference resolves to a known retailer
  2. The sub-record's campaign reference resolves to a known campaign
  3. The retailer's assigned-campaign list contains the campaign
  4. The campaign passes the role scope (admin sees all, client sees own)
  5. The pair passes the active selection (state/campaign/retailer)
  6. If a date window is active: at least one installment falls inside it

  Rule 6 makes the date filter a row-existence filter, not merely an
  amount filter. Without a window, a pair with zero installments still
  appears (budget set, nothing paid yet).

  Dangling references (rule 1/2 failing) mean "not currently resolvable"
  and are skipped silently; they are not a data-integrity error here.

SEE ALSO:
  - statement.go: Expands a row's installments into a running balance
  - portfolio.go: Folds rows into summary totals
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoPaymentDate is the sentinel shown when a filtered set has no payments.
const NoPaymentDate = "N/A"

// =============================================================================
// WINDOW SUMMARY - Per-CampaignBudget recomputation
// =============================================================================

// WindowSummary is the result of reconciling one campaign budget against a
// date window.
type WindowSummary struct {
	// Installments inside the window, input order preserved.
	Installments []Installment

	// Sum of installment amounts inside the window.
	Paid decimal.Decimal

	// TCA minus Paid. May go negative on historical overpayment; surfaced
	// unclamped so callers can flag over-budget pairs.
	Pending decimal.Decimal

	// Stored date text of the latest in-window payment, or NoPaymentDate.
	LastPayment string
}

// Reconcile filters the installment list through the window and recomputes
// paid/pending for that window. The stored cPaid/cPending caches reflect the
// unfiltered total and are deliberately not consulted.
func (cb CampaignBudget) Reconcile(w DateWindow) WindowSummary {
	summary := WindowSummary{
		Paid:        decimal.Zero,
		LastPayment: NoPaymentDate,
	}

	var latest *installmentDate
	for _, ins := range cb.Installments {
		if !w.Contains(ins.Date) {
			continue
		}
		summary.Installments = append(summary.Installments, ins)
		summary.Paid = summary.Paid.Add(ins.Amount)

		if t, ok := ParseDate(ins.Date); ok {
			if latest == nil || t.After(latest.at) {
				latest = &installmentDate{at: t, text: ins.Date}
			}
		}
	}

	summary.Pending = cb.TCA.Sub(summary.Paid)
	if latest != nil {
		summary.LastPayment = latest.text
	}
	return summary
}

type installmentDate struct {
	at   time.Time
	text string
}

// =============================================================================
// LEDGER ROW - One (retailer, campaign) pair under the current filter
// =============================================================================

// Row is one (retailer, campaign) pair with its window-reconciled figures.
// A retailer appears once per campaign it is both budgeted and assigned to.
type Row struct {
	RetailerID   string
	OutletCode   string // retailer uniqueId
	ShopName     string
	State        string
	CampaignID   string
	CampaignName string
	Client       string

	TCA          decimal.Decimal
	Paid         decimal.Decimal
	Pending      decimal.Decimal
	LastPayment  string
	Installments []Installment
}

// BuildRows runs the full matching pipeline over a snapshot and returns the
// surviving ledger rows in snapshot order (budgets outer, sub-records inner).
func BuildRows(snap Snapshot, sel Selection, w DateWindow, scope Scope) []Row {
	if scope == nil {
		scope = AdminScope
	}

	var rows []Row
	for _, budget := range snap.Budgets {
		retailer := snap.RetailerByID(budget.Retailer.ID)
		if retailer == nil {
			continue // stale retailer reference
		}
		if sel.RetailerID != "" && retailer.ID != sel.RetailerID {
			continue
		}
		if sel.State != "" && retailer.Address.State != sel.State {
			continue
		}

		seen := make(map[string]bool, len(budget.Budgets))
		for _, cb := range budget.Budgets {
			campaignID := cb.Campaign.ID
			if campaignID == "" || seen[campaignID] {
				continue // missing ref, or duplicate sub-record for the pair
			}
			campaign := snap.CampaignByID(campaignID)
			if campaign == nil {
				continue // stale campaign reference
			}
			if !scope(*campaign) {
				continue
			}
			if sel.CampaignID != "" && campaignID != sel.CampaignID {
				continue
			}
			if !retailer.AssignedTo(campaignID) {
				continue // budgeted but no longer assigned
			}

			summary := cb.Reconcile(w)
			if w.Active() && len(summary.Installments) == 0 {
				continue // active window with no payments drops the row
			}
			seen[campaignID] = true

			rows = append(rows, Row{
				RetailerID:   retailer.ID,
				OutletCode:   retailer.UniqueID,
				ShopName:     retailer.ShopName,
				State:        retailer.Address.State,
				CampaignID:   campaign.ID,
				CampaignName: campaign.Name,
				Client:       campaign.Client,
				TCA:          cb.TCA,
				Paid:         summary.Paid,
				Pending:      summary.Pending,
				LastPayment:  summary.LastPayment,
				Installments: summary.Installments,
			})
		}
	}
	return rows
}
