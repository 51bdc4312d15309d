/*
portfolio.go - Summary totals and pagination over ledger rows

PURPOSE:
  Folds the filtered ledger rows into the three figures the summary cards
  show, and pages the row list for table display. Pure folds: row order is
  whatever the upstream pipeline produced, never re-sorted here.
*/
package ledger

import "github.com/shopspring/decimal"

// DefaultPageSize is the fixed page size of the ledger tables.
const DefaultPageSize = 10

// =============================================================================
// SUMMARY - Portfolio-wide totals
// =============================================================================

// Summary is the portfolio-wide fold of the surviving ledger rows.
// TotalPending may be negative when overpaid pairs dominate; it is passed
// through for the caller to present.
type Summary struct {
	TotalBudget  decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalPending decimal.Decimal
}

// Aggregate sums tca/paid/pending across rows. Additive: aggregating a
// concatenation equals adding the two aggregates pointwise.
func Aggregate(rows []Row) Summary {
	s := Summary{
		TotalBudget:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}
	for _, row := range rows {
		s.TotalBudget = s.TotalBudget.Add(row.TCA)
		s.TotalPaid = s.TotalPaid.Add(row.Paid)
		s.TotalPending = s.TotalPending.Add(row.Pending)
	}
	return s
}

// =============================================================================
// PAGINATION
// =============================================================================

// Pagination describes one page of a row listing.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// Paginate slices one page out of the row list, preserving order. Page and
// perPage fall back to 1 and DefaultPageSize when out of range; a page past
// the end yields an empty slice with valid metadata.
func Paginate(rows []Row, page, perPage int) ([]Row, Pagination) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	total := len(rows)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	meta := Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
	return rows[start:end], meta
}
