/*
statement.go - Running-balance statement builder

PURPOSE:
  Expands one ledger row's installments into the ordered statement that
  spreadsheet/PDF exports and the report view render: one line per
  installment carrying the balance remaining after it.

ORDERING:
  Statements sort ascending by parsed date (oldest first) even though the
  table screens list newest first. The running balance is only meaningful
  computed forward in time. The sort is stable, so same-day installments
  keep input order, and installments whose dates fail to parse sort ahead
  of dated ones without being dropped - a statement is an accounting of
  everything recorded, unlike a date-filtered view.
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATEMENT ROW
// =============================================================================

// StatementRow is one line of a running-balance statement.
//
// Seq is the row's position in the overall multi-record export, not the
// per-campaign installment number; callers exporting several records thread
// a continuous first sequence through BuildStatement.
type StatementRow struct {
	Seq           int
	InstallmentNo int
	Amount        decimal.Decimal
	Date          string
	UTR           string
	Remarks       string
	Balance       decimal.Decimal
}

// =============================================================================
// BUILDER
// =============================================================================

// BuildStatement produces the running-balance statement for one campaign
// budget. firstSeq is the sequence number of the first emitted row.
//
// With no installments it emits exactly one synthetic row: full TCA as
// balance, empty amount/date/reference - "budget set, nothing paid yet".
func BuildStatement(tca decimal.Decimal, installments []Installment, firstSeq int) []StatementRow {
	if len(installments) == 0 {
		return []StatementRow{{
			Seq:     firstSeq,
			Balance: tca,
		}}
	}

	ordered := make([]Installment, len(installments))
	copy(ordered, installments)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, _ := ParseDate(ordered[i].Date)
		tj, _ := ParseDate(ordered[j].Date)
		return ti.Before(tj)
	})

	rows := make([]StatementRow, 0, len(ordered))
	paid := decimal.Zero
	for i, ins := range ordered {
		paid = paid.Add(ins.Amount)
		rows = append(rows, StatementRow{
			Seq:           firstSeq + i,
			InstallmentNo: ins.Number,
			Amount:        ins.Amount,
			Date:          ins.Date,
			UTR:           ins.UTR,
			Remarks:       ins.Remarks,
			Balance:       tca.Sub(paid),
		})
	}
	return rows
}
