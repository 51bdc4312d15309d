/*
Package export renders running-balance statements for download.

PURPOSE:
  Turns the ledger rows surviving the current filter into a multi-record
  statement document: per record a header block identifying the pair and its
  TCA, followed by one line per installment with the running balance.
  Sequence numbers run continuously across records, which is why
  BuildStatement takes the first sequence explicitly.

FORMATS:
  - XLSX via excelize (the spreadsheet the back office circulates)
  - CSV via encoding/csv (bulk tooling)

  HTTP framing (content type, attachment disposition) is the API layer's
  concern, not this package's.
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/brandreach/budget-engine/ledger"
)

// statementColumns is the shared column layout of both renderers.
var statementColumns = []string{
	"Sr No", "Installment No", "Date", "Amount", "UTR Number", "Remarks", "Balance",
}

// RecordStatement pairs one ledger row with its expanded statement lines.
type RecordStatement struct {
	Row   ledger.Row
	Lines []ledger.StatementRow
}

// Statements expands every row into its statement, numbering lines
// continuously across the whole export.
func Statements(rows []ledger.Row) []RecordStatement {
	out := make([]RecordStatement, 0, len(rows))
	seq := 1
	for _, row := range rows {
		lines := ledger.BuildStatement(row.TCA, row.Installments, seq)
		seq += len(lines)
		out = append(out, RecordStatement{Row: row, Lines: lines})
	}
	return out
}

// =============================================================================
// CSV
// =============================================================================

// WriteCSV renders the statements as CSV: a header block per record, then
// the column row, then the lines.
func WriteCSV(w io.Writer, records []RecordStatement) error {
	cw := csv.NewWriter(w)
	for i, rec := range records {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		header := []string{
			"Retailer", rec.Row.ShopName,
			"Outlet Code", rec.Row.OutletCode,
			"Campaign", rec.Row.CampaignName,
			"Client", rec.Row.Client,
			"State", rec.Row.State,
			"Total Budget", rec.Row.TCA.String(),
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.Write(statementColumns); err != nil {
			return err
		}
		for _, line := range rec.Lines {
			if err := cw.Write(csvLine(line)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvLine(line ledger.StatementRow) []string {
	amount, installmentNo := line.Amount.String(), fmt.Sprint(line.InstallmentNo)
	if line.InstallmentNo == 0 {
		// Synthetic "nothing paid yet" line: balance only.
		amount, installmentNo = "", ""
	}
	return []string{
		fmt.Sprint(line.Seq),
		installmentNo,
		line.Date,
		amount,
		line.UTR,
		line.Remarks,
		line.Balance.String(),
	}
}

// =============================================================================
// XLSX
// =============================================================================

const sheetName = "Statement"

// WriteXLSX renders the statements as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []RecordStatement) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rowNo := 1
	for _, rec := range records {
		if err := setRow(f, rowNo, []any{
			"Retailer", rec.Row.ShopName,
			"Outlet Code", rec.Row.OutletCode,
			"Campaign", rec.Row.CampaignName,
			"Client", rec.Row.Client,
			"State", rec.Row.State,
			"Total Budget", rec.Row.TCA.InexactFloat64(),
		}); err != nil {
			return err
		}
		rowNo++

		cols := make([]any, len(statementColumns))
		for i, c := range statementColumns {
			cols[i] = c
		}
		if err := setRow(f, rowNo, cols); err != nil {
			return err
		}
		rowNo++

		for _, line := range rec.Lines {
			if err := setRow(f, rowNo, xlsxLine(line)); err != nil {
				return err
			}
			rowNo++
		}
		rowNo++ // blank separator row
	}

	return f.Write(w)
}

func xlsxLine(line ledger.StatementRow) []any {
	var amount, installmentNo any
	if line.InstallmentNo != 0 {
		amount = line.Amount.InexactFloat64()
		installmentNo = line.InstallmentNo
	}
	return []any{
		line.Seq,
		installmentNo,
		line.Date,
		amount,
		line.UTR,
		line.Remarks,
		line.Balance.InexactFloat64(),
	}
}

func setRow(f *excelize.File, rowNo int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}
