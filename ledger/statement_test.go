package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandreach/budget-engine/ledger"
)

// =============================================================================
// RUNNING BALANCE TESTS
// =============================================================================

func TestBuildStatement_AscendingWithRunningBalance(t *testing.T) {
	// GIVEN: tca=10000, installments 500 (01/01/2025) and 300 (15-01-2025)
	// WHEN: Building the statement
	// THEN: Rows come oldest-first with balances 9500 then 9200

	cb := mixedFormatBudget()
	rows := ledger.BuildStatement(cb.TCA, cb.Installments, 1)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].Balance.Equal(dec("9500")), "first balance: got %s", rows[0].Balance)
	assert.True(t, rows[1].Balance.Equal(dec("9200")), "second balance: got %s", rows[1].Balance)
	assert.Equal(t, "01/01/2025", rows[0].Date)
	assert.Equal(t, "15-01-2025", rows[1].Date)
}

func TestBuildStatement_SortsOutOfOrderInput(t *testing.T) {
	// Table views show newest first; the statement re-sorts ascending because
	// a running balance is only meaningful computed forward in time.
	installments := []ledger.Installment{
		installment(2, "300", "15/01/2025"),
		installment(1, "500", "01/01/2025"),
	}
	rows := ledger.BuildStatement(dec("10000"), installments, 1)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].InstallmentNo)
	assert.Equal(t, 2, rows[1].InstallmentNo)
	assert.True(t, rows[1].Balance.Equal(dec("9200")))
}

func TestBuildStatement_EmptyEmitsSyntheticRow(t *testing.T) {
	// GIVEN: tca=5000 with no installments
	// WHEN: Building the statement
	// THEN: Exactly one synthetic row, full tca as balance, everything else empty

	rows := ledger.BuildStatement(dec("5000"), nil, 1)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.True(t, row.Balance.Equal(dec("5000")))
	assert.Equal(t, 0, row.InstallmentNo)
	assert.True(t, row.Amount.IsZero())
	assert.Empty(t, row.Date)
	assert.Empty(t, row.UTR)
	assert.Equal(t, 1, row.Seq)
}

func TestBuildStatement_NonIncreasingBalances(t *testing.T) {
	installments := []ledger.Installment{
		installment(1, "100", "05/01/2025"),
		installment(2, "250", "01/01/2025"),
		installment(3, "75", "20/01/2025"),
		installment(4, "300", "12/01/2025"),
	}
	rows := ledger.BuildStatement(dec("1000"), installments, 1)

	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].Balance.LessThanOrEqual(rows[i-1].Balance),
			"balance increased at row %d: %s -> %s", i, rows[i-1].Balance, rows[i].Balance)
	}
	assert.True(t, rows[len(rows)-1].Balance.Equal(dec("275")),
		"final balance must equal tca minus total paid")
}

func TestBuildStatement_StableTieOrder(t *testing.T) {
	// Same-day installments keep input order.
	installments := []ledger.Installment{
		installment(1, "100", "10/01/2025"),
		installment(2, "200", "10/01/2025"),
		installment(3, "300", "10/01/2025"),
	}
	rows := ledger.BuildStatement(dec("1000"), installments, 1)

	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i+1, row.InstallmentNo)
	}
}

func TestBuildStatement_UnparseableDatesKeptFirst(t *testing.T) {
	// A statement accounts for everything recorded: an installment with a
	// malformed date sorts ahead of dated ones instead of being dropped.
	installments := []ledger.Installment{
		installment(1, "100", "05/01/2025"),
		installment(2, "200", "garbage"),
	}
	rows := ledger.BuildStatement(dec("1000"), installments, 1)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].InstallmentNo, "undated installment sorts first")
	assert.True(t, rows[1].Balance.Equal(dec("700")))
}

func TestBuildStatement_FirstSeqThreadsThrough(t *testing.T) {
	// Multi-record exports number lines continuously; the caller passes the
	// next free sequence in.
	rows := ledger.BuildStatement(dec("1000"), []ledger.Installment{
		installment(1, "100", "01/01/2025"),
		installment(2, "200", "02/01/2025"),
	}, 7)

	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].Seq)
	assert.Equal(t, 8, rows[1].Seq)

	synthetic := ledger.BuildStatement(dec("500"), nil, 9)
	require.Len(t, synthetic, 1)
	assert.Equal(t, 9, synthetic[0].Seq)
}

func TestBuildStatement_DoesNotMutateInput(t *testing.T) {
	installments := []ledger.Installment{
		installment(2, "300", "15/01/2025"),
		installment(1, "500", "01/01/2025"),
	}
	ledger.BuildStatement(dec("10000"), installments, 1)
	assert.Equal(t, 2, installments[0].Number, "input slice order must be untouched")
}
