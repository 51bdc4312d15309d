package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandreach/budget-engine/ledger"
	"github.com/brandreach/budget-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedPair(t *testing.T, store *sqlite.Store, tca string) {
	t.Helper()
	ctx := context.Background()

	_, err := store.CreateRetailer(ctx, ledger.Retailer{
		ID: "ret-1", UniqueID: "OUT-001", ShopName: "Corner Store",
		Address:   ledger.Address{Line: "12 Market Rd", City: "New Delhi", State: "Delhi"},
		Campaigns: []ledger.Ref{ledger.NewRef("camp-a")},
	})
	require.NoError(t, err)

	_, err = store.CreateCampaign(ctx, ledger.Campaign{
		ID: "camp-a", Name: "Summer Push", Client: "Acme", IsActive: true,
		States: []string{"Delhi", "Punjab"},
	})
	require.NoError(t, err)

	require.NoError(t, store.SetCampaignBudget(ctx, "ret-1", "camp-a", dec(tca)))
}

// =============================================================================
// ROUND-TRIP TESTS
// =============================================================================

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	// GIVEN: A seeded pair with one installment
	// WHEN: Loading a snapshot
	// THEN: Every field survives, including the JSON-stored refs and address

	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("250"), Date: "15/01/2025", UTR: "UTR-9", Remarks: "first tranche",
	})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Retailers, 1)
	r := snap.Retailers[0]
	assert.Equal(t, "OUT-001", r.UniqueID)
	assert.Equal(t, ledger.Address{Line: "12 Market Rd", City: "New Delhi", State: "Delhi"}, r.Address)
	require.Len(t, r.Campaigns, 1)
	assert.Equal(t, "camp-a", r.Campaigns[0].ID)

	require.Len(t, snap.Campaigns, 1)
	assert.Equal(t, []string{"Delhi", "Punjab"}, snap.Campaigns[0].States)
	assert.True(t, snap.Campaigns[0].IsActive)

	budget := snap.BudgetFor("ret-1")
	require.NotNil(t, budget)
	require.Len(t, budget.Budgets, 1)
	cb := budget.Budgets[0]
	assert.True(t, cb.TCA.Equal(dec("1000")))
	require.Len(t, cb.Installments, 1)
	ins := cb.Installments[0]
	assert.Equal(t, 1, ins.Number)
	assert.True(t, ins.Amount.Equal(dec("250")))
	assert.Equal(t, "15/01/2025", ins.Date)
	assert.Equal(t, "UTR-9", ins.UTR)
	assert.Equal(t, "first tranche", ins.Remarks)
}

func TestSQLite_SnapshotRecomputesCaches(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("400"), Date: "01/01/2025", UTR: "UTR-1",
	})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	cb := snap.BudgetFor("ret-1").Budgets[0]
	assert.True(t, cb.Paid.Equal(dec("400")))
	assert.True(t, cb.Pending.Equal(dec("600")))
}

func TestSQLite_FeedsEngine(t *testing.T) {
	// The loaded snapshot plugs straight into the reconciliation pipeline.
	store := newTestStore(t)
	seedPair(t, store, "10000")
	ctx := context.Background()

	for _, p := range []struct{ amount, date string }{
		{"500", "01/01/2025"},
		{"300", "15-01-2025"},
	} {
		_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
			Amount: dec(p.amount), Date: p.date, UTR: "UTR",
		})
		require.NoError(t, err)
	}

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)

	rows := ledger.BuildRows(snap, ledger.Selection{}, ledger.DateWindow{}, ledger.AdminScope)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Paid.Equal(dec("800")))
	assert.True(t, rows[0].Pending.Equal(dec("9200")))
}

// =============================================================================
// WRITE-SIDE INVARIANTS
// =============================================================================

func TestSQLite_InstallmentNumbering(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	add := func() ledger.Installment {
		ins, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
			Amount: dec("10"), Date: "01/01/2025", UTR: "UTR",
		})
		require.NoError(t, err)
		return ins
	}

	assert.Equal(t, 1, add().Number)
	assert.Equal(t, 2, add().Number)
	require.NoError(t, store.DeleteInstallment(ctx, "ret-1", "camp-a", 2))
	assert.Equal(t, 3, add().Number, "deleted number must not be reused")
}

func TestSQLite_CapEnforcedInTransaction(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("900"), Date: "01/01/2025", UTR: "UTR-1",
	})
	require.NoError(t, err)

	_, err = store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("101"), Date: "02/01/2025", UTR: "UTR-2",
	})
	assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.BudgetFor("ret-1").Budgets[0].Installments, 1,
		"rejected write must be rolled back")
}

func TestSQLite_SetBudgetUpsert(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("100"), Date: "01/01/2025", UTR: "UTR",
	})
	require.NoError(t, err)

	// Raising the target keeps the installments.
	require.NoError(t, store.SetCampaignBudget(ctx, "ret-1", "camp-a", dec("5000")))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	cb := snap.BudgetFor("ret-1").Budgets[0]
	assert.True(t, cb.TCA.Equal(dec("5000")))
	assert.Len(t, cb.Installments, 1)
	assert.True(t, cb.Pending.Equal(dec("4900")))
}

func TestSQLite_NotFoundErrors(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	assert.ErrorIs(t, store.SetCampaignBudget(ctx, "ret-gone", "camp-a", dec("1")), ledger.ErrRetailerNotFound)
	assert.ErrorIs(t, store.SetCampaignBudget(ctx, "ret-1", "camp-gone", dec("1")), ledger.ErrCampaignNotFound)

	_, err := store.AddInstallment(ctx, "ret-1", "camp-gone", ledger.Installment{Amount: dec("1"), Date: "01/01/2025"})
	assert.ErrorIs(t, err, ledger.ErrBudgetNotFound)

	assert.ErrorIs(t, store.DeleteInstallment(ctx, "ret-1", "camp-a", 42), ledger.ErrInstallmentNotFound)
}

func TestSQLite_CreateUpsertsById(t *testing.T) {
	store := newTestStore(t)
	seedPair(t, store, "1000")
	ctx := context.Background()

	_, err := store.CreateCampaign(ctx, ledger.Campaign{
		ID: "camp-a", Name: "Renamed Push", Client: "Acme", IsActive: false,
		States: []string{"Goa"},
	})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Campaigns, 1)
	assert.Equal(t, "Renamed Push", snap.Campaigns[0].Name)
	assert.False(t, snap.Campaigns[0].IsActive)
	assert.Equal(t, []string{"Goa"}, snap.Campaigns[0].States)
}

func TestSQLite_EmptyDatabase(t *testing.T) {
	store := newTestStore(t)
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Retailers)
	assert.Empty(t, snap.Campaigns)
	assert.Empty(t, snap.Budgets)
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ ledger.Store = newTestStore(t)
}
