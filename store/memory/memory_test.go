package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandreach/budget-engine/ledger"
	"github.com/brandreach/budget-engine/store/memory"
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

// newSeededStore creates a store with one retailer, one campaign and an
// empty budget pair at tca=1000.
func newSeededStore(t *testing.T) *memory.Memory {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	_, err := store.CreateRetailer(ctx, ledger.Retailer{
		ID: "ret-1", UniqueID: "OUT-001", ShopName: "Corner Store",
		Address:   ledger.Address{State: "Delhi"},
		Campaigns: []ledger.Ref{ledger.NewRef("camp-a")},
	})
	require.NoError(t, err)

	_, err = store.CreateCampaign(ctx, ledger.Campaign{
		ID: "camp-a", Name: "Summer Push", Client: "Acme", IsActive: true,
		States: []string{"Delhi"},
	})
	require.NoError(t, err)

	require.NoError(t, store.SetCampaignBudget(ctx, "ret-1", "camp-a", dec("1000")))
	return store
}

func pairBudget(t *testing.T, snap ledger.Snapshot) ledger.CampaignBudget {
	t.Helper()
	budget := snap.BudgetFor("ret-1")
	require.NotNil(t, budget)
	require.Len(t, budget.Budgets, 1)
	return budget.Budgets[0]
}

// =============================================================================
// SNAPSHOT ISOLATION
// =============================================================================

func TestMemory_SnapshotIsolation(t *testing.T) {
	// GIVEN: A snapshot taken before a write
	// WHEN: An installment is recorded afterwards
	// THEN: The earlier snapshot does not change

	store := newSeededStore(t)
	ctx := context.Background()

	before, err := store.Snapshot(ctx)
	require.NoError(t, err)

	_, err = store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("100"), Date: "01/01/2025", UTR: "UTR-1",
	})
	require.NoError(t, err)

	assert.Empty(t, pairBudget(t, before).Installments, "old snapshot mutated by later write")

	after, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, pairBudget(t, after).Installments, 1)
}

func TestMemory_SeedCopiesInput(t *testing.T) {
	store := memory.New()
	seed := ledger.Snapshot{
		Retailers: []ledger.Retailer{{ID: "ret-1", ShopName: "Original"}},
	}
	store.Seed(seed)

	seed.Retailers[0].ShopName = "Mutated"

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Original", snap.Retailers[0].ShopName)
}

// =============================================================================
// WRITE-SIDE INVARIANTS
// =============================================================================

func TestMemory_InstallmentNumbering(t *testing.T) {
	// Numbers are max+1 and never reused after a delete.
	store := newSeededStore(t)
	ctx := context.Background()

	add := func(amount string) ledger.Installment {
		ins, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
			Amount: dec(amount), Date: "01/01/2025", UTR: "UTR",
		})
		require.NoError(t, err)
		return ins
	}

	assert.Equal(t, 1, add("100").Number)
	assert.Equal(t, 2, add("100").Number)
	require.NoError(t, store.DeleteInstallment(ctx, "ret-1", "camp-a", 2))
	assert.Equal(t, 3, add("100").Number, "deleted number must not be reused")
}

func TestMemory_CapEnforced(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("900"), Date: "01/01/2025", UTR: "UTR-1",
	})
	require.NoError(t, err)

	_, err = store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("200"), Date: "02/01/2025", UTR: "UTR-2",
	})
	assert.ErrorIs(t, err, ledger.ErrBudgetExceeded)

	// The rejected write must leave no trace.
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, pairBudget(t, snap).Installments, 1)
}

func TestMemory_CachesRefreshedOnWrite(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("400"), Date: "01/01/2025", UTR: "UTR-1",
	})
	require.NoError(t, err)

	cb := func() ledger.CampaignBudget {
		snap, err := store.Snapshot(ctx)
		require.NoError(t, err)
		return pairBudget(t, snap)
	}

	got := cb()
	assert.True(t, got.Paid.Equal(dec("400")))
	assert.True(t, got.Pending.Equal(dec("600")))

	// Raising the TCA refreshes pending against the kept installments.
	require.NoError(t, store.SetCampaignBudget(ctx, "ret-1", "camp-a", dec("2000")))
	got = cb()
	require.Len(t, got.Installments, 1, "installments survive a tca update")
	assert.True(t, got.Pending.Equal(dec("1600")))
}

// =============================================================================
// NOT-FOUND PATHS
// =============================================================================

func TestMemory_NotFoundErrors(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	err := store.SetCampaignBudget(ctx, "ret-gone", "camp-a", dec("1"))
	assert.ErrorIs(t, err, ledger.ErrRetailerNotFound)

	err = store.SetCampaignBudget(ctx, "ret-1", "camp-gone", dec("1"))
	assert.ErrorIs(t, err, ledger.ErrCampaignNotFound)

	_, err = store.AddInstallment(ctx, "ret-1", "camp-gone", ledger.Installment{Amount: dec("1"), Date: "01/01/2025"})
	assert.ErrorIs(t, err, ledger.ErrBudgetNotFound)

	err = store.DeleteInstallment(ctx, "ret-1", "camp-a", 42)
	assert.ErrorIs(t, err, ledger.ErrInstallmentNotFound)
}

func TestMemory_CreateMintsIDs(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	r, err := store.CreateRetailer(ctx, ledger.Retailer{ShopName: "No ID"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	c, err := store.CreateCampaign(ctx, ledger.Campaign{Name: "No ID"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}

func TestMemory_CreateReplacesById(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	_, err := store.CreateRetailer(ctx, ledger.Retailer{ID: "ret-1", UniqueID: "OUT-001", ShopName: "Renamed"})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Retailers, 1)
	assert.Equal(t, "Renamed", snap.Retailers[0].ShopName)
}

func TestMemory_ImplementsStore(t *testing.T) {
	var _ ledger.Store = memory.New()
}

func TestMemory_ErrorsAreComparable(t *testing.T) {
	// The API layer maps store errors by errors.Is; keep the chains intact.
	store := newSeededStore(t)
	ctx := context.Background()

	_, err := store.AddInstallment(ctx, "ret-1", "camp-a", ledger.Installment{
		Amount: dec("1001"), Date: "01/01/2025",
	})
	var exceeded *ledger.BudgetExceededError
	assert.True(t, errors.As(err, &exceeded))
	assert.True(t, exceeded.TCA.Equal(dec("1000")))
}
