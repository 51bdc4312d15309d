// Package memory provides an in-memory ledger.Store (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brandreach/budget-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	snap ledger.Snapshot
}

func New() *Memory {
	return &Memory{}
}

// Seed replaces the whole universe. Test fixtures load through here.
func (m *Memory) Seed(snap ledger.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = copySnapshot(snap)
}

// Snapshot returns a deep copy; writes after this call never show up in it.
func (m *Memory) Snapshot(_ context.Context) (ledger.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySnapshot(m.snap), nil
}

func (m *Memory) CreateRetailer(_ context.Context, r ledger.Retailer) (ledger.Retailer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	for i := range m.snap.Retailers {
		if m.snap.Retailers[i].ID == r.ID {
			m.snap.Retailers[i] = r
			return r, nil
		}
	}
	m.snap.Retailers = append(m.snap.Retailers, r)
	return r, nil
}

func (m *Memory) CreateCampaign(_ context.Context, c ledger.Campaign) (ledger.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range m.snap.Campaigns {
		if m.snap.Campaigns[i].ID == c.ID {
			m.snap.Campaigns[i] = c
			return c, nil
		}
	}
	m.snap.Campaigns = append(m.snap.Campaigns, c)
	return c, nil
}

func (m *Memory) SetCampaignBudget(_ context.Context, retailerID, campaignID string, tca decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.RetailerByID(retailerID) == nil {
		return ledger.ErrRetailerNotFound
	}
	if m.snap.CampaignByID(campaignID) == nil {
		return ledger.ErrCampaignNotFound
	}

	budget := m.budgetFor(retailerID)
	if budget == nil {
		m.snap.Budgets = append(m.snap.Budgets, ledger.Budget{
			ID:       uuid.NewString(),
			Retailer: ledger.NewRef(retailerID),
		})
		budget = &m.snap.Budgets[len(m.snap.Budgets)-1]
	}

	for i := range budget.Budgets {
		if budget.Budgets[i].Campaign.ID == campaignID {
			budget.Budgets[i].TCA = tca
			budget.Budgets[i].RefreshTotals()
			return nil
		}
	}
	cb := ledger.CampaignBudget{Campaign: ledger.NewRef(campaignID), TCA: tca}
	cb.RefreshTotals()
	budget.Budgets = append(budget.Budgets, cb)
	return nil
}

func (m *Memory) AddInstallment(_ context.Context, retailerID, campaignID string, ins ledger.Installment) (ledger.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, err := m.campaignBudget(retailerID, campaignID)
	if err != nil {
		return ledger.Installment{}, err
	}
	if err := cb.ValidateInstallment(retailerID, ins); err != nil {
		return ledger.Installment{}, err
	}

	ins.Number = ledger.NextInstallmentNo(cb.Installments)
	cb.Installments = append(cb.Installments, ins)
	cb.RefreshTotals()
	return ins, nil
}

func (m *Memory) DeleteInstallment(_ context.Context, retailerID, campaignID string, number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, err := m.campaignBudget(retailerID, campaignID)
	if err != nil {
		return err
	}
	for i, ins := range cb.Installments {
		if ins.Number == number {
			cb.Installments = append(cb.Installments[:i], cb.Installments[i+1:]...)
			cb.RefreshTotals()
			return nil
		}
	}
	return ledger.ErrInstallmentNotFound
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// HELPERS
// =============================================================================

// budgetFor returns a pointer into the live slice; callers hold the lock.
func (m *Memory) budgetFor(retailerID string) *ledger.Budget {
	for i := range m.snap.Budgets {
		if m.snap.Budgets[i].Retailer.ID == retailerID {
			return &m.snap.Budgets[i]
		}
	}
	return nil
}

func (m *Memory) campaignBudget(retailerID, campaignID string) (*ledger.CampaignBudget, error) {
	budget := m.budgetFor(retailerID)
	if budget == nil {
		return nil, ledger.ErrBudgetNotFound
	}
	for i := range budget.Budgets {
		if budget.Budgets[i].Campaign.ID == campaignID {
			return &budget.Budgets[i], nil
		}
	}
	return nil, ledger.ErrBudgetNotFound
}

func copySnapshot(snap ledger.Snapshot) ledger.Snapshot {
	out := ledger.Snapshot{
		Campaigns: make([]ledger.Campaign, len(snap.Campaigns)),
		Retailers: make([]ledger.Retailer, len(snap.Retailers)),
		Budgets:   make([]ledger.Budget, len(snap.Budgets)),
	}
	for i, c := range snap.Campaigns {
		c.States = append([]string(nil), c.States...)
		c.Retailers = append([]ledger.CampaignRetailer(nil), c.Retailers...)
		out.Campaigns[i] = c
	}
	for i, r := range snap.Retailers {
		r.Campaigns = append([]ledger.Ref(nil), r.Campaigns...)
		out.Retailers[i] = r
	}
	for i, b := range snap.Budgets {
		budgets := make([]ledger.CampaignBudget, len(b.Budgets))
		for j, cb := range b.Budgets {
			cb.Installments = append([]ledger.Installment(nil), cb.Installments...)
			budgets[j] = cb
		}
		b.Budgets = budgets
		out.Budgets[i] = b
	}
	return out
}
