/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists the retailer/campaign/budget universe and enforces the write-side
  invariants (installment numbering, TCA cap) inside database transactions.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  retailers:        Outlet records; address and assigned campaigns as JSON
  campaigns:        Campaign records; state scope and assignments as JSON
  campaign_budgets: One row per (retailer, campaign) budget target
  installments:     Recorded payments, numbered per campaign budget

  The JSON columns mirror the document shapes the upstream API serves, so a
  loaded snapshot round-trips references (bare id vs populated object)
  through the same Ref decoding the engine applies everywhere else.

WRITE-SIDE RULES:
  AddInstallment assigns max(existing number)+1 and rejects amounts that
  would push the committed sum past TCA, both inside one transaction.
  Deleting an installment never frees its number for reuse.

WAL MODE:
  SQLite is opened with WAL so snapshot reads don't block writes.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/budget.go: The shared write-side rules
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/brandreach/budget-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS retailers (
		id TEXT PRIMARY KEY,
		unique_id TEXT NOT NULL,
		shop_name TEXT NOT NULL,
		address_json TEXT NOT NULL,
		campaigns_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		states_json TEXT NOT NULL,
		retailers_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_budgets (
		retailer_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		tca TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (retailer_id, campaign_id)
	);

	CREATE TABLE IF NOT EXISTS installments (
		retailer_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		installment_no INTEGER NOT NULL,
		amount TEXT NOT NULL,
		date_of_installment TEXT NOT NULL,
		utr_number TEXT NOT NULL,
		remarks TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (retailer_id, campaign_id, installment_no)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_pair
		ON installments(retailer_id, campaign_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT - Load the whole universe
// =============================================================================

// Snapshot loads everything. Stored cPaid/cPending caches are recomputed
// from the installment rows on the way out, so they are always a faithful
// summary of the unfiltered list.
func (s *Store) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap ledger.Snapshot
	var err error

	if snap.Retailers, err = s.loadRetailers(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Campaigns, err = s.loadCampaigns(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Budgets, err = s.loadBudgets(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadRetailers(ctx context.Context) ([]ledger.Retailer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, unique_id, shop_name, address_json, campaigns_json FROM retailers ORDER BY shop_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Retailer
	for rows.Next() {
		var r ledger.Retailer
		var addressJSON, campaignsJSON string
		if err := rows.Scan(&r.ID, &r.UniqueID, &r.ShopName, &addressJSON, &campaignsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(addressJSON), &r.Address); err != nil {
			return nil, fmt.Errorf("retailer %s: bad address json: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(campaignsJSON), &r.Campaigns); err != nil {
			return nil, fmt.Errorf("retailer %s: bad campaigns json: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadCampaigns(ctx context.Context) ([]ledger.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, client, is_active, states_json, retailers_json FROM campaigns ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Campaign
	for rows.Next() {
		var c ledger.Campaign
		var active int
		var statesJSON, retailersJSON string
		if err := rows.Scan(&c.ID, &c.Name, &c.Client, &active, &statesJSON, &retailersJSON); err != nil {
			return nil, err
		}
		c.IsActive = active != 0
		if err := json.Unmarshal([]byte(statesJSON), &c.States); err != nil {
			return nil, fmt.Errorf("campaign %s: bad states json: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(retailersJSON), &c.Retailers); err != nil {
			return nil, fmt.Errorf("campaign %s: bad retailers json: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadBudgets(ctx context.Context) ([]ledger.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT retailer_id, campaign_id, tca FROM campaign_budgets ORDER BY retailer_id, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRetailer := make(map[string]*ledger.Budget)
	var order []string
	for rows.Next() {
		var retailerID, campaignID, tca string
		if err := rows.Scan(&retailerID, &campaignID, &tca); err != nil {
			return nil, err
		}
		budget, ok := byRetailer[retailerID]
		if !ok {
			budget = &ledger.Budget{ID: retailerID, Retailer: ledger.NewRef(retailerID)}
			byRetailer[retailerID] = budget
			order = append(order, retailerID)
		}
		budget.Budgets = append(budget.Budgets, ledger.CampaignBudget{
			Campaign: ledger.NewRef(campaignID),
			TCA:      mustDecimal(tca),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachInstallments(ctx, byRetailer); err != nil {
		return nil, err
	}

	out := make([]ledger.Budget, 0, len(order))
	for _, id := range order {
		budget := byRetailer[id]
		for i := range budget.Budgets {
			budget.Budgets[i].RefreshTotals()
		}
		out = append(out, *budget)
	}
	return out, nil
}

func (s *Store) attachInstallments(ctx context.Context, byRetailer map[string]*ledger.Budget) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT retailer_id, campaign_id, installment_no, amount, date_of_installment, utr_number, COALESCE(remarks, '')
		 FROM installments ORDER BY retailer_id, campaign_id, installment_no`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var retailerID, campaignID, amount string
		var ins ledger.Installment
		if err := rows.Scan(&retailerID, &campaignID, &ins.Number, &amount, &ins.Date, &ins.UTR, &ins.Remarks); err != nil {
			return err
		}
		ins.Amount = mustDecimal(amount)

		budget, ok := byRetailer[retailerID]
		if !ok {
			continue // orphan installment row; unresolvable, skip
		}
		for i := range budget.Budgets {
			if budget.Budgets[i].Campaign.ID == campaignID {
				budget.Budgets[i].Installments = append(budget.Budgets[i].Installments, ins)
				break
			}
		}
	}
	return rows.Err()
}

// =============================================================================
// WRITE SIDE
// =============================================================================

func (s *Store) CreateRetailer(ctx context.Context, r ledger.Retailer) (ledger.Retailer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	addressJSON, err := json.Marshal(r.Address)
	if err != nil {
		return ledger.Retailer{}, err
	}
	campaignsJSON, err := json.Marshal(emptyAsList(r.Campaigns))
	if err != nil {
		return ledger.Retailer{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO retailers (id, unique_id, shop_name, address_json, campaigns_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unique_id = excluded.unique_id,
			shop_name = excluded.shop_name,
			address_json = excluded.address_json,
			campaigns_json = excluded.campaigns_json`,
		r.ID, r.UniqueID, r.ShopName, string(addressJSON), string(campaignsJSON), now())
	if err != nil {
		return ledger.Retailer{}, err
	}
	return r, nil
}

func (s *Store) CreateCampaign(ctx context.Context, c ledger.Campaign) (ledger.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	statesJSON, err := json.Marshal(emptyAsList(c.ScopeStates()))
	if err != nil {
		return ledger.Campaign{}, err
	}
	retailersJSON, err := json.Marshal(emptyAsList(c.Retailers))
	if err != nil {
		return ledger.Campaign{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, client, is_active, states_json, retailers_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			is_active = excluded.is_active,
			states_json = excluded.states_json,
			retailers_json = excluded.retailers_json`,
		c.ID, c.Name, c.Client, boolToInt(c.IsActive), string(statesJSON), string(retailersJSON), now())
	if err != nil {
		return ledger.Campaign{}, err
	}
	return c, nil
}

func (s *Store) SetCampaignBudget(ctx context.Context, retailerID, campaignID string, tca decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRow(ctx, `SELECT 1 FROM retailers WHERE id = ?`, retailerID, ledger.ErrRetailerNotFound); err != nil {
		return err
	}
	if err := s.requireRow(ctx, `SELECT 1 FROM campaigns WHERE id = ?`, campaignID, ledger.ErrCampaignNotFound); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_budgets (retailer_id, campaign_id, tca, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(retailer_id, campaign_id) DO UPDATE SET tca = excluded.tca`,
		retailerID, campaignID, tca.String(), now())
	return err
}

func (s *Store) AddInstallment(ctx context.Context, retailerID, campaignID string, ins ledger.Installment) (ledger.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Installment{}, err
	}
	defer tx.Rollback()

	cb, err := loadCampaignBudget(ctx, tx, retailerID, campaignID)
	if err != nil {
		return ledger.Installment{}, err
	}
	if err := cb.ValidateInstallment(retailerID, ins); err != nil {
		return ledger.Installment{}, err
	}

	ins.Number = ledger.NextInstallmentNo(cb.Installments)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO installments (retailer_id, campaign_id, installment_no, amount, date_of_installment, utr_number, remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		retailerID, campaignID, ins.Number, ins.Amount.String(), ins.Date, ins.UTR, ins.Remarks, now())
	if err != nil {
		return ledger.Installment{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Installment{}, err
	}
	return ins, nil
}

func (s *Store) DeleteInstallment(ctx context.Context, retailerID, campaignID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM installments WHERE retailer_id = ? AND campaign_id = ? AND installment_no = ?`,
		retailerID, campaignID, number)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrInstallmentNotFound
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func loadCampaignBudget(ctx context.Context, tx *sql.Tx, retailerID, campaignID string) (ledger.CampaignBudget, error) {
	var tca string
	err := tx.QueryRowContext(ctx,
		`SELECT tca FROM campaign_budgets WHERE retailer_id = ? AND campaign_id = ?`,
		retailerID, campaignID).Scan(&tca)
	if err == sql.ErrNoRows {
		return ledger.CampaignBudget{}, ledger.ErrBudgetNotFound
	}
	if err != nil {
		return ledger.CampaignBudget{}, err
	}

	cb := ledger.CampaignBudget{Campaign: ledger.NewRef(campaignID), TCA: mustDecimal(tca)}

	rows, err := tx.QueryContext(ctx, `
		SELECT installment_no, amount, date_of_installment, utr_number, COALESCE(remarks, '')
		FROM installments WHERE retailer_id = ? AND campaign_id = ? ORDER BY installment_no`,
		retailerID, campaignID)
	if err != nil {
		return ledger.CampaignBudget{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ins ledger.Installment
		var amount string
		if err := rows.Scan(&ins.Number, &amount, &ins.Date, &ins.UTR, &ins.Remarks); err != nil {
			return ledger.CampaignBudget{}, err
		}
		ins.Amount = mustDecimal(amount)
		cb.Installments = append(cb.Installments, ins)
	}
	return cb, rows.Err()
}

func (s *Store) requireRow(ctx context.Context, query, id string, missing error) error {
	var one int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return missing
	}
	return err
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// emptyAsList keeps nil slices as "[]" in stored JSON, matching the upstream
// API shapes the Ref decoding expects.
func emptyAsList[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
