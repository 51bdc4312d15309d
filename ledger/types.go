/*
Package ledger provides the budget reconciliation engine.

PURPOSE:
  This package contains the types and algorithms that turn a snapshot of
  retailers, campaigns, and budget records into a consistent ledger view:
  per-pair paid/pending figures under a date filter, running-balance
  statements, cascading filter options, and portfolio-wide summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Ref: A reference that the upstream document store returns either as a
    bare id string or as a populated object carrying "_id"
  - Retailer / Campaign: The universe the ledger resolves against
  - Budget / CampaignBudget / Installment: The records being reconciled
  - Snapshot: The full in-memory universe one computation runs over

DESIGN PRINCIPLES:
  1. Purity: Every computation is a function of its inputs; nothing here
     performs I/O or mutates a shared structure
  2. Precision: Uses decimal.Decimal for all money amounts
  3. Totality: Malformed dates and dangling references never raise; they
     fail the match and the record is excluded
  4. Recompute-from-scratch: Filter changes re-run the whole pipeline over
     the same snapshot rather than patching prior output

USAGE:
  snap, _ := store.Snapshot(ctx)
  rows := ledger.BuildRows(snap, sel, window, ledger.AdminScope)
  summary := ledger.Aggregate(rows)

SEE ALSO:
  - date.go: Date parsing and window membership
  - reconcile.go: Window filtering and ledger row construction
  - statement.go: Running-balance statements
  - cascade.go: Mutually-narrowing filter option resolution
  - portfolio.go: Summary totals and pagination
*/
package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REF - Bare id or populated object
// =============================================================================

// Ref is a reference field from the upstream store. Depending on whether the
// endpoint expanded the relation, the JSON value is either a bare id string
// or an object whose "_id" field carries the id. Both decode to the same Ref,
// so two references are always compared on normalized ids.
type Ref struct {
	ID string
}

// NewRef wraps an id string.
func NewRef(id string) Ref { return Ref{ID: id} }

func (r Ref) IsZero() bool           { return r.ID == "" }
func (r Ref) String() string         { return r.ID }
func (r Ref) Matches(other Ref) bool { return r.ID != "" && r.ID == other.ID }

// UnmarshalJSON accepts "id", {"_id": "id", ...}, or null.
// Any other shape resolves to the zero Ref; comparisons against it fail.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}
	var populated struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &populated); err == nil {
		r.ID = populated.ID
		return nil
	}
	r.ID = ""
	return nil
}

// MarshalJSON always emits the bare id form.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// NormalizeID resolves a loosely-typed reference value to a canonical id
// string. Handles the shapes that show up when upstream payloads are decoded
// into interface{} values. Idempotent: feeding the result back in returns the
// same id.
func NormalizeID(ref any) string {
	switch v := ref.(type) {
	case nil:
		return ""
	case string:
		return v
	case Ref:
		return v.ID
	case *Ref:
		if v == nil {
			return ""
		}
		return v.ID
	case map[string]any:
		id, _ := v["_id"].(string)
		return id
	}
	return ""
}

// =============================================================================
// RETAILER - Outlet assigned to campaigns
// =============================================================================

// Address holds the retailer's postal address. Only State participates in
// filtering; the rest is carried through for display.
type Address struct {
	Line  string `json:"line,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state"`
}

// Retailer is an outlet record. Owned by the retailer-management subsystem;
// immutable from the engine's perspective.
type Retailer struct {
	ID        string  `json:"_id"`
	UniqueID  string  `json:"uniqueId"`
	ShopName  string  `json:"shopName"`
	Address   Address `json:"address"`
	Campaigns []Ref   `json:"campaigns"` // assigned campaigns, bare or populated
}

// AssignedTo reports whether the retailer's assigned-campaign list contains
// the campaign. References are normalized before comparison.
func (r Retailer) AssignedTo(campaignID string) bool {
	if campaignID == "" {
		return false
	}
	for _, c := range r.Campaigns {
		if c.ID == campaignID {
			return true
		}
	}
	return false
}

// =============================================================================
// CAMPAIGN - Client campaign scoped to states
// =============================================================================

// AssignmentStatus is the retailer's acceptance state on a campaign.
// Carried through for the presentation layer; row matching does not use it.
type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentRejected AssignmentStatus = "rejected"
)

// CampaignRetailer pairs a retailer reference with its assignment status.
type CampaignRetailer struct {
	Retailer Ref              `json:"retailer"`
	Status   AssignmentStatus `json:"status"`
}

// Campaign is a client campaign. Owned externally.
//
// State scope comes in two historical shapes: a States list, or a single
// legacy State field on records written before multi-state support. InState
// checks both so old records keep filtering correctly.
type Campaign struct {
	ID        string             `json:"_id"`
	Name      string             `json:"name"`
	Client    string             `json:"client"`
	IsActive  bool               `json:"isActive"`
	States    []string           `json:"states,omitempty"`
	State     string             `json:"state,omitempty"` // legacy single-state records
	Retailers []CampaignRetailer `json:"retailers,omitempty"`
}

// InState reports whether the campaign is scoped to the given state.
func (c Campaign) InState(state string) bool {
	if state == "" {
		return false
	}
	for _, s := range c.States {
		if s == state {
			return true
		}
	}
	return c.State == state
}

// ScopeStates returns the campaign's state scope in a single shape.
func (c Campaign) ScopeStates() []string {
	if len(c.States) > 0 {
		return c.States
	}
	if c.State != "" {
		return []string{c.State}
	}
	return nil
}

// =============================================================================
// BUDGET - Per-retailer budget with per-campaign sub-records
// =============================================================================

// Installment is a single recorded payment against a campaign budget.
// DateOfInstallment keeps its stored textual form; parsing happens at
// comparison time (see date.go) because two entry paths produce two formats.
type Installment struct {
	Number  int             `json:"installmentNo"`
	Amount  decimal.Decimal `json:"installmentAmount"`
	Date    string          `json:"dateOfInstallment"`
	UTR     string          `json:"utrNumber"`
	Remarks string          `json:"remarks,omitempty"`
}

// CampaignBudget is the budget sub-record for one (retailer, campaign) pair.
//
// Paid and Pending are server-maintained caches of the UNFILTERED installment
// sum. The engine never does arithmetic on them: date-filtered views recompute
// from Installments (see Reconcile), and unfiltered views get the same
// recomputation, which agrees with the cache whenever the cache is honest.
type CampaignBudget struct {
	Campaign     Ref             `json:"campaign"`
	TCA          decimal.Decimal `json:"tca"` // total committed amount
	Paid         decimal.Decimal `json:"cPaid"`
	Pending      decimal.Decimal `json:"cPending"`
	Installments []Installment   `json:"installments"`
}

// Budget holds all campaign budgets for one retailer.
type Budget struct {
	ID       string           `json:"_id,omitempty"`
	Retailer Ref              `json:"retailer"`
	Budgets  []CampaignBudget `json:"budgets"`
}

// =============================================================================
// SNAPSHOT - The in-memory universe one computation runs over
// =============================================================================

// Snapshot is everything the engine needs, fetched once by the data layer.
// The engine never mutates it; a refetch simply re-invokes the pipeline with
// a new Snapshot.
type Snapshot struct {
	Campaigns []Campaign
	Retailers []Retailer
	Budgets   []Budget
}

// CampaignByID returns the campaign with the given id, or nil.
func (s Snapshot) CampaignByID(id string) *Campaign {
	for i := range s.Campaigns {
		if s.Campaigns[i].ID == id {
			return &s.Campaigns[i]
		}
	}
	return nil
}

// RetailerByID returns the retailer with the given id, or nil.
func (s Snapshot) RetailerByID(id string) *Retailer {
	for i := range s.Retailers {
		if s.Retailers[i].ID == id {
			return &s.Retailers[i]
		}
	}
	return nil
}

// BudgetFor returns the budget record for a retailer, or nil.
func (s Snapshot) BudgetFor(retailerID string) *Budget {
	for i := range s.Budgets {
		if s.Budgets[i].Retailer.ID == retailerID {
			return &s.Budgets[i]
		}
	}
	return nil
}
