/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine
  types from the wire contract. Field names follow the upstream document
  store's conventions (uniqueId, tca, cPaid, installmentNo, ...) so existing
  screens keep working against this backend.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the shared
  validator instance before touching the store.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/brandreach/budget-engine/ledger"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RowDTO is one ledger table row under the current filter.
type RowDTO struct {
	RetailerID   string  `json:"retailerId"`
	OutletCode   string  `json:"outletCode"`
	ShopName     string  `json:"shopName"`
	State        string  `json:"state"`
	CampaignID   string  `json:"campaignId"`
	CampaignName string  `json:"campaignName"`
	Client       string  `json:"client"`
	TotalBudget  float64 `json:"totalBudget"`
	Paid         float64 `json:"paid"`
	Pending      float64 `json:"pending"`
	LastPayment  string  `json:"lastPaymentDate"`
}

// SummaryDTO feeds the three summary cards.
type SummaryDTO struct {
	TotalBudget  float64 `json:"totalBudget"`
	TotalPaid    float64 `json:"totalPaid"`
	TotalPending float64 `json:"totalPending"`
}

// PaginationDTO describes the returned page.
type PaginationDTO struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// LedgerResponse is the full table payload: rows, summary, page metadata.
type LedgerResponse struct {
	Rows       []RowDTO      `json:"rows"`
	Summary    SummaryDTO    `json:"summary"`
	Pagination PaginationDTO `json:"pagination"`
}

// CampaignOptionDTO is a campaign dropdown entry.
type CampaignOptionDTO struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Client   string `json:"client"`
	IsActive bool   `json:"isActive"`
}

// RetailerOptionDTO is a retailer dropdown entry.
type RetailerOptionDTO struct {
	ID       string `json:"_id"`
	UniqueID string `json:"uniqueId"`
	ShopName string `json:"shopName"`
	State    string `json:"state"`
}

// SelectionDTO echoes the (possibly auto-completed) selection back.
type SelectionDTO struct {
	State    string `json:"state,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Retailer string `json:"retailer,omitempty"`
}

// OptionsResponse carries the three mutually consistent dropdown sets.
type OptionsResponse struct {
	States    []string            `json:"states"`
	Campaigns []CampaignOptionDTO `json:"campaigns"`
	Retailers []RetailerOptionDTO `json:"retailers"`
	Selection SelectionDTO        `json:"selection"`
}

// InstallmentDTO is one recorded payment.
type InstallmentDTO struct {
	Number  int     `json:"installmentNo"`
	Amount  float64 `json:"installmentAmount"`
	Date    string  `json:"dateOfInstallment"`
	UTR     string  `json:"utrNumber"`
	Remarks string  `json:"remarks,omitempty"`
}

// CampaignBudgetDTO is the budget sub-record for one pair.
type CampaignBudgetDTO struct {
	Campaign     string           `json:"campaign"`
	TCA          float64          `json:"tca"`
	Paid         float64          `json:"cPaid"`
	Pending      float64          `json:"cPending"`
	Installments []InstallmentDTO `json:"installments"`
}

// BudgetDTO is one retailer's budget record.
type BudgetDTO struct {
	Retailer string              `json:"retailer"`
	Budgets  []CampaignBudgetDTO `json:"budgets"`
}

// StatementRowDTO is one statement line (JSON form of the export).
type StatementRowDTO struct {
	Seq           int     `json:"srNo"`
	InstallmentNo int     `json:"installmentNo,omitempty"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date,omitempty"`
	UTR           string  `json:"utrNumber,omitempty"`
	Remarks       string  `json:"remarks,omitempty"`
	Balance       float64 `json:"balance"`
}

// RecordStatementDTO is one row's statement block.
type RecordStatementDTO struct {
	Row   RowDTO            `json:"row"`
	Lines []StatementRowDTO `json:"lines"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateRetailerRequest creates an outlet record.
type CreateRetailerRequest struct {
	UniqueID  string   `json:"uniqueId" validate:"required"`
	ShopName  string   `json:"shopName" validate:"required"`
	Line      string   `json:"line"`
	City      string   `json:"city"`
	State     string   `json:"state" validate:"required"`
	Campaigns []string `json:"campaigns"` // assigned campaign ids
}

// CreateCampaignRequest creates a campaign record.
type CreateCampaignRequest struct {
	Name     string   `json:"name" validate:"required"`
	Client   string   `json:"client" validate:"required"`
	IsActive bool     `json:"isActive"`
	States   []string `json:"states" validate:"required,min=1,dive,required"`
}

// SetBudgetRequest sets the TCA for a (retailer, campaign) pair.
type SetBudgetRequest struct {
	TCA float64 `json:"tca" validate:"gte=0"`
}

// AddInstallmentRequest records a payment. The installment number is
// assigned server-side and must not be supplied.
type AddInstallmentRequest struct {
	Amount  float64 `json:"installmentAmount" validate:"required,gt=0"`
	Date    string  `json:"dateOfInstallment" validate:"required"`
	UTR     string  `json:"utrNumber" validate:"required"`
	Remarks string  `json:"remarks"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRowDTO(row ledger.Row) RowDTO {
	return RowDTO{
		RetailerID:   row.RetailerID,
		OutletCode:   row.OutletCode,
		ShopName:     row.ShopName,
		State:        row.State,
		CampaignID:   row.CampaignID,
		CampaignName: row.CampaignName,
		Client:       row.Client,
		TotalBudget:  row.TCA.InexactFloat64(),
		Paid:         row.Paid.InexactFloat64(),
		Pending:      row.Pending.InexactFloat64(),
		LastPayment:  row.LastPayment,
	}
}

func toRowDTOs(rows []ledger.Row) []RowDTO {
	dtos := make([]RowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toRowDTO(row)
	}
	return dtos
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	return SummaryDTO{
		TotalBudget:  s.TotalBudget.InexactFloat64(),
		TotalPaid:    s.TotalPaid.InexactFloat64(),
		TotalPending: s.TotalPending.InexactFloat64(),
	}
}

func toOptionsResponse(opts ledger.Options, sel ledger.Selection) OptionsResponse {
	resp := OptionsResponse{
		States:    opts.States,
		Campaigns: make([]CampaignOptionDTO, len(opts.Campaigns)),
		Retailers: make([]RetailerOptionDTO, len(opts.Retailers)),
		Selection: SelectionDTO{
			State:    sel.State,
			Campaign: sel.CampaignID,
			Retailer: sel.RetailerID,
		},
	}
	if resp.States == nil {
		resp.States = []string{}
	}
	for i, c := range opts.Campaigns {
		resp.Campaigns[i] = CampaignOptionDTO{ID: c.ID, Name: c.Name, Client: c.Client, IsActive: c.IsActive}
	}
	for i, r := range opts.Retailers {
		resp.Retailers[i] = RetailerOptionDTO{ID: r.ID, UniqueID: r.UniqueID, ShopName: r.ShopName, State: r.Address.State}
	}
	return resp
}

func toInstallmentDTO(ins ledger.Installment) InstallmentDTO {
	return InstallmentDTO{
		Number:  ins.Number,
		Amount:  ins.Amount.InexactFloat64(),
		Date:    ins.Date,
		UTR:     ins.UTR,
		Remarks: ins.Remarks,
	}
}

func toBudgetDTO(b ledger.Budget) BudgetDTO {
	dto := BudgetDTO{Retailer: b.Retailer.ID, Budgets: make([]CampaignBudgetDTO, len(b.Budgets))}
	for i, cb := range b.Budgets {
		installments := make([]InstallmentDTO, len(cb.Installments))
		for j, ins := range cb.Installments {
			installments[j] = toInstallmentDTO(ins)
		}
		dto.Budgets[i] = CampaignBudgetDTO{
			Campaign:     cb.Campaign.ID,
			TCA:          cb.TCA.InexactFloat64(),
			Paid:         cb.Paid.InexactFloat64(),
			Pending:      cb.Pending.InexactFloat64(),
			Installments: installments,
		}
	}
	return dto
}

func toStatementRowDTO(line ledger.StatementRow) StatementRowDTO {
	return StatementRowDTO{
		Seq:           line.Seq,
		InstallmentNo: line.InstallmentNo,
		Amount:        line.Amount.InexactFloat64(),
		Date:          line.Date,
		UTR:           line.UTR,
		Remarks:       line.Remarks,
		Balance:       line.Balance.InexactFloat64(),
	}
}
