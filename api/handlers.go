/*
handlers.go - HTTP API handlers for the budget ledger

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Ledger:
    GET    /api/ledger                  Filtered rows + summary + pagination
    GET    /api/ledger/options          Cascading filter option sets
    GET    /api/ledger/statement        Statement export (json|csv|xlsx)

  Master data:
    GET    /api/retailers               List retailers
    POST   /api/retailers               Create retailer
    GET    /api/campaigns               List campaigns
    POST   /api/campaigns               Create campaign

  Budgets:
    GET    /api/budgets                 List budget records
    PUT    /api/budgets/{retailerID}/{campaignID}                Set TCA
    POST   /api/budgets/{retailerID}/{campaignID}/installments   Record payment
    DELETE /api/budgets/{retailerID}/{campaignID}/installments/{no}

FILTER PARAMETERS (shared by the ledger endpoints):
  state, campaign, retailer  - cascading selection
  from, to                   - date window bounds (DD/MM/YYYY or dashed)
  client                     - restrict to one client's campaigns

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (reconcile, cascade, statement)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Retailer/campaign/budget/installment not found
  - 409: Budget cap exceeded
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/brandreach/budget-engine/export"
	"github.com/brandreach/budget-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store ledger.Store
	Log   *logrus.Logger

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store ledger.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		Store:    store,
		Log:      log,
		validate: validator.New(),
	}
}

// =============================================================================
// FILTER PARSING
// =============================================================================

// filterParams is the decoded filter query shared by the ledger endpoints.
type filterParams struct {
	sel    ledger.Selection
	window ledger.DateWindow
	scope  ledger.Scope
}

func parseFilters(r *http.Request) filterParams {
	q := r.URL.Query()
	sel := ledger.Selection{}.
		WithState(q.Get("state")).
		WithCampaign(q.Get("campaign")).
		WithRetailer(q.Get("retailer"))

	scope := ledger.AdminScope
	if client := q.Get("client"); client != "" {
		scope = ledger.ClientScope(client)
	}

	return filterParams{
		sel:    sel,
		window: ledger.NewDateWindow(q.Get("from"), q.Get("to")),
		scope:  scope,
	}
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// GetLedger returns the filtered ledger rows with summary and pagination.
// GET /api/ledger?state=&campaign=&retailer=&from=&to=&client=&page=&per_page=
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("snapshot load failed")
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	f := parseFilters(r)
	rows := ledger.BuildRows(snap, f.sel, f.window, f.scope)
	summary := ledger.Aggregate(rows)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pageRows, meta := ledger.Paginate(rows, page, perPage)

	writeJSON(w, http.StatusOK, LedgerResponse{
		Rows:    toRowDTOs(pageRows),
		Summary: toSummaryDTO(summary),
		Pagination: PaginationDTO{
			Page:       meta.Page,
			PerPage:    meta.PerPage,
			Total:      meta.Total,
			TotalPages: meta.TotalPages,
		},
	})
}

// GetOptions returns mutually consistent filter dropdown contents.
// GET /api/ledger/options?state=&campaign=&retailer=&client=
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("snapshot load failed")
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	f := parseFilters(r)
	opts, resolved := ledger.ResolveOptions(snap, f.sel, f.scope)
	writeJSON(w, http.StatusOK, toOptionsResponse(opts, resolved))
}

// GetStatement exports the running-balance statement for the filtered rows.
// GET /api/ledger/statement?format=json|csv|xlsx&state=&campaign=&retailer=&from=&to=&client=
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("snapshot load failed")
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	f := parseFilters(r)
	rows := ledger.BuildRows(snap, f.sel, f.window, f.scope)
	records := export.Statements(rows)

	switch format := r.URL.Query().Get("format"); format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="statement.csv"`)
		if err := export.WriteCSV(w, records); err != nil {
			h.Log.WithError(err).Error("csv export failed")
		}

	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="statement.xlsx"`)
		if err := export.WriteXLSX(w, records); err != nil {
			h.Log.WithError(err).Error("xlsx export failed")
		}

	case "", "json":
		dtos := make([]RecordStatementDTO, len(records))
		for i, rec := range records {
			lines := make([]StatementRowDTO, len(rec.Lines))
			for j, line := range rec.Lines {
				lines[j] = toStatementRowDTO(line)
			}
			dtos[i] = RecordStatementDTO{Row: toRowDTO(rec.Row), Lines: lines}
		}
		writeJSON(w, http.StatusOK, dtos)

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", format), nil)
	}
}

// =============================================================================
// MASTER DATA ENDPOINTS
// =============================================================================

// ListRetailers returns all retailers.
// GET /api/retailers
func (h *Handler) ListRetailers(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	dtos := make([]RetailerOptionDTO, len(snap.Retailers))
	for i, rt := range snap.Retailers {
		dtos[i] = RetailerOptionDTO{ID: rt.ID, UniqueID: rt.UniqueID, ShopName: rt.ShopName, State: rt.Address.State}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRetailer creates a retailer record.
// POST /api/retailers
func (h *Handler) CreateRetailer(w http.ResponseWriter, r *http.Request) {
	var req CreateRetailerRequest
	if !h.decode(w, r, &req) {
		return
	}

	campaigns := make([]ledger.Ref, len(req.Campaigns))
	for i, id := range req.Campaigns {
		campaigns[i] = ledger.NewRef(id)
	}

	created, err := h.Store.CreateRetailer(r.Context(), ledger.Retailer{
		UniqueID: req.UniqueID,
		ShopName: req.ShopName,
		Address: ledger.Address{
			Line:  req.Line,
			City:  req.City,
			State: req.State,
		},
		Campaigns: campaigns,
	})
	if err != nil {
		writeError(w, storeStatus(err), "Failed to create retailer", err)
		return
	}

	h.Log.WithFields(logrus.Fields{"retailer": created.ID, "uniqueId": created.UniqueID}).Info("retailer created")
	writeJSON(w, http.StatusCreated, RetailerOptionDTO{
		ID: created.ID, UniqueID: created.UniqueID, ShopName: created.ShopName, State: created.Address.State,
	})
}

// ListCampaigns returns all campaigns, optionally scoped to one client.
// GET /api/campaigns?client=
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	scope := ledger.AdminScope
	if client := r.URL.Query().Get("client"); client != "" {
		scope = ledger.ClientScope(client)
	}

	dtos := []CampaignOptionDTO{}
	for _, c := range snap.Campaigns {
		if scope(c) {
			dtos = append(dtos, CampaignOptionDTO{ID: c.ID, Name: c.Name, Client: c.Client, IsActive: c.IsActive})
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCampaign creates a campaign record.
// POST /api/campaigns
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if !h.decode(w, r, &req) {
		return
	}

	created, err := h.Store.CreateCampaign(r.Context(), ledger.Campaign{
		Name:     req.Name,
		Client:   req.Client,
		IsActive: req.IsActive,
		States:   req.States,
	})
	if err != nil {
		writeError(w, storeStatus(err), "Failed to create campaign", err)
		return
	}

	h.Log.WithFields(logrus.Fields{"campaign": created.ID, "name": created.Name}).Info("campaign created")
	writeJSON(w, http.StatusCreated, CampaignOptionDTO{
		ID: created.ID, Name: created.Name, Client: created.Client, IsActive: created.IsActive,
	})
}

// =============================================================================
// BUDGET ENDPOINTS
// =============================================================================

// ListBudgets returns all budget records.
// GET /api/budgets
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	dtos := make([]BudgetDTO, len(snap.Budgets))
	for i, b := range snap.Budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetBudget creates or updates the TCA for a (retailer, campaign) pair.
// PUT /api/budgets/{retailerID}/{campaignID}
func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	retailerID := chi.URLParam(r, "retailerID")
	campaignID := chi.URLParam(r, "campaignID")

	var req SetBudgetRequest
	if !h.decode(w, r, &req) {
		return
	}

	tca := decimal.NewFromFloat(req.TCA)
	if err := h.Store.SetCampaignBudget(r.Context(), retailerID, campaignID, tca); err != nil {
		writeError(w, storeStatus(err), "Failed to set budget", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"retailer": retailerID, "campaign": campaignID, "tca": req.TCA,
	}).Info("budget set")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddInstallment records a payment against a (retailer, campaign) pair.
// POST /api/budgets/{retailerID}/{campaignID}/installments
func (h *Handler) AddInstallment(w http.ResponseWriter, r *http.Request) {
	retailerID := chi.URLParam(r, "retailerID")
	campaignID := chi.URLParam(r, "campaignID")

	var req AddInstallmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, ok := ledger.ParseDate(req.Date); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unparseable date %q", req.Date), nil)
		return
	}

	created, err := h.Store.AddInstallment(r.Context(), retailerID, campaignID, ledger.Installment{
		Amount:  decimal.NewFromFloat(req.Amount),
		Date:    req.Date,
		UTR:     req.UTR,
		Remarks: req.Remarks,
	})
	if err != nil {
		writeError(w, storeStatus(err), "Failed to record installment", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"retailer": retailerID, "campaign": campaignID,
		"installmentNo": created.Number, "amount": req.Amount,
	}).Info("installment recorded")
	writeJSON(w, http.StatusCreated, toInstallmentDTO(created))
}

// DeleteInstallment removes an installment by number.
// DELETE /api/budgets/{retailerID}/{campaignID}/installments/{no}
func (h *Handler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	retailerID := chi.URLParam(r, "retailerID")
	campaignID := chi.URLParam(r, "campaignID")

	number, err := strconv.Atoi(chi.URLParam(r, "no"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Installment number must be an integer", err)
		return
	}

	if err := h.Store.DeleteInstallment(r.Context(), retailerID, campaignID, number); err != nil {
		writeError(w, storeStatus(err), "Failed to delete installment", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"retailer": retailerID, "campaign": campaignID, "installmentNo": number,
	}).Info("installment deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode unmarshals and validates a request body, writing the 400 itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// storeStatus maps store errors onto HTTP status codes.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrRetailerNotFound),
		errors.Is(err, ledger.ErrCampaignNotFound),
		errors.Is(err, ledger.ErrBudgetNotFound),
		errors.Is(err, ledger.ErrInstallmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrBudgetExceeded):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
