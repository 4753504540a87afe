/*
handlers.go - HTTP API handlers for the armory ledger service

PURPOSE:
  Exposes the reconciliation engine via REST. Handles HTTP
  request/response, JSON serialization, request validation, and delegates
  to the store and the reconciler.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator)
  3. Call store / reconciler
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate idempotency key)
  - 500: Internal errors
  - 502: Upstream fetch failure during reconciliation

  Reconciliation failures are all-or-nothing: the reconciler resets its
  view before the error reaches a handler, so clients never see a mixed
  snapshot.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - service/reconciler.go: Invocation coordination
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/sentinelops/armory-ledger/ledger"
	"github.com/sentinelops/armory-ledger/service"
)

// Store is the persistence surface the handlers need. Both store/sqlite
// and store/memory satisfy it.
type Store interface {
	service.Source

	AppendTransaction(ctx context.Context, category ledger.Category, r ledger.RawTransaction, idempotencyKey string) error
	AppendTransactions(ctx context.Context, category ledger.Category, rows []ledger.RawTransaction) error
	SaveHolder(ctx context.Context, h ledger.Holder) (ledger.Holder, error)
	SaveItem(ctx context.Context, it ledger.Item) error
	SaveUnit(ctx context.Context, u ledger.SerializedUnit) error
	UpdateUnitStatus(ctx context.Context, unitID string, status ledger.UnitStatus, holderID string) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Reconciler *service.Reconciler

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler creates a new handler.
func NewHandler(store Store, rec *service.Reconciler, log *logrus.Logger) *Handler {
	return &Handler{
		Store:      store,
		Reconciler: rec,
		validate:   validator.New(),
		log:        log,
	}
}

// =============================================================================
// HOLDER HANDLERS
// =============================================================================

// ListHolders returns the holder directory.
func (h *Handler) ListHolders(w http.ResponseWriter, r *http.Request) {
	holders, err := h.Store.ListHolders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holders", err)
		return
	}

	dtos := make([]HolderDTO, len(holders))
	for i, hd := range holders {
		dtos[i] = HolderDTO{
			ID:            hd.ID,
			EmployeeCode:  hd.EmployeeCode,
			PayrollSerial: hd.PayrollSerial,
			DisplayName:   hd.DisplayName,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHolder registers an employee.
func (h *Handler) CreateHolder(w http.ResponseWriter, r *http.Request) {
	var req CreateHolderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	saved, err := h.Store.SaveHolder(r.Context(), ledger.Holder{
		EmployeeCode:  req.EmployeeCode,
		PayrollSerial: req.PayrollSerial,
		DisplayName:   req.DisplayName,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holder", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolderDTO{
		ID:            saved.ID,
		EmployeeCode:  saved.EmployeeCode,
		PayrollSerial: saved.PayrollSerial,
		DisplayName:   saved.DisplayName,
	})
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	it := ledger.Item{Code: req.Code, Name: req.Name, UnitName: req.UnitName}
	if err := h.Store.SaveItem(r.Context(), it); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// =============================================================================
// SERIALIZED UNIT HANDLERS
// =============================================================================

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListUnits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list units", err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	status := ledger.UnitStatus(req.Status)
	if status == "" {
		status = ledger.UnitInStock
	}
	u := ledger.SerializedUnit{
		UnitID:       req.UnitID,
		ItemCode:     req.ItemCode,
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Status:       status,
		HolderID:     req.HolderID,
	}
	if err := h.Store.SaveUnit(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUnitStatus transitions a unit and records the movement in the
// ledger so unit last-issue refinement sees it.
// POST /api/units/{id}/status
func (h *Handler) UpdateUnitStatus(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "id")

	var req UpdateUnitStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	status := ledger.UnitStatus(req.Status)
	holderID := req.HolderID
	if status != ledger.UnitIssued {
		holderID = ""
	}

	if err := h.Store.UpdateUnitStatus(r.Context(), unitID, status, holderID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Unit not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update unit", err)
		return
	}

	// Movement rows keep the ledger's unit history complete. RETURN rows
	// for units carry no quantity; the Normalizer ignores them and
	// RefineUnitIssueTimes picks up the ISSUEs.
	var action string
	switch status {
	case ledger.UnitIssued:
		action = string(ledger.ActionIssue)
	case ledger.UnitInStock:
		action = string(ledger.ActionReturn)
	}
	if action != "" {
		if err := h.Store.AppendTransaction(r.Context(), ledger.CategoryArmory, ledger.RawTransaction{
			SerialUnitID: unitID,
			HolderID:     holderID,
			Action:       action,
			Notes:        req.Notes,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		}, ""); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record unit movement", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"unit_id": unitID, "status": string(status)})
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns ledger rows for a category.
// GET /api/transactions?category=armory&limit=100
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	category := ledger.Category(r.URL.Query().Get("category"))
	if category == "" {
		category = ledger.CategoryArmory
	}
	limit := service.DefaultPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	rows, err := h.Store.ListTransactions(r.Context(), category, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	if rows == nil {
		rows = []ledger.RawTransaction{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// CreateTransaction appends one issue/return.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	category := ledger.Category(req.Category)
	if category == "" {
		category = ledger.CategoryArmory
	}

	row := ledger.RawTransaction{
		ItemCode:  req.ItemCode,
		HolderID:  req.HolderID,
		Action:    strings.ToUpper(req.Action),
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		CreatedAt: req.CreatedAt,
	}
	err := h.Store.AppendTransaction(r.Context(), category, row, req.IdempotencyKey)
	if errors.Is(err, ledger.ErrDuplicateIdempotencyKey) {
		writeError(w, http.StatusConflict, "Duplicate idempotency key", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to append transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "appended"})
}

// ImportTransactions bulk-loads rows and reports how the engine will
// treat them. Rows are stored as received: the ledger tolerates dirt,
// and the Normalizer filters at reconciliation time.
// POST /api/transactions/import
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	var req ImportTransactionsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	category := ledger.Category(req.Category)
	if category == "" {
		category = ledger.CategoryArmory
	}

	if err := h.Store.AppendTransactions(r.Context(), category, req.Transactions); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import transactions", err)
		return
	}

	accepted := len(ledger.Normalize(req.Transactions))
	unitRows := 0
	for _, row := range req.Transactions {
		if strings.TrimSpace(row.SerialUnitID) != "" {
			unitRows++
		}
	}
	result := ImportResultDTO{
		Received:   len(req.Transactions),
		LedgerRows: accepted,
		UnitRows:   unitRows,
	}
	if rest := result.Received - accepted - unitRows; rest > 0 {
		result.Ignored = rest
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// GetReconciliation returns the per-holder view from the applied
// snapshot, narrowed by optional date window and search query.
// GET /api/reconciliation?start=2024-01-01&end=2024-01-31&q=radio
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	window, query, ok := parseFilters(w, r)
	if !ok {
		return
	}

	views := h.Reconciler.View(window, query)
	writeJSON(w, http.StatusOK, ReconciliationDTO{
		Holders: toHolderViewDTOs(views),
		Count:   len(views),
		Start:   window.Start,
		End:     window.End,
		Query:   query,
	})
}

// RefreshReconciliation re-runs the full fetch-then-reconcile pipeline.
// POST /api/reconciliation/refresh
func (h *Handler) RefreshReconciliation(w http.ResponseWriter, r *http.Request) {
	err := h.Reconciler.Refresh(r.Context())
	switch {
	case errors.Is(err, ledger.ErrStaleInvocation):
		writeJSON(w, http.StatusOK, map[string]any{"status": "superseded"})
	case errors.Is(err, ledger.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "Reconciliation failed, no partial output", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "applied"})
	}
}

// parseFilters extracts and validates window/query parameters. Writes a
// 400 and returns ok=false on bad dates.
func parseFilters(w http.ResponseWriter, r *http.Request) (ledger.Window, string, bool) {
	var window ledger.Window
	if s := r.URL.Query().Get("start"); s != "" {
		day, err := ledger.ParseDay(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
			return window, "", false
		}
		window.Start = day
	}
	if s := r.URL.Query().Get("end"); s != "" {
		day, err := ledger.ParseDay(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
			return window, "", false
		}
		window.End = day
	}
	return window, r.URL.Query().Get("q"), true
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field() + ": " + fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation",
				Details: fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
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
