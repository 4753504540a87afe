/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  engine's internal types from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  shared validator before touching the store. Note the asymmetry with the
  engine: API writes are validated strictly, while rows already in the
  ledger are tolerated and filtered by the Normalizer.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import "github.com/sentinelops/armory-ledger/ledger"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateHolderRequest registers an employee in the holder directory.
type CreateHolderRequest struct {
	EmployeeCode  string `json:"employee_code" validate:"required"`
	PayrollSerial string `json:"payroll_serial"`
	DisplayName   string `json:"display_name" validate:"required"`
}

// CreateItemRequest adds or updates a catalog item.
type CreateItemRequest struct {
	Code     string `json:"item_code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	UnitName string `json:"unit_name"`
}

// CreateUnitRequest registers a serialized unit.
type CreateUnitRequest struct {
	UnitID       string `json:"unit_id" validate:"required"`
	ItemCode     string `json:"item_code" validate:"required"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number" validate:"required"`
	Status       string `json:"status" validate:"omitempty,oneof=in_stock issued maintenance"`
	HolderID     string `json:"holder_id"`
}

// UpdateUnitStatusRequest moves a unit between statuses. Issuing requires
// a holder; returning to stock clears it.
type UpdateUnitStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=in_stock issued maintenance"`
	HolderID string `json:"holder_id" validate:"required_if=Status issued"`
	Notes    string `json:"notes"`
}

// CreateTransactionRequest appends one issue/return to the ledger.
type CreateTransactionRequest struct {
	Category       string  `json:"category" validate:"omitempty,oneof=armory general"`
	ItemCode       string  `json:"item_code" validate:"required"`
	HolderID       string  `json:"holder_id" validate:"required"`
	Action         string  `json:"action" validate:"required,oneof=ISSUE RETURN issue return"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	Notes          string  `json:"notes"`
	CreatedAt      string  `json:"created_at"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// ImportTransactionsRequest bulk-loads raw ledger rows. Rows are stored
// as received; the Normalizer decides at reconciliation time what counts.
type ImportTransactionsRequest struct {
	Category     string                  `json:"category" validate:"omitempty,oneof=armory general"`
	Transactions []ledger.RawTransaction `json:"transactions" validate:"required,min=1"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// HolderDTO represents a directory entry.
type HolderDTO struct {
	ID            string `json:"id"`
	EmployeeCode  string `json:"employee_code,omitempty"`
	PayrollSerial string `json:"payroll_serial,omitempty"`
	DisplayName   string `json:"display_name"`
}

// UnitViewDTO is a serialized unit under its holder.
type UnitViewDTO struct {
	UnitID       string `json:"unit_id"`
	ItemCode     string `json:"item_code"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	LastIssueAt  string `json:"last_issue_at,omitempty"`
}

// AllocationViewDTO is a quantity allocation under its holder.
type AllocationViewDTO struct {
	ItemCode    string  `json:"item_code"`
	ItemName    string  `json:"item_name"`
	UnitName    string  `json:"unit_name,omitempty"`
	Quantity    float64 `json:"quantity"`
	Category    string  `json:"category"`
	LastIssueAt string  `json:"last_issue_at,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// HolderViewDTO is one reconciled per-holder summary.
type HolderViewDTO struct {
	HolderID      string              `json:"holder_id"`
	DisplayName   string              `json:"display_name"`
	PayrollSerial string              `json:"payroll_serial,omitempty"`
	Units         []UnitViewDTO       `json:"units"`
	Allocations   []AllocationViewDTO `json:"allocations"`
	TotalItems    int                 `json:"total_items"`
}

// ReconciliationDTO wraps the full view with its active filters.
type ReconciliationDTO struct {
	Holders []HolderViewDTO `json:"holders"`
	Count   int             `json:"count"`
	Start   string          `json:"start,omitempty"`
	End     string          `json:"end,omitempty"`
	Query   string          `json:"query,omitempty"`
}

// ImportResultDTO reports what a bulk import contained.
type ImportResultDTO struct {
	Received   int `json:"received"`
	LedgerRows int `json:"ledger_rows"` // rows the quantity ledger will count
	UnitRows   int `json:"unit_rows"`   // rows referencing a serialized unit
	Ignored    int `json:"ignored"`     // rows the engine will drop
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toHolderViewDTO(v ledger.HolderView) HolderViewDTO {
	units := make([]UnitViewDTO, len(v.Units))
	for i, u := range v.Units {
		units[i] = UnitViewDTO{
			UnitID:       u.UnitID,
			ItemCode:     u.ItemCode,
			Name:         u.Name,
			SerialNumber: u.SerialNumber,
			Status:       string(u.Status),
			LastIssueAt:  u.LastIssueAt,
		}
	}
	allocs := make([]AllocationViewDTO, len(v.Allocations))
	for i, a := range v.Allocations {
		qty, _ := a.Quantity.Float64()
		allocs[i] = AllocationViewDTO{
			ItemCode:    a.ItemCode,
			ItemName:    a.ItemName,
			UnitName:    a.UnitName,
			Quantity:    qty,
			Category:    string(a.Category),
			LastIssueAt: a.LastIssueAt,
			Notes:       a.Notes,
		}
	}
	return HolderViewDTO{
		HolderID:      v.HolderID,
		DisplayName:   v.DisplayName,
		PayrollSerial: v.PayrollSerial,
		Units:         units,
		Allocations:   allocs,
		TotalItems:    v.TotalItems,
	}
}

func toHolderViewDTOs(views []ledger.HolderView) []HolderViewDTO {
	out := make([]HolderViewDTO, len(views))
	for i, v := range views {
		out[i] = toHolderViewDTO(v)
	}
	return out
}
