/*
Package ledger provides the equipment reconciliation engine.

PURPOSE:
  This package contains the types and algorithms that turn an append-only
  stream of issue/return transactions into current-holder snapshots. It is
  pure in-process logic: no I/O, no persistence, no hidden state. Callers
  fetch the raw data, hand it to Reconcile, and render the result.

KEY CONCEPTS IN THIS FILE (types.go):
  - RawTransaction: A loosely-typed ledger row as it arrives from storage
    or import. Dirty data is expected and tolerated.
  - Transaction: The canonical, validated form produced by Normalize.
  - Allocation: Derived net quantity per (holder, item) pair.
  - SerializedUnit: An individually tracked item instance (e.g. a specific
    firearm), identified by its own unit id rather than a quantity.
  - Holder: The employee/entity in possession of inventory.

DESIGN PRINCIPLES:
  1. Immutability: Transactions are facts. They are never mutated or
     deleted; every view is recomputed from the full window provided.
  2. Precision: Uses decimal.Decimal for quantities to avoid
     floating-point errors.
  3. Determinism: Aggregation results are identical for any ordering of
     the input transactions.
  4. Tolerance: Malformed rows are dropped, never raised as errors.

TIMESTAMPS:
  CreatedAt and LastIssueAt are ISO-8601 strings compared lexicographically,
  not parsed times. Zero-padded ISO-8601 makes string order match
  chronological order, and string comparison never fails on the partial or
  malformed timestamps a long-lived operational system accumulates.

SEE ALSO:
  - normalize.go: RawTransaction -> Transaction coercion
  - aggregate.go: Transaction folding into allocations
  - window.go: Day-granularity visibility windows
  - merge.go: Per-holder snapshot assembly
  - reconcile.go: The full pipeline
*/
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACTIONS
// =============================================================================

type Action string

const (
	ActionIssue  Action = "ISSUE"
	ActionReturn Action = "RETURN"
)

// =============================================================================
// TRANSACTIONS
// =============================================================================

// RawTransaction is a ledger row before validation. Quantity is `any`
// because upstream sources deliver it as a JSON number, a numeric string,
// or nothing at all.
type RawTransaction struct {
	ID           string `json:"id"`
	ItemCode     string `json:"item_code"`
	HolderID     string `json:"holder_id"`
	SerialUnitID string `json:"serial_unit_id"`
	Action       string `json:"action"`
	Quantity     any    `json:"quantity"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"created_at"`
}

// Transaction is a validated quantity-ledger entry. Only Normalize
// constructs these.
type Transaction struct {
	ID        string
	ItemCode  string
	HolderID  string
	Action    Action
	Quantity  decimal.Decimal
	Notes     string
	CreatedAt string // ISO-8601, compared lexicographically
}

// =============================================================================
// ALLOCATIONS - Derived net quantity per (holder, item)
// =============================================================================

// AllocationKey identifies a quantity-tracked allocation. Serialized units
// live in a separate identity space (keyed by unit id) and never share
// keys with allocations.
type AllocationKey struct {
	HolderID string
	ItemCode string
}

// Allocation is the running aggregate for one key.
//
// Invariant: NetQuantity = sum(ISSUE quantities) - sum(RETURN quantities)
// over all transactions sharing the key. An allocation with
// NetQuantity <= 0 is absent from the current-holdings view but its
// history remains valid.
type Allocation struct {
	Key           AllocationKey
	HolderID      string
	ItemCode      string
	NetQuantity   decimal.Decimal
	LastIssueAt   string
	LastIssueNote string
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// Holder is an entry in the holder directory. Identity is resolved by
// trying three candidate fields in fixed priority order.
type Holder struct {
	ID            string `json:"id"`             // internal numeric row id
	EmployeeCode  string `json:"employee_code"`  // primary business identifier
	PayrollSerial string `json:"payroll_serial"` // secondary serial identifier
	DisplayName   string `json:"display_name"`
}

// Identity returns the first non-empty identity field. Lower tiers are
// used only for sorting, never to override a present higher tier.
func (h Holder) Identity() string {
	if v := strings.TrimSpace(h.EmployeeCode); v != "" {
		return v
	}
	if v := strings.TrimSpace(h.PayrollSerial); v != "" {
		return v
	}
	return strings.TrimSpace(h.ID)
}

// Item is an entry in the item catalog.
type Item struct {
	Code     string `json:"item_code"`
	Name     string `json:"name"`
	UnitName string `json:"unit_name"`
}

// =============================================================================
// SERIALIZED UNITS
// =============================================================================

type UnitStatus string

const (
	UnitInStock     UnitStatus = "in_stock"
	UnitIssued      UnitStatus = "issued"
	UnitMaintenance UnitStatus = "maintenance"
)

// SerializedUnit is an individually tracked item instance. Its presence in
// the issued view is authoritative from Status, not derived from the
// transaction sum; LastIssueAt is refined from the transaction log by
// RefineUnitIssueTimes.
type SerializedUnit struct {
	UnitID       string     `json:"unit_id"`
	ItemCode     string     `json:"item_code"`
	Name         string     `json:"name"`
	SerialNumber string     `json:"serial_number"`
	Status       UnitStatus `json:"status"`
	HolderID     string     `json:"holder_id"`
	LastIssueAt  string     `json:"last_issue_at"`
	CreatedAt    string     `json:"created_at"`
}

// =============================================================================
// VIEWS - Read-only output of reconciliation
// =============================================================================

// UnitView is a serialized unit as shown under its holder.
type UnitView struct {
	UnitID       string     `json:"unit_id"`
	ItemCode     string     `json:"item_code"`
	Name         string     `json:"name"`
	SerialNumber string     `json:"serial_number"`
	Status       UnitStatus `json:"status"`
	LastIssueAt  string     `json:"last_issue_at,omitempty"`
}

// AllocationView is a quantity allocation as shown under its holder.
type AllocationView struct {
	ItemCode    string          `json:"item_code"`
	ItemName    string          `json:"item_name"`
	UnitName    string          `json:"unit_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Category    Category        `json:"category"`
	LastIssueAt string          `json:"last_issue_at,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// HolderView is one holder's reconciled snapshot.
type HolderView struct {
	HolderID      string           `json:"holder_id"`
	DisplayName   string           `json:"display_name"`
	PayrollSerial string           `json:"payroll_serial,omitempty"`
	Units         []UnitView       `json:"units"`
	Allocations   []AllocationView `json:"allocations"`
	TotalItems    int              `json:"total_items"`
}

// Category tags which transaction stream an allocation came from.
type Category string

const (
	CategoryArmory  Category = "armory"
	CategoryGeneral Category = "general"
)
