/*
normalize.go - Raw record validation and coercion

PURPOSE:
  Converts loosely-typed ledger rows into canonical Transactions. This is
  the single boundary where dirty data is handled: everything downstream
  of Normalize can assume well-formed input.

REJECTION RULE:
  A row is dropped - silently, not as an error - when:
    - action (uppercased) is neither ISSUE nor RETURN
    - holder_id or item_code is empty after trimming
    - quantity does not coerce to a finite number > 0

  Best-effort tolerance is intentional: the ledger is fed from a
  long-lived operational system and individual bad rows must not take
  down the whole view.

SEE ALSO:
  - aggregate.go: consumes the normalized sequence
  - reconcile.go: RefineUnitIssueTimes scans raw rows directly, because
    unit-referencing rows carry no quantity and would be rejected here
*/
package ledger

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize validates and coerces raw rows into canonical Transactions.
// Pure function; malformed rows are excluded without error.
func Normalize(raws []RawTransaction) []Transaction {
	out := make([]Transaction, 0, len(raws))
	for _, r := range raws {
		action := Action(strings.ToUpper(strings.TrimSpace(r.Action)))
		if action != ActionIssue && action != ActionReturn {
			continue
		}
		holder := strings.TrimSpace(r.HolderID)
		item := strings.TrimSpace(r.ItemCode)
		if holder == "" || item == "" {
			continue
		}
		qty, ok := coerceQuantity(r.Quantity)
		if !ok || !qty.IsPositive() {
			continue
		}
		out = append(out, Transaction{
			ID:        r.ID,
			ItemCode:  item,
			HolderID:  holder,
			Action:    action,
			Quantity:  qty,
			Notes:     r.Notes,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

// coerceQuantity converts the loosely-typed quantity field to a decimal.
// Returns false for nil, non-numeric, NaN, and infinite values.
func coerceQuantity(v any) (decimal.Decimal, bool) {
	switch q := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return q, true
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(q), true
	case float32:
		return coerceQuantity(float64(q))
	case int:
		return decimal.NewFromInt(int64(q)), true
	case int64:
		return decimal.NewFromInt(q), true
	case json.Number:
		d, err := decimal.NewFromString(q.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		s := strings.TrimSpace(q)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
