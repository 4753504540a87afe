/*
aggregate.go - Folding transactions into per-(holder, item) balances

PURPOSE:
  The heart of the engine. Folds a normalized transaction sequence into
  running net balances plus last-touch provenance.

DETERMINISM:
  The upstream transaction fetch makes no ordering guarantee, so the
  result must be identical for any permutation of the input. Net quantity
  is a commutative sum; last-issue metadata is resolved by comparing
  CreatedAt strings, never by arrival order.

LAST-ISSUE PROVENANCE:
  An ISSUE overwrites LastIssueAt/LastIssueNote only when its CreatedAt is
  strictly greater (string comparison) than the stored value. RETURNs
  never touch last-issue metadata.

SEE ALSO:
  - window.go: visibility filtering over the aggregated ledger
  - merge.go: per-holder assembly of the filtered allocations
*/
package ledger

// LedgerMap is the aggregated ledger: every allocation keyed by
// (holder, item), including zeroed-out and negative ones.
type LedgerMap map[AllocationKey]*Allocation

// Aggregate folds transactions into a LedgerMap. Order-independent.
// Unrecognized actions are ignored, not errors; Normalize only emits
// ISSUE and RETURN, but callers may feed hand-built sequences.
func Aggregate(txs []Transaction) LedgerMap {
	m := make(LedgerMap)
	for _, tx := range txs {
		key := AllocationKey{HolderID: tx.HolderID, ItemCode: tx.ItemCode}
		a := m[key]
		if a == nil {
			a = &Allocation{Key: key, HolderID: tx.HolderID, ItemCode: tx.ItemCode}
			m[key] = a
		}
		switch tx.Action {
		case ActionIssue:
			a.NetQuantity = a.NetQuantity.Add(tx.Quantity)
			if tx.CreatedAt > a.LastIssueAt {
				a.LastIssueAt = tx.CreatedAt
				a.LastIssueNote = tx.Notes
			}
		case ActionReturn:
			a.NetQuantity = a.NetQuantity.Sub(tx.Quantity)
		}
	}
	return m
}

// CurrentHoldings returns allocations with positive net quantity. This is
// the default "who holds what now" view; zeroed-out history stays in the
// map for callers that need it.
func (m LedgerMap) CurrentHoldings() []Allocation {
	out := make([]Allocation, 0, len(m))
	for _, a := range m {
		if a.NetQuantity.IsPositive() {
			out = append(out, *a)
		}
	}
	return out
}

// All returns every allocation, including those at or below zero.
func (m LedgerMap) All() []Allocation {
	out := make([]Allocation, 0, len(m))
	for _, a := range m {
		out = append(out, *a)
	}
	return out
}
