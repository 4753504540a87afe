/*
reconcile.go - The full reconciliation pipeline

PURPOSE:
  Ties the components together as one pure function:

    raw transactions + reference data
      -> Normalize -> Aggregate -> (window) -> merge -> []HolderView

  There is no hidden state: every invocation is a full re-derivation from
  the transaction window provided. Snapshot splits the pipeline so a
  caller can aggregate once and re-project different windows/queries
  without re-scanning raw transactions.

SEE ALSO:
  - service/reconciler.go: fetches the inputs and caches the Snapshot
*/
package ledger

import "strings"

// Input is everything a reconciliation invocation needs. Transactions and
// GeneralTransactions are separate streams fed through the same
// aggregator; Window and Query are optional narrowing filters.
type Input struct {
	Transactions        []RawTransaction
	GeneralTransactions []RawTransaction
	Holders             []Holder
	Items               []Item
	Units               []SerializedUnit
	Window              Window
	Query               string
}

// Snapshot is the aggregated state of one invocation. Views over
// different windows and queries are derived from it without touching raw
// transactions again.
type Snapshot struct {
	Armory  LedgerMap
	General LedgerMap
	Holders []Holder
	Items   []Item
	Units   []SerializedUnit
}

// Build runs normalization, aggregation, and unit refinement.
func Build(in Input) Snapshot {
	return Snapshot{
		Armory:  Aggregate(Normalize(in.Transactions)),
		General: Aggregate(Normalize(in.GeneralTransactions)),
		Holders: in.Holders,
		Items:   in.Items,
		Units:   RefineUnitIssueTimes(in.Units, in.Transactions),
	}
}

// View projects the snapshot through an optional window and search query
// into the ordered per-holder summaries.
func (s Snapshot) View(w Window, query string) []HolderView {
	return merge(mergeInput{
		Holders: s.Holders,
		Items:   s.Items,
		Units:   s.Units,
		Armory:  s.Armory,
		General: s.General,
		Window:  w,
		Query:   query,
	})
}

// Reconcile is the single-call form of the pipeline.
func Reconcile(in Input) []HolderView {
	return Build(in).View(in.Window, in.Query)
}

// RefineUnitIssueTimes sets each unit's LastIssueAt to the
// lexicographically greatest created_at among raw ISSUE rows referencing
// its unit id. Raw rows are scanned directly because unit-referencing
// rows carry no quantity and would not survive Normalize. A unit with no
// matching ISSUE keeps whatever timestamp it already had.
func RefineUnitIssueTimes(units []SerializedUnit, raws []RawTransaction) []SerializedUnit {
	latest := make(map[string]string)
	for _, r := range raws {
		if !strings.EqualFold(strings.TrimSpace(r.Action), string(ActionIssue)) {
			continue
		}
		unitID := strings.TrimSpace(r.SerialUnitID)
		if unitID == "" {
			continue
		}
		if r.CreatedAt > latest[unitID] {
			latest[unitID] = r.CreatedAt
		}
	}

	out := make([]SerializedUnit, len(units))
	copy(out, units)
	for i := range out {
		if at, ok := latest[out[i].UnitID]; ok && at > out[i].LastIssueAt {
			out[i].LastIssueAt = at
		}
	}
	return out
}
