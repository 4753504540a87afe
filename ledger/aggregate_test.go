package ledger_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sentinelops/armory-ledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func tx(item, holder string, action ledger.Action, qty int64, at string) ledger.Transaction {
	return ledger.Transaction{
		ItemCode:  item,
		HolderID:  holder,
		Action:    action,
		Quantity:  decimal.NewFromInt(qty),
		CreatedAt: at,
	}
}

func scenarioTxs() []ledger.Transaction {
	return []ledger.Transaction{
		tx("X", "H1", ledger.ActionIssue, 5, "2024-01-01"),
		tx("X", "H1", ledger.ActionReturn, 2, "2024-01-05"),
		tx("X", "H1", ledger.ActionIssue, 1, "2024-01-10"),
	}
}

// =============================================================================
// AGGREGATOR TESTS
// =============================================================================

func TestAggregate_NetQuantityAndLastIssue(t *testing.T) {
	// GIVEN: issue 5, return 2, issue 1 for the same (holder, item)
	// WHEN: aggregated
	// THEN: net quantity 4, last issue at the latest ISSUE timestamp

	m := ledger.Aggregate(scenarioTxs())

	key := ledger.AllocationKey{HolderID: "H1", ItemCode: "X"}
	a := m[key]
	if a == nil {
		t.Fatal("expected allocation for H1/X")
	}
	if a.NetQuantity.IntPart() != 4 {
		t.Errorf("expected net quantity 4, got %v", a.NetQuantity)
	}
	if a.LastIssueAt != "2024-01-10" {
		t.Errorf("expected last issue 2024-01-10, got %q", a.LastIssueAt)
	}
}

func TestAggregate_OrderIndependence(t *testing.T) {
	// GIVEN: the same transactions in many different orders
	// WHEN: aggregated
	// THEN: net quantity and last-issue metadata are identical every time

	base := scenarioTxs()
	key := ledger.AllocationKey{HolderID: "H1", ItemCode: "X"}

	// Explicit permutation from the reviewed scenario
	permuted := []ledger.Transaction{base[2], base[0], base[1]}
	got := ledger.Aggregate(permuted)[key]
	if got.NetQuantity.IntPart() != 4 || got.LastIssueAt != "2024-01-10" {
		t.Fatalf("permuted input diverged: qty=%v last=%q", got.NetQuantity, got.LastIssueAt)
	}

	// Random permutations
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]ledger.Transaction(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		a := ledger.Aggregate(shuffled)[key]
		if a.NetQuantity.IntPart() != 4 {
			t.Fatalf("permutation %d: expected net 4, got %v", i, a.NetQuantity)
		}
		if a.LastIssueAt != "2024-01-10" {
			t.Fatalf("permutation %d: expected last issue 2024-01-10, got %q", i, a.LastIssueAt)
		}
	}
}

func TestAggregate_LastIssueNoteFollowsTimestamp(t *testing.T) {
	// GIVEN: issues arriving newest-first
	// WHEN: aggregated
	// THEN: the note of the chronologically latest ISSUE wins, not the
	//       last-arriving one

	txs := []ledger.Transaction{
		{ItemCode: "X", HolderID: "H1", Action: ledger.ActionIssue, Quantity: decimal.NewFromInt(1), Notes: "newest", CreatedAt: "2024-06-01T12:00:00Z"},
		{ItemCode: "X", HolderID: "H1", Action: ledger.ActionIssue, Quantity: decimal.NewFromInt(1), Notes: "older", CreatedAt: "2024-01-01T12:00:00Z"},
	}
	a := ledger.Aggregate(txs)[ledger.AllocationKey{HolderID: "H1", ItemCode: "X"}]
	if a.LastIssueNote != "newest" {
		t.Errorf("expected note %q, got %q", "newest", a.LastIssueNote)
	}
}

func TestAggregate_ReturnsDoNotTouchLastIssue(t *testing.T) {
	// GIVEN: a RETURN newer than every ISSUE
	// WHEN: aggregated
	// THEN: last-issue metadata still reflects the latest ISSUE

	txs := []ledger.Transaction{
		tx("X", "H1", ledger.ActionIssue, 3, "2024-01-01"),
		tx("X", "H1", ledger.ActionReturn, 1, "2024-12-31"),
	}
	a := ledger.Aggregate(txs)[ledger.AllocationKey{HolderID: "H1", ItemCode: "X"}]
	if a.LastIssueAt != "2024-01-01" {
		t.Errorf("RETURN must not advance last issue: got %q", a.LastIssueAt)
	}
}

func TestCurrentHoldings_ExcludesNonPositive(t *testing.T) {
	// GIVEN: one fully returned allocation and one still held
	// WHEN: asking for current holdings vs full history
	// THEN: the zeroed allocation is absent from holdings, present in All

	txs := []ledger.Transaction{
		tx("X", "H1", ledger.ActionIssue, 2, "2024-01-01"),
		tx("X", "H1", ledger.ActionReturn, 2, "2024-01-02"),
		tx("Y", "H1", ledger.ActionIssue, 1, "2024-01-03"),
	}
	m := ledger.Aggregate(txs)

	holdings := m.CurrentHoldings()
	if len(holdings) != 1 || holdings[0].ItemCode != "Y" {
		t.Errorf("expected only Y in current holdings, got %+v", holdings)
	}
	if len(m.All()) != 2 {
		t.Errorf("expected full history to keep both allocations, got %d", len(m.All()))
	}
}

func TestAggregate_IgnoresUnrecognizedActions(t *testing.T) {
	// GIVEN: a transaction with an action outside {ISSUE, RETURN}
	// WHEN: aggregated
	// THEN: it has no effect and raises no error

	txs := []ledger.Transaction{
		tx("X", "H1", ledger.ActionIssue, 5, "2024-01-01"),
		{ItemCode: "X", HolderID: "H1", Action: "AUDIT", Quantity: decimal.NewFromInt(99), CreatedAt: "2024-01-02"},
	}
	a := ledger.Aggregate(txs)[ledger.AllocationKey{HolderID: "H1", ItemCode: "X"}]
	if a.NetQuantity.IntPart() != 5 {
		t.Errorf("unrecognized action changed the balance: %v", a.NetQuantity)
	}
}
