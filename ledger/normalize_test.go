package ledger_test

import (
	"math"
	"testing"

	"github.com/sentinelops/armory-ledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rawIssue(item, holder string, qty any, at string) ledger.RawTransaction {
	return ledger.RawTransaction{ItemCode: item, HolderID: holder, Action: "ISSUE", Quantity: qty, CreatedAt: at}
}

// =============================================================================
// NORMALIZER TESTS
// =============================================================================

func TestNormalize_AcceptsWellFormedRows(t *testing.T) {
	// GIVEN: valid issue and return rows
	// WHEN: normalized
	// THEN: both survive with coerced fields

	raws := []ledger.RawTransaction{
		rawIssue("radio-01", "G-100", 5.0, "2024-01-01T09:00:00Z"),
		{ItemCode: "radio-01", HolderID: "G-100", Action: "return", Quantity: "2", CreatedAt: "2024-01-05T09:00:00Z"},
	}

	txs := ledger.Normalize(raws)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[1].Action != ledger.ActionReturn {
		t.Errorf("expected lowercase action coerced to RETURN, got %q", txs[1].Action)
	}
	if !txs[1].Quantity.Equal(txs[1].Quantity.Truncate(0)) || txs[1].Quantity.IntPart() != 2 {
		t.Errorf("expected string quantity coerced to 2, got %v", txs[1].Quantity)
	}
}

func TestNormalize_TrimsIdentifiers(t *testing.T) {
	// GIVEN: a row with padded holder and item identifiers
	// WHEN: normalized
	// THEN: identifiers are trimmed

	txs := ledger.Normalize([]ledger.RawTransaction{
		{ItemCode: "  vest-03 ", HolderID: " G-7\t", Action: "issue", Quantity: 1, CreatedAt: "2024-02-01"},
	})
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].ItemCode != "vest-03" || txs[0].HolderID != "G-7" {
		t.Errorf("identifiers not trimmed: %+v", txs[0])
	}
}

func TestNormalize_DropsMalformedRows(t *testing.T) {
	// GIVEN: rows violating each rejection rule
	// WHEN: normalized
	// THEN: all are silently dropped, no error

	raws := []ledger.RawTransaction{
		{ItemCode: "radio-01", HolderID: "G-1", Action: "TRANSFER", Quantity: 1},   // unknown action
		{ItemCode: "", HolderID: "G-1", Action: "ISSUE", Quantity: 1},              // empty item
		{ItemCode: "radio-01", HolderID: "   ", Action: "ISSUE", Quantity: 1},      // blank holder
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: nil},    // nil quantity
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: 0},      // zero
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: -3},     // negative
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: "five"}, // non-numeric string
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: math.NaN()},
		{ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE", Quantity: math.Inf(1)},
	}

	if got := ledger.Normalize(raws); len(got) != 0 {
		t.Errorf("expected all rows dropped, got %d", len(got))
	}
}

func TestNormalize_DropsUnitRowsWithoutQuantity(t *testing.T) {
	// GIVEN: a serialized-unit issue row (no holder quantity)
	// WHEN: normalized for the quantity ledger
	// THEN: it is excluded; unit rows are handled by RefineUnitIssueTimes

	raws := []ledger.RawTransaction{
		{SerialUnitID: "u-9", Action: "ISSUE", CreatedAt: "2024-03-01T07:00:00Z"},
	}
	if got := ledger.Normalize(raws); len(got) != 0 {
		t.Errorf("expected unit row excluded from quantity ledger, got %d", len(got))
	}
}
