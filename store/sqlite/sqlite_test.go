package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/armory-ledger/ledger"
	"github.com/sentinelops/armory-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestAppendAndListTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendTransaction(ctx, ledger.CategoryArmory, ledger.RawTransaction{
		ID: "t1", ItemCode: "radio-01", HolderID: "G-1", Action: "ISSUE",
		Quantity: 5, CreatedAt: "2024-01-01T08:00:00Z",
	}, "key-1")
	require.NoError(t, err)

	err = s.AppendTransaction(ctx, ledger.CategoryGeneral, ledger.RawTransaction{
		ID: "t2", ItemCode: "flashlight", HolderID: "G-1", Action: "ISSUE",
		Quantity: "2", CreatedAt: "2024-01-02T08:00:00Z",
	}, "")
	require.NoError(t, err)

	armory, err := s.ListTransactions(ctx, ledger.CategoryArmory, 100)
	require.NoError(t, err)
	require.Len(t, armory, 1, "category filter must separate the streams")
	assert.Equal(t, "t1", armory[0].ID)
	assert.Equal(t, "5", armory[0].Quantity, "quantity round-trips as text")

	general, err := s.ListTransactions(ctx, ledger.CategoryGeneral, 100)
	require.NoError(t, err)
	require.Len(t, general, 1)
	assert.Equal(t, "2", general[0].Quantity)
}

func TestAppendTransaction_DuplicateIdempotencyKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row := ledger.RawTransaction{ID: "t1", ItemCode: "x", HolderID: "h", Action: "ISSUE", Quantity: 1}
	require.NoError(t, s.AppendTransaction(ctx, ledger.CategoryArmory, row, "dup"))

	row.ID = "t2"
	err := s.AppendTransaction(ctx, ledger.CategoryArmory, row, "dup")
	assert.ErrorIs(t, err, ledger.ErrDuplicateIdempotencyKey)
}

func TestListTransactions_BoundedPageSize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var rows []ledger.RawTransaction
	for i := 0; i < 10; i++ {
		rows = append(rows, ledger.RawTransaction{
			ItemCode: "x", HolderID: "h", Action: "ISSUE", Quantity: 1,
		})
	}
	require.NoError(t, s.AppendTransactions(ctx, ledger.CategoryArmory, rows))

	got, err := s.ListTransactions(ctx, ledger.CategoryArmory, 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestAppendTransactions_RoundTripsDirtyRows(t *testing.T) {
	// The store does not police content - a row with no holder and no
	// quantity still lands and comes back; tolerance lives in the engine.
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTransactions(ctx, ledger.CategoryArmory, []ledger.RawTransaction{
		{SerialUnitID: "u-1", Action: "ISSUE", CreatedAt: "2024-03-01T10:00:00Z"},
	}))

	got, err := s.ListTransactions(ctx, ledger.CategoryArmory, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u-1", got[0].SerialUnitID)
	assert.Nil(t, got[0].Quantity)
}

// =============================================================================
// REFERENCE DATA TESTS
// =============================================================================

func TestHolderRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveHolder(ctx, ledger.Holder{
		EmployeeCode: "EMP-1", PayrollSerial: "12", DisplayName: "Dana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	holders, err := s.ListHolders(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "EMP-1", holders[0].EmployeeCode)
	assert.Equal(t, "Dana", holders[0].DisplayName)
}

func TestItemUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveItem(ctx, ledger.Item{Code: "radio-01", Name: "Radio"}))
	require.NoError(t, s.SaveItem(ctx, ledger.Item{Code: "radio-01", Name: "Handheld Radio", UnitName: "pcs"}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Handheld Radio", items[0].Name)
}

func TestUnitStatusUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUnit(ctx, ledger.SerializedUnit{
		UnitID: "u-1", ItemCode: "pistol-02", SerialNumber: "SN-0007", Status: ledger.UnitInStock,
	}))

	require.NoError(t, s.UpdateUnitStatus(ctx, "u-1", ledger.UnitIssued, "G-1"))

	units, err := s.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, ledger.UnitIssued, units[0].Status)
	assert.Equal(t, "G-1", units[0].HolderID)

	err = s.UpdateUnitStatus(ctx, "missing", ledger.UnitIssued, "G-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
