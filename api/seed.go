/*
seed.go - Demo dataset loader

PURPOSE:
  Populates the store with a small realistic dataset and triggers a
  reconciliation, so a fresh install has something to render. Dev only;
  idempotency is not attempted - seeding twice doubles the ledger.
*/
package api

import (
	"net/http"

	"github.com/sentinelops/armory-ledger/ledger"
)

// LoadSeedData inserts the demo guards, catalog, units, and a short
// transaction history, then refreshes the view.
// POST /api/seed
func (h *Handler) LoadSeedData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	holders := []ledger.Holder{
		{EmployeeCode: "G-100", PayrollSerial: "12", DisplayName: "Dana Reyes"},
		{EmployeeCode: "G-101", PayrollSerial: "7", DisplayName: "Eli Navarro"},
		{EmployeeCode: "G-102", PayrollSerial: "TMP-3", DisplayName: "Bea Ocampo"},
	}
	for _, hd := range holders {
		if _, err := h.Store.SaveHolder(ctx, hd); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed holders", err)
			return
		}
	}

	items := []ledger.Item{
		{Code: "radio-01", Name: "Handheld Radio", UnitName: "pcs"},
		{Code: "vest-03", Name: "Ballistic Vest", UnitName: "pcs"},
		{Code: "flashlight", Name: "Tactical Flashlight", UnitName: "pcs"},
	}
	for _, it := range items {
		if err := h.Store.SaveItem(ctx, it); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed items", err)
			return
		}
	}

	units := []ledger.SerializedUnit{
		{UnitID: "u-1001", ItemCode: "pistol-02", Name: "Service Pistol", SerialNumber: "SN-0441", Status: ledger.UnitIssued, HolderID: "G-100"},
		{UnitID: "u-1002", ItemCode: "pistol-02", Name: "Service Pistol", SerialNumber: "SN-0442", Status: ledger.UnitInStock},
	}
	for _, u := range units {
		if err := h.Store.SaveUnit(ctx, u); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed units", err)
			return
		}
	}

	armory := []ledger.RawTransaction{
		{ItemCode: "radio-01", HolderID: "G-100", Action: "ISSUE", Quantity: 2, CreatedAt: "2024-01-05T08:00:00Z"},
		{ItemCode: "radio-01", HolderID: "G-100", Action: "RETURN", Quantity: 1, CreatedAt: "2024-02-10T08:00:00Z"},
		{ItemCode: "vest-03", HolderID: "G-101", Action: "ISSUE", Quantity: 1, CreatedAt: "2024-01-20T08:00:00Z"},
		{SerialUnitID: "u-1001", HolderID: "G-100", Action: "ISSUE", CreatedAt: "2024-03-01T09:30:00Z"},
	}
	if err := h.Store.AppendTransactions(ctx, ledger.CategoryArmory, armory); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed armory ledger", err)
		return
	}

	general := []ledger.RawTransaction{
		{ItemCode: "flashlight", HolderID: "G-100", Action: "ISSUE", Quantity: 1, CreatedAt: "2024-01-06T08:00:00Z"},
		{ItemCode: "flashlight", HolderID: "G-102", Action: "ISSUE", Quantity: 1, CreatedAt: "2024-04-02T08:00:00Z"},
	}
	if err := h.Store.AppendTransactions(ctx, ledger.CategoryGeneral, general); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed general ledger", err)
		return
	}

	if err := h.Reconciler.Refresh(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Seeded but reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "seeded"})
}
