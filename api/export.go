/*
export.go - Spreadsheet export of the reconciled view

PURPOSE:
  One-shot, user-triggered export of the current per-holder holdings as
  an .xlsx workbook, streamed straight to the response. Reads the applied
  snapshot through the reconciler's read path, so exports never block and
  are never blocked by a running refresh.
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/sentinelops/armory-ledger/config"
)

// ExportReconciliation writes the filtered view as a spreadsheet.
// GET /api/reconciliation/export?start=&end=&q=
func (h *Handler) ExportReconciliation(w http.ResponseWriter, r *http.Request) {
	window, query, ok := parseFilters(w, r)
	if !ok {
		return
	}

	views := h.Reconciler.View(window, query)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Holdings"
	if _, err := f.NewSheet(sheet); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}
	f.DeleteSheet("Sheet1")

	headers := []string{"Holder", "Payroll Serial", "Item", "Serial Number", "Quantity", "Category", "Status", "Last Issue", "Notes"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}

	row := 2
	setRow := func(values []any) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	for _, v := range views {
		for _, u := range v.Units {
			setRow([]any{v.DisplayName, v.PayrollSerial, u.Name, u.SerialNumber, 1, "serialized", string(u.Status), u.LastIssueAt, ""})
		}
		for _, a := range v.Allocations {
			qty, _ := a.Quantity.Float64()
			setRow([]any{v.DisplayName, v.PayrollSerial, a.ItemName, "", qty, string(a.Category), "", a.LastIssueAt, a.Notes})
		}
		if v.TotalItems == 0 {
			setRow([]any{v.DisplayName, v.PayrollSerial, "", "", 0, "", "", "", "no items issued"})
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(window.Start, window.End)))
	if err := f.Write(w); err != nil && h.log != nil {
		config.LogError(h.log, "api", "ExportReconciliation", "writing workbook", err)
	}
}

func exportFilename(start, end string) string {
	if start == "" && end == "" {
		return "holdings.xlsx"
	}
	if start == "" {
		start = "begin"
	}
	if end == "" {
		end = "now"
	}
	return fmt.Sprintf("holdings_%s_%s.xlsx", start, end)
}
