/*
merge.go - Per-holder snapshot assembly

PURPOSE:
  Combines three sources into one per-holder view:
    (a) serialized units currently assigned (status-driven),
    (b) armory quantity allocations,
    (c) general-category quantity allocations (same aggregator, separate
        transaction stream).

HOLDER-SET UNION:
  The output contains every holder appearing in ANY of: the holder
  directory, the unit source, or either allocation source. A holder with
  zero items still appears when listed in the directory - empty-state
  holders are visible, not silently dropped.

EMPTY-HOLDER PRUNING (asymmetric, a product decision):
  Holders whose visible total is zero are pruned only while a date window
  is active. Under the unfiltered default view they are retained.

SORT ORDER:
  By payroll serial ascending when both sides parse as integers; holders
  with non-numeric serials sort after all numeric ones; ties and
  non-numeric pairs fall back to case-insensitive display name.

SEARCH:
  Case-insensitive substring across the holder's name/ids and every
  visible item's code/name/serial/status/notes/date fields. An empty
  query retains everything.
*/
package ledger

import (
	"sort"
	"strconv"
	"strings"
)

// mergeInput carries the already-aggregated sources into Merge.
type mergeInput struct {
	Holders []Holder
	Items   []Item
	Units   []SerializedUnit // refined by RefineUnitIssueTimes
	Armory  LedgerMap
	General LedgerMap
	Window  Window
	Query   string
}

// merge assembles the ordered per-holder views.
func merge(in mergeInput) []HolderView {
	itemsByCode := make(map[string]Item, len(in.Items))
	for _, it := range in.Items {
		itemsByCode[it.Code] = it
	}

	views := make(map[string]*HolderView)
	ensure := func(identity string) *HolderView {
		v := views[identity]
		if v == nil {
			v = &HolderView{
				HolderID:    identity,
				DisplayName: identity,
				Units:       []UnitView{},
				Allocations: []AllocationView{},
			}
			views[identity] = v
		}
		return v
	}

	// Directory holders first, so empty-state holders exist in the union
	// and carry their display names.
	for _, h := range in.Holders {
		identity := h.Identity()
		if identity == "" {
			continue
		}
		v := ensure(identity)
		if h.DisplayName != "" {
			v.DisplayName = h.DisplayName
		}
		v.PayrollSerial = strings.TrimSpace(h.PayrollSerial)
	}

	// Serialized units: presence is authoritative from status.
	for _, u := range in.Units {
		if u.Status != UnitIssued {
			continue
		}
		holder := strings.TrimSpace(u.HolderID)
		if holder == "" {
			continue
		}
		if !in.Window.Contains(u.LastIssueAt) {
			continue
		}
		v := ensure(holder)
		v.Units = append(v.Units, UnitView{
			UnitID:       u.UnitID,
			ItemCode:     u.ItemCode,
			Name:         unitDisplayName(u, itemsByCode),
			SerialNumber: u.SerialNumber,
			Status:       u.Status,
			LastIssueAt:  u.LastIssueAt,
		})
	}

	appendAllocations(views, ensure, in.Armory, CategoryArmory, itemsByCode, in.Window)
	appendAllocations(views, ensure, in.General, CategoryGeneral, itemsByCode, in.Window)

	out := make([]HolderView, 0, len(views))
	windowActive := !in.Window.IsZero()
	query := strings.ToLower(strings.TrimSpace(in.Query))
	for _, v := range views {
		v.TotalItems = len(v.Units) + len(v.Allocations)
		if windowActive && v.TotalItems == 0 {
			continue // pruned only under filtering
		}
		if query != "" && !matchesQuery(v, query) {
			continue
		}
		sortItems(v)
		out = append(out, *v)
	}

	sortHolders(out)
	return out
}

func appendAllocations(views map[string]*HolderView, ensure func(string) *HolderView, m LedgerMap, cat Category, itemsByCode map[string]Item, w Window) {
	for _, a := range m.CurrentHoldings() {
		if !w.Contains(a.LastIssueAt) {
			continue
		}
		v := ensure(a.HolderID)
		item := itemsByCode[a.ItemCode]
		name := item.Name
		if name == "" {
			name = a.ItemCode
		}
		v.Allocations = append(v.Allocations, AllocationView{
			ItemCode:    a.ItemCode,
			ItemName:    name,
			UnitName:    item.UnitName,
			Quantity:    a.NetQuantity,
			Category:    cat,
			LastIssueAt: a.LastIssueAt,
			Notes:       a.LastIssueNote,
		})
	}
}

func unitDisplayName(u SerializedUnit, itemsByCode map[string]Item) string {
	if u.Name != "" {
		return u.Name
	}
	if it, ok := itemsByCode[u.ItemCode]; ok && it.Name != "" {
		return it.Name
	}
	return u.ItemCode
}

// sortItems gives each holder a stable item ordering for rendering and
// export: units by serial number, allocations by item code.
func sortItems(v *HolderView) {
	sort.Slice(v.Units, func(i, j int) bool {
		if v.Units[i].SerialNumber != v.Units[j].SerialNumber {
			return v.Units[i].SerialNumber < v.Units[j].SerialNumber
		}
		return v.Units[i].UnitID < v.Units[j].UnitID
	})
	sort.Slice(v.Allocations, func(i, j int) bool {
		if v.Allocations[i].Category != v.Allocations[j].Category {
			return v.Allocations[i].Category < v.Allocations[j].Category
		}
		return v.Allocations[i].ItemCode < v.Allocations[j].ItemCode
	})
}

func sortHolders(views []HolderView) {
	sort.Slice(views, func(i, j int) bool {
		ni, errI := strconv.Atoi(views[i].PayrollSerial)
		nj, errJ := strconv.Atoi(views[j].PayrollSerial)
		switch {
		case errI == nil && errJ == nil:
			if ni != nj {
				return ni < nj
			}
		case errI == nil:
			return true // numeric serials sort before non-numeric
		case errJ == nil:
			return false
		}
		li := strings.ToLower(views[i].DisplayName)
		lj := strings.ToLower(views[j].DisplayName)
		if li != lj {
			return li < lj
		}
		return views[i].HolderID < views[j].HolderID
	})
}

// matchesQuery reports whether the lowered query is a substring of any
// holder field or any visible item field.
func matchesQuery(v *HolderView, query string) bool {
	fields := []string{v.DisplayName, v.HolderID, v.PayrollSerial}
	for _, u := range v.Units {
		fields = append(fields, u.ItemCode, u.Name, u.SerialNumber, string(u.Status), u.LastIssueAt)
	}
	for _, a := range v.Allocations {
		fields = append(fields, a.ItemCode, a.ItemName, a.Notes, a.LastIssueAt, string(a.Category))
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
