package query

import (
	"fmt"
	"testing"
)

type row struct {
	device string
	date   string
}

func (r row) DeviceKey() string { return r.device }
func (r row) DateKey() string   { return r.date }

func TestApplyEmptyQueryKeepsOrder(t *testing.T) {
	rows := []row{
		{"DEV-B", "2026-08-01 10:00:00"},
		{"DEV-A", "2026-08-01 10:00:00"},
		{"DEV-C", "2026-08-01 10:00:00"},
	}
	page := Apply(rows, "", SortFieldDate, OrderAsc, 0)
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	// Equal sort keys: stable sort retains relative input order.
	for i, want := range []string{"DEV-B", "DEV-A", "DEV-C"} {
		if page.Items[i].device != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, page.Items[i].device)
		}
	}
}

func TestApplyFilterCaseInsensitive(t *testing.T) {
	rows := []row{
		{"AB12CD34", "2026-08-01 10:00:00"},
		{"XY99ZZ00", "2026-08-02 11:00:00"},
	}
	page := Apply(rows, "ab12", SortFieldDate, OrderAsc, 0)
	if len(page.Items) != 1 || page.Items[0].device != "AB12CD34" {
		t.Fatalf("expected only AB12CD34, got %+v", page.Items)
	}

	// Date substrings match too.
	page = Apply(rows, "08-02", SortFieldDate, OrderAsc, 0)
	if len(page.Items) != 1 || page.Items[0].device != "XY99ZZ00" {
		t.Fatalf("expected only XY99ZZ00, got %+v", page.Items)
	}
}

func TestApplySortDeviceDesc(t *testing.T) {
	rows := []row{
		{"A", "2026-08-03 00:00:00"},
		{"C", "2026-08-01 00:00:00"},
		{"B", "2026-08-02 00:00:00"},
	}
	page := Apply(rows, "", SortFieldDeviceID, OrderDesc, 0)
	for i, want := range []string{"C", "B", "A"} {
		if page.Items[i].device != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, page.Items[i].device)
		}
	}

	page = Apply(rows, "", SortFieldDate, OrderAsc, 0)
	for i, want := range []string{"C", "B", "A"} {
		if page.Items[i].device != want {
			t.Fatalf("date asc position %d: expected %s, got %s", i, want, page.Items[i].device)
		}
	}
}

func TestApplyPagination(t *testing.T) {
	rows := make([]row, 65)
	for i := range rows {
		rows[i] = row{
			device: fmt.Sprintf("DEV-%03d", i),
			date:   fmt.Sprintf("2026-08-01 10:00:%02d", i%60),
		}
	}

	page := Apply(rows, "", SortFieldDeviceID, OrderAsc, 0)
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 65 records, got %d", page.TotalPages)
	}
	if len(page.Items) != PageSize {
		t.Fatalf("expected full first page, got %d", len(page.Items))
	}

	page = Apply(rows, "", SortFieldDeviceID, OrderAsc, 2)
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items on last page, got %d", len(page.Items))
	}
	if page.Items[0].device != "DEV-060" || page.Items[4].device != "DEV-064" {
		t.Fatalf("expected records 60..64, got %s..%s", page.Items[0].device, page.Items[4].device)
	}

	page = Apply(rows, "", SortFieldDeviceID, OrderAsc, 9)
	if len(page.Items) != 0 {
		t.Fatalf("expected empty page beyond range, got %d items", len(page.Items))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := []row{
		{"B", "2026-08-02 00:00:00"},
		{"A", "2026-08-01 00:00:00"},
	}
	_ = Apply(rows, "", SortFieldDeviceID, OrderAsc, 0)
	if rows[0].device != "B" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestParseHelpers(t *testing.T) {
	if ParseSortField("device_id") != SortFieldDeviceID {
		t.Fatal("expected device_id sort field")
	}
	if ParseSortField("bogus") != SortFieldDate {
		t.Fatal("expected fallback to date")
	}
	if ParseSortOrder("desc") != OrderDesc {
		t.Fatal("expected desc order")
	}
	if ParseSortOrder("") != OrderAsc {
		t.Fatal("expected fallback to asc")
	}
}
