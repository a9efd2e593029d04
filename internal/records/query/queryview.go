// Package query implements the filter, sort and paginate pipeline over
// record lists surfaced to the record browser.
package query

import (
	"sort"
	"strings"
)

// PageSize is the fixed number of records per page.
const PageSize = 30

// SortField selects the record field the browser sorts on.
type SortField string

const (
	SortFieldDate     SortField = "date"
	SortFieldDeviceID SortField = "device_id"
)

// SortOrder selects the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Row is the record shape the pipeline operates on.
type Row interface {
	DeviceKey() string
	DateKey() string
}

// Page is one page of the filtered, sorted record list.
type Page[T Row] struct {
	Items      []T `json:"items"`
	TotalPages int `json:"total_pages"`
	PageIndex  int `json:"page_index"`
	TotalCount int `json:"total_count"`
}

// Apply filters, sorts and paginates records. It is pure and stateless: the
// caller owns the page index and resets it to zero whenever the query or
// sort changes. Filtering keeps records whose device ID or date contains the
// query, case-insensitively; an empty query keeps all. Sorting is a stable
// lexical comparison, so equal keys retain their relative input order.
func Apply[T Row](records []T, q string, field SortField, order SortOrder, pageIndex int) Page[T] {
	filtered := filter(records, q)
	sortRows(filtered, field, order)

	total := len(filtered)
	totalPages := (total + PageSize - 1) / PageSize

	if pageIndex < 0 {
		pageIndex = 0
	}
	start := pageIndex * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      filtered[start:end],
		TotalPages: totalPages,
		PageIndex:  pageIndex,
		TotalCount: total,
	}
}

func filter[T Row](records []T, q string) []T {
	result := make([]T, 0, len(records))
	if q == "" {
		return append(result, records...)
	}
	needle := strings.ToLower(q)
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.DeviceKey()), needle) ||
			strings.Contains(strings.ToLower(record.DateKey()), needle) {
			result = append(result, record)
		}
	}
	return result
}

func sortRows[T Row](rows []T, field SortField, order SortOrder) {
	key := func(row T) string { return row.DateKey() }
	if field == SortFieldDeviceID {
		key = func(row T) string { return row.DeviceKey() }
	}
	sign := 1
	if order == OrderDesc {
		sign = -1
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return sign*strings.Compare(key(rows[i]), key(rows[j])) < 0
	})
}

// ParseSortField normalizes a sort field parameter; unknown values fall back
// to the date field.
func ParseSortField(value string) SortField {
	if SortField(value) == SortFieldDeviceID {
		return SortFieldDeviceID
	}
	return SortFieldDate
}

// ParseSortOrder normalizes a sort order parameter; unknown values fall back
// to ascending.
func ParseSortOrder(value string) SortOrder {
	if SortOrder(value) == OrderDesc {
		return OrderDesc
	}
	return OrderAsc
}
