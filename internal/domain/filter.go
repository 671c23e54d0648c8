package domain

// SortField selects the key used by the filter/sort engine.
type SortField string

const (
	SortNone      SortField = "none"
	SortRevenue   SortField = "revenue"
	SortOrders    SortField = "orders"
	SortOpenRate  SortField = "openRate"
	SortClickRate SortField = "clickRate"
	SortTime      SortField = "time"
)

// Valid reports whether f is one of the known sort fields.
func (f SortField) Valid() bool {
	switch f {
	case SortNone, SortRevenue, SortOrders, SortOpenRate, SortClickRate, SortTime:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterOptions carries the sort key, direction and the optional YYYY-MM-DD bounds.
type FilterOptions struct {
	SortField     SortField     `json:"sortField"`
	SortDirection SortDirection `json:"sortDirection"`
	DateFrom      string        `json:"dateFrom"`
	DateTo        string        `json:"dateTo"`
}

// DefaultFilterOptions is the state after a clear: no sort, descending, no dates.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		SortField:     SortNone,
		SortDirection: SortDesc,
	}
}

// HasDateRange reports whether at least one bound was supplied.
func (o FilterOptions) HasDateRange() bool {
	return o.DateFrom != "" || o.DateTo != ""
}

// IsActive reports whether applying the options can change the collection.
func (o FilterOptions) IsActive() bool {
	return o.HasDateRange() || (o.SortField != "" && o.SortField != SortNone)
}
