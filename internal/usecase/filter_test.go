package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/domain"
)

func names(campaigns []domain.Campaign) []string {
	out := make([]string, len(campaigns))
	for i, c := range campaigns {
		out[i] = c.CampaignName
	}
	return out
}

func sampleCampaigns() []domain.Campaign {
	return []domain.Campaign{
		{CampaignName: "dec", SendTime: "2023-12-31 23:59:59", Revenue: 30, UniquePlacedOrder: 3, OpenRate: 10, ClickRate: 4},
		{CampaignName: "jan-start", SendTime: "2024-01-01 00:00:00", Revenue: 10, UniquePlacedOrder: 9, OpenRate: 30, ClickRate: 1},
		{CampaignName: "undated", SendTime: "", Revenue: 50, UniquePlacedOrder: 1, OpenRate: 5, ClickRate: 9},
		{CampaignName: "jan-end", SendTime: "2024-01-31 23:00:00", Revenue: 20, UniquePlacedOrder: 5, OpenRate: 20, ClickRate: 2},
		{CampaignName: "feb", SendTime: "2024-02-01 00:00:00", Revenue: 40, UniquePlacedOrder: 7, OpenRate: 25, ClickRate: 3},
	}
}

func TestFilterAndSort_NoOptionsReturnsCopy(t *testing.T) {
	campaigns := sampleCampaigns()

	got := FilterAndSort(campaigns, domain.DefaultFilterOptions(), time.UTC)

	assert.Equal(t, campaigns, got)
	got[0].CampaignName = "changed"
	assert.Equal(t, "dec", campaigns[0].CampaignName)
}

func TestFilterAndSort_InclusiveDateRange(t *testing.T) {
	opts := domain.FilterOptions{DateFrom: "2024-01-01", DateTo: "2024-01-31"}

	got := FilterAndSort(sampleCampaigns(), opts, time.UTC)

	assert.Equal(t, []string{"jan-start", "jan-end"}, names(got))
}

func TestFilterAndSort_OpenEndedRange(t *testing.T) {
	from := FilterAndSort(sampleCampaigns(), domain.FilterOptions{DateFrom: "2024-01-31"}, time.UTC)
	assert.Equal(t, []string{"jan-end", "feb"}, names(from))

	to := FilterAndSort(sampleCampaigns(), domain.FilterOptions{DateTo: "2023-12-31"}, time.UTC)
	assert.Equal(t, []string{"dec"}, names(to))
}

func TestFilterAndSort_MalformedBoundStillExcludesUndated(t *testing.T) {
	got := FilterAndSort(sampleCampaigns(), domain.FilterOptions{DateFrom: "garbage"}, time.UTC)

	assert.Equal(t, []string{"dec", "jan-start", "jan-end", "feb"}, names(got))
}

func TestFilterAndSort_RangeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	campaigns := []domain.Campaign{{CampaignName: "x", SendTime: "2024-01-01 01:00:00"}}

	got := FilterAndSort(campaigns, domain.FilterOptions{DateFrom: "2024-01-01", DateTo: "2024-01-01"}, loc)

	assert.Equal(t, []string{"x"}, names(got))
}

func TestFilterAndSort_SortByNumericFields(t *testing.T) {
	tests := []struct {
		field domain.SortField
		dir   domain.SortDirection
		want  []string
	}{
		{domain.SortRevenue, domain.SortDesc, []string{"undated", "feb", "dec", "jan-end", "jan-start"}},
		{domain.SortRevenue, domain.SortAsc, []string{"jan-start", "jan-end", "dec", "feb", "undated"}},
		{domain.SortOrders, domain.SortDesc, []string{"jan-start", "feb", "jan-end", "dec", "undated"}},
		{domain.SortOpenRate, domain.SortAsc, []string{"undated", "dec", "jan-end", "feb", "jan-start"}},
		{domain.SortClickRate, domain.SortDesc, []string{"undated", "dec", "feb", "jan-end", "jan-start"}},
		// anything but desc sorts ascending
		{domain.SortRevenue, "sideways", []string{"jan-start", "jan-end", "dec", "feb", "undated"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+string(tt.dir), func(t *testing.T) {
			opts := domain.FilterOptions{SortField: tt.field, SortDirection: tt.dir}
			assert.Equal(t, tt.want, names(FilterAndSort(sampleCampaigns(), opts, time.UTC)))
		})
	}
}

func TestFilterAndSort_SortByTimeUnparseableLast(t *testing.T) {
	desc := FilterAndSort(sampleCampaigns(), domain.FilterOptions{SortField: domain.SortTime, SortDirection: domain.SortDesc}, time.UTC)
	assert.Equal(t, []string{"feb", "jan-end", "jan-start", "dec", "undated"}, names(desc))

	asc := FilterAndSort(sampleCampaigns(), domain.FilterOptions{SortField: domain.SortTime, SortDirection: domain.SortAsc}, time.UTC)
	assert.Equal(t, []string{"dec", "jan-start", "jan-end", "feb", "undated"}, names(asc))
}

func TestFilterAndSort_StableForEqualKeys(t *testing.T) {
	campaigns := []domain.Campaign{
		{CampaignName: "a", Revenue: 1},
		{CampaignName: "b", Revenue: 1},
		{CampaignName: "c", Revenue: 1},
	}

	got := FilterAndSort(campaigns, domain.FilterOptions{SortField: domain.SortRevenue, SortDirection: domain.SortDesc}, time.UTC)

	assert.Equal(t, []string{"a", "b", "c"}, names(got))
}

func TestFilterAndSort_Idempotent(t *testing.T) {
	opts := domain.FilterOptions{
		SortField:     domain.SortRevenue,
		SortDirection: domain.SortAsc,
		DateFrom:      "2024-01-01",
		DateTo:        "2024-12-31",
	}

	once := FilterAndSort(sampleCampaigns(), opts, time.UTC)
	twice := FilterAndSort(once, opts, time.UTC)

	require.NotEmpty(t, once)
	assert.Equal(t, once, twice)
}
