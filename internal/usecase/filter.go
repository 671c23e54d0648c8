package usecase

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"campaigndash/internal/domain"
)

// FilterAndSort applies the date range and then the sort to a copy of campaigns.
// Date bounds are inclusive calendar days in loc.
func FilterAndSort(campaigns []domain.Campaign, opts domain.FilterOptions, loc *time.Location) []domain.Campaign {
	loc = orLocal(loc)

	result := make([]domain.Campaign, 0, len(campaigns))
	if opts.HasDateRange() {
		from, hasFrom := parseDateBound(opts.DateFrom, loc)
		to, hasTo := parseDateBound(opts.DateTo, loc)

		for _, c := range campaigns {
			if inDateRange(c, from, hasFrom, to, hasTo, loc) {
				result = append(result, c)
			}
		}
	} else {
		result = append(result, campaigns...)
	}

	if opts.SortField != "" && opts.SortField != domain.SortNone {
		sortCampaigns(result, opts.SortField, opts.SortDirection, loc)
	}

	return result
}

// parseDateBound decomposes "YYYY-MM-DD" into local midnight. Malformed bounds are ignored.
func parseDateBound(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

func inDateRange(c domain.Campaign, from time.Time, hasFrom bool, to time.Time, hasTo bool, loc *time.Location) bool {
	sent, ok := ParseSendTime(c.SendTime, loc)
	if !ok {
		return false
	}

	sent = sent.In(loc)
	day := time.Date(sent.Year(), sent.Month(), sent.Day(), 0, 0, 0, 0, loc)

	if hasFrom && day.Before(from) {
		return false
	}
	if hasTo && day.After(to) {
		return false
	}
	return true
}

func sortCampaigns(campaigns []domain.Campaign, field domain.SortField, dir domain.SortDirection, loc *time.Location) {
	desc := dir == domain.SortDesc

	if field == domain.SortTime {
		sortBySendTime(campaigns, desc, loc)
		return
	}

	key := numericSortKey(field)
	if key == nil {
		return
	}

	sort.SliceStable(campaigns, func(i, j int) bool {
		a, b := key(campaigns[i]), key(campaigns[j])
		if desc {
			return a > b
		}
		return a < b
	})
}

func numericSortKey(field domain.SortField) func(domain.Campaign) float64 {
	switch field {
	case domain.SortRevenue:
		return func(c domain.Campaign) float64 { return c.Revenue }
	case domain.SortOrders:
		return func(c domain.Campaign) float64 { return c.UniquePlacedOrder }
	case domain.SortOpenRate:
		return func(c domain.Campaign) float64 { return c.OpenRate }
	case domain.SortClickRate:
		return func(c domain.Campaign) float64 { return c.ClickRate }
	default:
		return nil
	}
}

// sortBySendTime orders unparseable send times last in either direction.
func sortBySendTime(campaigns []domain.Campaign, desc bool, loc *time.Location) {
	type keyed struct {
		campaign domain.Campaign
		at       time.Time
		ok       bool
	}

	items := make([]keyed, len(campaigns))
	for i, c := range campaigns {
		at, ok := ParseSendTime(c.SendTime, loc)
		items[i] = keyed{campaign: c, at: at, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		if desc {
			return a.at.After(b.at)
		}
		return a.at.Before(b.at)
	})

	for i, item := range items {
		campaigns[i] = item.campaign
	}
}
