package usecase

import (
	"sort"
	"unicode/utf8"

	"campaigndash/internal/domain"
)

const chartNameLimit = 30

// CalculateStats derives totals, rate means and best/worst by revenue.
// Averages are means of the per-campaign rates, not ratios of the totals.
func CalculateStats(campaigns []domain.Campaign) domain.CampaignStats {
	if len(campaigns) == 0 {
		return domain.CampaignStats{}
	}

	var stats domain.CampaignStats
	var openRates, clickRates, orderRates float64

	for _, c := range campaigns {
		stats.TotalRecipients += c.TotalRecipients
		stats.TotalRevenue += c.Revenue
		stats.TotalOrders += c.UniquePlacedOrder
		stats.TotalOpens += c.UniqueOpens
		stats.TotalClicks += c.UniqueClicks

		openRates += c.OpenRate
		clickRates += c.ClickRate
		orderRates += c.PlacedOrderRate
	}

	n := float64(len(campaigns))
	stats.TotalCampaigns = len(campaigns)
	stats.AverageOpenRate = openRates / n
	stats.AverageClickRate = clickRates / n
	stats.AverageOrderRate = orderRates / n

	byRevenue := sortedByRevenue(campaigns)
	best := byRevenue[0]
	worst := byRevenue[len(byRevenue)-1]
	stats.BestCampaign = &best
	stats.WorstCampaign = &worst

	return stats
}

// ChartSeries returns one point per campaign, highest revenue first.
func ChartSeries(campaigns []domain.Campaign) []domain.ChartPoint {
	byRevenue := sortedByRevenue(campaigns)

	points := make([]domain.ChartPoint, len(byRevenue))
	for i, c := range byRevenue {
		points[i] = domain.ChartPoint{
			Name:      chartName(c.CampaignName),
			Revenue:   c.Revenue,
			Orders:    c.UniquePlacedOrder,
			OpenRate:  c.OpenRate,
			ClickRate: c.ClickRate,
			OrderRate: c.PlacedOrderRate,
		}
	}
	return points
}

func sortedByRevenue(campaigns []domain.Campaign) []domain.Campaign {
	sorted := make([]domain.Campaign, len(campaigns))
	copy(sorted, campaigns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue > sorted[j].Revenue
	})
	return sorted
}

func chartName(name string) string {
	if utf8.RuneCountInString(name) <= chartNameLimit {
		return name
	}
	return string([]rune(name)[:chartNameLimit]) + "..."
}
