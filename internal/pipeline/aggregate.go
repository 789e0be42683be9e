package pipeline

import (
	"sort"

	"github.com/laurash96/retail-ETL-BI/internal"
)

// BuildCampaignStats counts, per campaign code, total rows and how many fell
// inside versus outside the campaign window. Output is ordered by campaign
// code for stable files across runs.
func BuildCampaignStats(records []internal.EnrichedRecord) []internal.CampaignStats {
	byCode := map[string]*internal.CampaignStats{}
	for _, rec := range records {
		code := ""
		if rec.CampaignCode != nil {
			code = *rec.CampaignCode
		}
		stats, ok := byCode[code]
		if !ok {
			stats = &internal.CampaignStats{CampaignCode: code}
			byCode[code] = stats
		}
		stats.Total++
		if rec.InCampaignWindow != nil && *rec.InCampaignWindow == 1 {
			stats.InWindow++
		} else {
			stats.OutWindow++
		}
	}

	out := make([]internal.CampaignStats, 0, len(byCode))
	for _, stats := range byCode {
		stats.InWindowRatio = float64(stats.InWindow) / float64(stats.Total)
		out = append(out, *stats)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CampaignCode < out[b].CampaignCode })
	return out
}

// BuildCustomerStats reduces the table to one row per customer: purchase
// count, summed sales, and first-seen demographic attributes.
func BuildCustomerStats(records []internal.EnrichedRecord) []internal.CustomerStats {
	byCustomer := map[string]*internal.CustomerStats{}
	order := []string{}
	for _, rec := range records {
		stats, ok := byCustomer[rec.CustomerID]
		if !ok {
			stats = &internal.CustomerStats{
				CustomerID:   rec.CustomerID,
				PDV:          rec.PDV,
				ContactType:  rec.ContactType,
				Age:          rec.Age,
				Gender:       rec.Gender,
				CampaignCode: rec.CampaignCode,
			}
			byCustomer[rec.CustomerID] = stats
			order = append(order, rec.CustomerID)
		}
		stats.Purchases++
		stats.TotalSales += rec.SalesAmount
	}

	out := make([]internal.CustomerStats, 0, len(order))
	for _, id := range order {
		out = append(out, *byCustomer[id])
	}
	return out
}

// BuildInvoiceRecency passes through one row per fact row with the
// precomputed recency feature.
func BuildInvoiceRecency(records []internal.EnrichedRecord) []internal.InvoiceRecency {
	out := make([]internal.InvoiceRecency, 0, len(records))
	for _, rec := range records {
		out = append(out, internal.InvoiceRecency{
			InvoiceNumber:         rec.InvoiceNumber,
			CustomerID:            rec.CustomerID,
			InvoiceDate:           rec.InvoiceDate,
			PDV:                   rec.PDV,
			DaysSinceLastPurchase: rec.DaysSinceLastPurchase,
		})
	}
	return out
}
