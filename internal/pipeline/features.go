package pipeline

import (
	"sort"
	"time"

	"github.com/laurash96/retail-ETL-BI/internal"
	"github.com/laurash96/retail-ETL-BI/internal/util"
)

// weekdayNames is the localized day-name table for the purchase_weekday
// column. Plain lookup table, matching what reporting already expects.
var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// ComputeFeatures derives the per-row feature columns on the cleaned table.
// Rows keep their order; only the derived fields change.
func ComputeFeatures(records []internal.EnrichedRecord) []internal.EnrichedRecord {
	out := make([]internal.EnrichedRecord, len(records))
	for i, rec := range records {
		if rec.InvoiceDate != nil && rec.CampaignStart != nil {
			rec.DaysCampaignToPurchase = util.IntPtr(util.DaysBetween(*rec.CampaignStart, *rec.InvoiceDate))
		}

		// Undefined when units is zero; nil, never a division crash.
		if rec.Units != 0 {
			rec.AvgUnitPrice = util.FloatPtr(rec.SalesAmount / rec.Units)
		} else {
			rec.AvgUnitPrice = nil
		}

		if rec.InvoiceDate != nil {
			rec.PurchaseWeekday = util.StringPtr(weekdayNames[rec.InvoiceDate.Weekday()])
		}

		if rec.InvoiceDate != nil && rec.CampaignStart != nil && rec.CampaignEnd != nil {
			rec.InCampaignWindow = util.IntPtr(inWindow(*rec.InvoiceDate, *rec.CampaignStart, *rec.CampaignEnd))
		}

		out[i] = rec
	}

	computeRecency(out)
	return out
}

// Sentinel-filled dates go through the same comparison as real ones; a
// sentinel inside the window counts as in-window.
func inWindow(invoice, start, end time.Time) int {
	if !invoice.Before(start) && !invoice.After(end) {
		return 1
	}
	return 0
}

// computeRecency fills days_since_last_purchase: per customer, rows ordered by
// invoice date ascending with ties broken by original row order, each row gets
// the whole-day gap to the customer's previous row. The first row per customer
// stays nil.
func computeRecency(records []internal.EnrichedRecord) {
	byCustomer := map[string][]int{}
	for i, rec := range records {
		byCustomer[rec.CustomerID] = append(byCustomer[rec.CustomerID], i)
	}

	for _, indices := range byCustomer {
		sort.SliceStable(indices, func(a, b int) bool {
			da, db := records[indices[a]].InvoiceDate, records[indices[b]].InvoiceDate
			if da == nil || db == nil {
				return da == nil && db != nil
			}
			return da.Before(*db)
		})

		for pos := 1; pos < len(indices); pos++ {
			prev := records[indices[pos-1]].InvoiceDate
			curr := records[indices[pos]].InvoiceDate
			if prev == nil || curr == nil {
				continue
			}
			records[indices[pos]].DaysSinceLastPurchase = util.IntPtr(util.DaysBetween(*prev, *curr))
		}
	}
}
