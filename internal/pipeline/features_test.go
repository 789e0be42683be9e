package pipeline

import (
	"testing"

	"github.com/laurash96/retail-ETL-BI/internal"
)

func TestComputeFeaturesScenario(t *testing.T) {
	// 2024-03-10 is a Sunday.
	records := []internal.EnrichedRecord{{
		InvoiceNumber: "F1",
		CustomerID:    "C1",
		SalesAmount:   100,
		Units:         4,
		InvoiceDate:   day(t, "2024-03-10"),
		CampaignStart: day(t, "2024-03-01"),
		CampaignEnd:   day(t, "2024-03-15"),
	}}

	out := ComputeFeatures(records)
	rec := out[0]

	if rec.AvgUnitPrice == nil || *rec.AvgUnitPrice != 25 {
		t.Fatalf("avgUnitPrice=%v", rec.AvgUnitPrice)
	}
	if rec.DaysCampaignToPurchase == nil || *rec.DaysCampaignToPurchase != 9 {
		t.Fatalf("daysCampaignToPurchase=%v", rec.DaysCampaignToPurchase)
	}
	if rec.InCampaignWindow == nil || *rec.InCampaignWindow != 1 {
		t.Fatalf("inCampaignWindow=%v", rec.InCampaignWindow)
	}
	if rec.PurchaseWeekday == nil || *rec.PurchaseWeekday != "Domingo" {
		t.Fatalf("purchaseWeekday=%v", rec.PurchaseWeekday)
	}
	if rec.DaysSinceLastPurchase != nil {
		t.Fatal("single transaction must have nil recency")
	}
}

func TestAvgUnitPriceZeroUnits(t *testing.T) {
	out := ComputeFeatures([]internal.EnrichedRecord{{
		InvoiceNumber: "F1", CustomerID: "C1", SalesAmount: 50, Units: 0,
	}})
	if out[0].AvgUnitPrice != nil {
		t.Fatalf("avgUnitPrice=%v, want nil for zero units", out[0].AvgUnitPrice)
	}
}

func TestDaysCampaignToPurchaseNegative(t *testing.T) {
	out := ComputeFeatures([]internal.EnrichedRecord{{
		InvoiceNumber: "F1", CustomerID: "C1", Units: 1,
		InvoiceDate:   day(t, "2024-02-25"),
		CampaignStart: day(t, "2024-03-01"),
		CampaignEnd:   day(t, "2024-03-15"),
	}})
	rec := out[0]
	if rec.DaysCampaignToPurchase == nil || *rec.DaysCampaignToPurchase != -5 {
		t.Fatalf("daysCampaignToPurchase=%v, want -5", rec.DaysCampaignToPurchase)
	}
	if rec.InCampaignWindow == nil || *rec.InCampaignWindow != 0 {
		t.Fatalf("inCampaignWindow=%v", rec.InCampaignWindow)
	}
}

func TestInCampaignWindowBoundariesInclusive(t *testing.T) {
	cases := []struct {
		name string
		date string
		want int
	}{
		{name: "start day", date: "2024-03-01", want: 1},
		{name: "end day", date: "2024-03-15", want: 1},
		{name: "day after", date: "2024-03-16", want: 0},
		{name: "day before", date: "2024-02-29", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ComputeFeatures([]internal.EnrichedRecord{{
				InvoiceNumber: "F1", CustomerID: "C1", Units: 1,
				InvoiceDate:   day(t, tc.date),
				CampaignStart: day(t, "2024-03-01"),
				CampaignEnd:   day(t, "2024-03-15"),
			}})
			if got := *out[0].InCampaignWindow; got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestSentinelDatesFlowThroughWindowCheck(t *testing.T) {
	// A sentinel invoice date that happens to fall inside a sentinel window
	// counts as in-window; the comparison is not special-cased.
	out := ComputeFeatures([]internal.EnrichedRecord{{
		InvoiceNumber: "F1", CustomerID: "C1", Units: 1,
		InvoiceDate:   day(t, "2000-01-01"),
		CampaignStart: day(t, "2000-01-01"),
		CampaignEnd:   day(t, "2000-01-01"),
	}})
	if *out[0].InCampaignWindow != 1 {
		t.Fatal("sentinel date inside sentinel window must evaluate to 1")
	}
}

func TestDaysSinceLastPurchase(t *testing.T) {
	// Out of date order on purpose: recency must sort per customer.
	records := []internal.EnrichedRecord{
		{InvoiceNumber: "F3", CustomerID: "C1", Units: 1, InvoiceDate: day(t, "2024-03-20")},
		{InvoiceNumber: "F1", CustomerID: "C1", Units: 1, InvoiceDate: day(t, "2024-03-01")},
		{InvoiceNumber: "F2", CustomerID: "C1", Units: 1, InvoiceDate: day(t, "2024-03-08")},
		{InvoiceNumber: "G1", CustomerID: "C2", Units: 1, InvoiceDate: day(t, "2024-03-05")},
	}

	out := ComputeFeatures(records)
	byInvoice := map[string]internal.EnrichedRecord{}
	for _, rec := range out {
		byInvoice[rec.InvoiceNumber] = rec
	}

	if byInvoice["F1"].DaysSinceLastPurchase != nil {
		t.Fatal("first purchase must have nil recency")
	}
	if v := byInvoice["F2"].DaysSinceLastPurchase; v == nil || *v != 7 {
		t.Fatalf("F2 recency=%v want 7", v)
	}
	if v := byInvoice["F3"].DaysSinceLastPurchase; v == nil || *v != 12 {
		t.Fatalf("F3 recency=%v want 12", v)
	}
	if byInvoice["G1"].DaysSinceLastPurchase != nil {
		t.Fatal("other customer's first purchase must have nil recency")
	}
}

func TestDaysSinceLastPurchaseTieBreaksByRowOrder(t *testing.T) {
	records := []internal.EnrichedRecord{
		{InvoiceNumber: "F1", CustomerID: "C1", Units: 1, InvoiceDate: day(t, "2024-03-10")},
		{InvoiceNumber: "F2", CustomerID: "C1", Units: 1, InvoiceDate: day(t, "2024-03-10")},
	}

	out := ComputeFeatures(records)
	if out[0].DaysSinceLastPurchase != nil {
		t.Fatal("earlier row of the tie must stay nil")
	}
	if out[1].DaysSinceLastPurchase == nil || *out[1].DaysSinceLastPurchase != 0 {
		t.Fatalf("later row of the tie=%v want 0", out[1].DaysSinceLastPurchase)
	}
}
