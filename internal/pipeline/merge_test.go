package pipeline

import (
	"testing"
	"time"

	"github.com/laurash96/retail-ETL-BI/internal"
)

func sp(v string) *string { return &v }

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func day(t *testing.T, v string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", v)
	if err != nil {
		t.Fatal(err)
	}
	return &parsed
}

func TestMergeLeftJoinKeepsUnmatchedTransactions(t *testing.T) {
	transactions := []internal.Transaction{
		{InvoiceNumber: "F1", CustomerID: "C1", ReferenceID: sp("R-MISSING"), SalesAmount: 10, Units: 1},
	}
	merged, report := Merge(transactions, nil, []internal.ProductReference{
		{ReferenceID: "R1", Category: sp("CALZADO")},
	}, nil)

	if len(merged) != 1 {
		t.Fatalf("len=%d", len(merged))
	}
	rec := merged[0]
	if rec.InvoiceNumber != "F1" || rec.SalesAmount != 10 {
		t.Fatalf("transaction fields lost: %+v", rec)
	}
	if rec.Category != nil || rec.Group != nil || rec.TargetGender != nil {
		t.Fatal("unmatched reference columns must stay nil")
	}
	if report.RowsIn != 1 || report.RowsOut != 1 {
		t.Fatalf("report=%+v", report)
	}
}

func TestMergeJoinsAllThreeSides(t *testing.T) {
	transactions := []internal.Transaction{
		{InvoiceNumber: "F1", CustomerID: "C1", ReferenceID: sp("R1"), CampaignCode: sp("CAMP01"), SalesAmount: 100, Units: 4},
	}
	contacts := []internal.CustomerContact{
		{CustomerID: "C1", ContactType: sp("EMAIL"), Age: fp(34), Gender: sp("M"), PDV: "MADRID"},
	}
	references := []internal.ProductReference{
		{ReferenceID: "R1", Category: sp("CALZADO"), Group: sp("MUJER"), TargetGender: sp("F")},
	}
	campaigns := []internal.Campaign{
		{CampaignCode: "CAMP01", StartDate: day(t, "2024-03-01"), EndDate: day(t, "2024-03-15"), SendHour: ip(18)},
	}

	merged, _ := Merge(transactions, contacts, references, campaigns)
	if len(merged) != 1 {
		t.Fatalf("len=%d", len(merged))
	}
	rec := merged[0]
	if rec.PDV == nil || *rec.PDV != "MADRID" {
		t.Fatalf("pdv=%v", rec.PDV)
	}
	if rec.Category == nil || *rec.Category != "CALZADO" {
		t.Fatalf("category=%v", rec.Category)
	}
	if rec.CampaignStart == nil || rec.CampaignStart.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("campaignStart=%v", rec.CampaignStart)
	}
	if rec.SendHour == nil || *rec.SendHour != 18 {
		t.Fatalf("sendHour=%v", rec.SendHour)
	}
}

func TestMergeFanOutIsReported(t *testing.T) {
	transactions := []internal.Transaction{
		{InvoiceNumber: "F1", CustomerID: "C1", SalesAmount: 10, Units: 1},
		{InvoiceNumber: "F2", CustomerID: "C2", SalesAmount: 20, Units: 1},
	}
	contacts := []internal.CustomerContact{
		{CustomerID: "C1", ContactType: sp("EMAIL"), PDV: "A"},
		{CustomerID: "C1", ContactType: sp("SMS"), PDV: "B"},
		{CustomerID: "C1", ContactType: sp("CARTA"), PDV: "C"},
		{CustomerID: "C2", ContactType: sp("EMAIL"), PDV: "A"},
	}

	merged, report := Merge(transactions, contacts, nil, nil)
	if len(merged) != 4 {
		t.Fatalf("fan-out rows=%d want 4", len(merged))
	}

	join := report.Joins[0]
	if join.Name != "contacts" {
		t.Fatalf("join=%s", join.Name)
	}
	if join.FannedKeys != 1 || join.MaxMultiplicity != 3 {
		t.Fatalf("join report=%+v", join)
	}
}

func TestMergeNilKeysNeverJoin(t *testing.T) {
	transactions := []internal.Transaction{
		{InvoiceNumber: "F1", CustomerID: "C1", SalesAmount: 10, Units: 1},
	}
	campaigns := []internal.Campaign{
		{CampaignCode: "CAMP01", StartDate: day(t, "2024-03-01")},
	}

	merged, _ := Merge(transactions, nil, nil, campaigns)
	if merged[0].CampaignStart != nil {
		t.Fatal("nil campaign code must not join")
	}
}
