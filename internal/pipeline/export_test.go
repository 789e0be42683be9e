package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/laurash96/retail-ETL-BI/internal"
)

func sampleBundle(t *testing.T) OutputBundle {
	t.Helper()
	featured := ComputeFeatures([]internal.EnrichedRecord{{
		InvoiceNumber: "F1", CustomerID: "C1", ReferenceID: sp("R1"),
		InvoiceDate: day(t, "2024-03-10"), SalesAmount: 100, Units: 4,
		PaymentMethod: sp("TARJETA"), CampaignCode: sp("CAMP01"),
		PDV: sp("MADRID"), ContactType: sp("EMAIL"), Age: fp(34), Gender: sp("M"),
		Category: sp("CALZADO"), Group: sp("MUJER"), TargetGender: sp("F"),
		CampaignStart: day(t, "2024-03-01"), CampaignEnd: day(t, "2024-03-15"), SendHour: ip(18),
	}})
	return OutputBundle{
		Enriched:      featured,
		Contacts:      []internal.CustomerContact{{CustomerID: "C1", PDV: "MADRID"}},
		CampaignStats: BuildCampaignStats(featured),
		CustomerStats: BuildCustomerStats(featured),
		Recency:       BuildInvoiceRecency(featured),
	}
}

var expectedOutputs = []string{
	"enriched", "enriched_sin_fechas", "campaign_stats",
	"customer_stats", "invoice_recency", "contactos_consolidados",
}

func TestExportCSVWritesAllFilesWithHeaders(t *testing.T) {
	out := t.TempDir()
	exporter := Exporter{OutputDir: out, Format: FormatCSV}
	if err := exporter.Export(sampleBundle(t)); err != nil {
		t.Fatal(err)
	}

	for _, name := range expectedOutputs {
		path := filepath.Join(out, name+".csv")
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(rows) < 2 {
			t.Fatalf("%s: rows=%d, want header + data", name, len(rows))
		}
	}

	// No staging leftovers.
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(expectedOutputs) {
		t.Fatalf("leftover entries: %d", len(entries))
	}
}

func TestExportFullyRewrites(t *testing.T) {
	out := t.TempDir()
	exporter := Exporter{OutputDir: out, Format: FormatCSV}

	if err := exporter.Export(sampleBundle(t)); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(out, "enriched.csv"))
	if err != nil {
		t.Fatal(err)
	}

	if err := exporter.Export(sampleBundle(t)); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(out, "enriched.csv"))
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Fatal("re-export must rewrite, not append")
	}
}

func TestExportEnrichedCSVValues(t *testing.T) {
	out := t.TempDir()
	exporter := Exporter{OutputDir: out, Format: FormatCSV}
	if err := exporter.Export(sampleBundle(t)); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(out, "enriched.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	header, data := rows[0], rows[1]
	values := map[string]string{}
	for i, col := range header {
		values[col] = data[i]
	}

	checks := map[string]string{
		"invoice_number":            "F1",
		"invoice_date":              "2024-03-10",
		"avg_unit_price":            "25",
		"days_campaign_to_purchase": "9",
		"in_campaign_window":        "1",
		"purchase_weekday":          "Domingo",
		"days_since_last_purchase":  "",
	}
	for col, want := range checks {
		if values[col] != want {
			t.Fatalf("%s=%q want %q", col, values[col], want)
		}
	}
}

func TestExportXLSX(t *testing.T) {
	out := t.TempDir()
	exporter := Exporter{OutputDir: out, Format: FormatXLSX}
	if err := exporter.Export(sampleBundle(t)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(filepath.Join(out, "campaign_stats.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][0] != "campaign_code" {
		t.Fatalf("header=%v", rows[0])
	}
}
