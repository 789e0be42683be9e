package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/laurash96/retail-ETL-BI/internal"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// OutputBundle holds every table a run publishes.
type OutputBundle struct {
	Enriched      []internal.EnrichedRecord
	Contacts      []internal.CustomerContact
	CampaignStats []internal.CampaignStats
	CustomerStats []internal.CustomerStats
	Recency       []internal.InvoiceRecency
}

type table struct {
	name    string
	headers []string
	rows    [][]string
}

// Exporter serializes the output bundle as flat files, one per table, always
// with a header row and always fully rewritten. All files land in a staging
// directory first and are renamed into OutputDir only after every one
// succeeded, so a failed run leaves no partial outputs behind.
type Exporter struct {
	OutputDir string
	Format    string
}

func (e Exporter) Export(bundle OutputBundle) error {
	tables := []table{
		enrichedTable(bundle.Enriched),
		enrichedNoDateTable(bundle.Enriched),
		campaignStatsTable(bundle.CampaignStats),
		customerStatsTable(bundle.CustomerStats),
		recencyTable(bundle.Recency),
		contactsTable(bundle.Contacts),
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(e.OutputDir, ".staging-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	ext := FormatCSV
	if e.Format == FormatXLSX {
		ext = FormatXLSX
	}

	for _, t := range tables {
		path := filepath.Join(staging, t.name+"."+ext)
		if e.Format == FormatXLSX {
			err = writeXLSX(path, t)
		} else {
			err = writeCSV(path, t)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", t.name, err)
		}
	}

	for _, t := range tables {
		name := t.name + "." + ext
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(e.OutputDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, t table) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.headers); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, t table) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range t.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range t.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	return f.SaveAs(path)
}

func enrichedTable(records []internal.EnrichedRecord) table {
	t := table{
		name: "enriched",
		headers: []string{
			"invoice_number", "customer_id", "reference_id", "invoice_date",
			"sales_amount", "units", "payment_method", "campaign_code",
			"pdv", "contact_type", "age", "gender",
			"category", "group", "target_gender",
			"campaign_start", "campaign_end", "send_hour",
			"days_campaign_to_purchase", "avg_unit_price", "purchase_weekday",
			"in_campaign_window", "days_since_last_purchase",
		},
	}
	for _, rec := range records {
		t.rows = append(t.rows, []string{
			rec.InvoiceNumber, rec.CustomerID, fmtString(rec.ReferenceID), fmtDate(rec.InvoiceDate),
			fmtNumber(rec.SalesAmount), fmtNumber(rec.Units), fmtString(rec.PaymentMethod), fmtString(rec.CampaignCode),
			fmtString(rec.PDV), fmtString(rec.ContactType), fmtFloat(rec.Age), fmtString(rec.Gender),
			fmtString(rec.Category), fmtString(rec.Group), fmtString(rec.TargetGender),
			fmtDate(rec.CampaignStart), fmtDate(rec.CampaignEnd), fmtInt(rec.SendHour),
			fmtInt(rec.DaysCampaignToPurchase), fmtFloat(rec.AvgUnitPrice), fmtString(rec.PurchaseWeekday),
			fmtInt(rec.InCampaignWindow), fmtInt(rec.DaysSinceLastPurchase),
		})
	}
	return t
}

// The movement-counting variant: same facts minus every temporal and
// campaign-timing column.
func enrichedNoDateTable(records []internal.EnrichedRecord) table {
	t := table{
		name: "enriched_sin_fechas",
		headers: []string{
			"invoice_number", "customer_id", "reference_id",
			"sales_amount", "units", "avg_unit_price", "payment_method", "campaign_code",
			"pdv", "contact_type", "age", "gender",
			"category", "group", "target_gender",
		},
	}
	for _, rec := range records {
		t.rows = append(t.rows, []string{
			rec.InvoiceNumber, rec.CustomerID, fmtString(rec.ReferenceID),
			fmtNumber(rec.SalesAmount), fmtNumber(rec.Units), fmtFloat(rec.AvgUnitPrice), fmtString(rec.PaymentMethod), fmtString(rec.CampaignCode),
			fmtString(rec.PDV), fmtString(rec.ContactType), fmtFloat(rec.Age), fmtString(rec.Gender),
			fmtString(rec.Category), fmtString(rec.Group), fmtString(rec.TargetGender),
		})
	}
	return t
}

func campaignStatsTable(stats []internal.CampaignStats) table {
	t := table{
		name:    "campaign_stats",
		headers: []string{"campaign_code", "total", "in_window", "out_window", "in_window_ratio"},
	}
	for _, s := range stats {
		t.rows = append(t.rows, []string{
			s.CampaignCode,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.InWindow),
			strconv.Itoa(s.OutWindow),
			fmtNumber(s.InWindowRatio),
		})
	}
	return t
}

func customerStatsTable(stats []internal.CustomerStats) table {
	t := table{
		name: "customer_stats",
		headers: []string{
			"customer_id", "purchases", "total_sales",
			"pdv", "contact_type", "age", "gender", "campaign_code",
		},
	}
	for _, s := range stats {
		t.rows = append(t.rows, []string{
			s.CustomerID,
			strconv.Itoa(s.Purchases),
			fmtNumber(s.TotalSales),
			fmtString(s.PDV), fmtString(s.ContactType), fmtFloat(s.Age), fmtString(s.Gender), fmtString(s.CampaignCode),
		})
	}
	return t
}

func recencyTable(rows []internal.InvoiceRecency) table {
	t := table{
		name:    "invoice_recency",
		headers: []string{"invoice_number", "customer_id", "invoice_date", "pdv", "days_since_last_purchase"},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{
			r.InvoiceNumber, r.CustomerID, fmtDate(r.InvoiceDate), fmtString(r.PDV), fmtInt(r.DaysSinceLastPurchase),
		})
	}
	return t
}

func contactsTable(contacts []internal.CustomerContact) table {
	t := table{
		name:    "contactos_consolidados",
		headers: []string{"customer_id", "contact_type", "age", "gender", "pdv"},
	}
	for _, c := range contacts {
		t.rows = append(t.rows, []string{
			c.CustomerID, fmtString(c.ContactType), fmtFloat(c.Age), fmtString(c.Gender), c.PDV,
		})
	}
	return t
}

func fmtString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtNumber(*v)
}

func fmtInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fmtDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}

func fmtNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
