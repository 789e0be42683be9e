package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/laurash96/retail-ETL-BI/internal"
	"github.com/laurash96/retail-ETL-BI/internal/util"
)

// ContactTable is one per-PDV contacts file, tagged with its source location
// before consolidation.
type ContactTable struct {
	PDV  string
	Rows []internal.CustomerContact
}

// SchemaError aborts the run before any output is written.
type SchemaError struct {
	File   string
	Column string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch in %s: no column resolves to %q", e.File, e.Column)
}

// columnSpec maps a canonical column to the header substrings that identify it
// in the raw files. Source files mix Spanish and English spellings and two
// casing conventions; resolution happens once here and nowhere else.
type columnSpec struct {
	name   string
	probes []string
}

var contactColumns = []columnSpec{
	{internal.ColCustomerID, []string{"id cliente", "id_cliente", "cliente", "customer"}},
	{internal.ColContactType, []string{"tipo contacto", "tipo_contacto", "contacto", "contact"}},
	{internal.ColAge, []string{"edad", "age"}},
	{internal.ColGender, []string{"sexo", "genero", "género", "gender"}},
}

var transactionColumns = []columnSpec{
	{internal.ColInvoiceNumber, []string{"factura", "invoice", "ticket"}},
	{internal.ColCustomerID, []string{"id cliente", "id_cliente", "cliente", "customer"}},
	{internal.ColReferenceID, []string{"referencia", "reference", "ref"}},
	{internal.ColInvoiceDate, []string{"fecha", "date"}},
	{internal.ColSalesAmount, []string{"importe", "venta", "sales", "amount"}},
	{internal.ColUnits, []string{"unidades", "cantidad", "units", "qty"}},
	{internal.ColPaymentMethod, []string{"pago", "payment", "medio"}},
	{internal.ColCampaignCode, []string{"campaña", "campana", "campaign", "promo"}},
}

var referenceColumns = []columnSpec{
	{internal.ColReferenceID, []string{"referencia", "reference", "ref"}},
	{internal.ColCategory, []string{"categoria", "categoría", "category"}},
	{internal.ColGroup, []string{"grupo", "group"}},
	{internal.ColTargetGender, []string{"sexo objetivo", "sexo_objetivo", "publico", "público", "target"}},
}

var campaignColumns = []columnSpec{
	{internal.ColCampaignCode, []string{"cod campaña", "cod_campana", "campaña", "campana", "campaign", "promo"}},
	{internal.ColCampaignStart, []string{"inicio", "start", "desde"}},
	{internal.ColCampaignEnd, []string{"fin", "end", "hasta"}},
	{internal.ColSendHour, []string{"hora", "hour"}},
}

// resolveColumns maps every canonical column to a header index. Columns claim
// indices in declaration order so a broad probe ("fecha") cannot steal a
// column already taken by a more specific one. Every column is required.
func resolveColumns(file string, headers []string, specs []columnSpec) (map[string]int, error) {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(util.NormalizeSpaces(h))
	}

	claimed := map[int]bool{}
	out := map[string]int{}
	for _, spec := range specs {
		idx := -1
		for i, h := range norm {
			if claimed[i] || h == "" {
				continue
			}
			for _, probe := range spec.probes {
				if strings.Contains(h, probe) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}
		if idx < 0 {
			return nil, SchemaError{File: file, Column: spec.name}
		}
		claimed[idx] = true
		out[spec.name] = idx
	}
	return out, nil
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return util.NormalizeSpaces(row[idx])
}

func optString(row []string, idx int) *string {
	v := cell(row, idx)
	if v == "" {
		return nil
	}
	return util.StringPtr(v)
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LoadContacts reads every per-PDV contacts file matching glob under dir. The
// PDV tag comes from the filename: the part the glob's wildcard matched.
func LoadContacts(dir, glob string) ([]ContactTable, error) {
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no contact files matching %s in %s", glob, dir)
	}

	out := make([]ContactTable, 0, len(paths))
	for _, path := range paths {
		table, err := loadContactFile(path, pdvFromFilename(path, glob))
		if err != nil {
			return nil, err
		}
		out = append(out, table)
	}
	return out, nil
}

func loadContactFile(path, pdv string) (ContactTable, error) {
	rows, err := readSheet(path)
	if err != nil {
		return ContactTable{}, err
	}
	if len(rows) == 0 {
		return ContactTable{}, SchemaError{File: path, Column: internal.ColCustomerID}
	}

	cols, err := resolveColumns(path, rows[0], contactColumns)
	if err != nil {
		return ContactTable{}, err
	}

	table := ContactTable{PDV: pdv}
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		customerID := cell(row, cols[internal.ColCustomerID])
		if customerID == "" {
			continue
		}
		table.Rows = append(table.Rows, internal.CustomerContact{
			CustomerID:  customerID,
			ContactType: optString(row, cols[internal.ColContactType]),
			Age:         util.ParseNumber(cell(row, cols[internal.ColAge])),
			Gender:      optString(row, cols[internal.ColGender]),
			PDV:         pdv,
		})
	}
	return table, nil
}

func pdvFromFilename(path, glob string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix, _, ok := strings.Cut(filepath.Base(glob), "*")
	if ok && strings.HasPrefix(base, prefix) {
		if tag := strings.Trim(strings.TrimPrefix(base, prefix), "_- "); tag != "" {
			return tag
		}
	}
	return base
}

func LoadTransactions(path string) ([]internal.Transaction, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, SchemaError{File: path, Column: internal.ColInvoiceNumber}
	}

	cols, err := resolveColumns(path, rows[0], transactionColumns)
	if err != nil {
		return nil, err
	}

	var out []internal.Transaction
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		invoice := cell(row, cols[internal.ColInvoiceNumber])
		customer := cell(row, cols[internal.ColCustomerID])
		if invoice == "" || customer == "" {
			continue
		}
		tx := internal.Transaction{
			InvoiceNumber: invoice,
			CustomerID:    customer,
			ReferenceID:   optString(row, cols[internal.ColReferenceID]),
			InvoiceDate:   util.ParseDate(cell(row, cols[internal.ColInvoiceDate])),
			PaymentMethod: optString(row, cols[internal.ColPaymentMethod]),
			CampaignCode:  optString(row, cols[internal.ColCampaignCode]),
		}
		if v := util.ParseNumber(cell(row, cols[internal.ColSalesAmount])); v != nil {
			tx.SalesAmount = *v
		}
		if v := util.ParseNumber(cell(row, cols[internal.ColUnits])); v != nil {
			tx.Units = *v
		}
		out = append(out, tx)
	}
	return out, nil
}

func LoadReferences(path string) ([]internal.ProductReference, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, SchemaError{File: path, Column: internal.ColReferenceID}
	}

	cols, err := resolveColumns(path, rows[0], referenceColumns)
	if err != nil {
		return nil, err
	}

	var out []internal.ProductReference
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		refID := cell(row, cols[internal.ColReferenceID])
		if refID == "" {
			continue
		}
		out = append(out, internal.ProductReference{
			ReferenceID:  refID,
			Category:     optString(row, cols[internal.ColCategory]),
			Group:        optString(row, cols[internal.ColGroup]),
			TargetGender: optString(row, cols[internal.ColTargetGender]),
		})
	}
	return out, nil
}

func LoadCampaigns(path string) ([]internal.Campaign, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, SchemaError{File: path, Column: internal.ColCampaignCode}
	}

	cols, err := resolveColumns(path, rows[0], campaignColumns)
	if err != nil {
		return nil, err
	}

	var out []internal.Campaign
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		code := cell(row, cols[internal.ColCampaignCode])
		if code == "" {
			continue
		}
		out = append(out, internal.Campaign{
			CampaignCode: code,
			StartDate:    util.ParseDate(cell(row, cols[internal.ColCampaignStart])),
			EndDate:      util.ParseDate(cell(row, cols[internal.ColCampaignEnd])),
			SendHour:     util.ParseHour(cell(row, cols[internal.ColSendHour])),
		})
	}
	return out, nil
}
