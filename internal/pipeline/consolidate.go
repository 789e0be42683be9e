package pipeline

import (
	"fmt"

	"github.com/laurash96/retail-ETL-BI/internal"
	"github.com/laurash96/retail-ETL-BI/internal/source"
)

// Consolidate concatenates the per-PDV contact tables into one, preserving
// every row and the source order of the tables. No deduplication happens here.
func Consolidate(tables []source.ContactTable) ([]internal.CustomerContact, error) {
	total := 0
	for _, table := range tables {
		if table.PDV == "" {
			return nil, fmt.Errorf("contact table without a PDV tag (%d rows)", len(table.Rows))
		}
		total += len(table.Rows)
	}

	out := make([]internal.CustomerContact, 0, total)
	for _, table := range tables {
		for _, row := range table.Rows {
			row.PDV = table.PDV
			out = append(out, row)
		}
	}
	return out, nil
}
