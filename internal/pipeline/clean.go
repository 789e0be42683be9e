package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/laurash96/retail-ETL-BI/internal"
	"github.com/laurash96/retail-ETL-BI/internal/util"
)

// Cleaner applies the remediation steps in a fixed order; each step's output
// feeds the next, and each is pure over its input slice.
type Cleaner struct {
	Fills         map[string]string
	AgeMax        float64
	EpochSentinel time.Time
}

type CleanReport struct {
	DroppedNegative   int
	FilledByColumn    map[string]int
	MeanAge           float64
	AgesReplaced      int
	DatesFilled       int
	HoursFilled       int
	DuplicatesDropped int
}

func (c Cleaner) Clean(records []internal.EnrichedRecord) ([]internal.EnrichedRecord, CleanReport) {
	report := CleanReport{FilledByColumn: map[string]int{}}

	records = c.FilterNegatives(records, &report)
	records = c.FillCategoricals(records, &report)
	records = c.RemediateAges(records, &report)
	records = c.FillDates(records, &report)
	records = c.Deduplicate(records, &report)

	return records, report
}

// FilterNegatives drops rows with a negative sales amount or negative units.
// The two conditions are independent; failing either drops the row.
func (c Cleaner) FilterNegatives(records []internal.EnrichedRecord, report *CleanReport) []internal.EnrichedRecord {
	out := make([]internal.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if rec.SalesAmount < 0 || rec.Units < 0 {
			if report != nil {
				report.DroppedNegative++
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (c Cleaner) FillCategoricals(records []internal.EnrichedRecord, report *CleanReport) []internal.EnrichedRecord {
	out := make([]internal.EnrichedRecord, len(records))
	for i, rec := range records {
		for col, sentinel := range c.Fills {
			if fillColumn(&rec, col, sentinel) && report != nil {
				report.FilledByColumn[col]++
			}
		}
		out[i] = rec
	}
	return out
}

func fillColumn(rec *internal.EnrichedRecord, col, sentinel string) bool {
	target := columnField(rec, col)
	if target == nil || *target != nil {
		return false
	}
	*target = util.StringPtr(sentinel)
	return true
}

func columnField(rec *internal.EnrichedRecord, col string) **string {
	switch col {
	case internal.ColCampaignCode:
		return &rec.CampaignCode
	case internal.ColContactType:
		return &rec.ContactType
	case internal.ColGender:
		return &rec.Gender
	case internal.ColPDV:
		return &rec.PDV
	case internal.ColCategory:
		return &rec.Category
	case internal.ColGroup:
		return &rec.Group
	case internal.ColTargetGender:
		return &rec.TargetGender
	case internal.ColPaymentMethod:
		return &rec.PaymentMethod
	default:
		return nil
	}
}

// RemediateAges replaces missing and out-of-range ages with the mean of the
// in-range ages of the dataset being cleaned. The mean is recomputed every run
// so it tracks the current dataset instead of going stale.
func (c Cleaner) RemediateAges(records []internal.EnrichedRecord, report *CleanReport) []internal.EnrichedRecord {
	mean := c.MeanValidAge(records)
	if report != nil {
		report.MeanAge = mean
	}

	out := make([]internal.EnrichedRecord, len(records))
	for i, rec := range records {
		if rec.Age == nil || *rec.Age <= 0 || *rec.Age > c.AgeMax {
			rec.Age = util.FloatPtr(mean)
			if report != nil {
				report.AgesReplaced++
			}
		}
		out[i] = rec
	}
	return out
}

// MeanValidAge averages the strictly positive, in-range ages. Falls back to
// the midpoint of the valid range when no row carries a usable age.
func (c Cleaner) MeanValidAge(records []internal.EnrichedRecord) float64 {
	sum, n := 0.0, 0
	for _, rec := range records {
		if rec.Age != nil && *rec.Age > 0 && *rec.Age <= c.AgeMax {
			sum += *rec.Age
			n++
		}
	}
	if n == 0 {
		return c.AgeMax / 2
	}
	return sum / float64(n)
}

func (c Cleaner) FillDates(records []internal.EnrichedRecord, report *CleanReport) []internal.EnrichedRecord {
	out := make([]internal.EnrichedRecord, len(records))
	for i, rec := range records {
		for _, date := range []**time.Time{&rec.InvoiceDate, &rec.CampaignStart, &rec.CampaignEnd} {
			if *date == nil {
				*date = util.TimePtr(c.EpochSentinel)
				if report != nil {
					report.DatesFilled++
				}
			}
		}
		if rec.SendHour == nil {
			rec.SendHour = util.IntPtr(0)
			if report != nil {
				report.HoursFilled++
			}
		}
		out[i] = rec
	}
	return out
}

// Deduplicate drops exact-duplicate rows across all columns, keeping the first
// occurrence. Idempotent: rerunning over its own output is a no-op.
func (c Cleaner) Deduplicate(records []internal.EnrichedRecord, report *CleanReport) []internal.EnrichedRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]internal.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		key := rowKey(rec)
		if _, dup := seen[key]; dup {
			if report != nil {
				report.DuplicatesDropped++
			}
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func rowKey(rec internal.EnrichedRecord) string {
	parts := []string{
		rec.InvoiceNumber,
		rec.CustomerID,
		keyString(rec.ReferenceID),
		keyTime(rec.InvoiceDate),
		fmt.Sprintf("%g", rec.SalesAmount),
		fmt.Sprintf("%g", rec.Units),
		keyString(rec.PaymentMethod),
		keyString(rec.CampaignCode),
		keyString(rec.ContactType),
		keyFloat(rec.Age),
		keyString(rec.Gender),
		keyString(rec.PDV),
		keyString(rec.Category),
		keyString(rec.Group),
		keyString(rec.TargetGender),
		keyTime(rec.CampaignStart),
		keyTime(rec.CampaignEnd),
		keyInt(rec.SendHour),
	}
	return strings.Join(parts, "\x1f")
}

func keyString(v *string) string {
	if v == nil {
		return "\x00"
	}
	return *v
}

func keyFloat(v *float64) string {
	if v == nil {
		return "\x00"
	}
	return fmt.Sprintf("%g", *v)
}

func keyInt(v *int) string {
	if v == nil {
		return "\x00"
	}
	return fmt.Sprintf("%d", *v)
}

func keyTime(v *time.Time) string {
	if v == nil {
		return "\x00"
	}
	return v.Format("2006-01-02")
}
