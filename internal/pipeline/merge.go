package pipeline

import (
	"log/slog"

	"github.com/laurash96/retail-ETL-BI/internal"
)

// JoinReport describes one left join's fan-out: how many left keys matched
// more than one right-side row, and the largest multiplicity seen. Fan-out is
// expected for 1:N relations (several contacts per customer) but it changes
// downstream row counts, so it is surfaced instead of silently accepted.
type JoinReport struct {
	Name            string
	FannedKeys      int
	MaxMultiplicity int
}

type MergeReport struct {
	Joins   []JoinReport
	RowsIn  int
	RowsOut int
}

// Merge performs the three left joins in fixed order: transactions against
// consolidated contacts on customer id, then product references on reference
// id, then campaigns on campaign code. Every transaction row survives;
// unmatched right-side columns stay nil. Keys are opaque strings.
func Merge(
	transactions []internal.Transaction,
	contacts []internal.CustomerContact,
	references []internal.ProductReference,
	campaigns []internal.Campaign,
) ([]internal.EnrichedRecord, MergeReport) {
	contactsByCustomer := map[string][]internal.CustomerContact{}
	for _, c := range contacts {
		contactsByCustomer[c.CustomerID] = append(contactsByCustomer[c.CustomerID], c)
	}
	referencesByID := map[string][]internal.ProductReference{}
	for _, r := range references {
		referencesByID[r.ReferenceID] = append(referencesByID[r.ReferenceID], r)
	}
	campaignsByCode := map[string][]internal.Campaign{}
	for _, c := range campaigns {
		campaignsByCode[c.CampaignCode] = append(campaignsByCode[c.CampaignCode], c)
	}

	report := MergeReport{RowsIn: len(transactions)}

	// Join 1: transactions x contacts.
	contactJoin := JoinReport{Name: "contacts"}
	stage1 := make([]internal.EnrichedRecord, 0, len(transactions))
	for _, tx := range transactions {
		base := internal.EnrichedRecord{
			InvoiceNumber: tx.InvoiceNumber,
			CustomerID:    tx.CustomerID,
			ReferenceID:   tx.ReferenceID,
			InvoiceDate:   tx.InvoiceDate,
			SalesAmount:   tx.SalesAmount,
			Units:         tx.Units,
			PaymentMethod: tx.PaymentMethod,
			CampaignCode:  tx.CampaignCode,
		}
		matches := contactsByCustomer[tx.CustomerID]
		if len(matches) == 0 {
			stage1 = append(stage1, base)
			continue
		}
		noteFanOut(&contactJoin, len(matches))
		for _, c := range matches {
			rec := base
			rec.ContactType = c.ContactType
			rec.Age = c.Age
			rec.Gender = c.Gender
			rec.PDV = &c.PDV
			stage1 = append(stage1, rec)
		}
	}
	report.Joins = append(report.Joins, contactJoin)

	// Join 2: x product references.
	referenceJoin := JoinReport{Name: "references"}
	stage2 := make([]internal.EnrichedRecord, 0, len(stage1))
	for _, rec := range stage1 {
		var matches []internal.ProductReference
		if rec.ReferenceID != nil {
			matches = referencesByID[*rec.ReferenceID]
		}
		if len(matches) == 0 {
			stage2 = append(stage2, rec)
			continue
		}
		noteFanOut(&referenceJoin, len(matches))
		for _, ref := range matches {
			out := rec
			out.Category = ref.Category
			out.Group = ref.Group
			out.TargetGender = ref.TargetGender
			stage2 = append(stage2, out)
		}
	}
	report.Joins = append(report.Joins, referenceJoin)

	// Join 3: x campaigns.
	campaignJoin := JoinReport{Name: "campaigns"}
	stage3 := make([]internal.EnrichedRecord, 0, len(stage2))
	for _, rec := range stage2 {
		var matches []internal.Campaign
		if rec.CampaignCode != nil {
			matches = campaignsByCode[*rec.CampaignCode]
		}
		if len(matches) == 0 {
			stage3 = append(stage3, rec)
			continue
		}
		noteFanOut(&campaignJoin, len(matches))
		for _, camp := range matches {
			out := rec
			out.CampaignStart = camp.StartDate
			out.CampaignEnd = camp.EndDate
			out.SendHour = camp.SendHour
			stage3 = append(stage3, out)
		}
	}
	report.Joins = append(report.Joins, campaignJoin)

	report.RowsOut = len(stage3)
	for _, join := range report.Joins {
		if join.FannedKeys > 0 {
			slog.Warn("join fan-out",
				slog.String("join", join.Name),
				slog.Int("fanned_keys", join.FannedKeys),
				slog.Int("max_multiplicity", join.MaxMultiplicity))
		}
	}
	return stage3, report
}

func noteFanOut(report *JoinReport, multiplicity int) {
	if multiplicity <= 1 {
		return
	}
	report.FannedKeys++
	if multiplicity > report.MaxMultiplicity {
		report.MaxMultiplicity = multiplicity
	}
}
