package config

import (
	"testing"

	"github.com/laurash96/retail-ETL-BI/internal"
)

func TestParseFillOverrides(t *testing.T) {
	parsed, err := ParseFillOverrides("contact_type=SIN_TIPO, campaign_code=NO_PROMO")
	if err != nil {
		t.Fatal(err)
	}
	if parsed[internal.ColContactType] != "SIN_TIPO" {
		t.Fatalf("contact_type=%q", parsed[internal.ColContactType])
	}
	if parsed[internal.ColCampaignCode] != "NO_PROMO" {
		t.Fatalf("campaign_code=%q", parsed[internal.ColCampaignCode])
	}
}

func TestParseFillOverridesRejectsUnknownColumn(t *testing.T) {
	if _, err := ParseFillOverrides("no_such_column=X"); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestParseFillOverridesRejectsMalformedPair(t *testing.T) {
	if _, err := ParseFillOverrides("gender"); err == nil {
		t.Fatal("expected error for malformed pair")
	}
}

func TestDefaultFillsCoverEveryCategoricalColumn(t *testing.T) {
	fills := DefaultCategoricalFills()
	for _, col := range []string{
		internal.ColCampaignCode, internal.ColContactType, internal.ColGender,
		internal.ColPDV, internal.ColCategory, internal.ColGroup,
		internal.ColTargetGender, internal.ColPaymentMethod,
	} {
		if fills[col] == "" {
			t.Fatalf("no default sentinel for %s", col)
		}
	}
}
