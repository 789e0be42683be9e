package internal

import "time"

// Canonical column names. The loader resolves raw source-file headers onto
// these once at load time; everything downstream (fill map, exporters) only
// ever sees canonical names.
const (
	ColInvoiceNumber = "invoice_number"
	ColCustomerID    = "customer_id"
	ColReferenceID   = "reference_id"
	ColInvoiceDate   = "invoice_date"
	ColSalesAmount   = "sales_amount"
	ColUnits         = "units"
	ColPaymentMethod = "payment_method"
	ColCampaignCode  = "campaign_code"
	ColContactType   = "contact_type"
	ColAge           = "age"
	ColGender        = "gender"
	ColPDV           = "pdv"
	ColCategory      = "category"
	ColGroup         = "group"
	ColTargetGender  = "target_gender"
	ColCampaignStart = "campaign_start"
	ColCampaignEnd   = "campaign_end"
	ColSendHour      = "send_hour"
)

// CustomerContact is one contact event at a retail location (PDV).
type CustomerContact struct {
	CustomerID  string
	ContactType *string
	Age         *float64
	Gender      *string
	PDV         string
}

type Transaction struct {
	InvoiceNumber string
	CustomerID    string
	ReferenceID   *string
	InvoiceDate   *time.Time
	SalesAmount   float64
	Units         float64
	PaymentMethod *string
	CampaignCode  *string
}

type ProductReference struct {
	ReferenceID  string
	Category     *string
	Group        *string
	TargetGender *string
}

type Campaign struct {
	CampaignCode string
	StartDate    *time.Time
	EndDate      *time.Time
	SendHour     *int
}

// EnrichedRecord is the denormalized per-transaction fact row: a transaction
// left-joined with its contact, product reference and campaign rows, plus the
// derived feature columns. Nil means missing (no right-side match, or the
// feature is undefined for the row).
type EnrichedRecord struct {
	InvoiceNumber string
	CustomerID    string
	ReferenceID   *string
	InvoiceDate   *time.Time
	SalesAmount   float64
	Units         float64
	PaymentMethod *string
	CampaignCode  *string

	ContactType *string
	Age         *float64
	Gender      *string
	PDV         *string

	Category     *string
	Group        *string
	TargetGender *string

	CampaignStart *time.Time
	CampaignEnd   *time.Time
	SendHour      *int

	DaysCampaignToPurchase *int
	AvgUnitPrice           *float64
	PurchaseWeekday        *string
	InCampaignWindow       *int
	DaysSinceLastPurchase  *int
}

type CampaignStats struct {
	CampaignCode  string
	Total         int
	InWindow      int
	OutWindow     int
	InWindowRatio float64
}

// CustomerStats carries first-seen demographic attributes: they should be
// stable per customer, and first-seen keeps the reduction deterministic when
// they are not.
type CustomerStats struct {
	CustomerID   string
	Purchases    int
	TotalSales   float64
	PDV          *string
	ContactType  *string
	Age          *float64
	Gender       *string
	CampaignCode *string
}

type InvoiceRecency struct {
	InvoiceNumber         string
	CustomerID            string
	InvoiceDate           *time.Time
	PDV                   *string
	DaysSinceLastPurchase *int
}

// RunRow is one journal entry for a completed pipeline run.
type RunRow struct {
	ID        int
	TraceID   string
	Timings   map[string]float64
	Counts    map[string]int
	CreatedAt string
}

type WarningRow struct {
	ID     int
	RunID  int
	Kind   string
	Detail string
}
