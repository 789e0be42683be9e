package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/laurash96/retail-ETL-BI/internal"
	"github.com/laurash96/retail-ETL-BI/internal/config"
	"github.com/laurash96/retail-ETL-BI/internal/source"
	"github.com/laurash96/retail-ETL-BI/internal/storage"
)

// Runner executes the full pipeline once, front to back: load, consolidate,
// merge, clean, derive features, aggregate, export. Each run rebuilds every
// output from scratch and journals its timings and counts.
type Runner struct {
	db  *storage.DB
	cfg config.Config
}

func NewRunner(db *storage.DB, cfg config.Config) *Runner {
	return &Runner{db: db, cfg: cfg}
}

type RunResult struct {
	TraceID      string
	RowsMerged   int
	RowsCleaned  int
	RowsExported int
}

type inputs struct {
	contactTables []source.ContactTable
	transactions  []internal.Transaction
	references    []internal.ProductReference
	campaigns     []internal.Campaign
}

// load reads every source file. Any schema or path error here is fatal and
// happens before anything is written.
func (r *Runner) load() (inputs, error) {
	var in inputs
	var err error

	if in.contactTables, err = source.LoadContacts(r.cfg.InputDir, r.cfg.ContactsGlob); err != nil {
		return inputs{}, err
	}
	if in.transactions, err = source.LoadTransactions(filepath.Join(r.cfg.InputDir, r.cfg.TransactionsXLS)); err != nil {
		return inputs{}, err
	}
	if in.references, err = source.LoadReferences(filepath.Join(r.cfg.InputDir, r.cfg.ReferencesXLS)); err != nil {
		return inputs{}, err
	}
	if in.campaigns, err = source.LoadCampaigns(filepath.Join(r.cfg.InputDir, r.cfg.CampaignsXLS)); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// Validate loads and schema-checks every input without producing outputs.
func (r *Runner) Validate() error {
	in, err := r.load()
	if err != nil {
		return err
	}
	contactRows := 0
	for _, table := range in.contactTables {
		contactRows += len(table.Rows)
	}
	slog.Info("inputs valid",
		slog.Int("contact_files", len(in.contactTables)),
		slog.Int("contact_rows", contactRows),
		slog.Int("transactions", len(in.transactions)),
		slog.Int("references", len(in.references)),
		slog.Int("campaigns", len(in.campaigns)))
	return nil
}

func (r *Runner) Run() (RunResult, error) {
	start := time.Now()
	timings := map[string]float64{}
	mark := func(stage string, since time.Time) time.Time {
		timings[stage] = float64(time.Since(since).Milliseconds())
		return time.Now()
	}

	in, err := r.load()
	if err != nil {
		return RunResult{}, err
	}
	t := mark("load", start)

	contacts, err := Consolidate(in.contactTables)
	if err != nil {
		return RunResult{}, err
	}
	slog.Info("consolidated contacts", slog.Int("tables", len(in.contactTables)), slog.Int("rows", len(contacts)))
	t = mark("consolidate", t)

	merged, mergeReport := Merge(in.transactions, contacts, in.references, in.campaigns)
	slog.Info("merged", slog.Int("rows_in", mergeReport.RowsIn), slog.Int("rows_out", mergeReport.RowsOut))
	t = mark("merge", t)

	cleaner := Cleaner{
		Fills:         r.cfg.CategoricalFills,
		AgeMax:        r.cfg.AgeMax,
		EpochSentinel: r.cfg.EpochSentinel,
	}
	cleaned, cleanReport := cleaner.Clean(merged)
	slog.Info("cleaned",
		slog.Int("rows", len(cleaned)),
		slog.Int("dropped_negative", cleanReport.DroppedNegative),
		slog.Int("ages_replaced", cleanReport.AgesReplaced),
		slog.Int("duplicates_dropped", cleanReport.DuplicatesDropped))
	t = mark("clean", t)

	featured := ComputeFeatures(cleaned)
	t = mark("features", t)

	bundle := OutputBundle{
		Enriched:      featured,
		Contacts:      contacts,
		CampaignStats: BuildCampaignStats(featured),
		CustomerStats: BuildCustomerStats(featured),
		Recency:       BuildInvoiceRecency(featured),
	}
	t = mark("aggregate", t)

	exporter := Exporter{OutputDir: r.cfg.OutputDir, Format: r.cfg.OutputFormat}
	if err := exporter.Export(bundle); err != nil {
		return RunResult{}, err
	}
	mark("export", t)
	timings["totalMs"] = float64(time.Since(start).Milliseconds())

	result := RunResult{
		TraceID:      traceID(),
		RowsMerged:   mergeReport.RowsOut,
		RowsCleaned:  len(cleaned),
		RowsExported: len(featured),
	}
	r.journal(result, mergeReport, cleanReport, timings, len(contacts))
	return result, nil
}

// journal failures never fail the run; the outputs are already on disk.
func (r *Runner) journal(result RunResult, mergeReport MergeReport, cleanReport CleanReport, timings map[string]float64, contactRows int) {
	if r.db == nil {
		return
	}

	counts := map[string]int{
		"contacts":          contactRows,
		"merged":            mergeReport.RowsOut,
		"cleaned":           result.RowsCleaned,
		"droppedNegative":   cleanReport.DroppedNegative,
		"agesReplaced":      cleanReport.AgesReplaced,
		"datesFilled":       cleanReport.DatesFilled,
		"duplicatesDropped": cleanReport.DuplicatesDropped,
	}
	for col, n := range cleanReport.FilledByColumn {
		counts["filled:"+col] = n
	}

	runID, err := r.db.InsertRun(result.TraceID, timings, counts)
	if err != nil {
		slog.Warn("run journal write failed", slog.String("error", err.Error()))
		return
	}
	for _, join := range mergeReport.Joins {
		if join.FannedKeys == 0 {
			continue
		}
		detail := fmt.Sprintf("join=%s fannedKeys=%d maxMultiplicity=%d", join.Name, join.FannedKeys, join.MaxMultiplicity)
		if err := r.db.InsertWarning(runID, "join_fanout", detail); err != nil {
			slog.Warn("warning journal write failed", slog.String("error", err.Error()))
		}
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
