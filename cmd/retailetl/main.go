package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/laurash96/retail-ETL-BI/internal/config"
	"github.com/laurash96/retail-ETL-BI/internal/pipeline"
	"github.com/laurash96/retail-ETL-BI/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input directory (overrides INPUT_DIR)")
		output := fs.String("output", "", "output directory (overrides OUTPUT_DIR)")
		format := fs.String("format", "", "csv|xlsx (overrides OUTPUT_FORMAT)")
		_ = fs.Parse(os.Args[2:])
		applyOverrides(&cfg, *input, *output, *format)
		if cfg.OutputFormat != pipeline.FormatCSV && cfg.OutputFormat != pipeline.FormatXLSX {
			must(fmt.Errorf("unsupported output format: %s", cfg.OutputFormat))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		runner := pipeline.NewRunner(db, cfg)
		result, err := runner.Run()
		must(err)
		fmt.Printf("run done trace=%s merged=%d cleaned=%d exported=%d output=%s\n",
			result.TraceID, result.RowsMerged, result.RowsCleaned, result.RowsExported, cfg.OutputDir)
	case "validate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input directory (overrides INPUT_DIR)")
		_ = fs.Parse(os.Args[2:])
		applyOverrides(&cfg, *input, "", "")

		runner := pipeline.NewRunner(nil, cfg)
		must(runner.Validate())
		fmt.Println("inputs valid")
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 10, "max runs to list")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			fmt.Printf("#%d trace=%s at=%s totalMs=%.0f cleaned=%d\n",
				run.ID, run.TraceID, run.CreatedAt, run.Timings["totalMs"], run.Counts["cleaned"])
			warnings, err := db.ListWarnings(run.ID)
			must(err)
			for _, w := range warnings {
				fmt.Printf("  warning %s: %s\n", w.Kind, w.Detail)
			}
		}
	default:
		usage()
		os.Exit(1)
	}
}

func applyOverrides(cfg *config.Config, input, output, format string) {
	if strings.TrimSpace(input) != "" {
		cfg.InputDir = input
	}
	if strings.TrimSpace(output) != "" {
		cfg.OutputDir = output
	}
	if strings.TrimSpace(format) != "" {
		cfg.OutputFormat = format
	}
}

func usage() {
	fmt.Println("usage: retailetl <command>")
	fmt.Println("commands:")
	fmt.Println("  run --input=./data --output=./out [--format=csv|xlsx]")
	fmt.Println("  validate --input=./data")
	fmt.Println("  runs [--limit=10]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
