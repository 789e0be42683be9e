package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/laurash96/retail-ETL-BI/internal"
)

type Config struct {
	InputDir  string
	OutputDir string
	DBPath    string

	ContactsGlob    string
	TransactionsXLS string
	ReferencesXLS   string
	CampaignsXLS    string

	OutputFormat string

	EpochSentinel    time.Time
	AgeMax           float64
	CategoricalFills map[string]string
}

// Sentinels match the ones the reporting side already keys on; changing one is
// a config change, not a code change.
func DefaultCategoricalFills() map[string]string {
	return map[string]string{
		internal.ColCampaignCode:  "DESCONOCIDO",
		internal.ColContactType:   "OTRO",
		internal.ColGender:        "DESCONOCIDO",
		internal.ColPDV:           "DESCONOCIDO",
		internal.ColCategory:      "DESCONOCIDO",
		internal.ColGroup:         "DESCONOCIDO",
		internal.ColTargetGender:  "DESCONOCIDO",
		internal.ColPaymentMethod: "DESCONOCIDO",
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InputDir:  getEnv("INPUT_DIR", filepath.Join(cwd, "data")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "runs.db")),

		ContactsGlob:    getEnv("CONTACTS_GLOB", "clientes_contactos_*.xlsx"),
		TransactionsXLS: getEnv("TRANSACTIONS_FILE", "ventas.xlsx"),
		ReferencesXLS:   getEnv("REFERENCES_FILE", "referencias.xlsx"),
		CampaignsXLS:    getEnv("CAMPAIGNS_FILE", "campanias.xlsx"),

		OutputFormat: getEnv("OUTPUT_FORMAT", "csv"),

		AgeMax:           getEnvFloat("AGE_MAX", 100),
		CategoricalFills: DefaultCategoricalFills(),
	}

	sentinel, err := time.Parse("2006-01-02", getEnv("EPOCH_SENTINEL_DATE", "2000-01-01"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid EPOCH_SENTINEL_DATE: %w", err)
	}
	cfg.EpochSentinel = sentinel

	if overrides := getEnv("CATEGORICAL_FILLS", ""); overrides != "" {
		parsed, err := ParseFillOverrides(overrides)
		if err != nil {
			return Config{}, err
		}
		for col, sentinel := range parsed {
			cfg.CategoricalFills[col] = sentinel
		}
	}

	return cfg, nil
}

// ParseFillOverrides reads "col=SENTINEL,col=SENTINEL" pairs. Unknown columns
// are rejected so a typo does not silently leave a column unfilled.
func ParseFillOverrides(input string) (map[string]string, error) {
	known := DefaultCategoricalFills()
	out := map[string]string{}
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		col, sentinel, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid CATEGORICAL_FILLS entry: %q", pair)
		}
		col = strings.TrimSpace(col)
		if _, exists := known[col]; !exists {
			return nil, fmt.Errorf("unknown fill column: %q", col)
		}
		out[col] = strings.TrimSpace(sentinel)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
