package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
)

// Catalog sources.
const (
	CatalogBuiltin  = "builtin"
	CatalogFile     = "file"
	CatalogBigQuery = "bigquery"
)

// Config is the service configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Log       LogConfig        `yaml:"log"`
	Payments  PaymentsConfig   `yaml:"payments"`
	Handoff   handoff.Defaults `yaml:"handoff"`
	Catalog   CatalogConfig    `yaml:"catalog"`
	BigQuery  BigQueryConfig   `yaml:"bigquery"`
	Receipts  ReceiptsConfig   `yaml:"receipts"`
	Reminders RemindersConfig  `yaml:"reminders"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
}

type LogConfig struct {
	Level   string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Console bool   `yaml:"console"`
}

type PaymentsConfig struct {
	// DefaultFeeRate applies to providers without their own rate.
	DefaultFeeRate string `yaml:"defaultFeeRate" validate:"required,numeric"`
	MinimumPayable string `yaml:"minimumPayable" validate:"required,numeric"`
	Currency       string `yaml:"currency" validate:"len=3,alpha"`
}

type CatalogConfig struct {
	Source string `yaml:"source" validate:"oneof=builtin file bigquery"`
	Path   string `yaml:"path" validate:"required_if=Source file"`
}

type BigQueryConfig struct {
	ProjectID       string `yaml:"projectId"`
	DatasetID       string `yaml:"datasetId" validate:"required"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// ReceiptsConfig enables archiving rendered receipts when Bucket is set.
type ReceiptsConfig struct {
	Bucket string `yaml:"bucket"`
}

// RemindersConfig controls the scheduled bill reminder dispatcher.
type RemindersConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval" validate:"gt=0"`
	Workers    int           `yaml:"workers" validate:"min=1,max=32"`
	MaxRetries int           `yaml:"maxRetries" validate:"min=0,max=10"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info", Console: true},
		Payments: PaymentsConfig{
			DefaultFeeRate: "0.01",
			MinimumPayable: "1.00",
			Currency:       "PHP",
		},
		Handoff:  handoff.StandardDefaults(),
		Catalog:  CatalogConfig{Source: CatalogBuiltin},
		BigQuery: BigQueryConfig{DatasetID: "finance"},
		Reminders: RemindersConfig{
			Enabled:    true,
			Interval:   time.Hour,
			Workers:    2,
			MaxRetries: 3,
		},
	}
}

// DefaultPaths are tried in order when no path is given.
var DefaultPaths = []string{"configs/config.yaml", "config.yaml"}

// Load reads the YAML file at path over the defaults, applies CASHELAN_*
// environment overrides and validates the result. An empty path tries
// DefaultPaths and falls back to the defaults when none exists.
func Load(path string) (Config, error) {
	cfg := Default()

	candidates := DefaultPaths
	if path != "" {
		candidates = []string{path}
	}

	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) && path == "" {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", p, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", p, err)
		}
		break
	}

	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the CASHELAN_* variables returned by getenv.
// The standard Google variables are honoured for the project and
// credentials when the CASHELAN ones are unset.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := get("CASHELAN_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CASHELAN_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := get("CASHELAN_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("CASHELAN_LOG_CONSOLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CASHELAN_LOG_CONSOLE: %w", err)
		}
		cfg.Log.Console = b
	}
	if v, ok := get("CASHELAN_FEE_RATE"); ok {
		cfg.Payments.DefaultFeeRate = v
	}
	if v, ok := get("CASHELAN_MINIMUM_PAYABLE"); ok {
		cfg.Payments.MinimumPayable = v
	}
	if v, ok := get("CASHELAN_CURRENCY"); ok {
		cfg.Payments.Currency = strings.ToUpper(v)
	}
	if v, ok := get("CASHELAN_CATALOG_SOURCE"); ok {
		cfg.Catalog.Source = strings.ToLower(v)
	}
	if v, ok := get("CASHELAN_CATALOG_PATH"); ok {
		cfg.Catalog.Path = v
	}
	if v, ok := get("CASHELAN_GCP_PROJECT", "GOOGLE_CLOUD_PROJECT"); ok {
		cfg.BigQuery.ProjectID = v
	}
	if v, ok := get("CASHELAN_BQ_DATASET"); ok {
		cfg.BigQuery.DatasetID = v
	}
	if v, ok := get("CASHELAN_GCP_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"); ok {
		cfg.BigQuery.CredentialsFile = v
	}
	if v, ok := get("CASHELAN_RECEIPT_BUCKET", "GCS_BUCKET"); ok {
		cfg.Receipts.Bucket = v
	}
	if v, ok := get("CASHELAN_REMINDERS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CASHELAN_REMINDERS_ENABLED: %w", err)
		}
		cfg.Reminders.Enabled = b
	}
	if v, ok := get("CASHELAN_REMINDERS_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CASHELAN_REMINDERS_INTERVAL: %w", err)
		}
		cfg.Reminders.Interval = d
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the money settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.FeePolicy(); err != nil {
		return fmt.Errorf("config: payments.defaultFeeRate: %w", err)
	}
	minimum, err := c.MinimumPayable()
	if err != nil {
		return fmt.Errorf("config: payments.minimumPayable: %w", err)
	}
	if !minimum.IsPositive() {
		return fmt.Errorf("config: payments.minimumPayable must be positive, got %s", minimum)
	}
	if c.Catalog.Source == CatalogBigQuery && c.BigQuery.ProjectID == "" {
		return errors.New("config: bigquery.projectId is required for the bigquery catalog")
	}
	return nil
}

// FeePolicy returns the default fee policy.
func (c Config) FeePolicy() (fee.Policy, error) {
	return fee.NewPolicy(c.Payments.DefaultFeeRate)
}

// MinimumPayable returns the smallest amount a draft may leave details with.
func (c Config) MinimumPayable() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Payments.MinimumPayable)
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
