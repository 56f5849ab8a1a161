package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.FeePolicy()
	require.NoError(t, err)
	assert.Equal(t, "0.01", p.Rate.String())

	minimum, err := cfg.MinimumPayable()
	require.NoError(t, err)
	assert.Equal(t, "1", minimum.String())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, handoff.DefaultProviderName, cfg.Handoff.ProviderName)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
  readTimeout: 5s
payments:
  defaultFeeRate: "0.02"
handoff:
  providerName: Biller
catalog:
  source: file
  path: /etc/cashelan/catalog.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "0.02", cfg.Payments.DefaultFeeRate)
	assert.Equal(t, "1.00", cfg.Payments.MinimumPayable)
	assert.Equal(t, "Biller", cfg.Handoff.ProviderName)
	assert.Equal(t, domain.CategoryOther, cfg.Handoff.Category)
	assert.Equal(t, CatalogFile, cfg.Catalog.Source)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "catalog:\n  source: file\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, env(map[string]string{
		"CASHELAN_PORT":               "7070",
		"CASHELAN_LOG_LEVEL":          "DEBUG",
		"CASHELAN_LOG_CONSOLE":        "false",
		"CASHELAN_FEE_RATE":           "0.015",
		"CASHELAN_MINIMUM_PAYABLE":    "5",
		"CASHELAN_CURRENCY":           "usd",
		"GOOGLE_CLOUD_PROJECT":        "cash-elan",
		"GCS_BUCKET":                  "receipts",
		"CASHELAN_REMINDERS_ENABLED":  "false",
		"CASHELAN_REMINDERS_INTERVAL": "15m",
	}))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Console)
	assert.Equal(t, "0.015", cfg.Payments.DefaultFeeRate)
	assert.Equal(t, "5", cfg.Payments.MinimumPayable)
	assert.Equal(t, "USD", cfg.Payments.Currency)
	assert.Equal(t, "cash-elan", cfg.BigQuery.ProjectID)
	assert.Equal(t, "receipts", cfg.Receipts.Bucket)
	assert.False(t, cfg.Reminders.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Reminders.Interval)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_CashelanWins(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, env(map[string]string{
		"CASHELAN_RECEIPT_BUCKET": "mine",
		"GCS_BUCKET":              "theirs",
	})))
	assert.Equal(t, "mine", cfg.Receipts.Bucket)
}

func TestApplyEnv_BadValues(t *testing.T) {
	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg, env(map[string]string{"CASHELAN_PORT": "eighty"})))
	assert.Error(t, ApplyEnv(&cfg, env(map[string]string{"CASHELAN_LOG_CONSOLE": "maybe"})))
	assert.Error(t, ApplyEnv(&cfg, env(map[string]string{"CASHELAN_REMINDERS_INTERVAL": "hourly"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative fee rate", func(c *Config) { c.Payments.DefaultFeeRate = "-0.01" }},
		{"non-numeric fee rate", func(c *Config) { c.Payments.DefaultFeeRate = "one percent" }},
		{"zero minimum", func(c *Config) { c.Payments.MinimumPayable = "0" }},
		{"currency length", func(c *Config) { c.Payments.Currency = "PESO" }},
		{"unknown catalog source", func(c *Config) { c.Catalog.Source = "ldap" }},
		{"file catalog without path", func(c *Config) { c.Catalog.Source = CatalogFile }},
		{"bigquery catalog without project", func(c *Config) { c.Catalog.Source = CatalogBigQuery }},
		{"empty dataset", func(c *Config) { c.BigQuery.DatasetID = "" }},
		{"zero reminder interval", func(c *Config) { c.Reminders.Interval = 0 }},
		{"no reminder workers", func(c *Config) { c.Reminders.Workers = 0 }},
		{"empty default provider", func(c *Config) { c.Handoff.ProviderName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
