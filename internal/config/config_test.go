package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}

	if cfg.Rules.WithholdingThreshold != 700 || cfg.Rules.WithholdingRate != 0.12 {
		t.Errorf("withholding defaults = %v / %v", cfg.Rules.WithholdingThreshold, cfg.Rules.WithholdingRate)
	}
	if cfg.Rules.WithholdingMethod != "DT" {
		t.Errorf("withholding method = %q", cfg.Rules.WithholdingMethod)
	}
	if len(cfg.Rules.ExcludedOrderTypes) != 1 || cfg.Rules.ExcludedOrderTypes[0] != "PAV" {
		t.Errorf("excluded order types = %v", cfg.Rules.ExcludedOrderTypes)
	}
	if got := cfg.Rules.EmailHeaders; len(got) != 5 || got[0] != "EMAIL" {
		t.Errorf("email headers = %v", got)
	}
	if cfg.Rules.KeyMode != "strict" {
		t.Errorf("key mode = %q", cfg.Rules.KeyMode)
	}
	if cfg.Sources.Invoices.HeaderRow != 1 || cfg.Sources.Invoices.Delimiter != "," {
		t.Errorf("source defaults = %+v", cfg.Sources.Invoices)
	}
	if cfg.Output.WriteSummary == nil || !*cfg.Output.WriteSummary {
		t.Error("write_summary should default to true")
	}
}

func TestLoadMainConfigMissingFileNotAllowed(t *testing.T) {
	if _, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
input_dir: ./in
log_level: debug
output:
  formats: [xlsx, csv]
sources:
  collections:
    pattern: "pagos*.csv"
    delimiter: ";"
    encoding: ISO-8859-1
rules:
  withholding_threshold: 1000
  key_mode: loose
  dollar_currencies: [USD]
`)

	cfg, err := LoadMainConfig(path, false)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}

	if cfg.InputDir != "./in" || cfg.LogLevel != "debug" {
		t.Errorf("directories/logging = %q / %q", cfg.InputDir, cfg.LogLevel)
	}
	if len(cfg.Output.Formats) != 2 {
		t.Errorf("formats = %v", cfg.Output.Formats)
	}
	if cfg.Sources.Collections.Delimiter != ";" || cfg.Sources.Collections.Encoding != "ISO-8859-1" {
		t.Errorf("collections source = %+v", cfg.Sources.Collections)
	}
	if cfg.Sources.Invoices.Pattern != "cartera*" {
		t.Errorf("invoice pattern default = %q", cfg.Sources.Invoices.Pattern)
	}
	if cfg.Rules.WithholdingThreshold != 1000 || cfg.Rules.KeyMode != "loose" {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	if !cfg.Rules.IsDollar(" usd ") || cfg.Rules.IsDollar("PEN") {
		t.Error("IsDollar mismatch")
	}
}

func TestLoadMainConfigValidation(t *testing.T) {
	tests := map[string]string{
		"bad key mode":  "rules:\n  key_mode: fuzzy\n",
		"bad format":    "output:\n  formats: [pdf]\n",
		"bad log level": "log_level: loud\n",
		"bad rate":      "rules:\n  withholding_rate: 1.5\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadMainConfig(writeConfig(t, body), false); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"OUTPUT_DIR", "/tmp/ledger-out")
	t.Setenv(EnvPrefix+"KEY_MODE", "loose")

	cfg, err := LoadMainConfig(writeConfig(t, "output_dir: ./out\n"), false)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.OutputDir != "/tmp/ledger-out" {
		t.Errorf("output dir = %q", cfg.OutputDir)
	}
	if cfg.Rules.KeyMode != "loose" {
		t.Errorf("key mode = %q", cfg.Rules.KeyMode)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "reconciler.log")
	cfg.LogFormat = "json"

	logger, closer, err := NewLogger(cfg, true)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer.Close()

	logger.Debug("hello")
	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected debug line in log file with verbose logging")
	}
}
