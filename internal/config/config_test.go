package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// chdirTemp runs the test from an empty directory so no config.yaml is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://localhost:5000/api" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 15 {
		t.Errorf("Timeout = %d, want 15", cfg.Backend.Timeout)
	}
	if cfg.Table.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.Table.PageSize)
	}
	if cfg.Redis.Enabled || cfg.Database.Enabled {
		t.Errorf("redis and database must be disabled by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STOREADMIN_BACKEND_BASE_URL", "https://shop.example.com/api/")
	t.Setenv("STOREADMIN_TABLE_PAGE_SIZE", "25")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.BaseURL != "https://shop.example.com/api" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Table.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.Table.PageSize)
	}
}

func TestLoad_FileAndFlags(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte("backend:\n  base_url: http://file.example\n  timeout: 5\ntable:\n  page_size: 50\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("page-size", 0, "")
	flags.String("backend", "", "")
	if err := flags.Parse([]string{"--page-size", "7"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.BaseURL != "http://file.example" {
		t.Errorf("BaseURL = %q, want value from file", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 5 {
		t.Errorf("Timeout = %d, want 5", cfg.Backend.Timeout)
	}
	if cfg.Table.PageSize != 7 {
		t.Errorf("PageSize = %d, flag should win over file", cfg.Table.PageSize)
	}
}

func TestLoad_Invalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STOREADMIN_TABLE_PAGE_SIZE", "0")

	if _, err := Load(nil); err == nil {
		t.Fatal("expected error for zero page size")
	}
}

func TestSetupLogging(t *testing.T) {
	if err := SetupLogging(LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	if err := SetupLogging(LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := SetupLogging(LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	SetupLogging(LogConfig{Level: "info", Format: "text"})
}
