package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_MAX_CONNS", "SHUTDOWN_TIMEOUT_SECONDS", "CORS_ALLOWED_ORIGINS", "INVOICE_DUE_DAYS", "SMTP_HOST"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.DBMaxConns != 10 || cfg.InvoiceDueDays != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
	}
	if cfg.Mail.Host != "" || cfg.Mail.Port != 587 {
		t.Fatalf("unexpected mail config %+v", cfg.Mail)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.cl, https://b.cl,")
	t.Setenv("INVOICE_DUE_DAYS", "15")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := FromEnv()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.cl" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.InvoiceDueDays != 15 {
		t.Fatalf("expected 15 due days, got %d", cfg.InvoiceDueDays)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.ShutdownTimeout)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.DBMaxConns)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("COMPANY_NAME=Aguas Test\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("COMPANY_NAME", "")
	os.Unsetenv("COMPANY_NAME")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := FromEnv().CompanyName; got != "Aguas Test" {
		t.Fatalf("expected company from .env, got %q", got)
	}
}
