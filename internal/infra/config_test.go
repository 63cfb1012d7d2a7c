package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_LOCALE", "")
	t.Setenv("DIRECTORY_PAGE_SIZE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DefaultLocale != "ar" {
		t.Fatalf("DefaultLocale = %q, want ar", cfg.DefaultLocale)
	}
	if cfg.DirectoryPageSize != 1000 {
		t.Fatalf("DirectoryPageSize = %d, want 1000", cfg.DirectoryPageSize)
	}
	if cfg.ProvisionRetries != 3 {
		t.Fatalf("ProvisionRetries = %d, want 3", cfg.ProvisionRetries)
	}
	if cfg.ProvisionBaseDelay != time.Second {
		t.Fatalf("ProvisionBaseDelay = %v, want 1s", cfg.ProvisionBaseDelay)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRejectsOversizedPage(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DIRECTORY_PAGE_SIZE", "5000")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DIRECTORY_PAGE_SIZE exceeds 1000")
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.ataa.example, https://ataa.example ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://admin.ataa.example", "https://ataa.example"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %#v, want %#v", cfg.AllowedOrigins, want)
	}
	for i, origin := range want {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
}
