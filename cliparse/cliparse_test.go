// cliparse/cliparse_test.go
package cliparse

import (
	"net/url"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://dojo:pw@localhost:5432/dojogo?sslmode=disable")
	t.Setenv("AUTH0_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "client-123")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AZURE_STORAGE_CONNECTION_STRING", "AccountName=a;AccountKey=b")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.StorageContainer != DefaultContainer {
		t.Errorf("expected container %q, got %q", DefaultContainer, cfg.StorageContainer)
	}
	if cfg.StorageConnectionString == "" {
		t.Error("expected storage connection string from env")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected default CORS origins [*], got %v", cfg.CORSOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "postgres://other@db:5432/x", "-auth-domain", "id.example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AuthDomain != "id.example.com" {
		t.Errorf("CLI should override env: expected id.example.com, got %s", cfg.AuthDomain)
	}
	u, _ := url.Parse(cfg.DatabaseURL)
	if u.Host != "db:5432" {
		t.Errorf("expected database host db:5432, got %s", u.Host)
	}
}

func TestParseFlags_DatabaseFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH0_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "client-123")
	t.Setenv("DB_HOST", "dojo-db.internal")
	t.Setenv("DB_USER", "klayon")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "dojogo")
	t.Setenv("DB_PORT", "6543")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("unparseable database URL %q: %v", cfg.DatabaseURL, err)
	}
	if u.Host != "dojo-db.internal:6543" {
		t.Errorf("expected host dojo-db.internal:6543, got %s", u.Host)
	}
	if u.Path != "/dojogo" {
		t.Errorf("expected path /dojogo, got %s", u.Path)
	}
	if pw, _ := u.User.Password(); pw != "s3cret" {
		t.Errorf("expected password from DB_PASSWORD, got %q", pw)
	}
	if u.Query().Get("sslmode") != "require" {
		t.Errorf("expected sslmode=require, got %q", u.Query().Get("sslmode"))
	}
	if u.Query().Get("timezone") != "UTC" {
		t.Errorf("expected timezone=UTC, got %q", u.Query().Get("timezone"))
	}
}

func TestParseFlags_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"no database", "DATABASE_URL"},
		{"no auth domain", "AUTH0_DOMAIN"},
		{"no audience", "AUTH0_AUDIENCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("DB_HOST", "")
			t.Setenv(tt.unset, "")

			if _, err := ParseFlags([]string{}); err == nil {
				t.Errorf("expected error when %s is missing", tt.unset)
			}
		})
	}
}

func TestWithUTC(t *testing.T) {
	got, err := WithUTC("postgres://u@h/db?sslmode=disable&timezone=Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("timezone") != "UTC" {
		t.Errorf("expected timezone overridden to UTC, got %q", u.Query().Get("timezone"))
	}
	if u.Query().Get("sslmode") != "disable" {
		t.Errorf("expected sslmode preserved, got %q", u.Query().Get("sslmode"))
	}

	if _, err := WithUTC("host=localhost user=x"); err == nil {
		t.Error("expected error for key/value DSN")
	}
}
