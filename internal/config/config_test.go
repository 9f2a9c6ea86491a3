package config

import (
	"os"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_NonHTTPEndpoints(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Database:    DatabaseConfig{Addrs: []string{"localhost:6379"}},
		SearchIndex: SearchIndexConfig{Endpoint: "ftp://search.example.com"},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http search_index endpoint")
	}

	cfg.SearchIndex.Endpoint = ""
	cfg.Sync.Endpoint = "not-a-url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http sync endpoint")
	}
}

func TestValidate_MaxBelowDefaultPageSize(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Registry: RegistryConfig{DefaultPageSize: 50, MaxPageSize: 10},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_page_size < default_page_size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.SearchIndex.Index != "writers" {
		t.Errorf("expected Index='writers', got %q", cfg.SearchIndex.Index)
	}
	if cfg.SearchIndex.TimeoutSec != 5 {
		t.Errorf("expected SearchIndex.TimeoutSec=5, got %d", cfg.SearchIndex.TimeoutSec)
	}
	if cfg.Sync.TimeoutSec != 10 {
		t.Errorf("expected Sync.TimeoutSec=10, got %d", cfg.Sync.TimeoutSec)
	}
	if cfg.Registry.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Registry.DefaultPageSize)
	}
	if cfg.Registry.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Registry.MaxPageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:    DatabaseConfig{ReadinessTimeout: 15},
		SearchIndex: SearchIndexConfig{Index: "writers-staging", TimeoutSec: 2},
		Registry:    RegistryConfig{DefaultPageSize: 50, MaxPageSize: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.SearchIndex.Index != "writers-staging" {
		t.Errorf("expected Index='writers-staging', got %q", cfg.SearchIndex.Index)
	}
	if cfg.Registry.DefaultPageSize != 50 {
		t.Errorf("expected DefaultPageSize=50, got %d", cfg.Registry.DefaultPageSize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REP_TEST_KEY", "secret")
	os.Unsetenv("REP_TEST_MISSING")

	in := []byte("key: ${REP_TEST_KEY}\nother: ${REP_TEST_MISSING:-fallback}\nempty: ${REP_TEST_MISSING}\n")
	got := string(expandEnvVars(in))
	want := "key: secret\nother: fallback\nempty: \n"
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}
