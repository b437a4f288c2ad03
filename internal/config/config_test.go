package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Checkout.MaxRetries != 5 {
		t.Errorf("expected default max retries 5, got %d", cfg.Checkout.MaxRetries)
	}
	if !cfg.Checkout.StartingBalance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected default starting balance 100.00, got %s", cfg.Checkout.StartingBalance)
	}
	if !cfg.Checkout.CreateMissingAccounts {
		t.Error("expected placeholder-account fallback on by default")
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("expected default broker localhost:9092, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("CHECKOUT_MAX_RETRIES", "3")
	t.Setenv("CHECKOUT_STARTING_BALANCE", "250.50")
	t.Setenv("CHECKOUT_CREATE_MISSING_ACCOUNTS", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FEATURE_CATALOG_CACHE", "false")

	cfg := Load()

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Checkout.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", cfg.Checkout.MaxRetries)
	}
	if !cfg.Checkout.StartingBalance.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("expected starting balance 250.50, got %s", cfg.Checkout.StartingBalance)
	}
	if cfg.Checkout.CreateMissingAccounts {
		t.Error("expected placeholder-account fallback off")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Features.EnableCatalogCache {
		t.Error("expected catalog cache off")
	}
}

func TestDatabaseConnectionString(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Name: "shop", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=shop sslmode=disable"
	if got := d.ConnectionString(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
