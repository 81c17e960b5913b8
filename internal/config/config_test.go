package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadClampsBadNumericValues(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "bogus")
	t.Setenv("METRICS_TTL_SECONDS", "-3")
	t.Setenv("TOP_PRODUCTS_LIMIT", "0")

	cfg := Load()
	if cfg.RemoteTimeoutSeconds != 5 {
		t.Fatalf("RemoteTimeoutSeconds = %d, want default 5", cfg.RemoteTimeoutSeconds)
	}
	if cfg.MetricsTTLSeconds != 30 {
		t.Fatalf("MetricsTTLSeconds = %d, want default 30", cfg.MetricsTTLSeconds)
	}
	if cfg.TopProductsLimit != 5 {
		t.Fatalf("TopProductsLimit = %d, want default 5", cfg.TopProductsLimit)
	}
}

func TestAddress(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("Address() = %q, want :9090", cfg.Address())
	}
}
