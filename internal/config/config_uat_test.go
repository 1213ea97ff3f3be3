package config

import (
	"strings"
	"testing"
	"time"
)

// validCfg returns a fully-valid Config for mutation testing.
func validCfg() *Config {
	return &Config{
		Policy: DefaultPolicy(),
		Store: StoreConfig{
			Driver:       "file",
			SnapshotFile: "snapshot.yaml",
		},
		Probe: ProbeConfig{
			Interval:   time.Second,
			Burst:      5,
			RetryAfter: 30 * time.Second,
		},
		Sweep: SweepConfig{
			Schedule:    "@every 1h",
			Parallelism: 8,
		},
	}
}

func TestUAT_Validate_ValidConfigPasses(t *testing.T) {
	cfg := validCfg()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config should pass, got: %v", err)
	}
}

func TestUAT_Validate_ZeroAssignmentCap(t *testing.T) {
	cfg := validCfg()
	cfg.Policy.MaxAssignmentsPerEmployee = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for MaxAssignmentsPerEmployee = 0")
	}
	if !strings.Contains(err.Error(), "max_assignments_per_employee") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUAT_Validate_UtilizationOrder(t *testing.T) {
	cfg := validCfg()
	cfg.Policy.UtilizationWarning = 120
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when warning exceeds limit")
	}
	if !strings.Contains(err.Error(), "utilization") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUAT_Validate_ConfidenceOutOfRange(t *testing.T) {
	cfg := validCfg()
	cfg.Policy.AutoResolveMinConfidence = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for AutoResolveMinConfidence = 1.5")
	}
}

func TestUAT_Validate_ConfidenceBelowFloor(t *testing.T) {
	cfg := validCfg()
	cfg.Policy.AutoResolveMinConfidence = 0.5
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for AutoResolveMinConfidence = 0.5")
	}
	if !strings.Contains(err.Error(), "auto_resolve_min_confidence") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Policy.AutoResolveMinConfidence = 0.85
	if err := cfg.Validate(); err != nil {
		t.Fatalf("stricter gate should be accepted: %v", err)
	}
}

func TestUAT_Validate_UnknownDriver(t *testing.T) {
	cfg := validCfg()
	cfg.Store.Driver = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown store driver")
	}
	if !strings.Contains(err.Error(), "store.driver") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUAT_Validate_SQLiteNeedsPath(t *testing.T) {
	cfg := validCfg()
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty store.sqlite_path")
	}
}

func TestUAT_Validate_ProbeBurstZero(t *testing.T) {
	cfg := validCfg()
	cfg.Probe.Burst = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for probe.burst = 0")
	}
}

func TestUAT_CategoryCap(t *testing.T) {
	p := DefaultPolicy()
	if got := p.CategoryCap("hardware"); got != 3 {
		t.Fatalf("hardware cap = %d, want 3", got)
	}
	if got := p.CategoryCap("software"); got != 5 {
		t.Fatalf("software cap = %d, want 5", got)
	}
}

func TestUAT_MaskedSecrets(t *testing.T) {
	c := ClaudeConfig{APIKey: "sk-ant-1234567890abcdef", Model: "m"}
	if strings.Contains(c.String(), "1234567890") {
		t.Fatalf("api key leaked: %s", c.String())
	}
	n := Neo4jConfig{URI: "neo4j://x", Password: "short"}
	if strings.Contains(n.String(), "short") {
		t.Fatalf("password leaked: %s", n.String())
	}
}
