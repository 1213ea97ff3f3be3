package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultMaxAssignmentsPerEmployee caps active assignments per employee.
	DefaultMaxAssignmentsPerEmployee = 5

	// DefaultFallbackLicenseCapacity is used when a software asset has no capacity on record.
	DefaultFallbackLicenseCapacity = 5

	// DefaultAutoResolveMinConfidence gates automated resolution. It is also
	// the lowest value the gate may be configured to.
	DefaultAutoResolveMinConfidence = 0.7
)

// Config holds all configuration for assetguard.
type Config struct {
	Policy  PolicyConfig  `mapstructure:"policy"`
	Store   StoreConfig   `mapstructure:"store"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	API     APIConfig     `mapstructure:"api"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Claude  ClaudeConfig  `mapstructure:"claude"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PolicyConfig holds the tunable thresholds of the conflict engine.
type PolicyConfig struct {
	MaxAssignmentsPerEmployee int                    `mapstructure:"max_assignments_per_employee"`
	MaxHardwarePerEmployee    int                    `mapstructure:"max_hardware_per_employee"`
	MaxSoftwarePerEmployee    int                    `mapstructure:"max_software_per_employee"`
	FallbackLicenseCapacity   int                    `mapstructure:"fallback_license_capacity"`
	UtilizationNotice         float64                `mapstructure:"utilization_notice"`
	UtilizationWarning        float64                `mapstructure:"utilization_warning"`
	UtilizationLimit          float64                `mapstructure:"utilization_limit"`
	MaxFutureDays             int                    `mapstructure:"max_future_days"`
	VolumeWindowDays          int                    `mapstructure:"volume_window_days"`
	VolumeThreshold           int                    `mapstructure:"volume_threshold"`
	ExpiryNoticeDays          int                    `mapstructure:"expiry_notice_days"`
	MaintenanceIntervalMonths int                    `mapstructure:"maintenance_interval_months"`
	AutoResolveMinConfidence  float64                `mapstructure:"auto_resolve_min_confidence"`
	DepartmentRestrictions    map[string]Restriction `mapstructure:"department_restrictions"`
	RoleRestrictions          map[string]Restriction `mapstructure:"role_restrictions"`
}

// Restriction lists asset categories and tags a department or role may
// not receive without approval. Map keys are matched case-insensitively.
type Restriction struct {
	Categories []string `mapstructure:"categories"`
	Tags       []string `mapstructure:"tags"`
}

// CategoryCap returns the same-category cap for hardware or software.
func (p PolicyConfig) CategoryCap(category string) int {
	if category == "software" {
		return p.MaxSoftwarePerEmployee
	}
	return p.MaxHardwarePerEmployee
}

// DefaultPolicy returns the policy observed in production before it was
// made configurable.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		MaxAssignmentsPerEmployee: DefaultMaxAssignmentsPerEmployee,
		MaxHardwarePerEmployee:    3,
		MaxSoftwarePerEmployee:    5,
		FallbackLicenseCapacity:   DefaultFallbackLicenseCapacity,
		UtilizationNotice:         80,
		UtilizationWarning:        90,
		UtilizationLimit:          100,
		MaxFutureDays:             365,
		VolumeWindowDays:          7,
		VolumeThreshold:           50,
		ExpiryNoticeDays:          30,
		MaintenanceIntervalMonths: 6,
		AutoResolveMinConfidence:  DefaultAutoResolveMinConfidence,
	}
}

// StoreConfig selects where snapshots come from.
type StoreConfig struct {
	Driver       string `mapstructure:"driver"` // file, sqlite, neo4j
	SnapshotFile string `mapstructure:"snapshot_file"`
	SQLitePath   string `mapstructure:"sqlite_path"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// String returns a safe representation of Neo4jConfig with the password masked.
func (c Neo4jConfig) String() string {
	return fmt.Sprintf("Neo4jConfig{URI:%s, Username:%s, Password:%s, Database:%s}",
		c.URI, c.Username, maskAPIKey(c.Password), c.Database)
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AuthToken      string   `mapstructure:"auth_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProbeConfig tunes the real-time availability probe.
type ProbeConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Burst      int           `mapstructure:"burst"`
	RetryAfter time.Duration `mapstructure:"retry_after"`
}

// SweepConfig schedules the periodic compliance sweep.
type SweepConfig struct {
	Schedule    string `mapstructure:"schedule"`
	Parallelism int    `mapstructure:"parallelism"`
}

// ClaudeConfig holds Anthropic Claude API settings for review briefs.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".assetguard"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("ASSETGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("neo4j.password", "ASSETGUARD_NEO4J_PASSWORD")
	_ = v.BindEnv("api.auth_token", "ASSETGUARD_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK; defaults + env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	p := DefaultPolicy()
	v.SetDefault("policy.max_assignments_per_employee", p.MaxAssignmentsPerEmployee)
	v.SetDefault("policy.max_hardware_per_employee", p.MaxHardwarePerEmployee)
	v.SetDefault("policy.max_software_per_employee", p.MaxSoftwarePerEmployee)
	v.SetDefault("policy.fallback_license_capacity", p.FallbackLicenseCapacity)
	v.SetDefault("policy.utilization_notice", p.UtilizationNotice)
	v.SetDefault("policy.utilization_warning", p.UtilizationWarning)
	v.SetDefault("policy.utilization_limit", p.UtilizationLimit)
	v.SetDefault("policy.max_future_days", p.MaxFutureDays)
	v.SetDefault("policy.volume_window_days", p.VolumeWindowDays)
	v.SetDefault("policy.volume_threshold", p.VolumeThreshold)
	v.SetDefault("policy.expiry_notice_days", p.ExpiryNoticeDays)
	v.SetDefault("policy.maintenance_interval_months", p.MaintenanceIntervalMonths)
	v.SetDefault("policy.auto_resolve_min_confidence", p.AutoResolveMinConfidence)

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.snapshot_file", "snapshot.yaml")
	v.SetDefault("store.sqlite_path", filepath.Join(homeDir(), ".assetguard", "inventory.db"))

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")
	v.SetDefault("api.allowed_origins", []string{"*"})

	v.SetDefault("probe.interval", time.Second)
	v.SetDefault("probe.burst", 5)
	v.SetDefault("probe.retry_after", 30*time.Second)

	v.SetDefault("sweep.schedule", "@every 1h")
	v.SetDefault("sweep.parallelism", 8)

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "file":
		if c.Store.SnapshotFile == "" {
			return fmt.Errorf("store.snapshot_file must not be empty for the file driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path must not be empty for the sqlite driver")
		}
	case "neo4j":
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri must not be empty for the neo4j driver")
		}
	default:
		return fmt.Errorf("store.driver %q must be one of file, sqlite, neo4j", c.Store.Driver)
	}
	if c.Probe.Interval <= 0 {
		return fmt.Errorf("probe.interval must be greater than 0")
	}
	if c.Probe.Burst <= 0 {
		return fmt.Errorf("probe.burst must be greater than 0")
	}
	if c.Probe.RetryAfter < 0 {
		return fmt.Errorf("probe.retry_after must be >= 0")
	}
	if c.Sweep.Parallelism <= 0 {
		return fmt.Errorf("sweep.parallelism must be greater than 0")
	}
	return nil
}

// Validate checks that policy thresholds are usable.
func (p *PolicyConfig) Validate() error {
	if p.MaxAssignmentsPerEmployee <= 0 {
		return fmt.Errorf("policy.max_assignments_per_employee must be greater than 0")
	}
	if p.MaxHardwarePerEmployee <= 0 || p.MaxSoftwarePerEmployee <= 0 {
		return fmt.Errorf("policy.max_hardware_per_employee and policy.max_software_per_employee must be greater than 0")
	}
	if p.FallbackLicenseCapacity <= 0 {
		return fmt.Errorf("policy.fallback_license_capacity must be greater than 0")
	}
	if !(p.UtilizationNotice <= p.UtilizationWarning && p.UtilizationWarning <= p.UtilizationLimit) {
		return fmt.Errorf("policy.utilization_notice (%.0f) <= utilization_warning (%.0f) <= utilization_limit (%.0f) must hold",
			p.UtilizationNotice, p.UtilizationWarning, p.UtilizationLimit)
	}
	if p.MaxFutureDays <= 0 {
		return fmt.Errorf("policy.max_future_days must be greater than 0")
	}
	if p.VolumeWindowDays <= 0 || p.VolumeThreshold <= 0 {
		return fmt.Errorf("policy.volume_window_days and policy.volume_threshold must be greater than 0")
	}
	if p.ExpiryNoticeDays < 0 {
		return fmt.Errorf("policy.expiry_notice_days must be >= 0")
	}
	if p.MaintenanceIntervalMonths <= 0 {
		return fmt.Errorf("policy.maintenance_interval_months must be greater than 0")
	}
	if p.AutoResolveMinConfidence < DefaultAutoResolveMinConfidence || p.AutoResolveMinConfidence > 1 {
		return fmt.Errorf("policy.auto_resolve_min_confidence must be between %.1f and 1", DefaultAutoResolveMinConfidence)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
