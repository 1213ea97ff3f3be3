package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "assetguard",
		Short: "assetguard checks IT asset assignments for conflicts before they are committed",
		Long: "assetguard inspects a proposed employee/asset assignment against the current inventory, " +
			"reports conflicts and warnings, and proposes or applies resolutions.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		checkCmd(),
		availabilityCmd(),
		validateCmd(),
		assignCmd(),
		sweepCmd(),
		serveCmd(),
		mcpCmd(),
		migrateCmd(),
		healthCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newSource opens the snapshot source selected by store.driver.
func newSource(ctx context.Context, logger *slog.Logger) (store.Source, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := store.OpenSQLite(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	case "neo4j":
		src, err := store.NewNeo4jSource(ctx, cfg.Neo4j, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return store.NewFileSource(cfg.Store.SnapshotFile), nil
	}
}

// newEngine builds the engine with a rate-limited prober over src.
func newEngine(src store.Source, logger *slog.Logger) *engine.Engine {
	clk := clock.System{}
	oracle := availability.NewSnapshotOracle(src, availability.NewResolver(cfg.Policy, logger))
	prober := availability.NewProber(oracle, clk, cfg.Probe, logger)
	return engine.New(cfg.Policy, clk, prober, logger)
}

// candidateFlags are the flags shared by commands that take a candidate.
type candidateFlags struct {
	employee string
	asset    string
	category string
	date     string
	until    string
}

func (f *candidateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.employee, "employee", "", "employee ID")
	cmd.Flags().StringVar(&f.asset, "asset", "", "asset ID")
	cmd.Flags().StringVar(&f.category, "category", "hardware", "asset category (hardware|software)")
	cmd.Flags().StringVar(&f.date, "date", "", "assigned date, YYYY-MM-DD or RFC 3339 (default: today)")
	cmd.Flags().StringVar(&f.until, "until", "", "expected return date, YYYY-MM-DD or RFC 3339 (default: open-ended)")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("asset")
}

func (f *candidateFlags) candidate() (models.CandidateAssignment, error) {
	c := models.CandidateAssignment{
		EmployeeID:   f.employee,
		AssetID:      f.asset,
		Category:     models.AssetCategory(f.category),
		AssignedDate: time.Now().UTC(),
	}
	if f.date != "" {
		t, err := parseDate(f.date)
		if err != nil {
			return c, err
		}
		c.AssignedDate = t
	}
	if f.until != "" {
		t, err := parseDate(f.until)
		if err != nil {
			return c, err
		}
		c.ExpectedReturnDate = &t
	}
	return c, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
