package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

// Oracle answers whether an asset is available right now.
type Oracle interface {
	Check(ctx context.Context, assetID string, category models.AssetCategory) (available bool, reason string, err error)
}

// ProbeResult is the outcome of one real-time availability check.
// A non-nil NextCheckAt tells the caller when a retry makes sense.
type ProbeResult struct {
	Available   bool       `json:"available"`
	Reason      string     `json:"reason,omitempty"`
	NextCheckAt *time.Time `json:"next_check_at,omitempty"`
}

// Prober performs single-shot availability checks against an Oracle.
// It never retries and sets no deadline of its own; callers bound it
// through ctx and schedule any retry themselves.
type Prober struct {
	oracle     Oracle
	clock      clock.Clock
	limiter    *rate.Limiter
	retryAfter time.Duration
	logger     *slog.Logger
}

// NewProber creates a prober. The limiter allows one probe per cfg.Interval
// with bursts of cfg.Burst.
func NewProber(oracle Oracle, clk clock.Clock, cfg config.ProbeConfig, logger *slog.Logger) *Prober {
	return &Prober{
		oracle:     oracle,
		clock:      clk,
		limiter:    rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		retryAfter: cfg.RetryAfter,
		logger:     logger,
	}
}

// Probe checks the asset once. Failures are reported in the result, never
// as an error.
func (p *Prober) Probe(ctx context.Context, assetID string, category models.AssetCategory) ProbeResult {
	metrics.Inc(metrics.ProbeTotal)
	now := p.clock.Now()

	res := p.limiter.ReserveN(now, 1)
	if !res.OK() {
		return p.retryLater(now, p.retryAfter, "probe limiter rejected the request")
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		p.logger.Debug("probe: rate limited", "asset_id", assetID, "delay", delay)
		return p.retryLater(now, delay, "probe rate limited")
	}

	available, reason, err := p.oracle.Check(ctx, assetID, category)
	if err != nil {
		p.logger.Warn("probe: oracle check failed", "asset_id", assetID, "error", err)
		return p.retryLater(now, p.retryAfter, fmt.Sprintf("probe failed: %v", err))
	}
	if !available {
		return p.retryLater(now, p.retryAfter, reason)
	}
	return ProbeResult{Available: true, Reason: reason}
}

func (p *Prober) retryLater(now time.Time, after time.Duration, reason string) ProbeResult {
	metrics.Inc(metrics.ProbeDeferred)
	next := now.Add(after)
	return ProbeResult{Available: false, Reason: reason, NextCheckAt: &next}
}

// SnapshotLoader supplies the current inventory snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (models.Snapshot, error)
}

// SnapshotOracle answers probes by resolving availability against a
// freshly loaded snapshot.
type SnapshotOracle struct {
	loader   SnapshotLoader
	resolver *Resolver
}

// NewSnapshotOracle creates an oracle over the given loader.
func NewSnapshotOracle(loader SnapshotLoader, resolver *Resolver) *SnapshotOracle {
	return &SnapshotOracle{loader: loader, resolver: resolver}
}

// Check loads the snapshot and resolves the asset's availability.
func (o *SnapshotOracle) Check(ctx context.Context, assetID string, category models.AssetCategory) (bool, string, error) {
	snap, err := o.loader.Load(ctx)
	if err != nil {
		return false, "", fmt.Errorf("loading snapshot: %w", err)
	}
	info := o.resolver.Resolve(assetID, category, snap)
	return info.IsAvailable, info.Reason, nil
}
