// Package sweep runs the periodic fleet-wide compliance pass: expiry and
// maintenance advisories, overdue returns, and a re-check of every pending
// reservation against the current inventory.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

// DefaultParallelism bounds concurrent pending re-checks.
const DefaultParallelism = 8

// PendingResult is a pending assignment that would no longer pass.
type PendingResult struct {
	AssignmentID string            `json:"assignment_id"`
	EmployeeID   string            `json:"employee_id"`
	AssetID      string            `json:"asset_id"`
	Conflicts    []models.Conflict `json:"conflicts"`
}

// Report summarizes one sweep.
type Report struct {
	Warnings       []models.Warning    `json:"warnings"`
	Overdue        []models.Assignment `json:"overdue"`
	PendingChecked int                 `json:"pending_checked"`
	PendingBlocked []PendingResult     `json:"pending_blocked"`
}

// Manager runs sweeps against a snapshot source.
type Manager struct {
	source      store.Source
	engine      *engine.Engine
	parallelism int
	logger      *slog.Logger
}

// NewManager creates a sweep manager.
func NewManager(src store.Source, eng *engine.Engine, parallelism int, logger *slog.Logger) *Manager {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Manager{
		source:      src,
		engine:      eng,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run executes one sweep.
func (m *Manager) Run(ctx context.Context) (*Report, error) {
	metrics.Inc(metrics.SweepRuns)

	snap, err := m.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	compliance := m.engine.Warnings().Sweep(snap)
	report := &Report{
		Warnings:       compliance.Warnings,
		Overdue:        compliance.Overdue,
		PendingBlocked: []PendingResult{},
	}

	var pending []models.Assignment
	for _, a := range snap.Assignments {
		if a.Status == models.AssignmentPending {
			pending = append(pending, a)
		}
	}
	report.PendingChecked = len(pending)

	results := make([]*PendingResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i := range pending {
		a := pending[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := m.recheck(a, snap)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("re-checking pending assignments: %w", err)
	}
	for _, r := range results {
		if r != nil {
			report.PendingBlocked = append(report.PendingBlocked, *r)
		}
	}

	m.logger.Info("sweep complete",
		"warnings", len(report.Warnings), "overdue", len(report.Overdue),
		"pending_checked", report.PendingChecked, "pending_blocked", len(report.PendingBlocked))
	return report, nil
}

// recheck runs detection for a pending assignment as if it were new,
// against the snapshot without the assignment itself.
func (m *Manager) recheck(a models.Assignment, snap models.Snapshot) (*PendingResult, error) {
	others := models.Snapshot{
		Employees:   snap.Employees,
		Assets:      snap.Assets,
		Assignments: make([]models.Assignment, 0, len(snap.Assignments)),
	}
	for _, o := range snap.Assignments {
		if o.ID != a.ID {
			others.Assignments = append(others.Assignments, o)
		}
	}

	c := models.CandidateAssignment{
		EmployeeID:         a.EmployeeID,
		AssetID:            a.AssetID,
		Category:           a.Category,
		AssignedDate:       a.AssignedDate,
		ExpectedReturnDate: a.ExpectedReturnDate,
	}
	report, err := m.engine.DetectConflicts(c, others)
	if err != nil {
		return nil, fmt.Errorf("assignment %s: %w", a.ID, err)
	}
	if !report.HasConflicts {
		return nil, nil
	}
	m.logger.Warn("pending assignment no longer passes",
		"assignment_id", a.ID, "conflicts", len(report.Conflicts))
	return &PendingResult{
		AssignmentID: a.ID,
		EmployeeID:   a.EmployeeID,
		AssetID:      a.AssetID,
		Conflicts:    report.Conflicts,
	}, nil
}
