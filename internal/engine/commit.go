package engine

import (
	"context"
	"fmt"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

// Commit persists c through committer after re-running detection against
// the data current at commit time. Any critical or high conflict rejects
// the write with store.ErrStaleCheck; the returned Report is the one the
// decision was made on.
func (e *Engine) Commit(ctx context.Context, committer store.Committer, c models.CandidateAssignment, status models.AssignmentStatus) (models.Assignment, Report, error) {
	metrics.Inc(metrics.CommitTotal)
	if err := c.Validate(); err != nil {
		return models.Assignment{}, Report{}, fmt.Errorf("invalid candidate: %w", err)
	}

	var report Report
	gate := func(c models.CandidateAssignment, snap models.Snapshot) error {
		r, err := e.DetectConflicts(c, snap)
		if err != nil {
			return err
		}
		report = r
		for _, cf := range r.Conflicts {
			if cf.Severity.Rank() >= models.SeverityHigh.Rank() {
				return fmt.Errorf("%s: %w", cf.Cause, store.ErrStaleCheck)
			}
		}
		return nil
	}

	a, err := committer.Commit(ctx, c, status, gate)
	if err != nil {
		if store.IsStale(err) {
			metrics.Inc(metrics.CommitRejected)
			e.logger.Warn("commit rejected on re-check",
				"employee_id", c.EmployeeID, "asset_id", c.AssetID, "conflicts", len(report.Conflicts))
		}
		return models.Assignment{}, report, err
	}
	e.logger.Info("assignment committed",
		"assignment_id", a.ID, "employee_id", a.EmployeeID, "asset_id", a.AssetID, "status", a.Status)
	return a, report, nil
}
