package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleCheck is returned by Commit when the candidate no longer passes
// the conflict check against the data current at commit time.
var ErrStaleCheck = errors.New("candidate no longer passes conflict check")

// IsStale reports whether err is a commit rejected by its re-check.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleCheck)
}

// Source supplies consistent inventory snapshots.
type Source interface {
	// Load returns a snapshot of all employees, assets and assignments.
	Load(ctx context.Context) (models.Snapshot, error)

	// Close cleans up resources.
	Close() error
}

// Gate re-checks a candidate against the snapshot current at commit time.
// A non-nil error rejects the commit.
type Gate func(c models.CandidateAssignment, snap models.Snapshot) error

// Committer is a Source that can also persist new assignments. Commit runs
// gate and the write under the same lock or transaction, closing the window
// between check and commit.
type Committer interface {
	Source

	Commit(ctx context.Context, c models.CandidateAssignment, status models.AssignmentStatus, gate Gate) (models.Assignment, error)
}

// FindEmployee looks up an employee in snap.
func FindEmployee(snap models.Snapshot, id string) (models.Employee, error) {
	for _, e := range snap.Employees {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Employee{}, fmt.Errorf("employee %s: %w", id, ErrNotFound)
}

// newAssignment builds the record written by Commit.
func newAssignment(id string, c models.CandidateAssignment, status models.AssignmentStatus) models.Assignment {
	return models.Assignment{
		ID:                 id,
		EmployeeID:         c.EmployeeID,
		AssetID:            c.AssetID,
		Category:           c.Category,
		AssignedDate:       c.AssignedDate,
		ExpectedReturnDate: c.ExpectedReturnDate,
		Status:             status,
	}
}

func checkCommitStatus(status models.AssignmentStatus) error {
	if status != models.AssignmentActive && status != models.AssignmentPending {
		return &models.ContractError{Message: fmt.Sprintf("new assignments must be active or pending, got %q", status)}
	}
	return nil
}
