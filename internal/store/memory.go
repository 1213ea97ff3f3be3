package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// MemorySource is an in-memory Committer for tests and fixtures.
type MemorySource struct {
	mu          sync.RWMutex
	employees   []models.Employee
	assets      []models.Asset
	assignments []models.Assignment
	loadErr     error
}

// NewMemorySource creates a memory source seeded with snap.
func NewMemorySource(snap models.Snapshot) *MemorySource {
	c := cloneSnapshot(snap)
	return &MemorySource{
		employees:   c.Employees,
		assets:      c.Assets,
		assignments: c.Assignments,
	}
}

// FailLoads makes every subsequent Load return err. Pass nil to recover.
func (m *MemorySource) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// Load returns a deep copy of the stored snapshot.
func (m *MemorySource) Load(_ context.Context) (models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadErr != nil {
		return models.Snapshot{}, m.loadErr
	}
	return m.snapshotLocked(), nil
}

// PutAssignment inserts or replaces an assignment by ID.
func (m *MemorySource) PutAssignment(a models.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.assignments {
		if m.assignments[i].ID == a.ID {
			m.assignments[i] = a
			return
		}
	}
	m.assignments = append(m.assignments, a)
}

// Commit re-checks c under the write lock and stores it.
func (m *MemorySource) Commit(_ context.Context, c models.CandidateAssignment, status models.AssignmentStatus, gate Gate) (models.Assignment, error) {
	if err := checkCommitStatus(status); err != nil {
		return models.Assignment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gate != nil {
		if err := gate(c, m.snapshotLocked()); err != nil {
			return models.Assignment{}, fmt.Errorf("committing %s to %s: %w", c.AssetID, c.EmployeeID, err)
		}
	}

	a := newAssignment(uuid.New().String(), c, status)
	m.assignments = append(m.assignments, a)
	if status == models.AssignmentActive && c.Category == models.CategoryHardware {
		for i := range m.assets {
			if m.assets[i].ID == c.AssetID {
				m.assets[i].Status = models.AssetAssigned
			}
		}
	}
	return a, nil
}

// Close is a no-op for the memory source.
func (m *MemorySource) Close() error {
	return nil
}

func (m *MemorySource) snapshotLocked() models.Snapshot {
	return cloneSnapshot(models.Snapshot{
		Employees:   m.employees,
		Assets:      m.assets,
		Assignments: m.assignments,
	})
}

// cloneSnapshot deep-copies mutable fields so callers cannot alter stored data.
func cloneSnapshot(s models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Employees:   append([]models.Employee(nil), s.Employees...),
		Assets:      make([]models.Asset, len(s.Assets)),
		Assignments: make([]models.Assignment, len(s.Assignments)),
	}
	for i, a := range s.Assets {
		a.Tags = append([]string(nil), a.Tags...)
		a.IncompatibleWith = append([]string(nil), a.IncompatibleWith...)
		a.LicenseCapacity = cloneInt(a.LicenseCapacity)
		a.LastMaintenance = cloneTime(a.LastMaintenance)
		a.ExpiryDate = cloneTime(a.ExpiryDate)
		out.Assets[i] = a
	}
	for i, as := range s.Assignments {
		as.ExpectedReturnDate = cloneTime(as.ExpectedReturnDate)
		as.ReturnDate = cloneTime(as.ReturnDate)
		out.Assignments[i] = as
	}
	return out
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
