package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() Snapshot {
	day0 := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	ret := day0.AddDate(0, 0, 10)
	return Snapshot{
		Employees: []Employee{{ID: "E1", Status: EmployeeActive}, {ID: "E2", Status: EmployeeActive}},
		Assets: []Asset{
			{ID: "HW001", Category: CategoryHardware, Status: AssetAssigned},
			{ID: "HW002", Category: CategoryHardware, Status: AssetAvailable},
		},
		Assignments: []Assignment{{
			ID: "AS1", EmployeeID: "E1", AssetID: "HW001", Category: CategoryHardware,
			AssignedDate: day0, ExpectedReturnDate: &ret, Status: AssignmentActive,
		}},
	}
}

func TestSnapshotValidate_OK(t *testing.T) {
	require.NoError(t, validSnapshot().Validate())
}

func TestSnapshotValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"duplicate employee", func(s *Snapshot) { s.Employees[1].ID = "E1" }, "duplicate employee id E1"},
		{"duplicate asset", func(s *Snapshot) { s.Assets[1].ID = "HW001" }, "duplicate asset id HW001"},
		{"duplicate assignment", func(s *Snapshot) {
			s.Assignments = append(s.Assignments, s.Assignments[0])
		}, "duplicate assignment id AS1"},
		{"expected return before assigned", func(s *Snapshot) {
			early := s.Assignments[0].AssignedDate.AddDate(0, 0, -1)
			s.Assignments[0].ExpectedReturnDate = &early
		}, "expected back before it was assigned"},
		{"bad employee status", func(s *Snapshot) { s.Employees[0].Status = "retired" }, "invalid status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, IsContractError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSnapshotValidate_SameDayReturnIsAllowed(t *testing.T) {
	s := validSnapshot()
	same := s.Assignments[0].AssignedDate
	s.Assignments[0].ExpectedReturnDate = &same
	assert.NoError(t, s.Validate())
}
