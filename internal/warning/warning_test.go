package warning

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

var day0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGenerator(config.DefaultPolicy(), clock.Fixed(day0), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func timePtr(t time.Time) *time.Time { return &t }

func categories(ws []models.Warning) []models.WarningCategory {
	var out []models.WarningCategory
	for _, w := range ws {
		out = append(out, w.Category)
	}
	return out
}

func TestGenerate_Quiet(t *testing.T) {
	snap := models.Snapshot{
		Employees: []models.Employee{{ID: "E1", Status: models.EmployeeActive}},
		Assets:    []models.Asset{{ID: "HW001", Category: models.CategoryHardware, Status: models.AssetAvailable}},
	}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, AssignedDate: day0}

	assert.Empty(t, newTestGenerator().Generate(c, snap))
}

func TestGenerate_VolumeThreshold(t *testing.T) {
	snap := models.Snapshot{}
	for i := 0; i < 51; i++ {
		snap.Assignments = append(snap.Assignments, models.Assignment{
			ID: "AS" + string(rune('A'+i%26)) + string(rune('a'+i/26)), EmployeeID: "E9", AssetID: "X",
			AssignedDate: day0.AddDate(0, 0, -(i % 6)), Status: models.AssignmentReturned,
		})
	}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, AssignedDate: day0}

	got := newTestGenerator().Generate(c, snap)
	require.Len(t, got, 1)
	assert.Equal(t, models.WarningPerformance, got[0].Category)
	assert.Contains(t, got[0].Message, "51 assignments")
	assert.False(t, got[0].Actionable)
}

func TestGenerate_VolumeIgnoresOldAssignments(t *testing.T) {
	snap := models.Snapshot{}
	for i := 0; i < 60; i++ {
		snap.Assignments = append(snap.Assignments, models.Assignment{
			ID: "OLD" + string(rune('A'+i%26)) + string(rune('a'+i/26)), AssignedDate: day0.AddDate(0, 0, -8),
			Status: models.AssignmentReturned,
		})
	}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, AssignedDate: day0}

	assert.Empty(t, newTestGenerator().Generate(c, snap))
}

func TestGenerate_ApproachingCap(t *testing.T) {
	snap := models.Snapshot{Employees: []models.Employee{{ID: "E1", Status: models.EmployeeActive}}}
	for _, id := range []string{"A1", "A2", "A3", "A4"} {
		snap.Assignments = append(snap.Assignments, models.Assignment{
			ID: id, EmployeeID: "E1", AssetID: "SW-" + id, AssignedDate: day0.AddDate(0, -3, 0), Status: models.AssignmentActive,
		})
	}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, AssignedDate: day0}

	got := newTestGenerator().Generate(c, snap)
	require.Len(t, got, 1)
	assert.Equal(t, models.WarningPerformance, got[0].Category)
	assert.True(t, got[0].Actionable)
	assert.Contains(t, got[0].Message, "one below the limit")
}

func TestGenerate_LicenseExpiringSoon(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{{
		ID: "SW001", Category: models.CategorySoftware, ExpiryDate: timePtr(day0.AddDate(0, 0, 20)),
	}}}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "SW001", Category: models.CategorySoftware, AssignedDate: day0}

	got := newTestGenerator().Generate(c, snap)
	assert.Equal(t, []models.WarningCategory{models.WarningCompliance}, categories(got))
	assert.Contains(t, got[0].Message, "expires")
}

func TestGenerate_LicenseFarFromExpiry(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{{
		ID: "SW001", Category: models.CategorySoftware, ExpiryDate: timePtr(day0.AddDate(0, 0, 45)),
	}}}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "SW001", Category: models.CategorySoftware, AssignedDate: day0}

	assert.Empty(t, newTestGenerator().Generate(c, snap))
}

func TestGenerate_MaintenanceOverdue(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{{
		ID: "HW001", Category: models.CategoryHardware, Status: models.AssetAvailable,
		LastMaintenance: timePtr(day0.AddDate(0, -7, 0)),
	}}}
	c := models.CandidateAssignment{EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, AssignedDate: day0}

	got := newTestGenerator().Generate(c, snap)
	require.Len(t, got, 1)
	assert.Equal(t, models.WarningCompliance, got[0].Category)
	assert.Contains(t, got[0].Message, "last maintained")
}

func TestSweep_FleetWide(t *testing.T) {
	due := day0.AddDate(0, 0, -2)
	snap := models.Snapshot{
		Assets: []models.Asset{
			{ID: "HW001", Category: models.CategoryHardware, Status: models.AssetAssigned, LastMaintenance: timePtr(day0.AddDate(-1, 0, 0))},
			{ID: "HW002", Category: models.CategoryHardware, Status: models.AssetDisposed, LastMaintenance: timePtr(day0.AddDate(-2, 0, 0))},
			{ID: "SW001", Category: models.CategorySoftware, ExpiryDate: timePtr(day0.AddDate(0, 0, 5))},
		},
		Assignments: []models.Assignment{
			{ID: "AS1", EmployeeID: "E1", AssetID: "HW001", AssignedDate: day0.AddDate(0, -1, 0), ExpectedReturnDate: &due, Status: models.AssignmentActive},
			{ID: "AS2", EmployeeID: "E2", AssetID: "HW002", AssignedDate: day0.AddDate(0, -1, 0), ExpectedReturnDate: &due, Status: models.AssignmentReturned},
		},
	}

	res := newTestGenerator().Sweep(snap)
	require.Len(t, res.Overdue, 1)
	assert.Equal(t, "AS1", res.Overdue[0].ID)
	assert.Len(t, res.Warnings, 3)
	for _, w := range res.Warnings {
		assert.Equal(t, models.WarningCompliance, w.Category)
	}
}

func TestWarningIDsAreStable(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{{
		ID: "SW001", Category: models.CategorySoftware, ExpiryDate: timePtr(day0.AddDate(0, 0, 3)),
	}}}
	a := newTestGenerator().Sweep(snap)
	b := newTestGenerator().Sweep(snap)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, a.Warnings[0].ID, b.Warnings[0].ID)
}
