package availability

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

var day0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver(config.DefaultPolicy(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func laptop(id string, status models.AssetStatus) models.Asset {
	return models.Asset{ID: id, Name: "Laptop " + id, Category: models.CategoryHardware, Status: status, Condition: models.ConditionGood}
}

func license(id string, capacity *int) models.Asset {
	return models.Asset{ID: id, Name: "License " + id, Category: models.CategorySoftware, LicenseCapacity: capacity}
}

func active(id, employee, asset string, cat models.AssetCategory, ret *time.Time) models.Assignment {
	return models.Assignment{
		ID: id, EmployeeID: employee, AssetID: asset, Category: cat,
		AssignedDate: day0.AddDate(0, -1, 0), ExpectedReturnDate: ret, Status: models.AssignmentActive,
	}
}

func seats(n int, asset string) []models.Assignment {
	out := make([]models.Assignment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, active("A"+string(rune('a'+i)), "E"+string(rune('a'+i)), asset, models.CategorySoftware, nil))
	}
	return out
}

func TestResolve_HardwareFree(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{laptop("HW001", models.AssetAvailable)}}

	info := newTestResolver().Resolve("HW001", models.CategoryHardware, snap)
	assert.True(t, info.Found)
	assert.True(t, info.IsAvailable)
	assert.Empty(t, info.Restrictions)
}

func TestResolve_HardwareTakenReportsHolder(t *testing.T) {
	ret := day0.AddDate(0, 0, 10)
	snap := models.Snapshot{
		Assets:      []models.Asset{laptop("HW001", models.AssetAssigned)},
		Assignments: []models.Assignment{active("AS1", "E1", "HW001", models.CategoryHardware, &ret)},
	}

	info := newTestResolver().Resolve("HW001", models.CategoryHardware, snap)
	assert.False(t, info.IsAvailable)
	assert.Equal(t, "E1", info.HolderEmployeeID)
	assert.Equal(t, "AS1", info.HolderAssignmentID)
	require.NotNil(t, info.NextAvailable)
	assert.True(t, info.NextAvailable.Equal(ret))
}

func TestResolve_HardwareActiveAssignmentWinsOverStatus(t *testing.T) {
	// Status says available but an active assignment exists.
	snap := models.Snapshot{
		Assets:      []models.Asset{laptop("HW001", models.AssetAvailable)},
		Assignments: []models.Assignment{active("AS1", "E1", "HW001", models.CategoryHardware, nil)},
	}

	info := newTestResolver().Resolve("HW001", models.CategoryHardware, snap)
	assert.False(t, info.IsAvailable)
	assert.Nil(t, info.NextAvailable)
}

func TestResolve_MaintenanceRestriction(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{laptop("HW001", models.AssetMaintenance)}}

	info := newTestResolver().Resolve("HW001", models.CategoryHardware, snap)
	assert.False(t, info.IsAvailable)
	require.Len(t, info.Restrictions, 1)
	assert.Equal(t, RestrictionMaintenance, info.Restrictions[0].Code)
	assert.Equal(t, models.RestrictionWarning, info.Restrictions[0].Level)
	assert.True(t, info.Restrictions[0].Overridable)
}

func TestResolve_DegradedConditionNeedsPermission(t *testing.T) {
	a := laptop("HW001", models.AssetAvailable)
	a.Condition = models.ConditionPoor
	snap := models.Snapshot{Assets: []models.Asset{a}}

	info := newTestResolver().Resolve("HW001", models.CategoryHardware, snap)
	assert.True(t, info.IsAvailable)
	require.Len(t, info.Restrictions, 1)
	r := info.Restrictions[0]
	assert.Equal(t, RestrictionDegraded, r.Code)
	assert.True(t, r.Overridable)
	assert.True(t, r.RequiresPermission)
}

func TestResolve_Software(t *testing.T) {
	tests := []struct {
		name      string
		capacity  *int
		users     int
		available bool
		code      string
		level     models.RestrictionLevel
	}{
		{"saturated", intPtr(2), 2, false, RestrictionLicenseExhausted, models.RestrictionError},
		{"one free", intPtr(2), 1, true, "", ""},
		{"ninety percent", intPtr(10), 9, true, RestrictionLicenseNearFull, models.RestrictionWarning},
		{"eighty percent", intPtr(10), 8, true, RestrictionLicenseBusy, models.RestrictionInfo},
		{"fallback capacity", nil, 5, false, RestrictionLicenseExhausted, models.RestrictionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := models.Snapshot{
				Assets:      []models.Asset{license("SW001", tt.capacity)},
				Assignments: seats(tt.users, "SW001"),
			}
			info := newTestResolver().Resolve("SW001", models.CategorySoftware, snap)
			assert.Equal(t, tt.available, info.IsAvailable)
			assert.Equal(t, tt.users, info.CurrentUsers)
			if tt.code == "" {
				assert.Empty(t, info.Restrictions)
				return
			}
			require.Len(t, info.Restrictions, 1)
			assert.Equal(t, tt.code, info.Restrictions[0].Code)
			assert.Equal(t, tt.level, info.Restrictions[0].Level)
		})
	}
}

func TestResolve_SoftwareSaturatedNextAvailable(t *testing.T) {
	early := day0.AddDate(0, 0, 3)
	late := day0.AddDate(0, 0, 9)
	snap := models.Snapshot{
		Assets: []models.Asset{license("SW001", intPtr(2))},
		Assignments: []models.Assignment{
			active("AS1", "E1", "SW001", models.CategorySoftware, &late),
			active("AS2", "E2", "SW001", models.CategorySoftware, &early),
		},
	}

	info := newTestResolver().Resolve("SW001", models.CategorySoftware, snap)
	require.NotNil(t, info.NextAvailable)
	assert.True(t, info.NextAvailable.Equal(early))
	assert.InDelta(t, 100.0, info.Utilization, 0.001)
}

func TestResolve_UnknownAsset(t *testing.T) {
	info := newTestResolver().Resolve("NOPE", models.CategoryHardware, models.Snapshot{})
	assert.False(t, info.Found)
	assert.False(t, info.IsAvailable)
	assert.Contains(t, info.Reason, "not found")
}

func TestResolve_CategoryMismatch(t *testing.T) {
	snap := models.Snapshot{Assets: []models.Asset{laptop("HW001", models.AssetAvailable)}}

	info := newTestResolver().Resolve("HW001", models.CategorySoftware, snap)
	assert.True(t, info.Found)
	assert.False(t, info.IsAvailable)
	require.Len(t, info.Restrictions, 1)
	assert.Equal(t, RestrictionCategoryMismatch, info.Restrictions[0].Code)
}

func TestFindOverlappingAssignments_HalfOpen(t *testing.T) {
	d := func(n int) time.Time { return day0.AddDate(0, 0, n) }
	tests := []struct {
		name     string
		newStart time.Time
		newEnd   *time.Time
		oldStart time.Time
		oldEnd   *time.Time
		want     bool
	}{
		{"disjoint before", d(0), timePtr(d(5)), d(10), timePtr(d(15)), false},
		{"touching end to start", d(0), timePtr(d(10)), d(10), timePtr(d(15)), false},
		{"touching start to end", d(15), timePtr(d(20)), d(10), timePtr(d(15)), false},
		{"partial overlap", d(0), timePtr(d(11)), d(10), timePtr(d(15)), true},
		{"contained", d(11), timePtr(d(12)), d(10), timePtr(d(15)), true},
		{"open ended candidate", d(20), nil, d(10), timePtr(d(25)), true},
		{"open ended existing", d(100), timePtr(d(101)), d(10), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []models.Assignment{{
				ID: "AS1", EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware,
				AssignedDate: tt.oldStart, ExpectedReturnDate: tt.oldEnd, Status: models.AssignmentPending,
			}}
			got := FindOverlappingAssignments("HW001", tt.newStart, tt.newEnd, existing)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestFindOverlappingAssignments_IgnoresClosedAndOtherAssets(t *testing.T) {
	existing := []models.Assignment{
		{ID: "AS1", AssetID: "HW001", AssignedDate: day0, Status: models.AssignmentReturned},
		{ID: "AS2", AssetID: "HW002", AssignedDate: day0, Status: models.AssignmentActive},
		{ID: "AS4", AssetID: "HW001", AssignedDate: day0, Status: models.AssignmentActive},
		{ID: "AS3", AssetID: "HW001", AssignedDate: day0.AddDate(0, 0, -1), Status: models.AssignmentPending},
	}

	got := FindOverlappingAssignments("HW001", day0, nil, existing)
	require.Len(t, got, 2)
	assert.Equal(t, "AS3", got[0].ID)
	assert.Equal(t, "AS4", got[1].ID)
}
