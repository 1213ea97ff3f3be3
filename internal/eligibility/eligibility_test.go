package eligibility

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

var day0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newTestValidator(policy config.PolicyConfig) *Validator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewValidator(policy, availability.NewResolver(policy, logger), logger)
}

func employee(id string) models.Employee {
	return models.Employee{ID: id, Name: "Employee " + id, Department: "Engineering", Status: models.EmployeeActive}
}

func hardware(id string, tags ...string) models.Asset {
	return models.Asset{ID: id, Category: models.CategoryHardware, Status: models.AssetAvailable, Condition: models.ConditionGood, Tags: tags}
}

func holding(id, emp, asset string, cat models.AssetCategory) models.Assignment {
	return models.Assignment{ID: id, EmployeeID: emp, AssetID: asset, Category: cat, AssignedDate: day0.AddDate(0, -2, 0), Status: models.AssignmentActive}
}

func issueCodes(items []models.ValidationIssue) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Code)
	}
	return out
}

func warningCodes(items []models.ValidationWarning) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Code)
	}
	return out
}

func TestValidate_CleanAssignment(t *testing.T) {
	snap := models.Snapshot{
		Employees: []models.Employee{employee("E1")},
		Assets:    []models.Asset{hardware("HW001")},
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.True(t, res.CanProceed)
	assert.False(t, res.RequiresApproval)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Availability.IsAvailable)
}

func TestValidate_UnavailableCarriesNextAvailableHint(t *testing.T) {
	ret := day0.AddDate(0, 0, 14)
	held := holding("AS1", "E2", "HW001", models.CategoryHardware)
	held.ExpectedReturnDate = &ret
	snap := models.Snapshot{
		Employees:   []models.Employee{employee("E1"), employee("E2")},
		Assets:      []models.Asset{hardware("HW001")},
		Assignments: []models.Assignment{held},
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.False(t, res.CanProceed)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, CodeUnavailable, res.Issues[0].Code)
	assert.Contains(t, res.Issues[0].Remediation, ret.Format("2006-01-02"))
}

func TestValidate_AssignmentCapIsIssue(t *testing.T) {
	snap := models.Snapshot{
		Employees: []models.Employee{employee("E1")},
		Assets:    []models.Asset{hardware("HW001")},
	}
	for i, id := range []string{"S1", "S2", "S3", "S4", "S5"} {
		snap.Assets = append(snap.Assets, models.Asset{ID: id, Category: models.CategorySoftware})
		snap.Assignments = append(snap.Assignments, holding("AS"+string(rune('0'+i)), "E1", id, models.CategorySoftware))
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.False(t, res.CanProceed)
	assert.Contains(t, issueCodes(res.Issues), CodeAssignmentCap)
}

func TestValidate_CategoryCapIsOverridableWarning(t *testing.T) {
	snap := models.Snapshot{
		Employees: []models.Employee{employee("E1")},
		Assets:    []models.Asset{hardware("HW001"), hardware("HW002"), hardware("HW003"), hardware("HW004")},
		Assignments: []models.Assignment{
			holding("AS1", "E1", "HW002", models.CategoryHardware),
			holding("AS2", "E1", "HW003", models.CategoryHardware),
			holding("AS3", "E1", "HW004", models.CategoryHardware),
		},
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.True(t, res.CanProceed)
	assert.False(t, res.RequiresApproval)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodeCategoryCap, res.Warnings[0].Code)
	assert.True(t, res.Warnings[0].Overridable)
}

func TestValidate_InactiveEmployee(t *testing.T) {
	e := employee("E1")
	e.Status = models.EmployeeInactive
	snap := models.Snapshot{Employees: []models.Employee{e}, Assets: []models.Asset{hardware("HW001")}}

	res := newTestValidator(config.DefaultPolicy()).Validate(e, "HW001", models.CategoryHardware, snap)
	assert.False(t, res.CanProceed)
	assert.Equal(t, []string{CodeEmployeeInactive}, issueCodes(res.Issues))
}

func TestValidate_DepartmentRestrictionRequiresApproval(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.DepartmentRestrictions = map[string]config.Restriction{
		"engineering": {Tags: []string{"finance-only"}},
	}
	snap := models.Snapshot{
		Employees: []models.Employee{employee("E1")},
		Assets:    []models.Asset{hardware("HW001", "finance-only")},
	}

	res := newTestValidator(policy).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.True(t, res.CanProceed)
	assert.True(t, res.RequiresApproval)
	assert.Equal(t, []string{CodeDepartmentTag}, warningCodes(res.Warnings))
}

func TestValidate_RoleRestriction(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.RoleRestrictions = map[string]config.Restriction{
		"contractor": {Categories: []string{"software"}, Tags: []string{"privileged"}},
	}
	sw := models.Asset{ID: "SW001", Category: models.CategorySoftware, Tags: []string{"Privileged"}}

	tests := []struct {
		name string
		role string
		want []string
	}{
		{"restricted role", "Contractor", []string{CodeRoleCategory, CodeRoleTag}},
		{"other role", "engineer", nil},
		{"no role", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := employee("E1")
			e.Role = tt.role
			snap := models.Snapshot{Employees: []models.Employee{e}, Assets: []models.Asset{sw}}

			res := newTestValidator(policy).Validate(e, "SW001", models.CategorySoftware, snap)
			assert.True(t, res.CanProceed)
			assert.Equal(t, len(tt.want) > 0, res.RequiresApproval)
			assert.Equal(t, tt.want, warningCodes(res.Warnings))
		})
	}
}

func TestCompatibilityHelpers(t *testing.T) {
	mac := hardware("HW001", "platform:macos", "laptop")
	win := hardware("HW002", "platform:windows", "laptop")
	win.IncompatibleWith = []string{"platform:macos"}
	printer := hardware("HW003", "printer")

	assert.True(t, SharesTag(mac, win))
	assert.False(t, SharesTag(mac, printer))

	snap := models.Snapshot{
		Employees: []models.Employee{employee("E1")},
		Assets:    []models.Asset{mac, win, printer},
		Assignments: []models.Assignment{{
			ID: "AS1", EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware, Status: models.AssignmentActive,
		}},
	}
	idx := models.NewIndex(snap)
	assert.True(t, Incompatible(win, "E1", idx))
	assert.False(t, Incompatible(printer, "E1", idx))
	assert.False(t, Incompatible(win, "E2", idx))
}

func TestValidate_CompatibilityTags(t *testing.T) {
	mac := hardware("HW001", "platform:macos")
	mac.IncompatibleWith = []string{"platform:windows"}
	win := hardware("HW002", "platform:windows")
	snap := models.Snapshot{
		Employees:   []models.Employee{employee("E1")},
		Assets:      []models.Asset{mac, win},
		Assignments: []models.Assignment{holding("AS1", "E1", "HW002", models.CategoryHardware)},
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.True(t, res.CanProceed)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodeIncompatiblePlatform, res.Warnings[0].Code)
	assert.True(t, res.Warnings[0].Overridable)
	assert.Contains(t, res.Warnings[0].Message, "platform:windows")
}

func TestValidate_CompatibilityIsSymmetric(t *testing.T) {
	mac := hardware("HW001", "platform:macos")
	win := hardware("HW002", "platform:windows")
	win.IncompatibleWith = []string{"platform:macos"}
	snap := models.Snapshot{
		Employees:   []models.Employee{employee("E1")},
		Assets:      []models.Asset{mac, win},
		Assignments: []models.Assignment{holding("AS1", "E1", "HW002", models.CategoryHardware)},
	}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.Equal(t, []string{CodeIncompatiblePlatform}, warningCodes(res.Warnings))
}

func TestValidate_DegradedConditionFoldsIntoWarnings(t *testing.T) {
	a := hardware("HW001")
	a.Condition = models.ConditionDamaged
	snap := models.Snapshot{Employees: []models.Employee{employee("E1")}, Assets: []models.Asset{a}}

	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "HW001", models.CategoryHardware, snap)
	assert.True(t, res.CanProceed)
	assert.False(t, res.RequiresApproval)
	assert.Equal(t, []string{availability.RestrictionDegraded}, warningCodes(res.Warnings))
	require.Len(t, res.Recommendations, 1)
	assert.Contains(t, res.Recommendations[0], "elevated permission")
}

func TestValidate_UnknownAssetNeverPanics(t *testing.T) {
	res := newTestValidator(config.DefaultPolicy()).Validate(employee("E1"), "NOPE", models.CategoryHardware, models.Snapshot{})
	assert.False(t, res.CanProceed)
	assert.Equal(t, []string{CodeUnavailable}, issueCodes(res.Issues))
	assert.False(t, res.Availability.Found)
}
