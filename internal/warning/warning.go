// Package warning produces non-blocking advisories about assignment volume,
// employee load, license expiry and hardware maintenance.
package warning

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

var warningNamespace = uuid.MustParse("0b8e4a7d-5c29-4f61-8d3a-71e2f9c0a6d4")

// Generator computes advisories. It never reports anything that should
// block an assignment.
type Generator struct {
	policy config.PolicyConfig
	clock  clock.Clock
	logger *slog.Logger
}

// NewGenerator creates a warning generator.
func NewGenerator(policy config.PolicyConfig, clk clock.Clock, logger *slog.Logger) *Generator {
	return &Generator{policy: policy, clock: clk, logger: logger}
}

// Generate returns the advisories relevant to one candidate assignment.
func (g *Generator) Generate(c models.CandidateAssignment, snap models.Snapshot) []models.Warning {
	now := g.clock.Now()
	idx := models.NewIndex(snap)

	var out []models.Warning
	if w, ok := g.volume(idx, now); ok {
		out = append(out, w)
	}
	if w, ok := g.approachingCap(c.EmployeeID, idx); ok {
		out = append(out, w)
	}
	if asset, ok := idx.Asset(c.AssetID); ok {
		out = append(out, g.compliance(asset, now)...)
	}

	metrics.Add(metrics.WarningsRaised, len(out))
	return out
}

// SweepResult is the outcome of a fleet-wide compliance pass.
type SweepResult struct {
	Warnings []models.Warning    `json:"warnings"`
	Overdue  []models.Assignment `json:"overdue"`
}

// Sweep runs the compliance checks over every asset and flags active
// assignments past their expected return date.
func (g *Generator) Sweep(snap models.Snapshot) SweepResult {
	now := g.clock.Now()
	idx := models.NewIndex(snap)

	res := SweepResult{Warnings: []models.Warning{}, Overdue: []models.Assignment{}}
	for _, asset := range idx.Assets() {
		res.Warnings = append(res.Warnings, g.compliance(asset, now)...)
	}

	for _, a := range idx.Assignments() {
		if !a.IsActive() || a.ExpectedReturnDate == nil || !a.ExpectedReturnDate.Before(now) {
			continue
		}
		res.Overdue = append(res.Overdue, a)
		res.Warnings = append(res.Warnings, newWarning(models.WarningCompliance, true,
			fmt.Sprintf("assignment %s of %s to %s was due back %s", a.ID, a.AssetID, a.EmployeeID, day(*a.ExpectedReturnDate)),
			"contact the employee and mark the assignment overdue",
			"overdue", a.ID))
	}
	sort.SliceStable(res.Overdue, func(i, j int) bool {
		return res.Overdue[i].ExpectedReturnDate.Before(*res.Overdue[j].ExpectedReturnDate)
	})

	metrics.Add(metrics.WarningsRaised, len(res.Warnings))
	g.logger.Info("compliance sweep evaluated",
		"assets", len(idx.Assets()), "warnings", len(res.Warnings), "overdue", len(res.Overdue))
	return res
}

func (g *Generator) volume(idx *models.Index, now time.Time) (models.Warning, bool) {
	since := now.AddDate(0, 0, -g.policy.VolumeWindowDays)
	count := 0
	for _, a := range idx.Assignments() {
		if a.AssignedDate.After(since) && !a.AssignedDate.After(now) {
			count++
		}
	}
	if count <= g.policy.VolumeThreshold {
		return models.Warning{}, false
	}
	return newWarning(models.WarningPerformance, false,
		fmt.Sprintf("%d assignments in the last %d days exceeds the usual volume of %d", count, g.policy.VolumeWindowDays, g.policy.VolumeThreshold),
		"spread large rollouts over several days so inventory counts stay accurate",
		"volume", day(now)), true
}

func (g *Generator) approachingCap(employeeID string, idx *models.Index) (models.Warning, bool) {
	held := len(idx.ActiveForEmployee(employeeID))
	if held != g.policy.MaxAssignmentsPerEmployee-1 {
		return models.Warning{}, false
	}
	return newWarning(models.WarningPerformance, true,
		fmt.Sprintf("employee %s holds %d assets, one below the limit of %d", employeeID, held, g.policy.MaxAssignmentsPerEmployee),
		"review whether the employee still needs every assigned asset",
		"approaching_cap", employeeID), true
}

func (g *Generator) compliance(asset models.Asset, now time.Time) []models.Warning {
	var out []models.Warning
	switch asset.Category {
	case models.CategorySoftware:
		if asset.ExpiryDate == nil {
			break
		}
		notice := now.AddDate(0, 0, g.policy.ExpiryNoticeDays)
		if asset.ExpiryDate.After(now) && !asset.ExpiryDate.After(notice) {
			out = append(out, newWarning(models.WarningCompliance, true,
				fmt.Sprintf("license %s expires %s", asset.ID, day(*asset.ExpiryDate)),
				"renew the license or plan a replacement before expiry",
				"expiry", asset.ID))
		}
	case models.CategoryHardware:
		if asset.LastMaintenance == nil || asset.Status == models.AssetDisposed {
			break
		}
		due := now.AddDate(0, -g.policy.MaintenanceIntervalMonths, 0)
		if asset.LastMaintenance.Before(due) {
			out = append(out, newWarning(models.WarningCompliance, true,
				fmt.Sprintf("hardware %s was last maintained %s", asset.ID, day(*asset.LastMaintenance)),
				"schedule preventive maintenance",
				"maintenance", asset.ID))
		}
	}
	return out
}

func newWarning(cat models.WarningCategory, actionable bool, msg, rec string, key ...string) models.Warning {
	name := string(cat)
	for _, k := range key {
		name += "|" + k
	}
	return models.Warning{
		ID:             uuid.NewSHA1(warningNamespace, []byte(name)).String(),
		Category:       cat,
		Message:        msg,
		Actionable:     actionable,
		Recommendation: rec,
	}
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
