// Package conflict evaluates a candidate assignment against an inventory
// snapshot along five independent dimensions and reports blocking findings.
package conflict

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

// conflictNamespace seeds deterministic conflict IDs.
var conflictNamespace = uuid.MustParse("6f1c1b52-3f0e-4d8a-9a57-2c7d0c4e9b11")

// passOrder fixes the position of each dimension in the output.
var passOrder = map[models.Dimension]int{
	models.DimensionResource:      0,
	models.DimensionScheduling:    1,
	models.DimensionPolicy:        2,
	models.DimensionBusinessRule:  3,
	models.DimensionDataIntegrity: 4,
}

// Detector runs the five detection passes.
type Detector struct {
	policy   config.PolicyConfig
	resolver *availability.Resolver
	clock    clock.Clock
	logger   *slog.Logger
}

// NewDetector creates a detector. The clock supplies "now" for the
// future-date check and the DetectedAt stamp.
func NewDetector(policy config.PolicyConfig, resolver *availability.Resolver, clk clock.Clock, logger *slog.Logger) *Detector {
	return &Detector{
		policy:   policy,
		resolver: resolver,
		clock:    clk,
		logger:   logger,
	}
}

// Detect returns every conflict the candidate raises against snap, ordered
// by severity then dimension. Identical inputs yield identical output apart
// from DetectedAt.
func (d *Detector) Detect(c models.CandidateAssignment, snap models.Snapshot) []models.Conflict {
	metrics.Inc(metrics.CheckTotal)

	idx := models.NewIndex(snap)
	p := &pass{
		candidate: c,
		idx:       idx,
		now:       d.clock.Now(),
	}

	var out []models.Conflict
	resource := d.resourcePass(p)
	out = append(out, resource...)
	out = append(out, d.schedulingPass(p, claimedAssignments(resource))...)
	out = append(out, d.policyPass(p)...)
	out = append(out, d.businessRulePass(p)...)
	out = append(out, d.dataIntegrityPass(p)...)

	sortConflicts(out)
	metrics.Add(metrics.ConflictsFound, len(out))

	d.logger.Debug("conflict detection complete",
		"employee_id", c.EmployeeID, "asset_id", c.AssetID, "conflicts", len(out))
	return out
}

// pass carries the per-call state shared by the detection passes.
type pass struct {
	candidate models.CandidateAssignment
	idx       *models.Index
	now       time.Time
}

func (p *pass) conflict(cause models.Cause, sev models.Severity, auto bool, desc string, employees, assets, assignments []string) models.Conflict {
	return models.Conflict{
		ID:             conflictID(p.candidate, cause, employees, assets, assignments),
		Dimension:      cause.Dimension(),
		Cause:          cause,
		Severity:       sev,
		Description:    desc,
		EmployeeIDs:    employees,
		AssetIDs:       assets,
		AssignmentIDs:  assignments,
		AutoResolvable: auto,
		DetectedAt:     p.now,
	}
}

// resourcePass checks contention for the asset itself. Any active holder of
// hardware counts, including the candidate's own employee.
func (d *Detector) resourcePass(p *pass) []models.Conflict {
	c := p.candidate
	asset, ok := p.idx.Asset(c.AssetID)
	if !ok {
		return nil
	}

	active := p.idx.ActiveForAsset(asset.ID)
	switch asset.Category {
	case models.CategoryHardware:
		var holders, ids []string
		employees := []string{c.EmployeeID}
		for _, a := range active {
			holders = append(holders, a.EmployeeID)
			ids = append(ids, a.ID)
			if a.EmployeeID != c.EmployeeID {
				employees = append(employees, a.EmployeeID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return []models.Conflict{p.conflict(models.CauseHardwareInUse, models.SeverityCritical, false,
			fmt.Sprintf("hardware %s is already assigned to %s", asset.ID, strings.Join(holders, ", ")),
			employees, []string{asset.ID}, ids)}

	case models.CategorySoftware:
		capacity := d.resolver.Capacity(asset)
		if len(active) < capacity {
			return nil
		}
		ids := make([]string, 0, len(active))
		for _, a := range active {
			ids = append(ids, a.ID)
		}
		return []models.Conflict{p.conflict(models.CauseLicenseExhausted, models.SeverityHigh, false,
			fmt.Sprintf("all %d licenses of %s are in use (%d active)", capacity, asset.ID, len(active)),
			[]string{c.EmployeeID}, []string{asset.ID}, ids)}
	}
	return nil
}

// schedulingPass checks duplicates and interval overlaps. Assignments
// already reported as contention or as a duplicate are not reported again
// as an overlap; the candidate's own pending reservations still are.
func (d *Detector) schedulingPass(p *pass, claimed map[string]bool) []models.Conflict {
	c := p.candidate
	var out []models.Conflict

	duplicates := make(map[string]bool)
	for _, a := range p.idx.ActiveForEmployee(c.EmployeeID) {
		if a.AssetID != c.AssetID {
			continue
		}
		duplicates[a.ID] = true
		out = append(out, p.conflict(models.CauseDuplicateAssignment, models.SeverityHigh, true,
			fmt.Sprintf("employee %s already holds %s (assignment %s)", c.EmployeeID, c.AssetID, a.ID),
			[]string{c.EmployeeID}, []string{c.AssetID}, []string{a.ID}))
	}

	// Software seats are concurrent by nature; capacity is the resource pass's job.
	asset, ok := p.idx.Asset(c.AssetID)
	if !ok || asset.Category != models.CategoryHardware {
		return out
	}

	overlapping := availability.FindOverlappingAssignments(c.AssetID, c.AssignedDate, c.ExpectedReturnDate, p.idx.ForAsset(c.AssetID))
	for _, a := range overlapping {
		if claimed[a.ID] || duplicates[a.ID] {
			continue
		}
		out = append(out, p.conflict(models.CauseScheduleOverlap, models.SeverityMedium, true,
			fmt.Sprintf("requested period overlaps %s assignment %s of employee %s (%s to %s)",
				a.Status, a.ID, a.EmployeeID, formatDate(a.AssignedDate), formatEnd(a.ExpectedReturnDate)),
			[]string{c.EmployeeID, a.EmployeeID}, []string{c.AssetID}, []string{a.ID}))
	}
	return out
}

// policyPass checks whether the employee may hold another asset.
func (d *Detector) policyPass(p *pass) []models.Conflict {
	c := p.candidate
	emp, ok := p.idx.Employee(c.EmployeeID)
	if !ok {
		return []models.Conflict{p.conflict(models.CauseEmployeeUnknown, models.SeverityCritical, false,
			fmt.Sprintf("employee %s is not known to the directory", c.EmployeeID),
			[]string{c.EmployeeID}, nil, nil)}
	}

	var out []models.Conflict
	if held := p.idx.ActiveForEmployee(emp.ID); len(held) >= d.policy.MaxAssignmentsPerEmployee {
		ids := make([]string, 0, len(held))
		for _, a := range held {
			ids = append(ids, a.ID)
		}
		out = append(out, p.conflict(models.CauseAssignmentCapExceeded, models.SeverityHigh, false,
			fmt.Sprintf("employee %s holds %d assets, at or over the limit of %d", emp.ID, len(held), d.policy.MaxAssignmentsPerEmployee),
			[]string{emp.ID}, nil, ids))
	}
	if emp.Status == models.EmployeeInactive {
		out = append(out, p.conflict(models.CauseEmployeeInactive, models.SeverityHigh, false,
			fmt.Sprintf("employee %s is inactive", emp.ID),
			[]string{emp.ID}, nil, nil))
	}
	return out
}

// businessRulePass checks the asset's own lifecycle state.
func (d *Detector) businessRulePass(p *pass) []models.Conflict {
	c := p.candidate
	asset, ok := p.idx.Asset(c.AssetID)
	if !ok {
		return nil
	}

	switch asset.Category {
	case models.CategoryHardware:
		switch asset.Status {
		case models.AssetMaintenance:
			return []models.Conflict{p.conflict(models.CauseAssetMaintenance, models.SeverityHigh, false,
				fmt.Sprintf("hardware %s is under maintenance", asset.ID),
				[]string{c.EmployeeID}, []string{asset.ID}, nil)}
		case models.AssetDisposed:
			return []models.Conflict{p.conflict(models.CauseAssetDisposed, models.SeverityCritical, false,
				fmt.Sprintf("hardware %s has been disposed", asset.ID),
				[]string{c.EmployeeID}, []string{asset.ID}, nil)}
		}
	case models.CategorySoftware:
		if asset.ExpiryDate != nil && models.SameDayOrBefore(*asset.ExpiryDate, c.AssignedDate) {
			return []models.Conflict{p.conflict(models.CauseLicenseExpired, models.SeverityHigh, false,
				fmt.Sprintf("license %s expires %s, on or before the requested date %s",
					asset.ID, formatDate(*asset.ExpiryDate), formatDate(c.AssignedDate)),
				[]string{c.EmployeeID}, []string{asset.ID}, nil)}
		}
	}
	return nil
}

// dataIntegrityPass checks references and date sanity.
func (d *Detector) dataIntegrityPass(p *pass) []models.Conflict {
	c := p.candidate
	var out []models.Conflict

	if _, ok := p.idx.Employee(c.EmployeeID); !ok {
		out = append(out, p.conflict(models.CauseEmployeeMissing, models.SeverityCritical, false,
			fmt.Sprintf("employee reference %s does not exist", c.EmployeeID),
			[]string{c.EmployeeID}, nil, nil))
	}
	if _, ok := p.idx.Asset(c.AssetID); !ok {
		out = append(out, p.conflict(models.CauseAssetMissing, models.SeverityCritical, false,
			fmt.Sprintf("asset reference %s does not exist", c.AssetID),
			nil, []string{c.AssetID}, nil))
	}

	limit := p.now.AddDate(0, 0, d.policy.MaxFutureDays)
	if c.AssignedDate.After(limit) {
		out = append(out, p.conflict(models.CauseFutureDate, models.SeverityMedium, true,
			fmt.Sprintf("assigned date %s is more than %d days in the future", formatDate(c.AssignedDate), d.policy.MaxFutureDays),
			[]string{c.EmployeeID}, []string{c.AssetID}, nil))
	}
	return out
}

func claimedAssignments(conflicts []models.Conflict) map[string]bool {
	claimed := make(map[string]bool)
	for i := range conflicts {
		for _, id := range conflicts[i].AssignmentIDs {
			claimed[id] = true
		}
	}
	return claimed
}

func sortConflicts(cs []models.Conflict) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if passOrder[a.Dimension] != passOrder[b.Dimension] {
			return passOrder[a.Dimension] < passOrder[b.Dimension]
		}
		if a.Cause != b.Cause {
			return a.Cause < b.Cause
		}
		return a.ID < b.ID
	})
}

// conflictID derives a stable ID from what the conflict is about.
func conflictID(c models.CandidateAssignment, cause models.Cause, employees, assets, assignments []string) string {
	key := strings.Join([]string{
		c.EmployeeID,
		c.AssetID,
		c.AssignedDate.UTC().Format(time.RFC3339),
		string(cause),
		strings.Join(employees, ","),
		strings.Join(assets, ","),
		strings.Join(assignments, ","),
	}, "|")
	return uuid.NewSHA1(conflictNamespace, []byte(key)).String()
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatEnd(t *time.Time) string {
	if t == nil {
		return "open-ended"
	}
	return formatDate(*t)
}
