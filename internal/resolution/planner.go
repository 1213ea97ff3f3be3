// Package resolution maps conflicts to remediation proposals and performs
// the bounded subset of them that can be automated.
package resolution

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// plan is one row of the proposal table.
type plan struct {
	strategy   models.Strategy
	confidence float64
	automated  bool
	eta        models.EstimatedTime
	steps      func(c models.Conflict) []string
}

// plans is keyed by cause; every cause belongs to exactly one dimension.
var plans = map[models.Cause][]plan{
	models.CauseHardwareInUse: {
		{models.StrategyAlternativeAsset, 0.8, true, models.EstimateImmediate, alternativeAssetSteps},
		{models.StrategyReschedule, 0.6, true, models.EstimateMultiDay, rescheduleSteps},
	},
	models.CauseLicenseExhausted: {
		{models.StrategyReschedule, 0.6, true, models.EstimateMultiDay, rescheduleSteps},
		{models.StrategyManualReview, 0.4, false, models.EstimateWithinDay, licensePurchaseSteps},
	},
	models.CauseDuplicateAssignment: {
		{models.StrategyReschedule, 0.9, true, models.EstimateImmediate, duplicateSteps},
	},
	models.CauseScheduleOverlap: {
		{models.StrategyReschedule, 0.9, true, models.EstimateImmediate, rescheduleSteps},
	},
	models.CauseEmployeeUnknown: {
		{models.StrategyManualReview, 0.3, false, models.EstimateWithinDay, directorySteps},
	},
	models.CauseAssignmentCapExceeded: {
		{models.StrategyManualReview, 0.5, false, models.EstimateWithinDay, capReviewSteps},
		{models.StrategyPolicyOverride, 0.4, false, models.EstimateWithinDay, overrideSteps},
	},
	models.CauseEmployeeInactive: {
		{models.StrategyReassign, 0.5, false, models.EstimateWithinHour, reassignSteps},
		{models.StrategyManualReview, 0.5, false, models.EstimateWithinDay, directorySteps},
	},
	models.CauseAssetMaintenance: {
		{models.StrategyAlternativeAsset, 0.7, true, models.EstimateImmediate, alternativeAssetSteps},
	},
	models.CauseAssetDisposed: {
		{models.StrategyAlternativeAsset, 0.7, true, models.EstimateImmediate, alternativeAssetSteps},
	},
	models.CauseLicenseExpired: {
		{models.StrategyAlternativeAsset, 0.6, true, models.EstimateImmediate, alternativeAssetSteps},
		{models.StrategyManualReview, 0.4, false, models.EstimateMultiDay, renewalSteps},
	},
	models.CauseEmployeeMissing: {
		{models.StrategyManualReview, 0.3, false, models.EstimateWithinDay, dataFixSteps},
	},
	models.CauseAssetMissing: {
		{models.StrategyManualReview, 0.3, false, models.EstimateWithinDay, dataFixSteps},
	},
	models.CauseFutureDate: {
		{models.StrategyManualReview, 0.3, false, models.EstimateWithinHour, dateFixSteps},
	},
}

var fallbackPlan = plan{models.StrategyManualReview, 0.3, false, models.EstimateWithinDay, dataFixSteps}

// Planner turns conflicts into resolution proposals.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(logger *slog.Logger) *Planner {
	return &Planner{logger: logger}
}

// Plan returns the proposals for c, best first. Each proposal lists the
// others as its alternatives.
func (p *Planner) Plan(c models.Conflict) []models.ResolutionProposal {
	rows, ok := plans[c.Cause]
	if !ok {
		p.logger.Warn("no resolution plan for cause, falling back to manual review",
			"cause", c.Cause, "conflict_id", c.ID)
		rows = []plan{fallbackPlan}
	}

	base := make([]models.ResolutionProposal, len(rows))
	for i, r := range rows {
		base[i] = models.ResolutionProposal{
			ConflictID:    c.ID,
			Strategy:      r.strategy,
			Steps:         r.steps(c),
			Automated:     r.automated,
			Confidence:    r.confidence,
			EstimatedTime: r.eta,
		}
	}

	out := make([]models.ResolutionProposal, len(base))
	for i := range base {
		out[i] = base[i]
		for j := range base {
			if j != i {
				out[i].Alternatives = append(out[i].Alternatives, base[j])
			}
		}
	}
	return out
}

// PlanAll plans every conflict in order.
func (p *Planner) PlanAll(conflicts []models.Conflict) []models.ResolutionProposal {
	var out []models.ResolutionProposal
	for i := range conflicts {
		out = append(out, p.Plan(conflicts[i])...)
	}
	return out
}

func assetList(c models.Conflict) string {
	if len(c.AssetIDs) == 0 {
		return "the requested asset"
	}
	return strings.Join(c.AssetIDs, ", ")
}

func alternativeAssetSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Find an available asset of the same category as %s", assetList(c)),
		"Prefer the same manufacturer and model",
		"Re-run the conflict check with the substitute asset",
		"Create the assignment with the substitute",
	}
}

func rescheduleSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Look up when %s becomes free", assetList(c)),
		"Move the assigned date to that point, keeping the requested duration",
		"Re-run the conflict check for the new period",
		"Notify the requester of the new date",
	}
}

func duplicateSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Confirm the employee already holds %s", assetList(c)),
		"Drop the duplicate request or schedule it after the current assignment ends",
	}
}

func licensePurchaseSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Review seat usage of %s for idle holders", assetList(c)),
		"Reclaim an idle seat or request additional licenses",
		"Retry the assignment once a seat is free",
	}
}

func directorySteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Verify employee %s in the directory", strings.Join(c.EmployeeIDs, ", ")),
		"Correct the employee record or cancel the request",
	}
}

func capReviewSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Review the assets currently held by %s", strings.Join(c.EmployeeIDs, ", ")),
		"Return unused assets before assigning another",
	}
}

func overrideSteps(_ models.Conflict) []string {
	return []string{
		"Document the business need for exceeding the assignment limit",
		"Obtain manager approval for a policy override",
		"Record the override with the assignment",
	}
}

func reassignSteps(_ models.Conflict) []string {
	return []string{
		"Identify the active employee who should receive the asset",
		"Submit a new request for that employee",
	}
}

func renewalSteps(c models.Conflict) []string {
	return []string{
		fmt.Sprintf("Start renewal of %s with the vendor", assetList(c)),
		"Update the expiry date once renewed",
		"Retry the assignment",
	}
}

func dataFixSteps(_ models.Conflict) []string {
	return []string{
		"Check the referenced records for typos or stale identifiers",
		"Correct the inventory data",
		"Resubmit the request",
	}
}

func dateFixSteps(_ models.Conflict) []string {
	return []string{
		"Confirm the intended assigned date with the requester",
		"Correct the date and resubmit",
	}
}
