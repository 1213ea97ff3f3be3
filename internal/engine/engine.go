// Package engine is the entry point of the assignment checker. It wires
// availability, eligibility, conflict detection, warnings and resolution
// into the operations callers use before committing an assignment.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/conflict"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/eligibility"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/resolution"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/warning"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

// Report is the full outcome of checking one candidate.
type Report struct {
	HasConflicts bool                        `json:"has_conflicts"`
	Conflicts    []models.Conflict           `json:"conflicts"`
	Warnings     []models.Warning            `json:"warnings"`
	Proposals    []models.ResolutionProposal `json:"proposals"`
}

// Blocking reports whether any conflict is critical.
func (r Report) Blocking() bool {
	for _, c := range r.Conflicts {
		if c.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

// Proposal finds conflictID and the proposal to attempt for it: the one
// with the given strategy, or when strategy is empty the first automated
// proposal, falling back to the first proposal.
func (r Report) Proposal(conflictID string, strategy models.Strategy) (models.Conflict, models.ResolutionProposal, bool) {
	var conflict models.Conflict
	found := false
	for _, c := range r.Conflicts {
		if c.ID == conflictID {
			conflict, found = c, true
			break
		}
	}
	if !found {
		return models.Conflict{}, models.ResolutionProposal{}, false
	}

	var first *models.ResolutionProposal
	for i := range r.Proposals {
		p := r.Proposals[i]
		if p.ConflictID != conflictID {
			continue
		}
		if strategy != "" && p.Strategy == strategy {
			return conflict, p, true
		}
		if strategy == "" && p.Automated {
			return conflict, p, true
		}
		if first == nil {
			first = &r.Proposals[i]
		}
	}
	if strategy == "" && first != nil {
		return conflict, *first, true
	}
	return models.Conflict{}, models.ResolutionProposal{}, false
}

// Engine is safe for concurrent use; it keeps no state between calls.
type Engine struct {
	resolver  *availability.Resolver
	validator *eligibility.Validator
	detector  *conflict.Detector
	warnings  *warning.Generator
	planner   *resolution.Planner
	auto      *resolution.AutoResolver
	prober    *availability.Prober
	logger    *slog.Logger
}

// New builds an engine from policy. prober may be nil, in which case
// real-time probes report that no probe is configured.
func New(policy config.PolicyConfig, clk clock.Clock, prober *availability.Prober, logger *slog.Logger) *Engine {
	resolver := availability.NewResolver(policy, logger)
	return &Engine{
		resolver:  resolver,
		validator: eligibility.NewValidator(policy, resolver, logger),
		detector:  conflict.NewDetector(policy, resolver, clk, logger),
		warnings:  warning.NewGenerator(policy, clk, logger),
		planner:   resolution.NewPlanner(logger),
		auto:      resolution.NewAutoResolver(policy, resolver, logger),
		prober:    prober,
		logger:    logger,
	}
}

// Resolver returns the availability resolver the engine uses.
func (e *Engine) Resolver() *availability.Resolver { return e.resolver }

// Warnings returns the warning generator the engine uses.
func (e *Engine) Warnings() *warning.Generator { return e.warnings }

// ResolveAvailability reports whether assetID can accept a new assignment.
func (e *Engine) ResolveAvailability(assetID string, category models.AssetCategory, snap models.Snapshot) (models.AvailabilityInfo, error) {
	if err := checkCategory(category); err != nil {
		return models.AvailabilityInfo{}, err
	}
	if err := snap.Validate(); err != nil {
		return models.AvailabilityInfo{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return e.resolver.Resolve(assetID, category, snap), nil
}

// ValidateEligibility checks whether employee may receive assetID.
func (e *Engine) ValidateEligibility(employee models.Employee, assetID string, category models.AssetCategory, snap models.Snapshot) (models.ValidationResult, error) {
	if err := checkCategory(category); err != nil {
		return models.ValidationResult{}, err
	}
	if !employee.Status.IsValid() {
		return models.ValidationResult{}, &models.ContractError{
			Message: fmt.Sprintf("employee %s has invalid status %q", employee.ID, employee.Status),
		}
	}
	if err := snap.Validate(); err != nil {
		return models.ValidationResult{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return e.validator.Validate(employee, assetID, category, snap), nil
}

// DetectConflicts runs every detection pass, the advisory passes and the
// resolution planner for one candidate.
func (e *Engine) DetectConflicts(c models.CandidateAssignment, snap models.Snapshot) (Report, error) {
	if err := c.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid candidate: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid snapshot: %w", err)
	}

	conflicts := e.detector.Detect(c, snap)
	report := Report{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
		Warnings:     e.warnings.Generate(c, snap),
		Proposals:    e.planner.PlanAll(conflicts),
	}
	if report.Conflicts == nil {
		report.Conflicts = []models.Conflict{}
	}
	if report.Warnings == nil {
		report.Warnings = []models.Warning{}
	}
	if report.Proposals == nil {
		report.Proposals = []models.ResolutionProposal{}
	}

	e.logger.Info("candidate checked",
		"employee_id", c.EmployeeID, "asset_id", c.AssetID,
		"conflicts", len(report.Conflicts), "warnings", len(report.Warnings))
	return report, nil
}

// FindOverlappingAssignments returns the live assignments of assetID whose
// interval intersects the proposed one.
func (e *Engine) FindOverlappingAssignments(assetID string, proposed time.Time, expectedReturn *time.Time, assignments []models.Assignment) []models.Assignment {
	return availability.FindOverlappingAssignments(assetID, proposed, expectedReturn, assignments)
}

// ProbeRealTimeAvailability performs one rate-limited live check.
func (e *Engine) ProbeRealTimeAvailability(ctx context.Context, assetID string, category models.AssetCategory) availability.ProbeResult {
	if e.prober == nil {
		return availability.ProbeResult{Reason: "real-time probe not configured"}
	}
	return e.prober.Probe(ctx, assetID, category)
}

// AttemptAutomatedResolution applies proposal when it passes the automation
// gate and returns the revised candidate. Nothing is persisted.
func (e *Engine) AttemptAutomatedResolution(c models.Conflict, proposal models.ResolutionProposal, rctx resolution.ResolutionContext) resolution.AttemptResult {
	return e.auto.Attempt(c, proposal, rctx)
}

// Plan returns the proposals for a single conflict.
func (e *Engine) Plan(c models.Conflict) []models.ResolutionProposal {
	return e.planner.Plan(c)
}

func checkCategory(category models.AssetCategory) error {
	if !category.IsValid() {
		return &models.ContractError{Message: fmt.Sprintf("category %q must be hardware or software", category)}
	}
	return nil
}
