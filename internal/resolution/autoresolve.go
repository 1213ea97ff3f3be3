package resolution

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/eligibility"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// MsgManualReview is returned when a proposal does not pass the automation gate.
const MsgManualReview = "manual review required"

// ResolutionContext is what an automated attempt works against.
type ResolutionContext struct {
	Candidate models.CandidateAssignment `json:"candidate"`
	Snapshot  models.Snapshot            `json:"snapshot"`
}

// AttemptResult is the outcome of an automated resolution attempt. A
// revised candidate must be re-checked by the caller before commit.
type AttemptResult struct {
	Success          bool                        `json:"success"`
	Message          string                      `json:"message"`
	RevisedCandidate *models.CandidateAssignment `json:"revised_candidate,omitempty"`
	FallbackOptions  []models.ResolutionProposal `json:"fallback_options,omitempty"`
}

// AutoResolver performs alternative_asset and reschedule remediations.
type AutoResolver struct {
	policy   config.PolicyConfig
	resolver *availability.Resolver
	logger   *slog.Logger
}

// NewAutoResolver creates an automated resolver.
func NewAutoResolver(policy config.PolicyConfig, resolver *availability.Resolver, logger *slog.Logger) *AutoResolver {
	return &AutoResolver{policy: policy, resolver: resolver, logger: logger}
}

// Attempt tries to apply proposal to conflict. It never persists anything.
func (r *AutoResolver) Attempt(conflict models.Conflict, proposal models.ResolutionProposal, rctx ResolutionContext) AttemptResult {
	metrics.Inc(metrics.AutoResolveTotal)

	if !proposal.Automated || proposal.Confidence < r.policy.AutoResolveMinConfidence {
		return AttemptResult{Message: MsgManualReview, FallbackOptions: proposal.Alternatives}
	}
	if proposal.ConflictID != "" && proposal.ConflictID != conflict.ID {
		return r.fail(proposal, fmt.Sprintf("proposal targets conflict %s, not %s", proposal.ConflictID, conflict.ID))
	}

	var (
		revised models.CandidateAssignment
		msg     string
		err     error
	)
	switch proposal.Strategy {
	case models.StrategyAlternativeAsset:
		revised, msg, err = r.alternativeAsset(rctx)
	case models.StrategyReschedule:
		revised, msg, err = r.reschedule(conflict, rctx)
	default:
		return r.fail(proposal, fmt.Sprintf("strategy %s cannot be automated", proposal.Strategy))
	}
	if err != nil {
		r.logger.Info("automated resolution declined",
			"conflict_id", conflict.ID, "strategy", proposal.Strategy, "error", err)
		return r.fail(proposal, err.Error())
	}

	metrics.Inc(metrics.AutoResolveOK)
	r.logger.Info("automated resolution proposed revision",
		"conflict_id", conflict.ID, "strategy", proposal.Strategy,
		"asset_id", revised.AssetID, "assigned_date", revised.AssignedDate)
	return AttemptResult{Success: true, Message: msg, RevisedCandidate: &revised}
}

func (r *AutoResolver) fail(proposal models.ResolutionProposal, msg string) AttemptResult {
	return AttemptResult{Message: msg, FallbackOptions: proposal.Alternatives}
}

// alternativeAsset substitutes the first free asset of the same category,
// ordered by ID, preferring one with the same manufacturer and model. A
// substitute must share a tag with the original when the original is
// tagged, must not clash with what the employee holds, and hardware must
// have no reservation inside the requested window.
func (r *AutoResolver) alternativeAsset(rctx ResolutionContext) (models.CandidateAssignment, string, error) {
	c := rctx.Candidate
	idx := models.NewIndex(rctx.Snapshot)
	original, _ := idx.Asset(c.AssetID)

	assets := append([]models.Asset(nil), idx.Assets()...)
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })

	var first, sameModel *models.Asset
	for i := range assets {
		a := &assets[i]
		if a.ID == c.AssetID || a.Category != c.Category {
			continue
		}
		if len(original.Tags) > 0 && !eligibility.SharesTag(original, *a) {
			continue
		}
		info := r.resolver.ResolveIndexed(a.ID, a.Category, idx)
		if !info.IsAvailable || hasError(info.Restrictions) {
			continue
		}
		if a.Category == models.CategoryHardware &&
			len(availability.FindOverlappingAssignments(a.ID, c.AssignedDate, c.ExpectedReturnDate, idx.ForAsset(a.ID))) > 0 {
			continue
		}
		if eligibility.Incompatible(*a, c.EmployeeID, idx) {
			continue
		}
		if first == nil {
			first = a
		}
		if original.Model != "" && a.Manufacturer == original.Manufacturer && a.Model == original.Model {
			sameModel = a
			break
		}
	}

	pick := sameModel
	if pick == nil {
		pick = first
	}
	if pick == nil {
		return c, "", fmt.Errorf("no available %s asset can replace %s", c.Category, c.AssetID)
	}

	c.AssetID = pick.ID
	return c, fmt.Sprintf("substituted %s for %s", pick.ID, rctx.Candidate.AssetID), nil
}

// reschedule moves the candidate past the assignments blocking it while
// keeping its duration. A license waits for the first seat to free up;
// everything else waits for the last blocker to end.
func (r *AutoResolver) reschedule(conflict models.Conflict, rctx ResolutionContext) (models.CandidateAssignment, string, error) {
	c := rctx.Candidate
	blocking := blockingAssignments(conflict, rctx.Snapshot)
	if len(blocking) == 0 {
		return c, "", fmt.Errorf("conflict %s names no blocking assignment to schedule around", conflict.ID)
	}

	var start *time.Time
	if conflict.Cause == models.CauseLicenseExhausted {
		for _, a := range blocking {
			if a.ExpectedReturnDate != nil && (start == nil || a.ExpectedReturnDate.Before(*start)) {
				start = a.ExpectedReturnDate
			}
		}
	} else {
		for _, a := range blocking {
			if a.ExpectedReturnDate == nil {
				return c, "", fmt.Errorf("assignment %s has no expected return date", a.ID)
			}
			if start == nil || a.ExpectedReturnDate.After(*start) {
				start = a.ExpectedReturnDate
			}
		}
	}
	if start == nil {
		return c, "", errors.New("no blocking assignment has a known return date")
	}

	newStart := *start
	if newStart.Before(c.AssignedDate) {
		newStart = c.AssignedDate
	}
	if c.ExpectedReturnDate != nil {
		end := newStart.Add(c.ExpectedReturnDate.Sub(c.AssignedDate))
		c.ExpectedReturnDate = &end
	}
	c.AssignedDate = newStart
	return c, fmt.Sprintf("rescheduled to start %s", newStart.UTC().Format("2006-01-02")), nil
}

func blockingAssignments(conflict models.Conflict, snap models.Snapshot) []models.Assignment {
	want := make(map[string]bool, len(conflict.AssignmentIDs))
	for _, id := range conflict.AssignmentIDs {
		want[id] = true
	}
	var out []models.Assignment
	for _, a := range snap.Assignments {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func hasError(rs []models.Restriction) bool {
	for _, r := range rs {
		if r.Level == models.RestrictionError {
			return true
		}
	}
	return false
}
