// Package eligibility decides whether a specific employee may receive a
// specific asset, combining availability with per-employee policy and the
// compatibility tag model.
package eligibility

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/availability"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/metrics"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// Issue and warning codes.
const (
	CodeUnavailable          = "asset_unavailable"
	CodeEmployeeInactive     = "employee_inactive"
	CodeAssignmentCap        = "assignment_cap_exceeded"
	CodeCategoryCap          = "category_cap_exceeded"
	CodeDepartmentCategory   = "department_category_restricted"
	CodeDepartmentTag        = "department_tag_restricted"
	CodeRoleCategory         = "role_category_restricted"
	CodeRoleTag              = "role_tag_restricted"
	CodeIncompatiblePlatform = "incompatible_with_held_asset"
)

// Validator produces a ValidationResult for one candidate assignment.
type Validator struct {
	policy   config.PolicyConfig
	resolver *availability.Resolver
	logger   *slog.Logger
}

// NewValidator creates a validator sharing the given availability resolver.
func NewValidator(policy config.PolicyConfig, resolver *availability.Resolver, logger *slog.Logger) *Validator {
	return &Validator{
		policy:   policy,
		resolver: resolver,
		logger:   logger,
	}
}

// Validate checks whether employee may receive assetID. It is a pure
// function of its inputs.
func (v *Validator) Validate(employee models.Employee, assetID string, category models.AssetCategory, snap models.Snapshot) models.ValidationResult {
	metrics.Inc(metrics.EligibilityTotal)
	idx := models.NewIndex(snap)

	info := v.resolver.ResolveIndexed(assetID, category, idx)
	res := models.ValidationResult{
		Issues:          []models.ValidationIssue{},
		Warnings:        []models.ValidationWarning{},
		Recommendations: []string{},
		Availability:    info,
	}

	if !info.IsAvailable {
		issue := models.ValidationIssue{
			Code:    CodeUnavailable,
			Message: unavailableMessage(info),
		}
		if info.NextAvailable != nil {
			issue.Remediation = fmt.Sprintf("asset expected to be available from %s", info.NextAvailable.Format("2006-01-02"))
		} else if info.Found {
			issue.Remediation = "choose an alternative asset or wait for the current holder to return it"
		}
		res.Issues = append(res.Issues, issue)
	}

	if employee.Status == models.EmployeeInactive {
		res.Issues = append(res.Issues, models.ValidationIssue{
			Code:        CodeEmployeeInactive,
			Message:     fmt.Sprintf("employee %s is inactive", employee.ID),
			Remediation: "reactivate the employee in the directory before assigning assets",
		})
	}

	held := idx.ActiveForEmployee(employee.ID)
	if len(held) >= v.policy.MaxAssignmentsPerEmployee {
		res.Issues = append(res.Issues, models.ValidationIssue{
			Code: CodeAssignmentCap,
			Message: fmt.Sprintf("employee %s already holds %d assets (limit %d)",
				employee.ID, len(held), v.policy.MaxAssignmentsPerEmployee),
			Remediation: "return an asset before requesting another",
		})
	}

	sameCategory := 0
	for _, a := range held {
		if a.Category == category {
			sameCategory++
		}
	}
	if limit := v.policy.CategoryCap(string(category)); sameCategory >= limit {
		res.Warnings = append(res.Warnings, models.ValidationWarning{
			Code:        CodeCategoryCap,
			Message:     fmt.Sprintf("employee %s already holds %d %s assets (limit %d)", employee.ID, sameCategory, category, limit),
			Overridable: true,
		})
	}

	asset, found := idx.Asset(assetID)
	if found {
		res.Warnings = append(res.Warnings, v.restrictionWarnings(employee, asset)...)
		res.Warnings = append(res.Warnings, compatibilityWarnings(asset, held, idx)...)
	}

	for _, r := range info.Restrictions {
		switch r.Level {
		case models.RestrictionError:
			// The unavailable issue already carries this reason.
			if info.IsAvailable {
				res.Issues = append(res.Issues, models.ValidationIssue{Code: r.Code, Message: r.Message})
			}
		case models.RestrictionWarning:
			res.Warnings = append(res.Warnings, models.ValidationWarning{Code: r.Code, Message: r.Message, Overridable: r.Overridable})
			if r.RequiresPermission {
				res.Recommendations = append(res.Recommendations, "assignment requires elevated permission: "+r.Message)
			}
		case models.RestrictionInfo:
			res.Recommendations = append(res.Recommendations, r.Message)
		}
	}

	res.CanProceed = len(res.Issues) == 0
	for _, w := range res.Warnings {
		if !w.Overridable {
			res.RequiresApproval = true
			break
		}
	}

	v.logger.Debug("eligibility validated",
		"employee_id", employee.ID, "asset_id", assetID,
		"issues", len(res.Issues), "warnings", len(res.Warnings), "can_proceed", res.CanProceed)
	return res
}

func unavailableMessage(info models.AvailabilityInfo) string {
	if info.Reason != "" {
		return info.Reason
	}
	return fmt.Sprintf("asset %s is not available", info.AssetID)
}

// restrictionWarnings applies the configured department and role
// restriction lists. Violations need approval and cannot be overridden by
// the requester.
func (v *Validator) restrictionWarnings(employee models.Employee, asset models.Asset) []models.ValidationWarning {
	var out []models.ValidationWarning
	if r, ok := lookup(v.policy.DepartmentRestrictions, employee.Department); ok {
		out = append(out, restricted(r, asset, "department "+employee.Department, CodeDepartmentCategory, CodeDepartmentTag)...)
	}
	if r, ok := lookup(v.policy.RoleRestrictions, employee.Role); ok {
		out = append(out, restricted(r, asset, "role "+employee.Role, CodeRoleCategory, CodeRoleTag)...)
	}
	return out
}

func lookup(m map[string]config.Restriction, key string) (config.Restriction, bool) {
	if key == "" {
		return config.Restriction{}, false
	}
	r, ok := m[strings.ToLower(key)]
	return r, ok
}

func restricted(r config.Restriction, asset models.Asset, who, categoryCode, tagCode string) []models.ValidationWarning {
	var out []models.ValidationWarning
	for _, c := range r.Categories {
		if strings.EqualFold(c, string(asset.Category)) {
			out = append(out, models.ValidationWarning{
				Code:    categoryCode,
				Message: fmt.Sprintf("%s is restricted from %s assets", who, asset.Category),
			})
		}
	}
	if hits := intersect(r.Tags, asset.Tags); len(hits) > 0 {
		out = append(out, models.ValidationWarning{
			Code:    tagCode,
			Message: fmt.Sprintf("%s is restricted from assets tagged %s", who, strings.Join(hits, ", ")),
		})
	}
	return out
}

// compatibilityWarnings flags the candidate asset when its tags clash with
// assets the employee already holds, in either direction.
func compatibilityWarnings(candidate models.Asset, held []models.Assignment, idx *models.Index) []models.ValidationWarning {
	var out []models.ValidationWarning
	for _, a := range held {
		if a.AssetID == candidate.ID {
			continue
		}
		other, ok := idx.Asset(a.AssetID)
		if !ok {
			continue
		}
		hits := clashes(candidate, other)
		if len(hits) == 0 {
			continue
		}
		out = append(out, models.ValidationWarning{
			Code: CodeIncompatiblePlatform,
			Message: fmt.Sprintf("asset %s is incompatible with held asset %s (%s)",
				candidate.ID, other.ID, strings.Join(dedupe(hits), ", ")),
			Overridable: true,
		})
	}
	return out
}

// Incompatible reports whether asset clashes with anything employeeID
// actively holds.
func Incompatible(asset models.Asset, employeeID string, idx *models.Index) bool {
	for _, a := range idx.ActiveForEmployee(employeeID) {
		if a.AssetID == asset.ID {
			continue
		}
		if other, ok := idx.Asset(a.AssetID); ok && len(clashes(asset, other)) > 0 {
			return true
		}
	}
	return false
}

// SharesTag reports whether a and b have a tag in common.
func SharesTag(a, b models.Asset) bool {
	return len(intersect(a.Tags, b.Tags)) > 0
}

func clashes(a, b models.Asset) []string {
	hits := intersect(a.IncompatibleWith, b.Tags)
	return append(hits, intersect(b.IncompatibleWith, a.Tags)...)
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[strings.ToLower(s)] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[strings.ToLower(s)]; ok {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
