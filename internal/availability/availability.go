// Package availability decides whether an asset can take a new assignment,
// independent of who is asking for it.
package availability

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

// Restriction codes reported in AvailabilityInfo.Restrictions.
const (
	RestrictionMaintenance      = "scheduled_maintenance"
	RestrictionDegraded         = "degraded_condition"
	RestrictionDisposed         = "disposed"
	RestrictionLicenseExhausted = "license_exhausted"
	RestrictionLicenseNearFull  = "license_near_capacity"
	RestrictionLicenseBusy      = "license_high_utilization"
	RestrictionCategoryMismatch = "category_mismatch"
)

// Resolver computes AvailabilityInfo from a snapshot.
type Resolver struct {
	policy config.PolicyConfig
	logger *slog.Logger
}

// NewResolver creates a resolver using the given policy thresholds.
func NewResolver(policy config.PolicyConfig, logger *slog.Logger) *Resolver {
	return &Resolver{
		policy: policy,
		logger: logger,
	}
}

// Resolve reports the availability of one asset for the requested category.
func (r *Resolver) Resolve(assetID string, category models.AssetCategory, snap models.Snapshot) models.AvailabilityInfo {
	return r.ResolveIndexed(assetID, category, models.NewIndex(snap))
}

// ResolveIndexed is Resolve over a prebuilt index.
func (r *Resolver) ResolveIndexed(assetID string, category models.AssetCategory, idx *models.Index) models.AvailabilityInfo {
	info := models.AvailabilityInfo{
		AssetID:  assetID,
		Category: category,
	}

	asset, ok := idx.Asset(assetID)
	if !ok {
		info.Reason = fmt.Sprintf("asset %s not found", assetID)
		r.logger.Debug("availability: asset not found", "asset_id", assetID)
		return info
	}
	info.Found = true
	info.Status = asset.Status

	if asset.Category != category {
		info.Reason = fmt.Sprintf("asset %s is %s, not %s", assetID, asset.Category, category)
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:    RestrictionCategoryMismatch,
			Level:   models.RestrictionError,
			Message: info.Reason,
		})
		return info
	}

	switch asset.Category {
	case models.CategoryHardware:
		r.resolveHardware(&info, asset, idx)
	case models.CategorySoftware:
		r.resolveSoftware(&info, asset, idx)
	}

	r.logger.Debug("availability resolved",
		"asset_id", assetID, "available", info.IsAvailable, "restrictions", len(info.Restrictions))
	return info
}

func (r *Resolver) resolveHardware(info *models.AvailabilityInfo, asset models.Asset, idx *models.Index) {
	active := idx.ActiveForAsset(asset.ID)
	if len(active) > 0 {
		holder := active[0]
		info.HolderEmployeeID = holder.EmployeeID
		info.HolderAssignmentID = holder.ID
		info.NextAvailable = copyTime(holder.ExpectedReturnDate)
		info.Reason = fmt.Sprintf("asset %s is held by employee %s", asset.ID, holder.EmployeeID)
	}

	switch asset.Status {
	case models.AssetMaintenance:
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:        RestrictionMaintenance,
			Level:       models.RestrictionWarning,
			Message:     fmt.Sprintf("asset %s is scheduled for maintenance", asset.ID),
			Overridable: true,
		})
	case models.AssetDisposed:
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:    RestrictionDisposed,
			Level:   models.RestrictionError,
			Message: fmt.Sprintf("asset %s has been disposed", asset.ID),
		})
	}

	if asset.Condition.Degraded() {
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:               RestrictionDegraded,
			Level:              models.RestrictionWarning,
			Message:            fmt.Sprintf("asset %s is in %s condition", asset.ID, asset.Condition),
			Overridable:        true,
			RequiresPermission: true,
		})
	}

	info.IsAvailable = len(active) == 0 && asset.Status == models.AssetAvailable
	if !info.IsAvailable && info.Reason == "" {
		info.Reason = fmt.Sprintf("asset %s has status %s", asset.ID, asset.Status)
	}
}

func (r *Resolver) resolveSoftware(info *models.AvailabilityInfo, asset models.Asset, idx *models.Index) {
	active := idx.ActiveForAsset(asset.ID)
	capacity := r.Capacity(asset)

	info.CurrentUsers = len(active)
	info.Capacity = capacity
	info.Utilization = utilization(len(active), capacity)
	info.IsAvailable = len(active) < capacity

	switch {
	case info.Utilization >= r.policy.UtilizationLimit:
		info.Reason = fmt.Sprintf("all %d licenses of %s are in use", capacity, asset.ID)
		info.NextAvailable = earliestReturn(active)
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:    RestrictionLicenseExhausted,
			Level:   models.RestrictionError,
			Message: info.Reason,
		})
	case info.Utilization >= r.policy.UtilizationWarning:
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:        RestrictionLicenseNearFull,
			Level:       models.RestrictionWarning,
			Message:     fmt.Sprintf("license utilization of %s is %.0f%%", asset.ID, info.Utilization),
			Overridable: true,
		})
	case info.Utilization >= r.policy.UtilizationNotice:
		info.Restrictions = append(info.Restrictions, models.Restriction{
			Code:        RestrictionLicenseBusy,
			Level:       models.RestrictionInfo,
			Message:     fmt.Sprintf("license utilization of %s is %.0f%%; consider purchasing more seats", asset.ID, info.Utilization),
			Overridable: true,
		})
	}
}

// Capacity returns the license capacity of a software asset, falling back
// to the configured default when the record has none.
func (r *Resolver) Capacity(asset models.Asset) int {
	if asset.LicenseCapacity != nil {
		return *asset.LicenseCapacity
	}
	return r.policy.FallbackLicenseCapacity
}

func utilization(users, capacity int) float64 {
	if capacity <= 0 {
		return 100
	}
	return float64(users) / float64(capacity) * 100
}

func earliestReturn(active []models.Assignment) *time.Time {
	var earliest *time.Time
	for i := range active {
		d := active[i].ExpectedReturnDate
		if d == nil {
			continue
		}
		if earliest == nil || d.Before(*earliest) {
			earliest = d
		}
	}
	return copyTime(earliest)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// FindOverlappingAssignments returns the active or pending assignments of
// assetID whose interval intersects [proposed, expectedReturn). A nil
// expectedReturn, like a missing return date on an existing assignment, is
// open-ended. Results are ordered by assigned date, then ID.
func FindOverlappingAssignments(assetID string, proposed time.Time, expectedReturn *time.Time, assignments []models.Assignment) []models.Assignment {
	end := models.FarFuture
	if expectedReturn != nil {
		end = *expectedReturn
	}

	var out []models.Assignment
	for _, a := range assignments {
		if a.AssetID != assetID {
			continue
		}
		if a.Status != models.AssignmentActive && a.Status != models.AssignmentPending {
			continue
		}
		if models.Overlaps(proposed, end, a.AssignedDate, a.End()) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AssignedDate.Equal(out[j].AssignedDate) {
			return out[i].AssignedDate.Before(out[j].AssignedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
