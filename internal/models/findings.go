package models

import (
	"time"
)

// Dimension is the independent axis along which a conflict was found.
type Dimension string

const (
	DimensionResource      Dimension = "resource"
	DimensionScheduling    Dimension = "scheduling"
	DimensionPolicy        Dimension = "policy"
	DimensionBusinessRule  Dimension = "business_rule"
	DimensionDataIntegrity Dimension = "data_integrity"
)

// Severity ranks conflicts: critical > high > medium > low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a sortable weight, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Cause is the specific reason behind a conflict. Each cause belongs to
// exactly one dimension; resolution planning is keyed by cause.
type Cause string

const (
	CauseHardwareInUse         Cause = "hardware_in_use"
	CauseLicenseExhausted      Cause = "license_exhausted"
	CauseDuplicateAssignment   Cause = "duplicate_assignment"
	CauseScheduleOverlap       Cause = "schedule_overlap"
	CauseEmployeeUnknown       Cause = "employee_unknown"
	CauseAssignmentCapExceeded Cause = "assignment_cap_exceeded"
	CauseEmployeeInactive      Cause = "employee_inactive"
	CauseAssetMaintenance      Cause = "asset_maintenance"
	CauseAssetDisposed         Cause = "asset_disposed"
	CauseLicenseExpired        Cause = "license_expired"
	CauseEmployeeMissing       Cause = "employee_missing"
	CauseAssetMissing          Cause = "asset_missing"
	CauseFutureDate            Cause = "future_date"
)

var causeDimensions = map[Cause]Dimension{
	CauseHardwareInUse:         DimensionResource,
	CauseLicenseExhausted:      DimensionResource,
	CauseDuplicateAssignment:   DimensionScheduling,
	CauseScheduleOverlap:       DimensionScheduling,
	CauseEmployeeUnknown:       DimensionPolicy,
	CauseAssignmentCapExceeded: DimensionPolicy,
	CauseEmployeeInactive:      DimensionPolicy,
	CauseAssetMaintenance:      DimensionBusinessRule,
	CauseAssetDisposed:         DimensionBusinessRule,
	CauseLicenseExpired:        DimensionBusinessRule,
	CauseEmployeeMissing:       DimensionDataIntegrity,
	CauseAssetMissing:          DimensionDataIntegrity,
	CauseFutureDate:            DimensionDataIntegrity,
}

// Dimension returns the dimension the cause belongs to.
func (c Cause) Dimension() Dimension {
	return causeDimensions[c]
}

// IsValid returns true if the cause is recognized.
func (c Cause) IsValid() bool {
	_, ok := causeDimensions[c]
	return ok
}

// Conflict is a blocking finding about a candidate assignment.
type Conflict struct {
	ID             string    `json:"id"`
	Dimension      Dimension `json:"dimension"`
	Cause          Cause     `json:"cause"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	EmployeeIDs    []string  `json:"employee_ids,omitempty"`
	AssetIDs       []string  `json:"asset_ids,omitempty"`
	AssignmentIDs  []string  `json:"assignment_ids,omitempty"`
	AutoResolvable bool      `json:"auto_resolvable"`
	DetectedAt     time.Time `json:"detected_at"`
}

// WarningCategory groups non-blocking advisories.
type WarningCategory string

const (
	WarningPerformance WarningCategory = "performance"
	WarningCompliance  WarningCategory = "compliance"
)

// Warning is an advisory finding. It never blocks an assignment.
type Warning struct {
	ID             string          `json:"id"`
	Category       WarningCategory `json:"category"`
	Message        string          `json:"message"`
	Actionable     bool            `json:"actionable"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// Strategy is the kind of remediation a proposal suggests.
type Strategy string

const (
	StrategyReschedule       Strategy = "reschedule"
	StrategyReassign         Strategy = "reassign"
	StrategyAlternativeAsset Strategy = "alternative_asset"
	StrategyPolicyOverride   Strategy = "policy_override"
	StrategyManualReview     Strategy = "manual_review"
)

// EstimatedTime buckets how long a resolution is expected to take.
type EstimatedTime string

const (
	EstimateImmediate  EstimatedTime = "immediate"
	EstimateWithinHour EstimatedTime = "within_hour"
	EstimateWithinDay  EstimatedTime = "within_day"
	EstimateMultiDay   EstimatedTime = "multi_day"
)

// ResolutionProposal is a suggested remediation for one conflict.
type ResolutionProposal struct {
	ConflictID    string               `json:"conflict_id"`
	Strategy      Strategy             `json:"strategy"`
	Steps         []string             `json:"steps"`
	Automated     bool                 `json:"automated"`
	Confidence    float64              `json:"confidence"`
	EstimatedTime EstimatedTime        `json:"estimated_time"`
	Alternatives  []ResolutionProposal `json:"alternatives,omitempty"`
}

// RestrictionLevel is how strongly an asset restriction weighs on eligibility.
type RestrictionLevel string

const (
	RestrictionError   RestrictionLevel = "error"
	RestrictionWarning RestrictionLevel = "warning"
	RestrictionInfo    RestrictionLevel = "info"
)

// Restriction is a status-derived limit on handing out an asset.
type Restriction struct {
	Code               string           `json:"code"`
	Level              RestrictionLevel `json:"level"`
	Message            string           `json:"message"`
	Overridable        bool             `json:"overridable"`
	RequiresPermission bool             `json:"requires_permission,omitempty"`
}

// AvailabilityInfo describes whether an asset can accept a new assignment.
type AvailabilityInfo struct {
	AssetID            string        `json:"asset_id"`
	Category           AssetCategory `json:"category"`
	Found              bool          `json:"found"`
	IsAvailable        bool          `json:"is_available"`
	Reason             string        `json:"reason,omitempty"`
	Status             AssetStatus   `json:"status,omitempty"`
	HolderEmployeeID   string        `json:"holder_employee_id,omitempty"`
	HolderAssignmentID string        `json:"holder_assignment_id,omitempty"`
	NextAvailable      *time.Time    `json:"next_available,omitempty"`
	CurrentUsers       int           `json:"current_users,omitempty"`
	Capacity           int           `json:"capacity,omitempty"`
	Utilization        float64       `json:"utilization,omitempty"`
	Restrictions       []Restriction `json:"restrictions,omitempty"`
}

// ValidationIssue blocks an assignment until it is fixed.
type ValidationIssue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// ValidationWarning flags an assignment for attention. Non-overridable
// warnings require approval before commit.
type ValidationWarning struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Overridable bool   `json:"overridable"`
}

// ValidationResult is the eligibility verdict for one employee/asset pair.
type ValidationResult struct {
	Issues           []ValidationIssue   `json:"issues"`
	Warnings         []ValidationWarning `json:"warnings"`
	Recommendations  []string            `json:"recommendations"`
	CanProceed       bool                `json:"can_proceed"`
	RequiresApproval bool                `json:"requires_approval"`
	Availability     AvailabilityInfo    `json:"availability"`
}
