package models

import (
	"time"
)

// EmployeeStatus is the employment state reported by the HR directory.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// ValidEmployeeStatuses is the set of all valid employee statuses.
var ValidEmployeeStatuses = []EmployeeStatus{
	EmployeeActive,
	EmployeeInactive,
}

// IsValid returns true if the employee status is recognized.
func (s EmployeeStatus) IsValid() bool {
	for _, v := range ValidEmployeeStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AssetCategory separates physical devices from licensed software.
type AssetCategory string

const (
	CategoryHardware AssetCategory = "hardware"
	CategorySoftware AssetCategory = "software"
)

// ValidAssetCategories is the set of all valid asset categories.
var ValidAssetCategories = []AssetCategory{
	CategoryHardware,
	CategorySoftware,
}

// IsValid returns true if the asset category is recognized.
func (c AssetCategory) IsValid() bool {
	for _, v := range ValidAssetCategories {
		if c == v {
			return true
		}
	}
	return false
}

// AssetStatus is the inventory state of a hardware asset.
type AssetStatus string

const (
	AssetAvailable   AssetStatus = "available"
	AssetAssigned    AssetStatus = "assigned"
	AssetMaintenance AssetStatus = "maintenance"
	AssetDisposed    AssetStatus = "disposed"
)

// ValidAssetStatuses is the set of all valid asset statuses.
var ValidAssetStatuses = []AssetStatus{
	AssetAvailable,
	AssetAssigned,
	AssetMaintenance,
	AssetDisposed,
}

// IsValid returns true if the asset status is recognized.
func (s AssetStatus) IsValid() bool {
	for _, v := range ValidAssetStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AssetCondition is the physical condition of a hardware asset.
type AssetCondition string

const (
	ConditionExcellent AssetCondition = "excellent"
	ConditionGood      AssetCondition = "good"
	ConditionFair      AssetCondition = "fair"
	ConditionPoor      AssetCondition = "poor"
	ConditionDamaged   AssetCondition = "damaged"
)

// ValidAssetConditions is the set of all valid asset conditions.
var ValidAssetConditions = []AssetCondition{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionDamaged,
}

// IsValid returns true if the asset condition is recognized.
func (c AssetCondition) IsValid() bool {
	for _, v := range ValidAssetConditions {
		if c == v {
			return true
		}
	}
	return false
}

// Degraded reports whether handing out the asset needs elevated permission.
func (c AssetCondition) Degraded() bool {
	return c == ConditionPoor || c == ConditionDamaged
}

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentActive   AssignmentStatus = "active"
	AssignmentReturned AssignmentStatus = "returned"
	AssignmentOverdue  AssignmentStatus = "overdue"
	AssignmentLost     AssignmentStatus = "lost"
	AssignmentDamaged  AssignmentStatus = "damaged"
)

// ValidAssignmentStatuses is the set of all valid assignment statuses.
var ValidAssignmentStatuses = []AssignmentStatus{
	AssignmentPending,
	AssignmentActive,
	AssignmentReturned,
	AssignmentOverdue,
	AssignmentLost,
	AssignmentDamaged,
}

// IsValid returns true if the assignment status is recognized.
func (s AssignmentStatus) IsValid() bool {
	for _, v := range ValidAssignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Employee is a person who can hold assets. Owned by the HR directory.
type Employee struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Department string         `json:"department" yaml:"department"`
	Role       string         `json:"role,omitempty" yaml:"role,omitempty"`
	Status     EmployeeStatus `json:"status" yaml:"status"`
}

// Asset is a hardware device or a software license pool.
// Hardware uses Status/Condition/LastMaintenance; software uses
// LicenseCapacity/ExpiryDate. Tags and IncompatibleWith drive the
// compatibility check.
type Asset struct {
	ID               string         `json:"id" yaml:"id"`
	Name             string         `json:"name" yaml:"name"`
	Category         AssetCategory  `json:"category" yaml:"category"`
	Manufacturer     string         `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model            string         `json:"model,omitempty" yaml:"model,omitempty"`
	SerialNumber     string         `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	Status           AssetStatus    `json:"status,omitempty" yaml:"status,omitempty"`
	Condition        AssetCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
	LastMaintenance  *time.Time     `json:"last_maintenance,omitempty" yaml:"last_maintenance,omitempty"`
	LicenseCapacity  *int           `json:"license_capacity,omitempty" yaml:"license_capacity,omitempty"`
	ExpiryDate       *time.Time     `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
	Tags             []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	IncompatibleWith []string       `json:"incompatible_with,omitempty" yaml:"incompatible_with,omitempty"`
}

// Assignment links an employee to an asset for a period of time.
type Assignment struct {
	ID                 string           `json:"id" yaml:"id"`
	EmployeeID         string           `json:"employee_id" yaml:"employee_id"`
	AssetID            string           `json:"asset_id" yaml:"asset_id"`
	Category           AssetCategory    `json:"category" yaml:"category"`
	AssignedDate       time.Time        `json:"assigned_date" yaml:"assigned_date"`
	ExpectedReturnDate *time.Time       `json:"expected_return_date,omitempty" yaml:"expected_return_date,omitempty"`
	ReturnDate         *time.Time       `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	Status             AssignmentStatus `json:"status" yaml:"status"`
}

// IsActive reports whether the assignment currently holds its asset.
func (a Assignment) IsActive() bool {
	return a.Status == AssignmentActive
}

// FarFuture stands in for a missing end date so open-ended intervals
// can be compared with the same half-open arithmetic as bounded ones.
var FarFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// End returns the end of the assignment's interval, FarFuture when unknown.
func (a Assignment) End() time.Time {
	if a.ExpectedReturnDate != nil {
		return *a.ExpectedReturnDate
	}
	return FarFuture
}

// CandidateAssignment is a proposed, unpersisted employee/asset pairing.
type CandidateAssignment struct {
	EmployeeID         string        `json:"employee_id" yaml:"employee_id"`
	AssetID            string        `json:"asset_id" yaml:"asset_id"`
	Category           AssetCategory `json:"category" yaml:"category"`
	AssignedDate       time.Time     `json:"assigned_date" yaml:"assigned_date"`
	ExpectedReturnDate *time.Time    `json:"expected_return_date,omitempty" yaml:"expected_return_date,omitempty"`
}

// End returns the end of the candidate's interval, FarFuture when unknown.
func (c CandidateAssignment) End() time.Time {
	if c.ExpectedReturnDate != nil {
		return *c.ExpectedReturnDate
	}
	return FarFuture
}

// Validate checks the candidate's enum values and date ordering.
func (c CandidateAssignment) Validate() error {
	if c.EmployeeID == "" {
		return contractErrorf("candidate employee_id must not be empty")
	}
	if c.AssetID == "" {
		return contractErrorf("candidate asset_id must not be empty")
	}
	if !c.Category.IsValid() {
		return contractErrorf("candidate category %q must be hardware or software", c.Category)
	}
	if c.AssignedDate.IsZero() {
		return contractErrorf("candidate assigned_date must be set")
	}
	if c.ExpectedReturnDate != nil && c.ExpectedReturnDate.Before(c.AssignedDate) {
		return contractErrorf("candidate expected_return_date precedes assigned_date")
	}
	return nil
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// SameDayOrBefore compares a and b at day precision in UTC.
func SameDayOrBefore(a, b time.Time) bool {
	return !truncateDay(a).After(truncateDay(b))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
