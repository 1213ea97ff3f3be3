package models

import (
	"errors"
	"fmt"
)

// ContractError reports malformed input detected at the engine boundary,
// such as an unknown enum value. Business findings are never errors.
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string { return e.Message }

func contractErrorf(format string, args ...any) *ContractError {
	return &ContractError{Message: fmt.Sprintf(format, args...)}
}

// IsContractError reports whether err wraps a *ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// Snapshot is a consistent, read-only view of the inventory that every
// engine operation receives explicitly.
type Snapshot struct {
	Employees   []Employee   `json:"employees" yaml:"employees"`
	Assets      []Asset      `json:"assets" yaml:"assets"`
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
}

// Validate checks IDs, enum values and date ordering across the snapshot.
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Employees))
	for i := range s.Employees {
		e := &s.Employees[i]
		if e.ID == "" {
			return contractErrorf("employee at index %d has empty id", i)
		}
		if seen[e.ID] {
			return contractErrorf("duplicate employee id %s", e.ID)
		}
		seen[e.ID] = true
		if !e.Status.IsValid() {
			return contractErrorf("employee %s has invalid status %q", e.ID, e.Status)
		}
	}
	seen = make(map[string]bool, len(s.Assets))
	for i := range s.Assets {
		a := &s.Assets[i]
		if a.ID == "" {
			return contractErrorf("asset at index %d has empty id", i)
		}
		if seen[a.ID] {
			return contractErrorf("duplicate asset id %s", a.ID)
		}
		seen[a.ID] = true
		if !a.Category.IsValid() {
			return contractErrorf("asset %s has invalid category %q", a.ID, a.Category)
		}
		if a.Status != "" && !a.Status.IsValid() {
			return contractErrorf("asset %s has invalid status %q", a.ID, a.Status)
		}
		if a.Category == CategoryHardware && a.Status == "" {
			return contractErrorf("hardware asset %s has no status", a.ID)
		}
		if a.Condition != "" && !a.Condition.IsValid() {
			return contractErrorf("asset %s has invalid condition %q", a.ID, a.Condition)
		}
		if a.LicenseCapacity != nil && *a.LicenseCapacity < 0 {
			return contractErrorf("asset %s has negative license capacity", a.ID)
		}
	}
	seen = make(map[string]bool, len(s.Assignments))
	for i := range s.Assignments {
		as := &s.Assignments[i]
		if as.ID == "" {
			return contractErrorf("assignment at index %d has empty id", i)
		}
		if seen[as.ID] {
			return contractErrorf("duplicate assignment id %s", as.ID)
		}
		seen[as.ID] = true
		if !as.Status.IsValid() {
			return contractErrorf("assignment %s has invalid status %q", as.ID, as.Status)
		}
		if !as.Category.IsValid() {
			return contractErrorf("assignment %s has invalid category %q", as.ID, as.Category)
		}
		if as.ExpectedReturnDate != nil && as.ExpectedReturnDate.Before(as.AssignedDate) {
			return contractErrorf("assignment %s is expected back before it was assigned", as.ID)
		}
		if as.ReturnDate != nil && as.ReturnDate.Before(as.AssignedDate) {
			return contractErrorf("assignment %s returned before it was assigned", as.ID)
		}
	}
	return nil
}

// Index is a per-call lookup view over a snapshot. It is cheap to build
// and never cached, so the snapshot stays the single source of truth.
type Index struct {
	employees   map[string]*Employee
	assets      map[string]*Asset
	byAsset     map[string][]Assignment
	byEmployee  map[string][]Assignment
	assignments []Assignment
	assetList   []Asset
}

// NewIndex builds lookup maps over the snapshot. Slices keep snapshot order.
func NewIndex(s Snapshot) *Index {
	idx := &Index{
		employees:   make(map[string]*Employee, len(s.Employees)),
		assets:      make(map[string]*Asset, len(s.Assets)),
		byAsset:     make(map[string][]Assignment),
		byEmployee:  make(map[string][]Assignment),
		assignments: s.Assignments,
		assetList:   s.Assets,
	}
	for i := range s.Employees {
		idx.employees[s.Employees[i].ID] = &s.Employees[i]
	}
	for i := range s.Assets {
		idx.assets[s.Assets[i].ID] = &s.Assets[i]
	}
	for _, a := range s.Assignments {
		idx.byAsset[a.AssetID] = append(idx.byAsset[a.AssetID], a)
		idx.byEmployee[a.EmployeeID] = append(idx.byEmployee[a.EmployeeID], a)
	}
	return idx
}

// Employee returns the employee with the given ID.
func (x *Index) Employee(id string) (Employee, bool) {
	e, ok := x.employees[id]
	if !ok {
		return Employee{}, false
	}
	return *e, true
}

// Asset returns the asset with the given ID.
func (x *Index) Asset(id string) (Asset, bool) {
	a, ok := x.assets[id]
	if !ok {
		return Asset{}, false
	}
	return *a, true
}

// Assets returns every asset in snapshot order.
func (x *Index) Assets() []Asset {
	return x.assetList
}

// Assignments returns every assignment in snapshot order.
func (x *Index) Assignments() []Assignment {
	return x.assignments
}

// ForAsset returns the assignments referencing the asset.
func (x *Index) ForAsset(assetID string) []Assignment {
	return x.byAsset[assetID]
}

// ForEmployee returns the assignments referencing the employee.
func (x *Index) ForEmployee(employeeID string) []Assignment {
	return x.byEmployee[employeeID]
}

// ActiveForAsset returns the active assignments of the asset.
func (x *Index) ActiveForAsset(assetID string) []Assignment {
	return filterActive(x.byAsset[assetID])
}

// ActiveForEmployee returns the active assignments of the employee.
func (x *Index) ActiveForEmployee(employeeID string) []Assignment {
	return filterActive(x.byEmployee[employeeID])
}

func filterActive(in []Assignment) []Assignment {
	var out []Assignment
	for _, a := range in {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}
