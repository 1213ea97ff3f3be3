package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

const (
	employeesCypher = `MATCH (e:Employee)
RETURN e.id AS id, e.name AS name, e.department AS department, e.role AS role, e.status AS status
ORDER BY id`

	assetsCypher = `MATCH (a:Asset)
RETURN a.id AS id, a.name AS name, a.category AS category, a.manufacturer AS manufacturer,
       a.model AS model, a.serial_number AS serial_number, a.status AS status, a.condition AS condition,
       a.last_maintenance AS last_maintenance, a.license_capacity AS license_capacity,
       a.expiry_date AS expiry_date, a.tags AS tags, a.incompatible_with AS incompatible_with
ORDER BY id`

	assignmentsCypher = `MATCH (e:Employee)-[r:ASSIGNED]->(a:Asset)
RETURN r.id AS id, e.id AS employee_id, a.id AS asset_id, coalesce(r.category, a.category) AS category,
       r.assigned_date AS assigned_date, r.expected_return_date AS expected_return_date,
       r.return_date AS return_date, r.status AS status
ORDER BY assigned_date, id`
)

// Neo4jSource reads snapshots from an asset graph: (:Employee) and (:Asset)
// nodes joined by [:ASSIGNED] relationships that carry assignment fields.
type Neo4jSource struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jSource connects to the graph and verifies connectivity.
func NewNeo4jSource(ctx context.Context, cfg config.Neo4jConfig, logger *slog.Logger) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", cfg.URI, err)
	}
	return &Neo4jSource{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Load queries every employee, asset and assignment.
func (n *Neo4jSource) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot

	rows, err := n.query(ctx, employeesCypher)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("loading employees: %w", err)
	}
	for _, r := range rows {
		snap.Employees = append(snap.Employees, employeeFromRecord(r))
	}

	rows, err = n.query(ctx, assetsCypher)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("loading assets: %w", err)
	}
	for _, r := range rows {
		a, err := assetFromRecord(r)
		if err != nil {
			return models.Snapshot{}, err
		}
		snap.Assets = append(snap.Assets, a)
	}

	rows, err = n.query(ctx, assignmentsCypher)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("loading assignments: %w", err)
	}
	for _, r := range rows {
		a, err := assignmentFromRecord(r)
		if err != nil {
			return models.Snapshot{}, err
		}
		snap.Assignments = append(snap.Assignments, a)
	}

	n.logger.Debug("neo4j snapshot loaded",
		"employees", len(snap.Employees), "assets", len(snap.Assets), "assignments", len(snap.Assignments))
	return snap, nil
}

// Ping verifies the graph is reachable.
func (n *Neo4jSource) Ping(ctx context.Context) error {
	return n.driver.VerifyConnectivity(ctx)
}

// Close closes the driver.
func (n *Neo4jSource) Close() error {
	return n.driver.Close(context.Background())
}

func (n *Neo4jSource) query(ctx context.Context, cypher string) ([]map[string]any, error) {
	res, err := neo4j.ExecuteQuery(ctx, n.driver, cypher, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(n.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, rec.AsMap())
	}
	return out, nil
}

func employeeFromRecord(r map[string]any) models.Employee {
	return models.Employee{
		ID:         str(r["id"]),
		Name:       str(r["name"]),
		Department: str(r["department"]),
		Role:       str(r["role"]),
		Status:     models.EmployeeStatus(str(r["status"])),
	}
}

func assetFromRecord(r map[string]any) (models.Asset, error) {
	a := models.Asset{
		ID:               str(r["id"]),
		Name:             str(r["name"]),
		Category:         models.AssetCategory(str(r["category"])),
		Manufacturer:     str(r["manufacturer"]),
		Model:            str(r["model"]),
		SerialNumber:     str(r["serial_number"]),
		Status:           models.AssetStatus(str(r["status"])),
		Condition:        models.AssetCondition(str(r["condition"])),
		Tags:             strs(r["tags"]),
		IncompatibleWith: strs(r["incompatible_with"]),
	}
	if v, ok := r["license_capacity"].(int64); ok {
		n := int(v)
		a.LicenseCapacity = &n
	}
	var err error
	if a.LastMaintenance, err = optionalTime(r["last_maintenance"]); err != nil {
		return models.Asset{}, fmt.Errorf("asset %s last_maintenance: %w", a.ID, err)
	}
	if a.ExpiryDate, err = optionalTime(r["expiry_date"]); err != nil {
		return models.Asset{}, fmt.Errorf("asset %s expiry_date: %w", a.ID, err)
	}
	return a, nil
}

func assignmentFromRecord(r map[string]any) (models.Assignment, error) {
	a := models.Assignment{
		ID:         str(r["id"]),
		EmployeeID: str(r["employee_id"]),
		AssetID:    str(r["asset_id"]),
		Category:   models.AssetCategory(str(r["category"])),
		Status:     models.AssignmentStatus(str(r["status"])),
	}
	assigned, err := optionalTime(r["assigned_date"])
	if err != nil {
		return models.Assignment{}, fmt.Errorf("assignment %s assigned_date: %w", a.ID, err)
	}
	if assigned == nil {
		return models.Assignment{}, fmt.Errorf("assignment %s has no assigned_date", a.ID)
	}
	a.AssignedDate = *assigned
	if a.ExpectedReturnDate, err = optionalTime(r["expected_return_date"]); err != nil {
		return models.Assignment{}, fmt.Errorf("assignment %s expected_return_date: %w", a.ID, err)
	}
	if a.ReturnDate, err = optionalTime(r["return_date"]); err != nil {
		return models.Assignment{}, fmt.Errorf("assignment %s return_date: %w", a.ID, err)
	}
	return a, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// optionalTime accepts native temporal values (anything with a Time method,
// such as neo4j.Date) as well as RFC 3339 or YYYY-MM-DD strings.
func optionalTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		u := t.UTC()
		return &u, nil
	case interface{ Time() time.Time }:
		u := t.Time().UTC()
		return &u, nil
	case string:
		if t == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed, nil
			}
		}
		return nil, fmt.Errorf("unrecognized time %q", t)
	default:
		return nil, fmt.Errorf("unsupported time value of type %T", v)
	}
}
