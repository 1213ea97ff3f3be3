package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pressly/goose/v3"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const timeLayout = time.RFC3339Nano

// SQLiteStore keeps the inventory in a SQLite file. It holds a single
// write connection with immediate transactions, so Commit serializes
// check-and-insert against other writers.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens the database at path with WAL journaling, a busy
// timeout and immediate transaction locking.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the full inventory.
func (s *SQLiteStore) Load(ctx context.Context) (models.Snapshot, error) {
	return loadSnapshot(ctx, s.db)
}

// Import upserts every record of snap in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, snap models.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range snap.Employees {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO employees (id, name, department, role, status) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Department, e.Role, string(e.Status)); err != nil {
			return fmt.Errorf("importing employee %s: %w", e.ID, err)
		}
	}
	for _, a := range snap.Assets {
		tags, err := json.Marshal(nonNil(a.Tags))
		if err != nil {
			return fmt.Errorf("encoding tags of %s: %w", a.ID, err)
		}
		incompatible, err := json.Marshal(nonNil(a.IncompatibleWith))
		if err != nil {
			return fmt.Errorf("encoding incompatible_with of %s: %w", a.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO assets (id, name, category, manufacturer, model, serial_number, status, condition,
				last_maintenance, license_capacity, expiry_date, tags, incompatible_with)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, string(a.Category), a.Manufacturer, a.Model, a.SerialNumber, string(a.Status), string(a.Condition),
			timeArg(a.LastMaintenance), intArg(a.LicenseCapacity), timeArg(a.ExpiryDate), string(tags), string(incompatible)); err != nil {
			return fmt.Errorf("importing asset %s: %w", a.ID, err)
		}
	}
	for _, a := range snap.Assignments {
		if err := insertAssignment(ctx, tx, a, true); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.logger.Info("snapshot imported",
		"employees", len(snap.Employees), "assets", len(snap.Assets), "assignments", len(snap.Assignments))
	return nil
}

// Commit re-reads the inventory inside an immediate transaction, runs gate
// on it and inserts the assignment only if gate passes.
func (s *SQLiteStore) Commit(ctx context.Context, c models.CandidateAssignment, status models.AssignmentStatus, gate Gate) (models.Assignment, error) {
	if err := checkCommitStatus(status); err != nil {
		return models.Assignment{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if gate != nil {
		snap, err := loadSnapshot(ctx, tx)
		if err != nil {
			return models.Assignment{}, err
		}
		if err := gate(c, snap); err != nil {
			return models.Assignment{}, fmt.Errorf("committing %s to %s: %w", c.AssetID, c.EmployeeID, err)
		}
	}

	a := newAssignment(uuid.New().String(), c, status)
	if err := insertAssignment(ctx, tx, a, false); err != nil {
		return models.Assignment{}, err
	}
	if status == models.AssignmentActive && c.Category == models.CategoryHardware {
		if _, err := tx.ExecContext(ctx, `UPDATE assets SET status = ? WHERE id = ?`, string(models.AssetAssigned), c.AssetID); err != nil {
			return models.Assignment{}, fmt.Errorf("marking %s assigned: %w", c.AssetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Assignment{}, fmt.Errorf("commit assignment: %w", err)
	}
	s.logger.Info("assignment committed", "assignment_id", a.ID, "employee_id", a.EmployeeID, "asset_id", a.AssetID, "status", a.Status)
	return a, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAssignment(ctx context.Context, tx execer, a models.Assignment, replace bool) error {
	verb := "INSERT"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	_, err := tx.ExecContext(ctx,
		verb+` INTO assignments (id, employee_id, asset_id, category, assigned_date, expected_return_date, return_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, a.AssetID, string(a.Category), a.AssignedDate.UTC().Format(timeLayout),
		timeArg(a.ExpectedReturnDate), timeArg(a.ReturnDate), string(a.Status))
	if err != nil {
		return fmt.Errorf("inserting assignment %s: %w", a.ID, err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, q queryer) (models.Snapshot, error) {
	var snap models.Snapshot
	var err error
	if snap.Employees, err = loadEmployees(ctx, q); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Assets, err = loadAssets(ctx, q); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Assignments, err = loadAssignments(ctx, q); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

func loadEmployees(ctx context.Context, q queryer) ([]models.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, department, role, status FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		var status string
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.Role, &status); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		e.Status = models.EmployeeStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadAssets(ctx context.Context, q queryer) ([]models.Asset, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, category, manufacturer, model, serial_number, status, condition,
			last_maintenance, license_capacity, expiry_date, tags, incompatible_with
		 FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var (
			a                      models.Asset
			category, status, cond string
			lastMaint, expiry      sql.NullString
			capacity               sql.NullInt64
			tags, incompatible     string
		)
		if err := rows.Scan(&a.ID, &a.Name, &category, &a.Manufacturer, &a.Model, &a.SerialNumber, &status, &cond,
			&lastMaint, &capacity, &expiry, &tags, &incompatible); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		a.Category = models.AssetCategory(category)
		a.Status = models.AssetStatus(status)
		a.Condition = models.AssetCondition(cond)
		if a.LastMaintenance, err = parseNullTime(lastMaint); err != nil {
			return nil, fmt.Errorf("asset %s last_maintenance: %w", a.ID, err)
		}
		if a.ExpiryDate, err = parseNullTime(expiry); err != nil {
			return nil, fmt.Errorf("asset %s expiry_date: %w", a.ID, err)
		}
		if capacity.Valid {
			n := int(capacity.Int64)
			a.LicenseCapacity = &n
		}
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return nil, fmt.Errorf("asset %s tags: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(incompatible), &a.IncompatibleWith); err != nil {
			return nil, fmt.Errorf("asset %s incompatible_with: %w", a.ID, err)
		}
		if len(a.Tags) == 0 {
			a.Tags = nil
		}
		if len(a.IncompatibleWith) == 0 {
			a.IncompatibleWith = nil
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func loadAssignments(ctx context.Context, q queryer) ([]models.Assignment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, employee_id, asset_id, category, assigned_date, expected_return_date, return_date, status
		 FROM assignments ORDER BY assigned_date, id`)
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		var (
			a                  models.Assignment
			category, status   string
			assigned           string
			expected, returned sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.AssetID, &category, &assigned, &expected, &returned, &status); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		a.Category = models.AssetCategory(category)
		a.Status = models.AssignmentStatus(status)
		if a.AssignedDate, err = time.Parse(timeLayout, assigned); err != nil {
			return nil, fmt.Errorf("assignment %s assigned_date: %w", a.ID, err)
		}
		if a.ExpectedReturnDate, err = parseNullTime(expected); err != nil {
			return nil, fmt.Errorf("assignment %s expected_return_date: %w", a.ID, err)
		}
		if a.ReturnDate, err = parseNullTime(returned); err != nil {
			return nil, fmt.Errorf("assignment %s return_date: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func intArg(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
