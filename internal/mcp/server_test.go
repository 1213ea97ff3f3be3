package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/config"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	guardmcp "github.com/nicolaschoi7042/itNswinventory-sub001/internal/mcp"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/resolution"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/clock"
)

var day0 = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func fixture() models.Snapshot {
	ret := day0.AddDate(0, 0, 10)
	return models.Snapshot{
		Employees: []models.Employee{
			{ID: "E1", Status: models.EmployeeActive},
			{ID: "E2", Status: models.EmployeeActive},
		},
		Assets: []models.Asset{
			{ID: "HW001", Category: models.CategoryHardware, Status: models.AssetAssigned, Condition: models.ConditionGood, Manufacturer: "Acme", Model: "X1"},
			{ID: "HW002", Category: models.CategoryHardware, Status: models.AssetAvailable, Condition: models.ConditionGood, Manufacturer: "Acme", Model: "X1"},
		},
		Assignments: []models.Assignment{{
			ID: "AS1", EmployeeID: "E1", AssetID: "HW001", Category: models.CategoryHardware,
			AssignedDate: day0.AddDate(0, 0, -20), ExpectedReturnDate: &ret, Status: models.AssignmentActive,
		}},
	}
}

func newMCPServer(t *testing.T, src store.Source) *guardmcp.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	eng := engine.New(config.DefaultPolicy(), clock.Fixed(day0), nil, logger)
	return guardmcp.NewServer(src, eng, logger)
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func candidateArgs(employee, asset string) map[string]any {
	return map[string]any{
		"employee_id":   employee,
		"asset_id":      asset,
		"category":      "hardware",
		"assigned_date": "2026-03-02",
	}
}

func TestCheckAssignment_ReportsConflict(t *testing.T) {
	srv := newMCPServer(t, store.NewMemorySource(fixture()))

	result, err := srv.HandleCheck(context.Background(), makeReq("check_assignment", candidateArgs("E2", "HW001")))
	require.NoError(t, err)
	require.False(t, result.IsError, textContent(t, result))

	var report engine.Report
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.CauseHardwareInUse, report.Conflicts[0].Cause)
}

func TestCheckAssignment_BadInput(t *testing.T) {
	srv := newMCPServer(t, store.NewMemorySource(fixture()))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"bad date", map[string]any{"employee_id": "E2", "asset_id": "HW001", "category": "hardware", "assigned_date": "March 2nd"}},
		{"missing date", map[string]any{"employee_id": "E2", "asset_id": "HW001", "category": "hardware"}},
		{"bad category", map[string]any{"employee_id": "E2", "asset_id": "HW001", "category": "desk", "assigned_date": "2026-03-02"}},
		{"return before start", map[string]any{"employee_id": "E2", "asset_id": "HW001", "category": "hardware",
			"assigned_date": "2026-03-02", "expected_return_date": "2026-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.HandleCheck(context.Background(), makeReq("check_assignment", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestCheckAssignment_SourceUnavailable(t *testing.T) {
	src := store.NewMemorySource(fixture())
	src.FailLoads(errors.New("neo4j down"))
	srv := newMCPServer(t, src)

	result, err := srv.HandleCheck(context.Background(), makeReq("check_assignment", candidateArgs("E2", "HW002")))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "neo4j down")

	result, err = newMCPServer(t, nil).HandleCheck(context.Background(), makeReq("check_assignment", candidateArgs("E2", "HW002")))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestAvailability(t *testing.T) {
	srv := newMCPServer(t, store.NewMemorySource(fixture()))

	result, err := srv.HandleAvailability(context.Background(), makeReq("availability", map[string]any{"asset_id": "HW002", "category": "hardware"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var info models.AvailabilityInfo
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &info))
	assert.True(t, info.IsAvailable)

	result, err = srv.HandleAvailability(context.Background(), makeReq("availability", map[string]any{"category": "hardware"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEligibility(t *testing.T) {
	srv := newMCPServer(t, store.NewMemorySource(fixture()))

	result, err := srv.HandleEligibility(context.Background(), makeReq("eligibility", map[string]any{"employee_id": "E2", "asset_id": "HW002", "category": "hardware"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var res models.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	assert.True(t, res.CanProceed)

	result, err = srv.HandleEligibility(context.Background(), makeReq("eligibility", map[string]any{"employee_id": "E9", "asset_id": "HW002", "category": "hardware"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestAutoResolve(t *testing.T) {
	srv := newMCPServer(t, store.NewMemorySource(fixture()))

	checked, err := srv.HandleCheck(context.Background(), makeReq("check_assignment", candidateArgs("E2", "HW001")))
	require.NoError(t, err)
	var report engine.Report
	require.NoError(t, json.Unmarshal([]byte(textContent(t, checked)), &report))
	require.Len(t, report.Conflicts, 1)

	args := candidateArgs("E2", "HW001")
	args["conflict_id"] = report.Conflicts[0].ID
	result, err := srv.HandleAutoResolve(context.Background(), makeReq("auto_resolve", args))
	require.NoError(t, err)
	require.False(t, result.IsError, textContent(t, result))

	var attempt resolution.AttemptResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &attempt))
	assert.True(t, attempt.Success)
	require.NotNil(t, attempt.RevisedCandidate)
	assert.Equal(t, "HW002", attempt.RevisedCandidate.AssetID)

	args["conflict_id"] = "unknown"
	result, err = srv.HandleAutoResolve(context.Background(), makeReq("auto_resolve", args))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPServer_NotNil(t *testing.T) {
	assert.NotNil(t, newMCPServer(t, store.NewMemorySource(fixture())).MCPServer())
}
