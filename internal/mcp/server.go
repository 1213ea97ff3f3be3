// Package mcp implements the Model Context Protocol server for assetguard.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/resolution"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

// dateLayout is the short form accepted for dates besides RFC 3339.
const dateLayout = "2006-01-02"

// Server wraps an MCPServer with assetguard dependencies.
type Server struct {
	mcp    *mcpserver.MCPServer
	source store.Source
	engine *engine.Engine
	logger *slog.Logger
}

// NewServer creates a new MCP server. If src is nil, tool calls return an
// error response instead of panicking.
func NewServer(src store.Source, eng *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		source: src,
		engine: eng,
		logger: logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"assetguard",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildCheckTool(), s.handleCheck)
	mcpSrv.AddTool(buildAvailabilityTool(), s.handleAvailability)
	mcpSrv.AddTool(buildEligibilityTool(), s.handleEligibility)
	mcpSrv.AddTool(buildAutoResolveTool(), s.handleAutoResolve)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleCheck is the exported handler for the "check_assignment" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleCheck(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleCheck(ctx, req)
}

// HandleAvailability is the exported handler for the "availability" tool.
func (s *Server) HandleAvailability(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleAvailability(ctx, req)
}

// HandleEligibility is the exported handler for the "eligibility" tool.
func (s *Server) HandleEligibility(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleEligibility(ctx, req)
}

// HandleAutoResolve is the exported handler for the "auto_resolve" tool.
func (s *Server) HandleAutoResolve(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleAutoResolve(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

// candidateFromRequest reads the shared candidate arguments.
func candidateFromRequest(req mcpgo.CallToolRequest) (models.CandidateAssignment, error) {
	c := models.CandidateAssignment{
		EmployeeID: strings.TrimSpace(req.GetString("employee_id", "")),
		AssetID:    strings.TrimSpace(req.GetString("asset_id", "")),
		Category:   models.AssetCategory(req.GetString("category", "")),
	}
	assigned, err := parseDate(req.GetString("assigned_date", ""))
	if err != nil {
		return c, err
	}
	c.AssignedDate = assigned
	if ret := req.GetString("expected_return_date", ""); ret != "" {
		t, err := parseDate(ret)
		if err != nil {
			return c, err
		}
		c.ExpectedReturnDate = &t
	}
	return c, nil
}

func (s *Server) load(ctx context.Context) (models.Snapshot, *mcpgo.CallToolResult) {
	if s.source == nil {
		return models.Snapshot{}, mcpgo.NewToolResultError("snapshot source is unavailable")
	}
	snap, err := s.source.Load(ctx)
	if err != nil {
		return models.Snapshot{}, mcpgo.NewToolResultErrorf("loading snapshot failed: %s", err.Error())
	}
	return snap, nil
}

// --- tool definitions ---

func withCandidate(name, description string, extra ...mcpgo.ToolOption) mcpgo.Tool {
	opts := []mcpgo.ToolOption{
		mcpgo.WithDescription(description),
		mcpgo.WithString("employee_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the employee who would receive the asset"),
		),
		mcpgo.WithString("asset_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the hardware device or software license pool"),
		),
		mcpgo.WithString("category",
			mcpgo.Required(),
			mcpgo.Description("Asset category: hardware or software"),
		),
		mcpgo.WithString("assigned_date",
			mcpgo.Required(),
			mcpgo.Description("Start of the assignment, YYYY-MM-DD or RFC 3339"),
		),
		mcpgo.WithString("expected_return_date",
			mcpgo.Description("Expected return, YYYY-MM-DD or RFC 3339 (default: open-ended)"),
		),
	}
	return mcpgo.NewTool(name, append(opts, extra...)...)
}

func buildCheckTool() mcpgo.Tool {
	return withCandidate("check_assignment",
		"Check a proposed asset assignment for conflicts. Returns conflicts, warnings and resolution proposals.")
}

func buildAvailabilityTool() mcpgo.Tool {
	return mcpgo.NewTool("availability",
		mcpgo.WithDescription("Report whether an asset can accept a new assignment, with holder, capacity and restrictions."),
		mcpgo.WithString("asset_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the asset"),
		),
		mcpgo.WithString("category",
			mcpgo.Required(),
			mcpgo.Description("Asset category: hardware or software"),
		),
	)
}

func buildEligibilityTool() mcpgo.Tool {
	return mcpgo.NewTool("eligibility",
		mcpgo.WithDescription("Validate whether an employee may receive an asset. Returns issues, warnings and recommendations."),
		mcpgo.WithString("employee_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the employee"),
		),
		mcpgo.WithString("asset_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the asset"),
		),
		mcpgo.WithString("category",
			mcpgo.Required(),
			mcpgo.Description("Asset category: hardware or software"),
		),
	)
}

func buildAutoResolveTool() mcpgo.Tool {
	return withCandidate("auto_resolve",
		"Attempt the automated resolution of one conflict. Returns the revised candidate on success; nothing is persisted.",
		mcpgo.WithString("conflict_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the conflict returned by check_assignment"),
		),
		mcpgo.WithString("strategy",
			mcpgo.Description("Strategy to attempt (default: first automated proposal)"),
		),
	)
}

// --- tool handlers ---

// handleCheck runs the full conflict check for a candidate.
func (s *Server) handleCheck(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	c, err := candidateFromRequest(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	snap, errResult := s.load(ctx)
	if errResult != nil {
		return errResult, nil
	}

	report, err := s.engine.DetectConflicts(c, snap)
	if err != nil {
		return mcpgo.NewToolResultErrorf("check failed: %s", err.Error()), nil
	}

	s.logger.Info("mcp: check_assignment", "employee_id", c.EmployeeID, "asset_id", c.AssetID, "conflicts", len(report.Conflicts))
	return toolResultJSON(report)
}

// handleAvailability resolves an asset's availability.
func (s *Server) handleAvailability(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	assetID := strings.TrimSpace(req.GetString("asset_id", ""))
	if assetID == "" {
		return mcpgo.NewToolResultError("asset_id is required and must not be empty"), nil
	}
	snap, errResult := s.load(ctx)
	if errResult != nil {
		return errResult, nil
	}

	info, err := s.engine.ResolveAvailability(assetID, models.AssetCategory(req.GetString("category", "")), snap)
	if err != nil {
		return mcpgo.NewToolResultErrorf("availability failed: %s", err.Error()), nil
	}
	return toolResultJSON(info)
}

// handleEligibility validates an employee/asset pair.
func (s *Server) handleEligibility(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	employeeID := strings.TrimSpace(req.GetString("employee_id", ""))
	assetID := strings.TrimSpace(req.GetString("asset_id", ""))
	if employeeID == "" || assetID == "" {
		return mcpgo.NewToolResultError("employee_id and asset_id are required"), nil
	}
	snap, errResult := s.load(ctx)
	if errResult != nil {
		return errResult, nil
	}

	emp, err := store.FindEmployee(snap, employeeID)
	if err != nil {
		return mcpgo.NewToolResultErrorf("employee %s not found", employeeID), nil
	}
	result, err := s.engine.ValidateEligibility(emp, assetID, models.AssetCategory(req.GetString("category", "")), snap)
	if err != nil {
		return mcpgo.NewToolResultErrorf("eligibility failed: %s", err.Error()), nil
	}
	return toolResultJSON(result)
}

// handleAutoResolve re-checks the candidate and attempts one proposal.
func (s *Server) handleAutoResolve(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	conflictID := strings.TrimSpace(req.GetString("conflict_id", ""))
	if conflictID == "" {
		return mcpgo.NewToolResultError("conflict_id is required and must not be empty"), nil
	}
	c, err := candidateFromRequest(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	snap, errResult := s.load(ctx)
	if errResult != nil {
		return errResult, nil
	}

	report, err := s.engine.DetectConflicts(c, snap)
	if err != nil {
		return mcpgo.NewToolResultErrorf("check failed: %s", err.Error()), nil
	}
	conflict, proposal, ok := report.Proposal(conflictID, models.Strategy(req.GetString("strategy", "")))
	if !ok {
		return mcpgo.NewToolResultErrorf("conflict %s has no matching proposal", conflictID), nil
	}

	result := s.engine.AttemptAutomatedResolution(conflict, proposal, resolution.ResolutionContext{Candidate: c, Snapshot: snap})
	s.logger.Info("mcp: auto_resolve", "conflict_id", conflictID, "strategy", proposal.Strategy, "success", result.Success)
	return toolResultJSON(result)
}
