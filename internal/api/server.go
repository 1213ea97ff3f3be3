package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/resolution"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/review"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// Server is an HTTP API server that exposes the assignment checks.
type Server struct {
	source         store.Source
	engine         *engine.Engine
	reviewer       *review.Reviewer
	logger         *slog.Logger
	authToken      string // empty = no auth required
	allowedOrigins []string
}

// NewServer creates a new Server. reviewer may be nil, in which case
// review briefs are never attached.
func NewServer(src store.Source, eng *engine.Engine, reviewer *review.Reviewer, logger *slog.Logger, authToken string, allowedOrigins []string) *Server {
	return &Server{
		source:         src,
		engine:         eng,
		reviewer:       reviewer,
		logger:         logger,
		authToken:      authToken,
		allowedOrigins: allowedOrigins,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check, no auth required.
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Handle("/debug/vars", expvar.Handler())
		r.Route("/v1", func(r chi.Router) {
			r.Post("/check", s.handleCheck)
			r.Post("/eligibility", s.handleEligibility)
			r.Post("/resolve", s.handleResolve)
			r.Post("/assignments", s.handleCommit)
			r.Get("/assets/{id}/availability", s.handleAvailability)
			r.Get("/assets/{id}/probe", s.handleProbe)
		})
	})

	return r
}

// --- middleware ---

// auth enforces Bearer token authentication when authToken is set.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.source.Load(r.Context()); err != nil {
		s.logger.Warn("health check: snapshot source unavailable", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": "snapshot source unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkResponse is returned by POST /v1/check.
type checkResponse struct {
	engine.Report
	Blocking bool           `json:"blocking"`
	Briefs   []review.Brief `json:"briefs,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var c models.CandidateAssignment
	if !s.decode(w, r, &c) {
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}

	report, err := s.engine.DetectConflicts(c, snap)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	resp := checkResponse{Report: report, Blocking: report.Blocking()}
	if s.reviewer != nil && r.URL.Query().Get("review") == "true" {
		resp.Briefs = s.briefs(r.Context(), report)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// briefs drafts a review brief for every conflict with no automated proposal.
func (s *Server) briefs(ctx context.Context, report engine.Report) []review.Brief {
	var out []review.Brief
	for _, c := range report.Conflicts {
		var proposals []models.ResolutionProposal
		automated := false
		for _, p := range report.Proposals {
			if p.ConflictID != c.ID {
				continue
			}
			proposals = append(proposals, p)
			automated = automated || p.Automated
		}
		if automated {
			continue
		}
		out = append(out, s.reviewer.Draft(ctx, c, proposals))
	}
	return out
}

// eligibilityRequest is the body accepted by POST /v1/eligibility.
type eligibilityRequest struct {
	EmployeeID string               `json:"employee_id"`
	AssetID    string               `json:"asset_id"`
	Category   models.AssetCategory `json:"category"`
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.EmployeeID == "" || req.AssetID == "" {
		s.writeError(w, http.StatusBadRequest, "employee_id and asset_id are required")
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}

	emp, err := store.FindEmployee(snap, req.EmployeeID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "employee not found")
		return
	}
	result, err := s.engine.ValidateEligibility(emp, req.AssetID, req.Category, snap)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// resolveRequest is the body accepted by POST /v1/resolve. The conflict is
// looked up by ID in a fresh check of Candidate; Strategy picks a proposal,
// defaulting to the first automated one.
type resolveRequest struct {
	Candidate  models.CandidateAssignment `json:"candidate"`
	ConflictID string                     `json:"conflict_id"`
	Strategy   models.Strategy            `json:"strategy,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ConflictID == "" {
		s.writeError(w, http.StatusBadRequest, "conflict_id is required")
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}

	report, err := s.engine.DetectConflicts(req.Candidate, snap)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	conflict, proposal, found := report.Proposal(req.ConflictID, req.Strategy)
	if !found {
		s.writeError(w, http.StatusNotFound, "conflict or proposal not found")
		return
	}

	result := s.engine.AttemptAutomatedResolution(conflict, proposal, resolution.ResolutionContext{
		Candidate: req.Candidate,
		Snapshot:  snap,
	})
	s.writeJSON(w, http.StatusOK, result)
}

// commitRequest is the body accepted by POST /v1/assignments.
type commitRequest struct {
	Candidate models.CandidateAssignment `json:"candidate"`
	Status    models.AssignmentStatus    `json:"status"`
}

// commitResponse is returned by POST /v1/assignments.
type commitResponse struct {
	Assignment models.Assignment `json:"assignment"`
	Report     engine.Report     `json:"report"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	committer, ok := s.source.(store.Committer)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, "configured store is read-only")
		return
	}
	var req commitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = models.AssignmentActive
	}

	a, report, err := s.engine.Commit(r.Context(), committer, req.Candidate, req.Status)
	if err != nil {
		if store.IsStale(err) {
			s.writeJSON(w, http.StatusConflict, map[string]any{"error": "candidate no longer passes conflict check", "report": report})
			return
		}
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, commitResponse{Assignment: a, Report: report})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category := models.AssetCategory(r.URL.Query().Get("category"))
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	info, err := s.engine.ResolveAvailability(id, category, snap)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category := models.AssetCategory(r.URL.Query().Get("category"))
	if !category.IsValid() {
		s.writeError(w, http.StatusBadRequest, "category must be hardware or software")
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.ProbeRealTimeAvailability(r.Context(), id, category))
}

// --- helpers ---

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// load fetches the current snapshot, writing a 503 on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (models.Snapshot, bool) {
	snap, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load snapshot", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "snapshot source unavailable")
		return models.Snapshot{}, false
	}
	return snap, true
}

// writeEngineError maps contract violations to 400 and everything else to 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	if models.IsContractError(err) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
