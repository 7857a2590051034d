// Package api exposes the claim intake and the administrative control
// surface over HTTP. The admin surface reads snapshots and recent ledger
// entries and may pause/resume; it never deducts, increments, or appends
// directly.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rupesh-3/jandhan/pkg/claims"
	"github.com/rupesh-3/jandhan/pkg/config"
	"github.com/rupesh-3/jandhan/pkg/ledger"
	"github.com/rupesh-3/jandhan/pkg/observability"
	"github.com/rupesh-3/jandhan/pkg/registry"
)

// Server holds the HTTP surface dependencies.
type Server struct {
	validator *claims.Validator
	ledger    *ledger.Ledger
	registry  registry.Registry
	catalog   *config.SchemeCatalog
	logger    *slog.Logger
	auth      *JWTValidator
	limiter   *RateLimiter
	obs       *observability.Provider
	schema    *jsonschema.Schema
}

// NewServer wires the surface. catalog and obs may be nil; auth may be
// nil, in which case the admin surface fails closed.
func NewServer(v *claims.Validator, led *ledger.Ledger, reg registry.Registry, catalog *config.SchemeCatalog, auth *JWTValidator, obs *observability.Provider, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileClaimSchema()
	if err != nil {
		return nil, err
	}
	return &Server{
		validator: v,
		ledger:    led,
		registry:  reg,
		catalog:   catalog,
		logger:    logger,
		auth:      auth,
		limiter:   NewRateLimiter(10, 20),
		obs:       obs,
		schema:    schema,
	}, nil
}

// Routes assembles the handler chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/schemes", s.handleSchemes)
	mux.Handle("POST /api/claims", s.limiter.Middleware(http.HandlerFunc(s.handleClaim)))

	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/status", s.handleStatus)
	admin.HandleFunc("POST /api/admin/pause", s.handlePause)
	admin.HandleFunc("POST /api/admin/resume", s.handleResume)
	admin.HandleFunc("GET /api/admin/ledger", s.handleLedger)
	mux.Handle("/api/admin/", s.auth.Middleware(admin))

	return RequestIDMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type claimRequest struct {
	BeneficiaryID string `json:"beneficiary_id"`
	Scheme        string `json:"scheme"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.schema.Validate(generic); err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim request")
		return
	}

	var req claimRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim request")
		return
	}

	start := time.Now()
	decision, err := s.validator.Evaluate(r.Context(), req.BeneficiaryID, req.Scheme)
	if err != nil {
		s.logger.Error("claim failed hard",
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "claim could not be recorded")
		return
	}

	if s.obs != nil {
		gate := decision.Gate
		if decision.Approved {
			gate = "none"
		}
		s.obs.RecordDecision(r.Context(), gate, decision.Approved, time.Since(start).Seconds())
	}

	s.logger.Info("claim decided",
		"request_id", RequestID(r.Context()),
		"approved", decision.Approved,
		"gate", decision.Gate,
		"reason", decision.Reason,
	)
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	if s.catalog != nil {
		writeJSON(w, http.StatusOK, s.catalog)
		return
	}
	schemes, err := s.registry.Schemes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scheme catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"schemes": schemes})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.validator.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.validator.Pause()
	s.logger.Info("system paused by operator")
	writeJSON(w, http.StatusOK, s.validator.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	s.validator.Resume()
	s.logger.Info("system resumed by operator")
	writeJSON(w, http.StatusOK, s.validator.Snapshot())
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "n must be between 1 and 500")
			return
		}
		n = parsed
	}
	entries, err := s.ledger.RecentEntries(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ledger unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
