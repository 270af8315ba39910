package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"solana-activity-gateway/internal/history"
	"solana-activity-gateway/internal/metadata"
	"solana-activity-gateway/internal/observability"
	"solana-activity-gateway/internal/solana"
)

// Server holds the HTTP API state.
type Server struct {
	orchestrator *history.Orchestrator
	pool         *solana.Pool
	directory    *metadata.Directory
	cache        *metadata.Cache
	logger       *log.Logger
	started      time.Time
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/signatures", s.handleSignatures)
	mux.HandleFunc("POST /api/fetchTransactions", s.handleFetchTransactions)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req history.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "history", start, history.ErrInvalidRequest)
		return
	}

	res, err := s.orchestrator.History(r.Context(), req)
	if err != nil {
		s.writeError(w, "history", start, err)
		return
	}
	s.writeJSON(w, "history", start, res)
}

func (s *Server) handleSignatures(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req history.SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "signatures", start, history.ErrInvalidRequest)
		return
	}

	res, err := s.orchestrator.Signatures(r.Context(), req)
	if err != nil {
		s.writeError(w, "signatures", start, err)
		return
	}
	s.writeJSON(w, "signatures", start, res)
}

func (s *Server) handleFetchTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req history.ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "fetch_transactions", start, history.ErrInvalidRequest)
		return
	}

	res, err := s.orchestrator.Parse(r.Context(), req)
	if err != nil {
		s.writeError(w, "fetch_transactions", start, err)
		return
	}
	s.writeJSON(w, "fetch_transactions", start, res)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	RPCEndpoints  int    `json:"rpc_endpoints"`
	DirectorySize int    `json:"directory_size"`
	CacheSize     int    `json:"cache_size"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		RPCEndpoints:  s.pool.Size(),
		DirectorySize: s.directory.Size(),
		CacheSize:     s.cache.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, op string, start time.Time, v interface{}) {
	observability.RecordHistoryRequest(op, "success", time.Since(start).Seconds())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

// writeError maps domain errors to HTTP codes. Invalid input is the
// caller's fault; upstream exhaustion is a bad gateway.
func (s *Server) writeError(w http.ResponseWriter, op string, start time.Time, err error) {
	code := http.StatusInternalServerError
	status := "error"
	switch {
	case errors.Is(err, history.ErrInvalidRequest), errors.Is(err, solana.ErrInvalidAddress):
		code = http.StatusBadRequest
		status = "invalid"
	case errors.Is(err, history.ErrUpstream), errors.Is(err, solana.ErrUpstreamExhausted):
		code = http.StatusBadGateway
		status = "upstream_error"
	}

	observability.RecordHistoryRequest(op, status, time.Since(start).Seconds())
	s.logger.Printf("%s failed (%d): %v", op, code, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
