package api

import (
	"context"
	"net/http"

	"github.com/baxromumarov/review-monitor/internal/observability"
)

// handleReview is the liveness acknowledgement kept for existing uptime checks.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"stats": observability.Snapshot(),
	}
	if last, ok := s.scheduler.Last(); ok {
		payload["last_check"] = last
	}
	respondJSON(w, http.StatusOK, payload)
}

// handleCheck runs one tick now. It waits for any tick already in progress
// and keeps running if the client goes away.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	out := s.scheduler.Tick(context.WithoutCancel(r.Context()))
	status := http.StatusOK
	if out.Err != nil {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, out)
}
