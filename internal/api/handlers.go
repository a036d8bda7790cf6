package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptimeSec": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	if s.status == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "controller not yet set up")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vnic":       s.status.VNIC(),
		"descriptor": s.status.Descriptor(),
		"state":      s.status.CachedState(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	if s.events == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "telemetry hub not available")
		return
	}
	if err := s.events.Subscribe(w, r); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "INTERNAL", "event stream failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
