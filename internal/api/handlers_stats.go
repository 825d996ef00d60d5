package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	papers, sessions := s.manager.Totals()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"papers":         papers,
		"sessions":       sessions,
		"intents":        s.manager.Stats(),
	})
}
