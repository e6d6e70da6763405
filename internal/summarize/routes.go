package summarize

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type summaryRequest struct {
	Notes []string `json:"notes"`
}

type summaryResponse struct {
	Success bool     `json:"success"`
	Summary *Summary `json:"summary,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RegisterRoutes mounts the summary endpoint on the given router.
func RegisterRoutes(r chi.Router, service *Service) {
	r.Post("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		var req summaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		summary, err := service.Summarize(r.Context(), req.Notes)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ErrNoNotes) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, summaryResponse{Success: false, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, summaryResponse{Success: true, Summary: summary})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
