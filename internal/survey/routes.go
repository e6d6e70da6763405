package survey

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyotake/machivoice/internal/llm"
)

type openingRequest struct {
	UID string `json:"uid"`
}

type openingResponse struct {
	Success        bool   `json:"success"`
	OpeningMessage string `json:"opening_message,omitempty"`
	Error          string `json:"error,omitempty"`
}

type evaluateRequest struct {
	UID      string `json:"uid"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type evaluateResponse struct {
	Success bool   `json:"success"`
	Entry   *Entry `json:"entry,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterRoutes mounts survey endpoints under /api/survey on the given
// router.
func RegisterRoutes(r chi.Router, service *Service, store *Store) {
	r.Route("/api/survey", func(r chi.Router) {
		r.Post("/opening", handleOpening(service))
		r.Post("/evaluate", handleEvaluate(service))
		r.Get("/health", handleLatestHealth(store))
	})
}

func handleOpening(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UID == "" {
			http.Error(w, "uid is required", http.StatusBadRequest)
			return
		}

		message, err := service.OpeningMessage(r.Context(), req.UID)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ErrNoHistory) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, openingResponse{Success: false, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, openingResponse{Success: true, OpeningMessage: message})
	}
}

func handleEvaluate(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UID == "" {
			http.Error(w, "uid is required", http.StatusBadRequest)
			return
		}

		history := make([]llm.Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			history = append(history, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
		}

		entry, err := service.EvaluateConversation(r.Context(), req.UID, history)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ErrEmptyConversation) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, evaluateResponse{Success: false, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, evaluateResponse{Success: true, Entry: entry})
	}
}

func handleLatestHealth(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.LatestThisMonth(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
