package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyotake/machivoice/internal/llm"
)

type chatRequest struct {
	Messages []chatMessage   `json:"messages"`
	Schema   json.RawMessage `json:"schema,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Success       bool            `json:"success"`
	GeneratedText string          `json:"generated_text,omitempty"`
	GeneratedJSON json.RawMessage `json:"generated_json,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// RegisterRoutes mounts the chat pass-through endpoint on the given router.
func RegisterRoutes(r chi.Router, service *Service) {
	r.Post("/api/chat", handleChat(service))
}

func handleChat(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		messages := make([]llm.Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
		}

		result, err := service.Invoke(r.Context(), messages, req.Schema)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ErrEmptyMessages) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, chatResponse{Success: false, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{
			Success:       true,
			GeneratedText: result.Text,
			GeneratedJSON: result.JSON,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
