package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kyotake/machivoice/internal/chatlog"
)

// TurnRequest is the request body of one feedback dialogue turn. The caller
// owns the session: it re-sends the full history and the last form it
// received on every turn.
type TurnRequest struct {
	Contact  string    `json:"contact"`
	Messages []Message `json:"messages"`
	Form     *Form     `json:"form,omitempty"`
	ChatID   string    `json:"chat_id,omitempty"`
}

// TurnResponse is the response body of one feedback dialogue turn.
type TurnResponse struct {
	Success      bool   `json:"success"`
	Answer       string `json:"answer,omitempty"`
	Form         *Form  `json:"form,omitempty"`
	FormComplete bool   `json:"form_complete"`
	ChatID       string `json:"chat_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RegisterRoutes mounts feedback endpoints under /api/feedback on the given
// router.
func RegisterRoutes(r chi.Router, engine *Engine, store *Store, chatLog *chatlog.Store, logger zerolog.Logger) {
	h := &handler{engine: engine, store: store, chatLog: chatLog, log: logger.With().Str("component", "feedback-http").Logger()}

	r.Route("/api/feedback", func(r chi.Router) {
		r.Post("/chat", h.handleChat)
		r.Get("/opinions", h.handleListOpinions)
		r.Get("/ws", h.handleWebSocket)
	})
}

type handler struct {
	engine  *Engine
	store   *Store
	chatLog *chatlog.Store
	log     zerolog.Logger
}

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, status := h.runTurn(r.Context(), req)
	writeJSON(w, status, resp)
}

// runTurn executes one dialogue turn and maps its outcome onto the HTTP
// contract. It is shared by the POST and WebSocket endpoints.
func (h *handler) runTurn(ctx context.Context, req TurnRequest) (TurnResponse, int) {
	var prior Form
	if req.Form != nil {
		prior = *req.Form
	}

	result, err := h.engine.Invoke(ctx, req.Contact, req.Messages, prior)
	if err != nil {
		if errors.Is(err, ErrEmptyConversation) {
			return TurnResponse{Success: false, Error: err.Error()}, http.StatusBadRequest
		}
		// Gateway failure: the caller keeps its prior form and can retry.
		return TurnResponse{Success: false, Error: err.Error()}, http.StatusBadGateway
	}

	chatID := req.ChatID
	if h.chatLog != nil {
		// Best effort: a failed log write never fails the turn.
		id, logErr := h.chatLog.Append(ctx, req.ChatID, req.Messages, result.Answer)
		if logErr != nil {
			h.log.Warn().Err(logErr).Msg("chat log write failed")
		} else {
			chatID = id
		}
	}

	form := result.Form
	return TurnResponse{
		Success:      true,
		Answer:       result.Answer,
		Form:         &form,
		FormComplete: result.FormComplete,
		ChatID:       chatID,
	}, http.StatusOK
}

func (h *handler) handleListOpinions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	opinions, err := h.store.ListOpinions(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if opinions == nil {
		opinions = []Opinion{}
	}

	writeJSON(w, http.StatusOK, opinions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
