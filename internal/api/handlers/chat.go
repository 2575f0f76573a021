package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/powderplan/powderplan/internal/service"
	"go.uber.org/zap"
)

const hallucinationWarningMessage = "This response may contain unverified information. Please verify important details."

type ChatHandler struct {
	orchestrator *service.Orchestrator
	engine       *service.Engine
	logger       *zap.Logger
}

func NewChatHandler(orchestrator *service.Orchestrator, engine *service.Engine, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		engine:       engine,
		logger:       logger,
	}
}

type chatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

type warningPayload struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
	Message    string   `json:"message"`
}

type dataSource struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type chatResponse struct {
	ConversationID string          `json:"conversationId"`
	Message        string          `json:"message"`
	Timestamp      string          `json:"timestamp"`
	Warning        *warningPayload `json:"warning,omitempty"`
	DataSources    []dataSource    `json:"dataSources,omitempty"`
}

// Send runs one chat turn: orchestration, detection, response packaging.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.orchestrator.RunTurn(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrProvider):
			h.logger.Error("turn failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to process message")
		default:
			h.logger.Error("turn failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	verdict := h.engine.Evaluate(r.Context(), turn.Output, turn.Invocations)
	turn.Verdict = &verdict

	resp := chatResponse{
		ConversationID: turn.SessionID,
		Message:        turn.Output,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}

	if verdict.IsLikelyHallucination {
		resp.Warning = &warningPayload{
			Type:       "hallucination",
			Confidence: verdict.Confidence,
			Reasons:    verdict.Reasons,
			Message:    hallucinationWarningMessage,
		}
	}

	for _, inv := range turn.Invocations {
		data := inv.Result
		if inv.Failed() {
			data = map[string]string{"error": inv.Error}
		}
		resp.DataSources = append(resp.DataSources, dataSource{Type: inv.Name, Data: data})
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteConversation clears the session entry for the given conversation.
// Idempotent: clearing a non-existent session is not an error.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	if err := h.orchestrator.ClearSession(r.Context(), id); err != nil {
		h.logger.Error("session clear failed", zap.String("conversation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
