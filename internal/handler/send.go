package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/inbox"
	"github.com/bwdnr95/tono-operation-sub000/internal/middleware"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

const maxBulkSendIDs = 50

// SendHandler serves confirm-token issuance and send endpoints.
type SendHandler struct {
	sends  *service.SendService
	inbox  *inbox.Manager
	logger *logger.Logger
}

// NewSendHandler creates a send handler.
func NewSendHandler(sends *service.SendService, sessions *inbox.Manager, log *logger.Logger) *SendHandler {
	return &SendHandler{
		sends:  sends,
		inbox:  sessions,
		logger: log,
	}
}

// Confirm handles POST /conversations/{id}/confirm.
func (h *SendHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.sends.IssueConfirmToken(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// Send handles POST /conversations/{id}/send.
func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConfirmToken == "" {
		writeError(w, http.StatusBadRequest, "confirm_token is required")
		return
	}

	entry, err := h.sends.Send(r.Context(), id, req.ConfirmToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	if _, syncErr := h.inbox.AfterMutation(r.Context(), operatorID, id); syncErr != nil {
		h.logger.Warn("session sync after send failed",
			zap.String("conversation_id", id),
			zap.Error(syncErr),
		)
	}

	writeJSON(w, http.StatusOK, entry)
}

// BulkSend handles POST /conversations/send-bulk.
func (h *SendHandler) BulkSend(w http.ResponseWriter, r *http.Request) {
	var req model.BulkSendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ConversationIDs) == 0 {
		writeError(w, http.StatusBadRequest, "conversation_ids is required")
		return
	}
	if len(req.ConversationIDs) > maxBulkSendIDs {
		writeError(w, http.StatusBadRequest, "too many conversations in one bulk send")
		return
	}
	for _, id := range req.ConversationIDs {
		if err := middleware.ValidateConversationID(id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp := h.sends.BulkSend(r.Context(), req.ConversationIDs)

	h.logger.Info("bulk send completed",
		zap.Int("requested", len(req.ConversationIDs)),
		zap.Int("sent", resp.Sent),
		zap.Int("failed", resp.Failed),
	)
	writeJSON(w, http.StatusOK, resp)
}
