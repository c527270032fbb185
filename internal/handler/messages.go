package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/middleware"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/metrics"
)

// RefreshPublisher broadcasts refresh events after ingest.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, ev model.RefreshEvent) error
}

// MessageHandler receives channel webhook deliveries for inbound guest
// messages.
type MessageHandler struct {
	conversations *service.ConversationService
	publisher     RefreshPublisher
	logger        *logger.Logger
}

// NewMessageHandler creates a message handler. publisher may be nil when
// the server runs without a broker.
func NewMessageHandler(conversations *service.ConversationService, publisher RefreshPublisher, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		publisher:     publisher,
		logger:        log,
	}
}

// Inbound handles POST /webhooks/messages. A new guest message creates or
// reopens its conversation and triggers a refresh broadcast.
func (h *MessageHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	var in model.InboundMessage
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateThreadKey(in.ThreadKey); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageBody(in.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.conversations.Ingest(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.ConversationsIngested.Inc()

	if h.publisher != nil {
		ev := model.NewRefreshEvent(model.RefreshScopeConversation, summary.ID, "inbound_message")
		if err := h.publisher.PublishRefresh(r.Context(), ev); err != nil {
			h.logger.Warn("failed to publish refresh after ingest",
				zap.String("conversation_id", summary.ID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusAccepted, summary)
}
