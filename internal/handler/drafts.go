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

// DraftHandler serves draft generation and editing endpoints.
type DraftHandler struct {
	drafts *service.DraftService
	inbox  *inbox.Manager
	logger *logger.Logger
}

// NewDraftHandler creates a draft handler.
func NewDraftHandler(drafts *service.DraftService, sessions *inbox.Manager, log *logger.Logger) *DraftHandler {
	return &DraftHandler{
		drafts: drafts,
		inbox:  sessions,
		logger: log,
	}
}

// Generate handles POST /conversations/{id}/draft.
func (h *DraftHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.drafts.Generate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	if _, err := h.inbox.AfterMutation(r.Context(), operatorID, id); err != nil {
		h.logger.Warn("session sync after draft generation failed",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusCreated, draft)
}

// Save handles PUT /conversations/{id}/draft. The edited content is
// re-classified before it replaces the stored draft.
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SaveDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateDraftContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.drafts.Save(r.Context(), id, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	if _, err := h.inbox.AfterMutation(r.Context(), operatorID, id); err != nil {
		h.logger.Warn("session sync after draft save failed",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusOK, draft)
}
