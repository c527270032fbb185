package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/inbox"
	"github.com/bwdnr95/tono-operation-sub000/internal/middleware"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/internal/store"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

// ConversationHandler serves the conversation list and detail endpoints.
type ConversationHandler struct {
	conversations *service.ConversationService
	inbox         *inbox.Manager
	logger        *logger.Logger
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(conversations *service.ConversationService, sessions *inbox.Manager, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		inbox:         sessions,
		logger:        log,
	}
}

// parseFilters builds the cache filter set from query parameters. Unknown
// enum values are rejected rather than silently ignored.
func parseFilters(r *http.Request) (store.Filters, string) {
	q := r.URL.Query()
	f := store.Filters{Read: store.ReadFilterAll}

	switch read := q.Get("read"); read {
	case "", "all":
	case "unread":
		f.Read = store.ReadFilterUnread
	case "read":
		f.Read = store.ReadFilterRead
	default:
		return f, "invalid read filter: " + read
	}

	if s := q.Get("status"); s != "" {
		status := model.Status(s)
		if !status.Valid() {
			return f, "invalid status filter: " + s
		}
		f.Status = status
	}

	if s := q.Get("safety"); s != "" {
		safety := model.SafetyStatus(s)
		if !safety.Valid() {
			return f, "invalid safety filter: " + s
		}
		f.Safety = safety
	}

	if a := q.Get("send_action"); a != "" {
		switch action := model.SendAction(a); action {
		case model.SendActionNone, model.SendActionManual, model.SendActionBulk:
			f.SendAction = action
		default:
			return f, "invalid send_action filter: " + a
		}
	}

	f.ThreadKey = q.Get("thread_key")
	return f, ""
}

// List handles GET /conversations. Filters apply to the operator's session
// view, so two operators can hold different filter sets concurrently.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())

	filters, errMsg := parseFilters(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	cache := h.inbox.Session(r.Context(), operatorID)
	cache.SetFilters(filters)
	view := cache.FilteredView()

	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: view,
		Total:         len(view),
	})
}

// Get handles GET /conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	detail, err := h.inbox.Detail(r.Context(), operatorID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cache := h.inbox.Session(r.Context(), operatorID)
	cache.Select(id)

	writeJSON(w, http.StatusOK, detail)
}

// MarkRead handles POST /conversations/{id}/read. The session cache flips
// first so the operator's unread view reacts immediately; a failed persist
// rolls the flip back.
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	cache := h.inbox.Session(r.Context(), operatorID)

	rollback := cache.MarkRead(id)
	if err := h.conversations.MarkRead(r.Context(), id, true); err != nil {
		rollback()
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MarkReadResponse{ID: id, IsRead: true})
}

// MarkUnread handles POST /conversations/{id}/unread. The persist happens
// first here; reverting to unread is not latency-sensitive.
func (h *ConversationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	if err := h.conversations.MarkRead(r.Context(), id, false); err != nil {
		writeServiceError(w, err)
		return
	}

	unread := false
	cache := h.inbox.Session(r.Context(), operatorID)
	cache.Patch(id, store.SummaryPatch{IsRead: &unread})

	writeJSON(w, http.StatusOK, model.MarkReadResponse{ID: id, IsRead: false})
}

type transitionRequest struct {
	Status model.Status `json:"status"`
}

// Transition handles POST /conversations/{id}/status.
func (h *ConversationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status: "+string(req.Status))
		return
	}

	if err := h.conversations.Transition(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	detail, err := h.inbox.AfterMutation(r.Context(), operatorID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.Info("conversation status changed",
		zap.String("conversation_id", id),
		zap.String("status", string(req.Status)),
		zap.String("operator_id", operatorID),
	)
	writeJSON(w, http.StatusOK, detail.Summary)
}

// EndSession handles DELETE /session. The operator's cache is reset and
// dropped; the next request reseeds from scratch.
func (h *ConversationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	h.inbox.EndSession(operatorID)
	w.WriteHeader(http.StatusNoContent)
}
