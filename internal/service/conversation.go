// Package service provides business logic for the operations console.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

// conversation is the authoritative server-side record for one guest thread.
type conversation struct {
	summary  model.ConversationSummary
	messages []model.ThreadMessage
	draft    *model.DraftReply
	sendLogs []model.SendLog // most recent first
}

// ConversationService owns conversation state for the session. One
// conversation exists per thread key per channel; a conversation is created
// on the first inbound message for its thread.
type ConversationService struct {
	logger *logger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	byID      map[string]*conversation
	byThread  map[string]string // threadKey -> conversation id
	nextMsgID int64
}

// ConversationOption configures a ConversationService.
type ConversationOption func(*ConversationService)

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) ConversationOption {
	return func(s *ConversationService) {
		s.now = now
	}
}

// NewConversationService creates a new conversation service.
func NewConversationService(log *logger.Logger, opts ...ConversationOption) *ConversationService {
	s := &ConversationService{
		logger:   log,
		now:      time.Now,
		byID:     make(map[string]*conversation),
		byThread: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest records an inbound guest message. A new thread key creates a
// conversation; an existing one appends to its thread, flips it back to
// unread, and discards any pending draft, since a new guest message
// invalidates a reply drafted against the old thread.
func (s *ConversationService) Ingest(ctx context.Context, in model.InboundMessage) (model.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.nextMsgID++
	msg := model.ThreadMessage{
		ID:        s.nextMsgID,
		ThreadKey: in.ThreadKey,
		Direction: model.DirectionIncoming,
		Sender:    in.Sender,
		Body:      in.Body,
		SentAt:    now,
	}

	id, exists := s.byThread[in.ThreadKey]
	if !exists {
		conv := &conversation{
			summary: model.ConversationSummary{
				ID:            uuid.Must(uuid.NewV7()).String(),
				Channel:       model.ChannelAirbnb,
				ThreadKey:     in.ThreadKey,
				PropertyCode:  in.PropertyCode,
				Status:        model.StatusOpen,
				SafetyStatus:  model.SafetyPass,
				SendAction:    model.SendActionNone,
				LastMessageID: &msg.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
				GuestName:     in.GuestName,
				CheckinDate:   in.CheckinDate,
				CheckoutDate:  in.CheckoutDate,
			},
			messages: []model.ThreadMessage{msg},
		}
		s.byID[conv.summary.ID] = conv
		s.byThread[in.ThreadKey] = conv.summary.ID

		s.logger.Info("conversation created",
			zap.String("conversation_id", conv.summary.ID),
			zap.String("thread_key", in.ThreadKey),
		)
		return conv.summary, nil
	}

	conv := s.byID[id]
	conv.messages = append(conv.messages, msg)
	conv.summary.IsRead = false
	conv.summary.LastMessageID = &msg.ID
	conv.summary.UpdatedAt = now
	if in.GuestName != "" {
		conv.summary.GuestName = in.GuestName
	}
	if conv.draft != nil {
		conv.draft = nil
		conv.summary.SafetyStatus = model.SafetyPass
	}
	conv.summary.Status = model.StatusOpen

	s.logger.Debug("inbound message appended",
		zap.String("conversation_id", id),
		zap.Int64("message_id", msg.ID),
	)
	return conv.summary, nil
}

// List returns all conversation summaries.
func (s *ConversationService) List(ctx context.Context) []model.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ConversationSummary, 0, len(s.byID))
	for _, conv := range s.byID {
		out = append(out, conv.summary)
	}
	return out
}

// Get assembles the detail projection for one conversation.
func (s *ConversationService) Get(ctx context.Context, id string) (model.ConversationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.byID[id]
	if !ok {
		return model.ConversationDetail{}, ErrNotFound
	}
	return conv.detail(), nil
}

// GetByThreadKey resolves a channel thread key to its conversation detail.
func (s *ConversationService) GetByThreadKey(ctx context.Context, threadKey string) (model.ConversationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byThread[threadKey]
	if !ok {
		return model.ConversationDetail{}, ErrNotFound
	}
	return s.byID[id].detail(), nil
}

// detail copies the conversation into its detail projection. Caller holds
// at least the read lock.
func (c *conversation) detail() model.ConversationDetail {
	d := model.ConversationDetail{
		Summary:  c.summary,
		Messages: append([]model.ThreadMessage(nil), c.messages...),
		SendLogs: append([]model.SendLog(nil), c.sendLogs...),
	}
	if c.draft != nil {
		draft := *c.draft
		d.Draft = &draft
	}
	return d
}

// MarkRead sets the operator read flag. The flag is independent of status.
func (s *ConversationService) MarkRead(ctx context.Context, id string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	conv.summary.IsRead = read
	return nil
}

// allowedTransitions encodes the reply workflow:
// open -> needs_review -> ready_to_send -> sent | blocked.
// Blocked drafts can re-enter review after an edit; sent is terminal until a
// new inbound message reopens the conversation via Ingest.
var allowedTransitions = map[model.Status]map[model.Status]bool{
	model.StatusOpen: {
		model.StatusNeedsReview: true,
		model.StatusReadyToSend: true,
		model.StatusBlocked:     true,
	},
	model.StatusNeedsReview: {
		model.StatusReadyToSend: true,
		model.StatusBlocked:     true,
		model.StatusOpen:        true,
	},
	model.StatusReadyToSend: {
		model.StatusNeedsReview: true,
		model.StatusSent:        true,
		model.StatusBlocked:     true,
	},
	model.StatusBlocked: {
		model.StatusNeedsReview: true,
		model.StatusReadyToSend: true,
	},
	model.StatusSent: {},
}

// Transition moves a conversation to a new workflow status, enforcing the
// state machine. Promoting to ready_to_send additionally requires the safety
// verdict to not be block.
func (s *ConversationService) Transition(ctx context.Context, id string, to model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, to)
}

func (s *ConversationService) transitionLocked(id string, to model.Status) error {
	conv, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	from := conv.summary.Status
	if from == to {
		return nil
	}
	if !allowedTransitions[from][to] {
		return ErrInvalidTransition
	}
	if to == model.StatusReadyToSend && conv.summary.SafetyStatus == model.SafetyBlock {
		return ErrSafetyBlocked
	}
	conv.summary.Status = to
	conv.summary.UpdatedAt = s.now()
	return nil
}

// Draft returns a copy of the current draft for id.
func (s *ConversationService) Draft(ctx context.Context, id string) (*model.DraftReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if conv.draft == nil {
		return nil, ErrNoDraft
	}
	draft := *conv.draft
	return &draft, nil
}

// PutDraft installs a draft and moves the conversation to the status its
// safety verdict implies: pass promotes straight to ready_to_send, review
// parks it for an operator, block locks it.
func (s *ConversationService) PutDraft(ctx context.Context, id string, draft *model.DraftReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if draft.ThreadKey != conv.summary.ThreadKey {
		return ErrThreadKeyMismatch
	}

	conv.draft = draft
	conv.summary.SafetyStatus = draft.SafetyStatus
	conv.summary.UpdatedAt = s.now()

	// Re-derivation can move in either direction; an edit can demote a
	// ready draft back to review.
	conv.summary.Status = statusForSafety(draft.SafetyStatus)
	return nil
}

func statusForSafety(s model.SafetyStatus) model.Status {
	switch s {
	case model.SafetyBlock:
		return model.StatusBlocked
	case model.SafetyReview:
		return model.StatusNeedsReview
	default:
		return model.StatusReadyToSend
	}
}

// RecordSend appends a send log, updates the workflow state, and on success
// appends the outgoing message and consumes the draft.
func (s *ConversationService) RecordSend(ctx context.Context, id string, status model.SendLogStatus, action model.SendAction, detail string) (model.SendLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return model.SendLog{}, ErrNotFound
	}

	now := s.now()
	entry := model.SendLog{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: id,
		ThreadKey:      conv.summary.ThreadKey,
		Action:         action,
		Status:         status,
		Detail:         detail,
		CreatedAt:      now,
	}
	conv.sendLogs = append([]model.SendLog{entry}, conv.sendLogs...)
	conv.summary.SendAction = action
	conv.summary.UpdatedAt = now

	switch status {
	case model.SendLogSent:
		if conv.draft != nil {
			s.nextMsgID++
			conv.messages = append(conv.messages, model.ThreadMessage{
				ID:        s.nextMsgID,
				ThreadKey: conv.summary.ThreadKey,
				Direction: model.DirectionOutgoing,
				Body:      conv.draft.Content,
				SentAt:    now,
			})
			conv.draft = nil
		}
		conv.summary.Status = model.StatusSent
	case model.SendLogBlocked:
		conv.summary.Status = model.StatusBlocked
	}

	return entry, nil
}
