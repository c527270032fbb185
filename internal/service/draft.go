package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/llm"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/safety"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/metrics"
)

const draftSystemPrompt = `You are a reply assistant for a short-term rental host team.
Write a warm, concise reply to the guest's latest message. Stay on the booking
platform: never share phone numbers, email addresses, or payment details, and
never promise refunds or discounts. If you cannot help, say the team will
follow up.`

// DraftService generates and edits reply drafts and keeps the conversation's
// workflow status aligned with each draft's safety verdict.
type DraftService struct {
	conversations *ConversationService
	llmClient     llm.Client
	classifier    *safety.Classifier
	logger        *logger.Logger
	model         string
	now           func() time.Time
}

// NewDraftService creates a new draft service. llmClient may be nil, which
// disables generation but still allows operator-authored drafts.
func NewDraftService(
	conversations *ConversationService,
	llmClient llm.Client,
	classifier *safety.Classifier,
	log *logger.Logger,
	draftModel string,
) *DraftService {
	return &DraftService{
		conversations: conversations,
		llmClient:     llmClient,
		classifier:    classifier,
		logger:        log,
		model:         draftModel,
		now:           time.Now,
	}
}

// Generate produces an AI draft reply from the thread history.
func (s *DraftService) Generate(ctx context.Context, id string) (*model.DraftReply, error) {
	if s.llmClient == nil {
		return nil, ErrDraftGenerationUnavailable
	}

	detail, err := s.conversations.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chat := make([]llm.ChatMessage, 0, len(detail.Messages))
	for _, msg := range detail.Messages {
		role := "user"
		if msg.Direction == model.DirectionOutgoing {
			role = "assistant"
		}
		chat = append(chat, llm.ChatMessage{Role: role, Content: msg.Body})
	}

	system := draftSystemPrompt
	if detail.Summary.GuestName != "" {
		system += fmt.Sprintf("\nGuest name: %s.", detail.Summary.GuestName)
	}
	if detail.Summary.CheckinDate != "" {
		system += fmt.Sprintf(" Stay: %s to %s.", detail.Summary.CheckinDate, detail.Summary.CheckoutDate)
	}

	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:    s.model,
		System:   system,
		Messages: chat,
	})
	if err != nil {
		metrics.RecordDraftGeneration(s.model, "error", 0, 0, 0)
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	verdict := s.classifier.Classify(resp.Content)
	metrics.SafetyVerdictsTotal.WithLabelValues(string(verdict.Status)).Inc()
	metrics.RecordDraftGeneration(resp.Model, "success", float64(resp.LatencyMs)/1000, resp.TokensIn, resp.TokensOut)

	now := s.now()
	draft := &model.DraftReply{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ThreadKey:    detail.Summary.ThreadKey,
		Content:      resp.Content,
		SafetyStatus: verdict.Status,
		Model:        &resp.Model,
		TokensIn:     &resp.TokensIn,
		TokensOut:    &resp.TokensOut,
		LatencyMs:    &resp.LatencyMs,
		GeneratedAt:  now,
		UpdatedAt:    now,
	}

	if err := s.conversations.PutDraft(ctx, id, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft generated",
		zap.String("conversation_id", id),
		zap.String("safety_status", string(verdict.Status)),
		zap.Strings("safety_reasons", verdict.Reasons),
	)
	return draft, nil
}

// Save stores an operator-edited draft, re-classifying the new content and
// re-deriving the workflow status from the fresh verdict.
func (s *DraftService) Save(ctx context.Context, id, content string) (*model.DraftReply, error) {
	detail, err := s.conversations.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	verdict := s.classifier.Classify(content)
	metrics.SafetyVerdictsTotal.WithLabelValues(string(verdict.Status)).Inc()

	now := s.now()
	draft := &model.DraftReply{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ThreadKey:    detail.Summary.ThreadKey,
		Content:      content,
		SafetyStatus: verdict.Status,
		GeneratedAt:  now,
		UpdatedAt:    now,
	}
	if detail.Draft != nil {
		// An edit keeps the draft's identity and generation metadata.
		draft.ID = detail.Draft.ID
		draft.Model = detail.Draft.Model
		draft.TokensIn = detail.Draft.TokensIn
		draft.TokensOut = detail.Draft.TokensOut
		draft.LatencyMs = detail.Draft.LatencyMs
		draft.GeneratedAt = detail.Draft.GeneratedAt
	}

	if err := s.conversations.PutDraft(ctx, id, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft saved",
		zap.String("conversation_id", id),
		zap.String("safety_status", string(verdict.Status)),
	)
	return draft, nil
}
