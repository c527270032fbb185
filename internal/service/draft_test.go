package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwdnr95/tono-operation-sub000/internal/llm"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/safety"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

type fakeLLM struct {
	reply   string
	err     error
	lastReq *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{
		Content:   f.reply,
		Model:     "test-model",
		TokensIn:  42,
		TokensOut: 17,
		LatencyMs: 120,
	}, nil
}

func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return []string{"test-model"} }

func newDraftService(conversations *ConversationService, client llm.Client) *DraftService {
	return NewDraftService(conversations, client, safety.NewClassifier(), logger.NewNop(), "test-model")
}

func TestGenerateProducesReadyDraft(t *testing.T) {
	conversations := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, conversations, "thread-1", "What time is check-in?")

	fake := &fakeLLM{reply: "Hi Maria! Check-in starts at 3pm; the code is in the app."}
	drafts := newDraftService(conversations, fake)

	draft, err := drafts.Generate(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SafetyPass, draft.SafetyStatus)
	assert.Equal(t, "thread-1", draft.ThreadKey)
	require.NotNil(t, draft.Model)
	assert.Equal(t, "test-model", *draft.Model)

	// Thread history reaches the LLM with direction-mapped roles.
	require.NotNil(t, fake.lastReq)
	require.Len(t, fake.lastReq.Messages, 1)
	assert.Equal(t, "user", fake.lastReq.Messages[0].Role)
	assert.NotEmpty(t, fake.lastReq.System)

	detail, err := conversations.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyToSend, detail.Summary.Status)
}

func TestGenerateRiskyContentNeedsReview(t *testing.T) {
	conversations := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, conversations, "thread-1", "The heating is broken.")

	fake := &fakeLLM{reply: "So sorry! We can refund one night for the trouble."}
	drafts := newDraftService(conversations, fake)

	draft, err := drafts.Generate(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SafetyReview, draft.SafetyStatus)

	detail, err := conversations.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsReview, detail.Summary.Status)
}

func TestGenerateWithoutLLM(t *testing.T) {
	conversations := newTestConversations(t)
	summary := ingest(t, conversations, "thread-1", "Hi")
	drafts := newDraftService(conversations, nil)

	_, err := drafts.Generate(context.Background(), summary.ID)
	assert.ErrorIs(t, err, ErrDraftGenerationUnavailable)
}

func TestGenerateLLMFailure(t *testing.T) {
	conversations := newTestConversations(t)
	summary := ingest(t, conversations, "thread-1", "Hi")
	drafts := newDraftService(conversations, &fakeLLM{err: errors.New("rate limited")})

	_, err := drafts.Generate(context.Background(), summary.ID)
	require.Error(t, err)

	detail, err := conversations.Get(context.Background(), summary.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Draft, "failed generation leaves no draft behind")
	assert.Equal(t, model.StatusOpen, detail.Summary.Status)
}

func TestSaveReclassifiesEditedContent(t *testing.T) {
	conversations := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, conversations, "thread-1", "Hi")

	fake := &fakeLLM{reply: "We can refund the cleaning fee."}
	drafts := newDraftService(conversations, fake)

	generated, err := drafts.Generate(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SafetyReview, generated.SafetyStatus)

	// Operator removes the commitment; the draft becomes sendable.
	saved, err := drafts.Save(ctx, summary.ID, "Thanks for flagging this, our team is on it today.")
	require.NoError(t, err)
	assert.Equal(t, model.SafetyPass, saved.SafetyStatus)
	assert.Equal(t, generated.ID, saved.ID, "edit keeps the draft identity")
	assert.Equal(t, generated.Model, saved.Model)

	detail, err := conversations.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyToSend, detail.Summary.Status)
}

func TestSaveBlockedContentLocksConversation(t *testing.T) {
	conversations := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, conversations, "thread-1", "Hi")
	drafts := newDraftService(conversations, nil)

	saved, err := drafts.Save(ctx, summary.ID, "Just text me on WhatsApp.")
	require.NoError(t, err)
	assert.Equal(t, model.SafetyBlock, saved.SafetyStatus)

	detail, err := conversations.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlocked, detail.Summary.Status)
}
