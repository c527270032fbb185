package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

func newTestConversations(t *testing.T) *ConversationService {
	t.Helper()
	return NewConversationService(logger.NewNop())
}

func ingest(t *testing.T, s *ConversationService, threadKey, body string) model.ConversationSummary {
	t.Helper()
	summary, err := s.Ingest(context.Background(), model.InboundMessage{
		ThreadKey: threadKey,
		GuestName: "Maria",
		Body:      body,
	})
	require.NoError(t, err)
	return summary
}

func passDraft(threadKey, content string) *model.DraftReply {
	now := time.Now()
	return &model.DraftReply{
		ID:           "draft-1",
		ThreadKey:    threadKey,
		Content:      content,
		SafetyStatus: model.SafetyPass,
		GeneratedAt:  now,
		UpdatedAt:    now,
	}
}

func TestIngestCreatesConversationPerThread(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()

	first := ingest(t, s, "thread-1", "Hi, what time is check-in?")
	assert.Equal(t, model.StatusOpen, first.Status)
	assert.False(t, first.IsRead)
	assert.Equal(t, model.ChannelAirbnb, first.Channel)
	require.NotNil(t, first.LastMessageID)

	second := ingest(t, s, "thread-1", "Also, is parking included?")
	assert.Equal(t, first.ID, second.ID, "same thread reuses the conversation")
	assert.Greater(t, *second.LastMessageID, *first.LastMessageID)

	other := ingest(t, s, "thread-2", "Hello!")
	assert.NotEqual(t, first.ID, other.ID)

	detail, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 2)
	assert.Equal(t, model.DirectionIncoming, detail.Messages[0].Direction)
}

func TestIngestDropsPendingDraftAndReopens(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()

	summary := ingest(t, s, "thread-1", "What time is check-in?")
	require.NoError(t, s.PutDraft(ctx, summary.ID, passDraft("thread-1", "Check-in is at 3pm.")))

	detail, err := s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyToSend, detail.Summary.Status)
	require.NotNil(t, detail.Draft)

	ingest(t, s, "thread-1", "Actually we arrive at midnight.")

	detail, err = s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, detail.Summary.Status)
	assert.Nil(t, detail.Draft, "new guest message invalidates the draft")
	assert.False(t, detail.Summary.IsRead)
}

func TestMarkRead(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, s, "thread-1", "Hi")

	require.NoError(t, s.MarkRead(ctx, summary.ID, true))
	detail, err := s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.True(t, detail.Summary.IsRead)

	require.NoError(t, s.MarkRead(ctx, summary.ID, false))
	detail, err = s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.False(t, detail.Summary.IsRead)

	assert.ErrorIs(t, s.MarkRead(ctx, "missing", true), ErrNotFound)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []model.Status
		wantErr error
	}{
		{"open to review to ready", []model.Status{model.StatusNeedsReview, model.StatusReadyToSend}, nil},
		{"ready to sent", []model.Status{model.StatusReadyToSend, model.StatusSent}, nil},
		{"open straight to ready", []model.Status{model.StatusReadyToSend}, nil},
		{"anything to blocked", []model.Status{model.StatusNeedsReview, model.StatusBlocked}, nil},
		{"blocked back to review", []model.Status{model.StatusBlocked, model.StatusNeedsReview}, nil},
		{"open to sent is invalid", []model.Status{model.StatusSent}, ErrInvalidTransition},
		{"sent is terminal", []model.Status{model.StatusReadyToSend, model.StatusSent, model.StatusOpen}, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestConversations(t)
			ctx := context.Background()
			summary := ingest(t, s, "thread-1", "Hi")

			var err error
			for _, to := range tt.path {
				if err = s.Transition(ctx, summary.ID, to); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransitionToReadyBlockedBySafety(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, s, "thread-1", "Hi")

	draft := passDraft("thread-1", "Pay me on Venmo")
	draft.SafetyStatus = model.SafetyBlock
	require.NoError(t, s.PutDraft(ctx, summary.ID, draft))

	err := s.Transition(ctx, summary.ID, model.StatusReadyToSend)
	assert.ErrorIs(t, err, ErrSafetyBlocked)
}

func TestPutDraftDerivesStatusFromVerdict(t *testing.T) {
	tests := []struct {
		verdict model.SafetyStatus
		want    model.Status
	}{
		{model.SafetyPass, model.StatusReadyToSend},
		{model.SafetyReview, model.StatusNeedsReview},
		{model.SafetyBlock, model.StatusBlocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			s := newTestConversations(t)
			ctx := context.Background()
			summary := ingest(t, s, "thread-1", "Hi")

			draft := passDraft("thread-1", "content")
			draft.SafetyStatus = tt.verdict
			require.NoError(t, s.PutDraft(ctx, summary.ID, draft))

			detail, err := s.Get(ctx, summary.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, detail.Summary.Status)
			assert.Equal(t, tt.verdict, detail.Summary.SafetyStatus)
		})
	}
}

func TestPutDraftRejectsThreadKeyMismatch(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, s, "thread-1", "Hi")

	err := s.PutDraft(ctx, summary.ID, passDraft("other-thread", "Hello"))
	assert.ErrorIs(t, err, ErrThreadKeyMismatch)

	detail, err := s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Draft)
}

func TestRecordSendConsumesDraftAndAppendsOutgoing(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, s, "thread-1", "Hi")
	require.NoError(t, s.PutDraft(ctx, summary.ID, passDraft("thread-1", "Check-in is at 3pm.")))

	entry, err := s.RecordSend(ctx, summary.ID, model.SendLogSent, model.SendActionManual, "")
	require.NoError(t, err)
	assert.Equal(t, model.SendLogSent, entry.Status)

	detail, err := s.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, detail.Summary.Status)
	assert.Equal(t, model.SendActionManual, detail.Summary.SendAction)
	assert.Nil(t, detail.Draft)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, model.DirectionOutgoing, detail.Messages[1].Direction)
	assert.Equal(t, "Check-in is at 3pm.", detail.Messages[1].Body)
	require.Len(t, detail.SendLogs, 1)
	assert.Equal(t, entry.ID, detail.SendLogs[0].ID)
}

func TestSendLogsMostRecentFirst(t *testing.T) {
	s := newTestConversations(t)
	ctx := context.Background()
	summary := ingest(t, s, "thread-1", "Hi")
	require.NoError(t, s.PutDraft(ctx, summary.ID, passDraft("thread-1", "Reply")))

	_, err := s.RecordSend(ctx, summary.ID, model.SendLogFailed, model.SendActionManual, "network error")
	require.NoError(t, err)
	second, err := s.RecordSend(ctx, summary.ID, model.SendLogSent, model.SendActionManual, "")
	require.NoError(t, err)

	detail, err := s.Get(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, detail.SendLogs, 2)
	assert.Equal(t, second.ID, detail.SendLogs[0].ID)
	assert.Equal(t, model.SendLogFailed, detail.SendLogs[1].Status)
}

func TestGetUnknownConversation(t *testing.T) {
	s := newTestConversations(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByThreadKey(t *testing.T) {
	s := newTestConversations(t)
	summary := ingest(t, s, "thread-1", "Hi")

	detail, err := s.GetByThreadKey(context.Background(), "thread-1")
	require.NoError(t, err)
	assert.Equal(t, summary.ID, detail.Summary.ID)

	_, err = s.GetByThreadKey(context.Background(), "thread-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
