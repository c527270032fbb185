package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/internal/store"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

type fixture struct {
	conversations *service.ConversationService
	manager       *Manager
	now           time.Time
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	f.conversations = service.NewConversationService(logger.NewNop(), service.WithClock(clock))
	f.manager = NewManager(f.conversations, logger.NewNop(), ttl, WithClock(clock))
	return f
}

func (f *fixture) ingest(t *testing.T, threadKey string) model.ConversationSummary {
	t.Helper()
	summary, err := f.conversations.Ingest(context.Background(), model.InboundMessage{
		ThreadKey: threadKey,
		Body:      "Hello!",
	})
	require.NoError(t, err)
	return summary
}

func TestSessionSeedsOnFirstAccess(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	f.ingest(t, "thread-1")
	f.ingest(t, "thread-2")

	cache := f.manager.Session(ctx, "op-1")
	assert.True(t, cache.Initialized())
	assert.Equal(t, 2, cache.Len())

	// Same operator gets the same cache; another operator gets their own.
	assert.Same(t, cache, f.manager.Session(ctx, "op-1"))
	assert.NotSame(t, cache, f.manager.Session(ctx, "op-2"))
}

func TestDetailReadThroughAndTTL(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	summary := f.ingest(t, "thread-1")

	detail, err := f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.ID, detail.Summary.ID)

	// Mutate the authoritative state behind the cache's back. Within the
	// TTL the session still serves the cached projection.
	require.NoError(t, f.conversations.MarkRead(ctx, summary.ID, true))
	detail, err = f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)
	assert.False(t, detail.Summary.IsRead, "fresh cache served without re-fetch")

	// Past the TTL the read-through refetches.
	f.now = f.now.Add(2 * time.Minute)
	detail, err = f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)
	assert.True(t, detail.Summary.IsRead)
}

func TestDetailSyncsSummaryProjection(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	summary := f.ingest(t, "thread-1")
	cache := f.manager.Session(ctx, "op-1")

	require.NoError(t, f.conversations.MarkRead(ctx, summary.ID, true))
	f.now = f.now.Add(2 * time.Minute)

	_, err := f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)

	view := cache.FilteredView()
	require.Len(t, view, 1)
	assert.True(t, view[0].IsRead, "detail fetch syncs the list projection")
}

func TestDetailUnknownConversation(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.manager.Detail(context.Background(), "op-1", "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	cache := f.manager.Session(context.Background(), "op-1")
	assert.NotEmpty(t, cache.LastError())
}

func TestHandleRefreshConversationScope(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	summary := f.ingest(t, "thread-1")

	_, err := f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)

	require.NoError(t, f.conversations.MarkRead(ctx, summary.ID, true))
	f.manager.HandleRefresh(ctx, model.NewRefreshEvent(model.RefreshScopeConversation, summary.ID, "send"))

	// Long TTL, but the push event already re-synced the projection.
	detail, err := f.manager.Detail(ctx, "op-1", summary.ID)
	require.NoError(t, err)
	assert.True(t, detail.Summary.IsRead)
}

func TestHandleRefreshSurfacesNewConversation(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	first := f.ingest(t, "thread-1")

	cache := f.manager.Session(ctx, "op-1")
	require.Equal(t, 1, cache.Len())

	// A new guest thread arrives after the session seeded; the webhook
	// announces it with a conversation-scoped refresh.
	second := f.ingest(t, "thread-2")
	f.manager.HandleRefresh(ctx, model.NewRefreshEvent(model.RefreshScopeConversation, second.ID, "inbound_message"))

	view := cache.FilteredView()
	require.Len(t, view, 2)
	got := []string{view[0].ID, view[1].ID}
	assert.Contains(t, got, first.ID)
	assert.Contains(t, got, second.ID)
}

func TestHandleRefreshAllScope(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	first := f.ingest(t, "thread-1")

	cache := f.manager.Session(ctx, "op-1")
	_, err := f.manager.Detail(ctx, "op-1", first.ID)
	require.NoError(t, err)

	// A conversation created outside the session's knowledge.
	second := f.ingest(t, "thread-2")

	f.manager.HandleRefresh(ctx, model.NewRefreshEvent(model.RefreshScopeAll, "", "bulk_send"))

	assert.Equal(t, 2, cache.Len(), "list re-seeded with the new conversation")
	_, ok := cache.Detail(first.ID)
	assert.False(t, ok, "all cached details invalidated")

	view := cache.FilteredView()
	ids := []string{view[0].ID, view[1].ID}
	assert.Contains(t, ids, second.ID)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	f.ingest(t, "thread-1")

	cache := f.manager.Session(ctx, "op-1")
	require.Equal(t, 1, cache.Len())

	f.manager.EndSession("op-1")
	assert.False(t, cache.Initialized(), "session cache reset")

	// Next access builds a fresh session.
	fresh := f.manager.Session(ctx, "op-1")
	assert.NotSame(t, cache, fresh)
	assert.True(t, fresh.Initialized())
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	summary := f.ingest(t, "thread-1")

	one := f.manager.Session(ctx, "op-1")
	two := f.manager.Session(ctx, "op-2")

	one.SetFilters(store.Filters{Read: store.ReadFilterRead})
	one.MarkRead(summary.ID)

	assert.Empty(t, two.ActiveFilters().Read)
	view := two.FilteredView()
	require.Len(t, view, 1)
	assert.False(t, view[0].IsRead, "optimistic patch is session-local")
}
