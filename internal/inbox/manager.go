// Package inbox owns per-operator console sessions. Each session wraps one
// conversation cache seeded from the authoritative conversation state and
// kept coherent through mutation hooks and push refresh events.
package inbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/internal/store"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/metrics"
)

// Manager creates and tracks inbox sessions.
type Manager struct {
	conversations *service.ConversationService
	logger        *logger.Logger
	detailTTL     time.Duration
	clock         func() time.Time

	mu       sync.Mutex
	sessions map[string]*store.ConversationCache
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used by session caches, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.clock = now
	}
}

// NewManager creates a session manager.
func NewManager(conversations *service.ConversationService, log *logger.Logger, detailTTL time.Duration, opts ...Option) *Manager {
	m := &Manager{
		conversations: conversations,
		logger:        log,
		detailTTL:     detailTTL,
		clock:         time.Now,
		sessions:      make(map[string]*store.ConversationCache),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the operator's cache, creating and seeding it on first
// access with the full conversation list.
func (m *Manager) Session(ctx context.Context, operatorID string) *store.ConversationCache {
	m.mu.Lock()
	cache, ok := m.sessions[operatorID]
	if !ok {
		cache = store.New(store.WithClock(m.clock))
		m.sessions[operatorID] = cache
		metrics.SessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !cache.Initialized() {
		cache.SetListLoading(true)
		cache.ReplaceAll(m.conversations.List(ctx))
		cache.SetListLoading(false)
		m.logger.Debug("inbox session seeded", zap.String("operator_id", operatorID))
	}
	return cache
}

// EndSession resets and drops the operator's cache.
func (m *Manager) EndSession(operatorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cache, ok := m.sessions[operatorID]; ok {
		cache.Reset()
		delete(m.sessions, operatorID)
		metrics.SessionsActive.Set(float64(len(m.sessions)))
	}
}

// Detail is the staleness-checked read-through for one conversation detail.
// A fresh cached copy is served directly; otherwise the caller either starts
// the fetch or joins one already in flight and reads its result.
func (m *Manager) Detail(ctx context.Context, operatorID, id string) (model.ConversationDetail, error) {
	cache := m.Session(ctx, operatorID)

	if !cache.IsDetailStale(id, m.detailTTL) {
		if detail, ok := cache.Detail(id); ok {
			metrics.CacheReads.WithLabelValues("hit").Inc()
			return detail, nil
		}
	}

	done, started := cache.BeginFetch(id)
	if !started {
		metrics.CacheReads.WithLabelValues("joined").Inc()
		select {
		case <-done:
		case <-ctx.Done():
			return model.ConversationDetail{}, ctx.Err()
		}
		if detail, ok := cache.Detail(id); ok {
			return detail, nil
		}
		// The fetch we joined failed; fall through and try ourselves.
		done, started = cache.BeginFetch(id)
		if !started {
			select {
			case <-done:
			case <-ctx.Done():
				return model.ConversationDetail{}, ctx.Err()
			}
			if detail, ok := cache.Detail(id); ok {
				return detail, nil
			}
			return model.ConversationDetail{}, service.ErrNotFound
		}
	}
	defer cache.EndFetch(id)
	if _, ok := cache.Detail(id); ok {
		metrics.CacheReads.WithLabelValues("stale").Inc()
	} else {
		metrics.CacheReads.WithLabelValues("miss").Inc()
	}

	cache.SetDetailLoading(true)
	detail, err := m.conversations.Get(ctx, id)
	cache.SetDetailLoading(false)
	if err != nil {
		cache.SetError(err.Error())
		return model.ConversationDetail{}, err
	}

	cache.ApplyDetailAndSync(id, detail)
	return detail, nil
}

// AfterMutation pulls the fresh detail for a changed conversation into the
// operator's cache, keeping both projections consistent.
func (m *Manager) AfterMutation(ctx context.Context, operatorID, id string) (model.ConversationDetail, error) {
	cache := m.Session(ctx, operatorID)

	detail, err := m.conversations.Get(ctx, id)
	if err != nil {
		cache.SetError(err.Error())
		return model.ConversationDetail{}, err
	}
	cache.ApplyDetailAndSync(id, detail)
	return detail, nil
}

// HandleRefresh applies a push refresh event to every live session. A
// conversation-scoped event invalidates one detail and re-syncs its summary;
// anything wider drops all cached details and re-seeds the list, since the
// change may span conversations the session has never fetched.
func (m *Manager) HandleRefresh(ctx context.Context, ev model.RefreshEvent) {
	metrics.RefreshEventsTotal.WithLabelValues(string(ev.Scope)).Inc()

	m.mu.Lock()
	caches := make([]*store.ConversationCache, 0, len(m.sessions))
	for _, cache := range m.sessions {
		caches = append(caches, cache)
	}
	m.mu.Unlock()

	if ev.Scope == model.RefreshScopeConversation && ev.ConversationID != "" {
		detail, err := m.conversations.Get(ctx, ev.ConversationID)
		for _, cache := range caches {
			cache.InvalidateDetail(ev.ConversationID)
			if err == nil {
				cache.ApplyDetailAndSync(ev.ConversationID, detail)
			}
		}
		return
	}

	items := m.conversations.List(ctx)
	for _, cache := range caches {
		cache.InvalidateAllDetails()
		cache.ReplaceAll(items)
	}
	m.logger.Debug("sessions refreshed",
		zap.String("scope", string(ev.Scope)),
		zap.String("reason", ev.Reason),
		zap.Int("sessions", len(caches)),
	)
}
