// Package store implements the in-memory conversation cache backing one
// console session: the full set of fetched summaries, a TTL-bounded detail
// cache, filter and selection state, and derivation of the filtered view.
//
// A cache is an explicitly constructed value, not ambient state; every
// session owns its own instance. All operations are synchronous and atomic
// with respect to each other. Patch-style operations on unknown ids are
// silent no-ops; syncing a detail for an unlisted conversation adds it.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
)

type cachedDetail struct {
	detail    model.ConversationDetail
	fetchedAt time.Time
}

// ConversationCache is the single source of truth for one session's
// conversation list, detail cache, and filter/selection state.
type ConversationCache struct {
	mu  sync.Mutex
	now func() time.Time

	summaries []model.ConversationSummary
	index     map[string]int

	details  map[string]cachedDetail
	inflight map[string]chan struct{}

	filters    Filters
	selectedID string

	initialized   bool
	listLoading   bool
	detailLoading bool
	lastError     string
}

// Option configures a ConversationCache.
type Option func(*ConversationCache)

// WithClock overrides the time source, used for staleness tests.
func WithClock(now func() time.Time) Option {
	return func(c *ConversationCache) {
		c.now = now
	}
}

// New creates an empty conversation cache.
func New(opts ...Option) *ConversationCache {
	c := &ConversationCache{
		now:      time.Now,
		index:    make(map[string]int),
		details:  make(map[string]cachedDetail),
		inflight: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReplaceAll overwrites the full cached list, deduplicating by id (first
// occurrence wins), and marks the cache initialized. Idempotent.
func (c *ConversationCache) ReplaceAll(items []model.ConversationSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summaries = c.summaries[:0]
	c.index = make(map[string]int, len(items))
	for _, item := range items {
		if _, ok := c.index[item.ID]; ok {
			continue
		}
		c.index[item.ID] = len(c.summaries)
		c.summaries = append(c.summaries, item)
	}
	c.initialized = true
	c.lastError = ""
}

// Append merges new items into the cache. Existing entries are never
// overwritten; duplicates within items keep the first occurrence.
func (c *ConversationCache) Append(items []model.ConversationSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range items {
		if _, ok := c.index[item.ID]; ok {
			continue
		}
		c.index[item.ID] = len(c.summaries)
		c.summaries = append(c.summaries, item)
	}
	c.lastError = ""
}

// Patch applies a shallow merge onto one cached summary. It reports whether
// the patch was applied; an unknown id is a no-op.
func (c *ConversationCache) Patch(id string, patch SummaryPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patchLocked(id, patch)
}

func (c *ConversationCache) patchLocked(id string, patch SummaryPatch) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	patch.apply(&c.summaries[i])
	return true
}

// SetDetail stores or overwrites the cached detail for id and stamps the
// fetch time. It does not touch the corresponding summary; callers that need
// both projections consistent use ApplyDetailAndSync.
func (c *ConversationCache) SetDetail(id string, detail model.ConversationDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.details[id] = cachedDetail{detail: detail, fetchedAt: c.now()}
	c.lastError = ""
}

// ApplyDetailAndSync atomically stores the detail and replaces the cached
// summary with the detail's embedded summary, so the list and detail views
// cannot disagree. A conversation the list has never seen is appended, so
// push-refreshed conversations created after the session seeded still join
// the list.
func (c *ConversationCache) ApplyDetailAndSync(id string, detail model.ConversationDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.details[id] = cachedDetail{detail: detail, fetchedAt: c.now()}
	if i, ok := c.index[id]; ok {
		c.summaries[i] = detail.Summary
	} else {
		c.index[id] = len(c.summaries)
		c.summaries = append(c.summaries, detail.Summary)
	}
	c.lastError = ""
}

// Detail returns the cached detail for id, if any.
func (c *ConversationCache) Detail(id string) (model.ConversationDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.details[id]
	return entry.detail, ok
}

// InvalidateDetail removes the cached detail for id so the next access
// forces a re-fetch.
func (c *ConversationCache) InvalidateDetail(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.details, id)
}

// InvalidateAllDetails removes every cached detail. Used after bulk
// operations and push refresh notifications, which can change any number of
// conversations outside the session's knowledge.
func (c *ConversationCache) InvalidateAllDetails() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details = make(map[string]cachedDetail)
}

// IsDetailStale reports whether the cached detail for id is missing or older
// than ttl.
func (c *ConversationCache) IsDetailStale(id string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.details[id]
	if !ok {
		return true
	}
	return c.now().Sub(entry.fetchedAt) > ttl
}

// MarkRead optimistically sets the read flag before the persisting call
// completes and returns a rollback closure restoring the prior flag. The
// caller must invoke the rollback if persistence fails; the cache does not
// retry or compensate on its own. Rollback for an unknown id is a no-op.
func (c *ConversationCache) MarkRead(id string) (rollback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return func() {}
	}
	prev := c.summaries[i].IsRead
	c.summaries[i].IsRead = true

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if j, ok := c.index[id]; ok {
			c.summaries[j].IsRead = prev
		}
	}
}

// BeginFetch registers an in-flight detail fetch for id. When another fetch
// is already running it returns that fetch's done channel and started=false;
// the caller should wait on it and read the cache instead of racing a second
// request. The fetch owner must call EndFetch when the result is cached.
func (c *ConversationCache) BeginFetch(id string) (done <-chan struct{}, started bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.inflight[id]; ok {
		return ch, false
	}
	ch := make(chan struct{})
	c.inflight[id] = ch
	return ch, true
}

// EndFetch completes the in-flight fetch for id, waking any joined waiters.
func (c *ConversationCache) EndFetch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.inflight[id]; ok {
		close(ch)
		delete(c.inflight, id)
	}
}

// Select sets the conversation shown in the detail pane.
func (c *ConversationCache) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = id
}

// SelectedDetail returns the cached detail for the selected conversation.
func (c *ConversationCache) SelectedDetail() (model.ConversationDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID == "" {
		return model.ConversationDetail{}, false
	}
	entry, ok := c.details[c.selectedID]
	return entry.detail, ok
}

// Initialized reports whether the first full list fetch has completed.
func (c *ConversationCache) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// SetListLoading records whether a list fetch is in progress.
func (c *ConversationCache) SetListLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listLoading = loading
}

// SetDetailLoading records whether a detail fetch is in progress.
func (c *ConversationCache) SetDetailLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailLoading = loading
}

// Loading reports the list and detail loading flags.
func (c *ConversationCache) Loading() (list, detail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listLoading, c.detailLoading
}

// SetError records a failure message reported by calling code.
func (c *ConversationCache) SetError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = msg
}

// ClearError clears the recorded failure message.
func (c *ConversationCache) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
}

// LastError returns the most recently recorded failure message.
func (c *ConversationCache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Len returns the number of cached summaries.
func (c *ConversationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.summaries)
}

// Reset clears all state back to initial defaults. Used on session end.
func (c *ConversationCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summaries = nil
	c.index = make(map[string]int)
	c.details = make(map[string]cachedDetail)
	for id, ch := range c.inflight {
		close(ch)
		delete(c.inflight, id)
	}
	c.filters = Filters{}
	c.selectedID = ""
	c.initialized = false
	c.listLoading = false
	c.detailLoading = false
	c.lastError = ""
}

// FilteredView returns the summaries matching the conjunction of the active
// filters, sorted descending by UpdatedAt. Relative order of equal UpdatedAt
// values is unspecified. The result is a copy; mutating it does not affect
// the cache.
func (c *ConversationCache) FilteredView() []model.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.ConversationSummary, 0, len(c.summaries))
	for _, s := range c.summaries {
		if c.filters.matches(&s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// matches reports whether s satisfies every active filter.
func (f *Filters) matches(s *model.ConversationSummary) bool {
	switch f.Read {
	case ReadFilterUnread:
		if s.IsRead {
			return false
		}
	case ReadFilterRead:
		if !s.IsRead {
			return false
		}
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Safety != "" && s.SafetyStatus != f.Safety {
		return false
	}
	if f.ThreadKey != "" && !strings.Contains(strings.ToLower(s.ThreadKey), strings.ToLower(f.ThreadKey)) {
		return false
	}
	if f.SendAction != "" && s.SendAction != f.SendAction {
		return false
	}
	return true
}
