package store

import (
	"time"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
)

// ReadFilter selects conversations by their read flag.
type ReadFilter string

const (
	ReadFilterAll    ReadFilter = "all"
	ReadFilterUnread ReadFilter = "unread"
	ReadFilterRead   ReadFilter = "read"
)

// Filters is the conjunction of active list filters. Zero values mean
// pass-through.
type Filters struct {
	Read       ReadFilter
	Status     model.Status
	Safety     model.SafetyStatus
	ThreadKey  string // case-insensitive substring match
	SendAction model.SendAction
}

// SetFilters replaces all filter state in one step.
func (c *ConversationCache) SetFilters(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = f
}

// SetReadFilter sets the read/unread filter. Setters trigger no
// recomputation; the view is derived lazily in FilteredView.
func (c *ConversationCache) SetReadFilter(f ReadFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Read = f
}

// SetStatusFilter sets the workflow status filter; empty clears it.
func (c *ConversationCache) SetStatusFilter(s model.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Status = s
}

// SetSafetyFilter sets the safety status filter; empty clears it.
func (c *ConversationCache) SetSafetyFilter(s model.SafetyStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Safety = s
}

// SetThreadKeyFilter sets the thread key substring filter; empty clears it.
func (c *ConversationCache) SetThreadKeyFilter(substr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.ThreadKey = substr
}

// SetSendActionFilter sets the send action filter; empty clears it.
func (c *ConversationCache) SetSendActionFilter(a model.SendAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.SendAction = a
}

// ActiveFilters returns a snapshot of the current filter state.
func (c *ConversationCache) ActiveFilters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SummaryPatch is a shallow partial update for a cached summary. Nil fields
// are left untouched.
type SummaryPatch struct {
	Status        *model.Status
	SafetyStatus  *model.SafetyStatus
	IsRead        *bool
	LastMessageID *int64
	SendAction    *model.SendAction
	UpdatedAt     *time.Time
	PropertyCode  *string
	GuestName     *string
	CheckinDate   *string
	CheckoutDate  *string
}

func (p *SummaryPatch) apply(s *model.ConversationSummary) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.SafetyStatus != nil {
		s.SafetyStatus = *p.SafetyStatus
	}
	if p.IsRead != nil {
		s.IsRead = *p.IsRead
	}
	if p.LastMessageID != nil {
		s.LastMessageID = p.LastMessageID
	}
	if p.SendAction != nil {
		s.SendAction = *p.SendAction
	}
	if p.UpdatedAt != nil {
		s.UpdatedAt = *p.UpdatedAt
	}
	if p.PropertyCode != nil {
		s.PropertyCode = *p.PropertyCode
	}
	if p.GuestName != nil {
		s.GuestName = *p.GuestName
	}
	if p.CheckinDate != nil {
		s.CheckinDate = *p.CheckinDate
	}
	if p.CheckoutDate != nil {
		s.CheckoutDate = *p.CheckoutDate
	}
}
