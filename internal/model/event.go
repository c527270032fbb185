package model

// RefreshScope names how much cached state a refresh event invalidates.
type RefreshScope string

const (
	RefreshScopeAll          RefreshScope = "all"
	RefreshScopeConversation RefreshScope = "conversation"
)

// RefreshEvent tells console sessions that server-side state changed outside
// their knowledge and cached details can no longer be trusted.
type RefreshEvent struct {
	Type           string       `json:"type"`
	Scope          RefreshScope `json:"scope"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Reason         string       `json:"reason,omitempty"`
}

// NewRefreshEvent builds a refresh event. An empty conversation id widens the
// scope to the whole cache.
func NewRefreshEvent(scope RefreshScope, conversationID, reason string) RefreshEvent {
	return RefreshEvent{
		Type:           "refresh",
		Scope:          scope,
		ConversationID: conversationID,
		Reason:         reason,
	}
}
