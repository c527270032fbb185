// Package model defines data structures for the operations console.
package model

import (
	"time"
)

// Channel identifies the messaging provider a conversation lives on.
// Airbnb threads are the only channel this deployment handles.
type Channel string

const (
	ChannelAirbnb Channel = "airbnb"
)

// Status is the reply-workflow state of a conversation.
type Status string

const (
	StatusOpen        Status = "open"
	StatusNeedsReview Status = "needs_review"
	StatusReadyToSend Status = "ready_to_send"
	StatusSent        Status = "sent"
	StatusBlocked     Status = "blocked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusNeedsReview, StatusReadyToSend, StatusSent, StatusBlocked:
		return true
	}
	return false
}

// SafetyStatus is the moderation verdict gating whether a draft may be sent.
type SafetyStatus string

const (
	SafetyPass   SafetyStatus = "pass"
	SafetyReview SafetyStatus = "review"
	SafetyBlock  SafetyStatus = "block"
)

// Valid reports whether s is a known safety status.
func (s SafetyStatus) Valid() bool {
	switch s {
	case SafetyPass, SafetyReview, SafetyBlock:
		return true
	}
	return false
}

// SendAction records the most recent send activity on a conversation.
type SendAction string

const (
	SendActionNone   SendAction = "none"
	SendActionManual SendAction = "manual"
	SendActionBulk   SendAction = "bulk"
)

// ConversationSummary is the list-view projection of a guest conversation.
// One conversation exists per thread key per channel.
type ConversationSummary struct {
	ID            string       `json:"id"`
	Channel       Channel      `json:"channel"`
	ThreadKey     string       `json:"thread_key"`
	PropertyCode  string       `json:"property_code,omitempty"`
	Status        Status       `json:"status"`
	SafetyStatus  SafetyStatus `json:"safety_status"`
	IsRead        bool         `json:"is_read"`
	LastMessageID *int64       `json:"last_message_id,omitempty"`
	SendAction    SendAction   `json:"send_action"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Display-only guest and reservation metadata.
	GuestName    string `json:"guest_name,omitempty"`
	CheckinDate  string `json:"checkin_date,omitempty"`
	CheckoutDate string `json:"checkout_date,omitempty"`
}

// ConversationDetail is the detail-view projection: the summary plus the full
// thread, the current draft, and prior send attempts (most recent first).
type ConversationDetail struct {
	Summary  ConversationSummary `json:"summary"`
	Messages []ThreadMessage     `json:"messages"`
	Draft    *DraftReply         `json:"draft,omitempty"`
	SendLogs []SendLog           `json:"send_logs"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}

// MarkReadResponse is the response after toggling the read flag.
type MarkReadResponse struct {
	ID     string `json:"id"`
	IsRead bool   `json:"is_read"`
}
