package model

import (
	"time"
)

// DraftReply is a not-yet-sent reply associated with one conversation thread.
// ThreadKey must match the owning conversation's thread key before any send.
type DraftReply struct {
	ID           string       `json:"id"`
	ThreadKey    string       `json:"thread_key"`
	Content      string       `json:"content"`
	SafetyStatus SafetyStatus `json:"safety_status"`

	// Generation metadata, absent for operator-authored edits.
	Model     *string `json:"model,omitempty"`
	TokensIn  *int    `json:"tokens_in,omitempty"`
	TokensOut *int    `json:"tokens_out,omitempty"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SendLogStatus is the outcome of one send attempt.
type SendLogStatus string

const (
	SendLogSent    SendLogStatus = "sent"
	SendLogFailed  SendLogStatus = "failed"
	SendLogBlocked SendLogStatus = "blocked"
)

// SendLog is one recorded send attempt for a conversation.
type SendLog struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	ThreadKey      string        `json:"thread_key"`
	Action         SendAction    `json:"action"`
	Status         SendLogStatus `json:"status"`
	Detail         string        `json:"detail,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SaveDraftRequest is the request to save an operator-edited draft.
type SaveDraftRequest struct {
	Content string `json:"content"`
}

// ConfirmTokenResponse carries a one-shot send confirmation token.
type ConfirmTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendRequest is the request to send the current draft.
type SendRequest struct {
	ConfirmToken string `json:"confirm_token"`
}

// BulkSendRequest is the request to send drafts for multiple conversations.
type BulkSendRequest struct {
	ConversationIDs []string `json:"conversation_ids"`
}

// BulkSendResult is the per-conversation outcome of a bulk send.
type BulkSendResult struct {
	ConversationID string `json:"conversation_id"`
	Sent           bool   `json:"sent"`
	Error          string `json:"error,omitempty"`
}

// BulkSendResponse is the response for a bulk send.
type BulkSendResponse struct {
	Results []BulkSendResult `json:"results"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
}
