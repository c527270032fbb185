package service

import (
	"errors"
)

var (
	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoDraft is returned when an operation needs a draft and none exists.
	ErrNoDraft = errors.New("conversation has no draft")

	// ErrThreadKeyMismatch is returned when a draft's thread key does not
	// match its conversation's thread key.
	ErrThreadKeyMismatch = errors.New("draft thread key does not match conversation")

	// ErrNotReady is returned when sending a conversation that is not in the
	// ready_to_send state.
	ErrNotReady = errors.New("conversation is not ready to send")

	// ErrSafetyBlocked is returned when the draft's safety verdict forbids
	// sending.
	ErrSafetyBlocked = errors.New("draft is blocked by safety policy")

	// ErrNeedsReview is returned when the draft still needs operator review.
	ErrNeedsReview = errors.New("draft needs operator review")

	// ErrConfirmToken is returned for a missing, expired, reused, or
	// mismatched confirmation token.
	ErrConfirmToken = errors.New("send confirmation token rejected")

	// ErrDraftGenerationUnavailable is returned when no LLM provider is
	// configured.
	ErrDraftGenerationUnavailable = errors.New("draft generation is not configured")
)
