package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateThreadKey validates a channel thread key.
func ValidateThreadKey(key string) error {
	if len(key) == 0 {
		return errors.New("thread key cannot be empty")
	}
	if len(key) > 128 {
		return errors.New("thread key exceeds maximum length")
	}
	if !utf8.ValidString(key) {
		return errors.New("thread key must be valid UTF-8")
	}
	return nil
}

// ValidateDraftContent validates draft reply content.
func ValidateDraftContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 20000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateMessageBody validates an inbound guest message body.
func ValidateMessageBody(body string) error {
	if len(body) == 0 {
		return errors.New("body cannot be empty")
	}
	if len(body) > 100000 {
		return errors.New("body exceeds maximum length")
	}
	if !utf8.ValidString(body) {
		return errors.New("body must be valid UTF-8")
	}
	return nil
}
