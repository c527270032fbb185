package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID("0190c1a6-5a80-7b9e-b9a5-2c1f6d3f4a01"))
	assert.Error(t, ValidateConversationID(""))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
}

func TestValidateThreadKey(t *testing.T) {
	assert.NoError(t, ValidateThreadKey("airbnb-thread-8842"))
	assert.Error(t, ValidateThreadKey(""))
	assert.Error(t, ValidateThreadKey(strings.Repeat("x", 129)))
	assert.Error(t, ValidateThreadKey("bad\xff"))
}

func TestValidateDraftContent(t *testing.T) {
	assert.NoError(t, ValidateDraftContent("Check-in is at 3pm."))
	assert.Error(t, ValidateDraftContent(""))
	assert.Error(t, ValidateDraftContent(strings.Repeat("a", 20001)))
}
