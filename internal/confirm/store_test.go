package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreClaimIsOneShot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	b := Binding{ConversationID: "c1", ContentHash: "abc"}
	require.NoError(t, s.Put(ctx, "tok", b, time.Minute))

	got, err := s.Claim(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = s.Claim(ctx, "tok")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Claim(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok", Binding{ConversationID: "c1"}, time.Minute))

	now = now.Add(time.Minute + time.Second)
	_, err := s.Claim(ctx, "tok")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// The expired entry is gone, not resurrectable.
	_, err = s.Claim(ctx, "tok")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
