package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleUser, Text: "hello", OccurredAt: time.Now()}))
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleAssistant, Text: "hi there", OccurredAt: time.Now()}))

	turns, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, RoleAssistant, turns[1].Role)
}

func TestMemoryStoreRejectsInvalidRole(t *testing.T) {
	s := NewMemoryStore()
	err := s.Append(context.Background(), 1, Turn{Role: "system", Text: "nope"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	turns, err := s.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemoryStoreHistoryIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleUser, Text: "from one"}))
	require.NoError(t, s.Append(ctx, 2, Turn{Role: RoleUser, Text: "from two"}))

	turns, err := s.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "from two", turns[0].Text)
}

func TestMemoryStoreHistoryReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleUser, Text: "original"}))

	turns, err := s.History(ctx, 1)
	require.NoError(t, err)
	turns[0].Text = "mutated"

	again, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Text)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleUser, Text: "a"}))
	require.NoError(t, s.Append(ctx, 2, Turn{Role: RoleUser, Text: "b"}))

	require.NoError(t, s.Clear(ctx, 1))

	one, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, one)

	two, err := s.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 1)
}

func TestMemoryStoreClearAllAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleUser, Text: "a"}))
	require.NoError(t, s.Append(ctx, 1, Turn{Role: RoleAssistant, Text: "b"}))
	require.NoError(t, s.Append(ctx, 2, Turn{Role: RoleUser, Text: "c"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Messages: 3}, stats)

	require.NoError(t, s.ClearAll(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
