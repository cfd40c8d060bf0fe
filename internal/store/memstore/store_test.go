package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/model/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
	"github.com/zhouzirui/anchor/backend/internal/store/memstore"
)

func TestAppendTurnAssignsIDAndKeepsMood(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	turn, err := s.AppendTurn(ctx, chat.NewDraft("u1", "I am so worried", chat.SenderUser))
	require.NoError(t, err)

	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, mood.Anxious, turn.Mood)
	assert.False(t, turn.CreatedAt.IsZero())
}

func TestAppendTurnRejectsEmptyContent(t *testing.T) {
	s := memstore.New()

	_, err := s.AppendTurn(context.Background(), chat.NewDraft("u1", "", chat.SenderUser))
	require.Error(t, err)

	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.True(t, errors.Is(err, store.ErrEmptyContent))
}

func TestListTurnsOrderAndLimit(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.AppendTurn(ctx, chat.NewDraft("u1", fmt.Sprintf("m%d", i), chat.SenderUser))
		require.NoError(t, err)
	}
	_, err := s.AppendTurn(ctx, chat.NewDraft("u2", "other user", chat.SenderUser))
	require.NoError(t, err)

	desc, err := s.ListTurns(ctx, "u1", 3, store.Descending)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "m4", desc[0].Content)
	assert.Equal(t, "m2", desc[2].Content)

	asc, err := s.ListTurns(ctx, "u1", 0, store.Ascending)
	require.NoError(t, err)
	require.Len(t, asc, 5)
	assert.Equal(t, "m0", asc[0].Content)
}

func TestCreatedAtIsNonDecreasing(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	i := 0
	s := memstore.New().WithClock(func() time.Time {
		ts := ticks[i]
		i++
		return ts
	})
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.AppendTurn(ctx, chat.NewDraft("u1", text, chat.SenderUser))
		require.NoError(t, err)
	}

	turns, err := s.ListTurns(ctx, "u1", 0, store.Ascending)
	require.NoError(t, err)
	assert.Equal(t, base, turns[1].CreatedAt)
	assert.Equal(t, base.Add(time.Second), turns[2].CreatedAt)
}

func TestMemoriesPatchAndIsolation(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	created, err := s.CreateMemory(ctx, memory.Memory{UserID: "u1", Title: "first", Feelings: []string{"proud"}})
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, memory.Memory{UserID: "u1", Title: "second"})
	require.NoError(t, err)

	listed, err := s.ListMemories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "second", listed[0].Title)

	listed[1].Feelings[0] = "mutated"
	again, err := s.ListMemories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "proud", again[1].Feelings[0])
	assert.Equal(t, created.ID, again[1].ID)

	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, s.PatchMemories(ctx, "u1", store.MemoryPatch{BackedUpAt: at}))

	patched, err := s.ListMemories(ctx, "u1")
	require.NoError(t, err)
	for _, m := range patched {
		require.NotNil(t, m.BackedUpAt)
		assert.Equal(t, at, *m.BackedUpAt)
	}
}

func TestMissingUserIsRejected(t *testing.T) {
	s := memstore.New()
	_, err := s.ListTurns(context.Background(), "", 10, store.Descending)
	assert.ErrorIs(t, err, store.ErrUserRequired)
}

type recordingPublisher struct{ turns []chat.Turn }

func (r *recordingPublisher) Publish(turn chat.Turn) { r.turns = append(r.turns, turn) }

func TestWithPublisherPublishesStoredTurns(t *testing.T) {
	pub := &recordingPublisher{}
	s := store.WithPublisher(memstore.New(), pub)
	ctx := context.Background()

	turn, err := s.AppendTurn(ctx, chat.NewDraft("u1", "hello", chat.SenderUser))
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, chat.NewDraft("u1", "", chat.SenderUser))
	require.Error(t, err)

	require.Len(t, pub.turns, 1)
	assert.Equal(t, turn.ID, pub.turns[0].ID)
}
