// Package memstore keeps conversations and memories in process memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/model/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

// Store is an in-memory store.Store suitable for development and tests.
type Store struct {
	mu       sync.RWMutex
	turns    map[string][]chat.Turn
	memories map[string][]memory.Memory
	now      func() time.Time
}

// New bootstraps an empty in-memory store.
func New() *Store {
	return &Store{
		turns:    make(map[string][]chat.Turn),
		memories: make(map[string][]memory.Memory),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// AppendTurn stores a turn. createdAt never goes backwards within a user's log.
func (s *Store) AppendTurn(_ context.Context, draft chat.Draft) (chat.Turn, error) {
	if err := store.CheckDraft(draft); err != nil {
		return chat.Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	existing := s.turns[draft.UserID]
	if n := len(existing); n > 0 && createdAt.Before(existing[n-1].CreatedAt) {
		createdAt = existing[n-1].CreatedAt
	}

	turn := chat.Turn{
		ID:        uuid.NewString(),
		UserID:    draft.UserID,
		Content:   draft.Content,
		Sender:    draft.Sender,
		Mood:      draft.Mood,
		CreatedAt: createdAt,
	}
	s.turns[draft.UserID] = append(existing, turn)
	return turn, nil
}

// ListTurns returns a copy of the user's turns in the requested order.
func (s *Store) ListTurns(_ context.Context, userID string, limit int, order store.Order) ([]chat.Turn, error) {
	if userID == "" {
		return nil, store.Wrap("list turns", store.ErrUserRequired)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[userID]
	n := len(turns)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]chat.Turn, 0, limit)
	if order == store.Descending {
		for i := n - 1; i >= n-limit; i-- {
			out = append(out, turns[i])
		}
		return out, nil
	}
	return append(out, turns[:limit]...), nil
}

// CreateMemory stores m under a fresh id.
func (s *Store) CreateMemory(_ context.Context, m memory.Memory) (memory.Memory, error) {
	if m.UserID == "" {
		return memory.Memory{}, store.Wrap("create memory", store.ErrUserRequired)
	}

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.memories[m.UserID] = append(s.memories[m.UserID], cloneMemory(m))
	s.mu.Unlock()

	return m, nil
}

// ListMemories returns the user's memories, newest first.
func (s *Store) ListMemories(_ context.Context, userID string) ([]memory.Memory, error) {
	if userID == "" {
		return nil, store.Wrap("list memories", store.ErrUserRequired)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.memories[userID]
	out := make([]memory.Memory, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, cloneMemory(items[i]))
	}
	return out, nil
}

// PatchMemories applies patch to every memory owned by userID.
func (s *Store) PatchMemories(_ context.Context, userID string, patch store.MemoryPatch) error {
	if userID == "" {
		return store.Wrap("patch memories", store.ErrUserRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backedUpAt := patch.BackedUpAt
	for i := range s.memories[userID] {
		ts := backedUpAt
		s.memories[userID][i].BackedUpAt = &ts
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneMemory(m memory.Memory) memory.Memory {
	m.Feelings = append([]string{}, m.Feelings...)
	m.SpecialDates = append([]string{}, m.SpecialDates...)
	m.ConversationIDs = append([]string{}, m.ConversationIDs...)
	if m.BackedUpAt != nil {
		ts := *m.BackedUpAt
		m.BackedUpAt = &ts
	}
	return m
}

var _ store.Store = (*Store)(nil)
