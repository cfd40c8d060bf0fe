// Package supabase persists conversations and memories through Supabase PostgREST.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/model/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

const (
	conversationsTable = "conversations"
	memoriesTable      = "memories"

	// 线上表沿用旧的 sender 取值。
	companionSender = "anchor"
)

// Store talks to the conversations and memories tables with the service role key.
type Store struct {
	client *supa.Client
}

// New creates a PostgREST-backed store.
func New(url, serviceKey string) (*Store, error) {
	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

type turnRow struct {
	ID           string    `json:"id,omitempty"`
	UserID       string    `json:"user_id"`
	Content      string    `json:"content"`
	Sender       string    `json:"sender"`
	DetectedMood string    `json:"detected_mood"`
	CreatedAt    time.Time `json:"created_at"`
}

type memoryRow struct {
	ID              string     `json:"id,omitempty"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Feelings        []string   `json:"feelings"`
	SpecialDates    []string   `json:"special_dates"`
	ConversationIDs []string   `json:"conversation_ids"`
	CreatedAt       time.Time  `json:"created_at"`
	BackedUpAt      *time.Time `json:"backed_up_at"`
}

type turnInsert struct {
	UserID       string `json:"user_id"`
	Content      string `json:"content"`
	Sender       string `json:"sender"`
	DetectedMood string `json:"detected_mood"`
}

type memoryInsert struct {
	UserID          string   `json:"user_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Feelings        []string `json:"feelings"`
	SpecialDates    []string `json:"special_dates"`
	ConversationIDs []string `json:"conversation_ids"`
}

// call runs fn but returns as soon as ctx ends. postgrest-go has no context support, so an
// abandoned request finishes in the background and its result is dropped.
func call[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, store.Wrap(op, err)
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, store.Wrap(op, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return zero, store.Wrap(op, r.err)
		}
		return r.value, nil
	}
}

// ListTurns reads the user's conversation rows. The request is bounded by ctx.
func (s *Store) ListTurns(ctx context.Context, userID string, limit int, order store.Order) ([]chat.Turn, error) {
	if userID == "" {
		return nil, store.Wrap("list turns", store.ErrUserRequired)
	}

	query := s.client.From(conversationsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: order == store.Ascending})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	rows, err := call(ctx, "list turns", func() ([]turnRow, error) {
		var rows []turnRow
		_, err := query.ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return nil, err
	}

	turns := make([]chat.Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, row.toTurn())
	}
	return turns, nil
}

// AppendTurn inserts a row and returns the representation Postgres stored.
func (s *Store) AppendTurn(ctx context.Context, draft chat.Draft) (chat.Turn, error) {
	if err := store.CheckDraft(draft); err != nil {
		return chat.Turn{}, err
	}
	sender := string(draft.Sender)
	if draft.Sender == chat.SenderCompanion {
		sender = companionSender
	}

	row := turnInsert{
		UserID:       draft.UserID,
		Content:      draft.Content,
		Sender:       sender,
		DetectedMood: string(draft.Mood),
	}
	rows, err := call(ctx, "append turn", func() ([]turnRow, error) {
		var rows []turnRow
		_, err := s.client.From(conversationsTable).
			Insert(row, false, "", "representation", "").
			ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return chat.Turn{}, err
	}
	if len(rows) == 0 {
		return chat.Turn{}, store.Wrap("append turn", store.ErrNotFound)
	}
	return rows[0].toTurn(), nil
}

// ListMemories returns the user's memories, newest first.
func (s *Store) ListMemories(ctx context.Context, userID string) ([]memory.Memory, error) {
	if userID == "" {
		return nil, store.Wrap("list memories", store.ErrUserRequired)
	}
	rows, err := call(ctx, "list memories", func() ([]memoryRow, error) {
		var rows []memoryRow
		_, err := s.client.From(memoriesTable).
			Select("*", "", false).
			Eq("user_id", userID).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]memory.Memory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toMemory())
	}
	return out, nil
}

// CreateMemory inserts m. The id and created_at come from the database defaults.
func (s *Store) CreateMemory(ctx context.Context, m memory.Memory) (memory.Memory, error) {
	if m.UserID == "" {
		return memory.Memory{}, store.Wrap("create memory", store.ErrUserRequired)
	}
	row := memoryInsert{
		UserID:          m.UserID,
		Title:           m.Title,
		Description:     m.Description,
		Feelings:        nonNil(m.Feelings),
		SpecialDates:    nonNil(m.SpecialDates),
		ConversationIDs: nonNil(m.ConversationIDs),
	}
	rows, err := call(ctx, "create memory", func() ([]memoryRow, error) {
		var rows []memoryRow
		_, err := s.client.From(memoriesTable).
			Insert(row, false, "", "representation", "").
			ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return memory.Memory{}, err
	}
	if len(rows) == 0 {
		return memory.Memory{}, store.Wrap("create memory", store.ErrNotFound)
	}
	return rows[0].toMemory(), nil
}

// PatchMemories updates backed_up_at on all of the user's memories.
func (s *Store) PatchMemories(ctx context.Context, userID string, patch store.MemoryPatch) error {
	if userID == "" {
		return store.Wrap("patch memories", store.ErrUserRequired)
	}
	values := map[string]string{"backed_up_at": patch.BackedUpAt.UTC().Format(time.RFC3339Nano)}
	_, err := call(ctx, "patch memories", func() (struct{}, error) {
		_, _, err := s.client.From(memoriesTable).
			Update(values, "minimal", "").
			Eq("user_id", userID).
			Execute()
		return struct{}{}, err
	})
	return err
}

// Close is a no-op; the HTTP client has nothing to release.
func (s *Store) Close() error { return nil }

func (r turnRow) toTurn() chat.Turn {
	sender, ok := chat.ParseSender(r.Sender)
	if !ok {
		sender = chat.SenderUser
	}
	label, ok := mood.ParseMood(r.DetectedMood)
	if !ok {
		label = mood.Neutral
	}
	return chat.Turn{
		ID:        r.ID,
		UserID:    r.UserID,
		Content:   r.Content,
		Sender:    sender,
		Mood:      label,
		CreatedAt: r.CreatedAt,
	}
}

func (r memoryRow) toMemory() memory.Memory {
	return memory.Memory{
		ID:              r.ID,
		UserID:          r.UserID,
		Title:           r.Title,
		Description:     r.Description,
		Feelings:        nonNil(r.Feelings),
		SpecialDates:    nonNil(r.SpecialDates),
		ConversationIDs: nonNil(r.ConversationIDs),
		CreatedAt:       r.CreatedAt,
		BackedUpAt:      r.BackedUpAt,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

var _ store.Store = (*Store)(nil)
