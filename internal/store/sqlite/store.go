// Package sqlite stores conversations and memories in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/model/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

// Fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a store.Store backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTurn inserts a turn. seq and created_at are kept monotonic per user inside one transaction.
func (s *Store) AppendTurn(ctx context.Context, draft chat.Draft) (chat.Turn, error) {
	if err := store.CheckDraft(draft); err != nil {
		return chat.Turn{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Turn{}, store.Wrap("append turn", err)
	}
	defer tx.Rollback()

	var (
		lastSeq     sql.NullInt64
		lastCreated sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, created_at FROM conversations WHERE user_id = ? ORDER BY seq DESC LIMIT 1`,
		draft.UserID,
	).Scan(&lastSeq, &lastCreated)
	if err != nil && err != sql.ErrNoRows {
		return chat.Turn{}, store.Wrap("append turn", err)
	}

	createdAt := s.now()
	if lastCreated.Valid {
		if prev, perr := time.Parse(timeLayout, lastCreated.String); perr == nil && createdAt.Before(prev) {
			createdAt = prev
		}
	}

	turn := chat.Turn{
		ID:        uuid.NewString(),
		UserID:    draft.UserID,
		Content:   draft.Content,
		Sender:    draft.Sender,
		Mood:      draft.Mood,
		CreatedAt: createdAt,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, seq, user_id, content, sender, detected_mood, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, lastSeq.Int64+1, turn.UserID, turn.Content, string(turn.Sender), string(turn.Mood), createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return chat.Turn{}, store.Wrap("append turn", err)
	}

	if err := tx.Commit(); err != nil {
		return chat.Turn{}, store.Wrap("append turn", err)
	}
	return turn, nil
}

// ListTurns returns the user's turns in the requested order.
func (s *Store) ListTurns(ctx context.Context, userID string, limit int, order store.Order) ([]chat.Turn, error) {
	if userID == "" {
		return nil, store.Wrap("list turns", store.ErrUserRequired)
	}

	direction := "ASC"
	if order == store.Descending {
		direction = "DESC"
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, sender, detected_mood, created_at FROM conversations WHERE user_id = ? ORDER BY seq `+direction+` LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, store.Wrap("list turns", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0)
	for rows.Next() {
		var (
			turn              chat.Turn
			sender, label, ts string
		)
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.Content, &sender, &label, &ts); err != nil {
			return nil, store.Wrap("list turns", err)
		}
		turn.Sender, _ = chat.ParseSender(sender)
		if m, ok := mood.ParseMood(label); ok {
			turn.Mood = m
		} else {
			turn.Mood = mood.Neutral
		}
		if turn.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, store.Wrap("list turns", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list turns", err)
	}
	return turns, nil
}

// CreateMemory inserts m under a fresh id.
func (s *Store) CreateMemory(ctx context.Context, m memory.Memory) (memory.Memory, error) {
	if m.UserID == "" {
		return memory.Memory{}, store.Wrap("create memory", store.ErrUserRequired)
	}

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	feelings, dates, convIDs, err := encodeLists(m)
	if err != nil {
		return memory.Memory{}, store.Wrap("create memory", err)
	}

	var backedUp any
	if m.BackedUpAt != nil {
		backedUp = m.BackedUpAt.UTC().Format(timeLayout)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, title, description, feelings, special_dates, conversation_ids, created_at, backed_up_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Title, m.Description, feelings, dates, convIDs, m.CreatedAt.UTC().Format(timeLayout), backedUp,
	)
	if err != nil {
		return memory.Memory{}, store.Wrap("create memory", err)
	}
	return m, nil
}

// ListMemories returns the user's memories, newest first.
func (s *Store) ListMemories(ctx context.Context, userID string) ([]memory.Memory, error) {
	if userID == "" {
		return nil, store.Wrap("list memories", store.ErrUserRequired)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, feelings, special_dates, conversation_ids, created_at, backed_up_at
		 FROM memories WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, store.Wrap("list memories", err)
	}
	defer rows.Close()

	out := make([]memory.Memory, 0)
	for rows.Next() {
		var (
			m                        memory.Memory
			feelings, dates, convIDs string
			created                  string
			backedUp                 sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Description, &feelings, &dates, &convIDs, &created, &backedUp); err != nil {
			return nil, store.Wrap("list memories", err)
		}
		if err := decodeLists(&m, feelings, dates, convIDs); err != nil {
			return nil, store.Wrap("list memories", err)
		}
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, store.Wrap("list memories", err)
		}
		if backedUp.Valid {
			ts, err := time.Parse(timeLayout, backedUp.String)
			if err != nil {
				return nil, store.Wrap("list memories", err)
			}
			m.BackedUpAt = &ts
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list memories", err)
	}
	return out, nil
}

// PatchMemories sets backed_up_at on every memory owned by userID.
func (s *Store) PatchMemories(ctx context.Context, userID string, patch store.MemoryPatch) error {
	if userID == "" {
		return store.Wrap("patch memories", store.ErrUserRequired)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET backed_up_at = ? WHERE user_id = ?`,
		patch.BackedUpAt.UTC().Format(timeLayout), userID,
	)
	return store.Wrap("patch memories", err)
}

func encodeLists(m memory.Memory) (string, string, string, error) {
	lists := [][]string{m.Feelings, m.SpecialDates, m.ConversationIDs}
	out := make([]string, len(lists))
	for i, list := range lists {
		if list == nil {
			list = []string{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return "", "", "", err
		}
		out[i] = string(raw)
	}
	return out[0], out[1], out[2], nil
}

func decodeLists(m *memory.Memory, feelings, dates, convIDs string) error {
	targets := []*[]string{&m.Feelings, &m.SpecialDates, &m.ConversationIDs}
	for i, raw := range []string{feelings, dates, convIDs} {
		list := []string{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return fmt.Errorf("decode list column: %w", err)
			}
		}
		*targets[i] = list
	}
	return nil
}

var _ store.Store = (*Store)(nil)
