// Package store defines the persistence collaborator for conversations and memories.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/model/memory"
)

var (
	ErrUserRequired = errors.New("user id is required")
	ErrEmptyContent = errors.New("turn content is required")
	ErrNotFound     = errors.New("record not found")
)

// Order selects the createdAt ordering of a listing.
type Order int

const (
	Ascending Order = iota
	Descending
)

// MemoryPatch lists the memory columns a bulk patch may touch.
type MemoryPatch struct {
	BackedUpAt time.Time
}

// Store is the append-only turn log plus the memory collection, scoped by user.
// A limit <= 0 in ListTurns means no limit.
type Store interface {
	ListTurns(ctx context.Context, userID string, limit int, order Order) ([]chat.Turn, error)
	AppendTurn(ctx context.Context, draft chat.Draft) (chat.Turn, error)
	ListMemories(ctx context.Context, userID string) ([]memory.Memory, error)
	CreateMemory(ctx context.Context, m memory.Memory) (memory.Memory, error)
	PatchMemories(ctx context.Context, userID string, patch MemoryPatch) error
	Close() error
}

// Error wraps a persistence failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, an existing *Error unchanged, or a new *Error.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// CheckDraft rejects turns that can never be stored.
func CheckDraft(draft chat.Draft) error {
	if draft.UserID == "" {
		return Wrap("append turn", ErrUserRequired)
	}
	if draft.Content == "" {
		return Wrap("append turn", ErrEmptyContent)
	}
	return nil
}
