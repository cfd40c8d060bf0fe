package companion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

const (
	// DefaultWindowSize is how many recent turns feed a prompt.
	DefaultWindowSize = 10

	FreshConversation  = "This is the start of our conversation."
	HistoryUnavailable = "Unable to fetch conversation history."

	userSpeaker = "You"
)

// TurnLister is the slice of store.Store the window reads from.
type TurnLister interface {
	ListTurns(ctx context.Context, userID string, limit int, order store.Order) ([]chat.Turn, error)
}

// Window 负责把最近的对话整理成提示词上下文。
type Window struct {
	Turns       TurnLister
	Limit       int
	Timeout     time.Duration
	SpeakerName string
	Logger      *zap.Logger
}

func (w Window) limit() int {
	if w.Limit <= 0 {
		return DefaultWindowSize
	}
	return w.Limit
}

// Build fetches the most recent turns and formats them oldest first.
// A failed fetch degrades to HistoryUnavailable instead of returning an error.
func (w Window) Build(ctx context.Context, userID string) string {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	turns, err := w.Turns.ListTurns(ctx, userID, w.limit(), store.Descending)
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("failed to fetch conversation context", zap.String("user_id", userID), zap.Error(err))
		}
		return HistoryUnavailable
	}

	// 按时间倒序取出，翻转成正序。
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return w.Format(turns)
}

// Format renders oldest-first turns, keeping only the most recent Limit of them.
func (w Window) Format(turns []chat.Turn) string {
	if len(turns) == 0 {
		return FreshConversation
	}
	if n := w.limit(); len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	companion := w.SpeakerName
	if companion == "" {
		companion = "Anchor"
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := companion
		if t.Sender == chat.SenderUser {
			speaker = userSpeaker
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", speaker, t.Mood, t.Content))
	}
	return strings.Join(lines, "\n")
}
