package chat

import (
	"strings"
	"time"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
)

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderCompanion Sender = "companion"
)

// ParseSender 兼容旧数据中的 "anchor" 与 "assistant" 写法。
func ParseSender(raw string) (Sender, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return SenderUser, true
	case "companion", "anchor", "assistant":
		return SenderCompanion, true
	default:
		return "", false
	}
}

// Turn is one stored message of a user's conversation. Turns are immutable once stored.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Mood      mood.Mood `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is a turn that has been authored but not yet stored.
type Draft struct {
	UserID  string
	Content string
	Sender  Sender
	Mood    mood.Mood
}

// NewDraft tags content with its mood at authoring time.
func NewDraft(userID, content string, sender Sender) Draft {
	return Draft{
		UserID:  userID,
		Content: content,
		Sender:  sender,
		Mood:    mood.Classify(content),
	}
}

// Moods extracts the mood labels of turns in order.
func Moods(turns []Turn) []mood.Mood {
	out := make([]mood.Mood, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Mood)
	}
	return out
}

// IDs extracts the turn identifiers in order.
func IDs(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.ID)
	}
	return out
}
