// Package memory creates and lists user-curated memories.
package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	model "github.com/zhouzirui/anchor/backend/internal/model/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

// Service 处理回忆的创建与查询。
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a memory service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger.Named("memory")}
}

// Create validates draft and stores it. Validation failures never reach the store.
// A draft without conversation ids snapshots the ids of the user's current turns.
func (s *Service) Create(ctx context.Context, userID string, draft model.Draft) (model.Memory, error) {
	draft, err := draft.Validate()
	if err != nil {
		return model.Memory{}, err
	}

	convIDs := draft.ConversationIDs
	if len(convIDs) == 0 {
		turns, err := s.store.ListTurns(ctx, userID, 0, store.Ascending)
		if err != nil {
			return model.Memory{}, err
		}
		convIDs = chat.IDs(turns)
	}

	created, err := s.store.CreateMemory(ctx, model.Memory{
		UserID:          userID,
		Title:           draft.Title,
		Description:     draft.Description,
		Feelings:        draft.Feelings,
		SpecialDates:    draft.SpecialDates,
		ConversationIDs: convIDs,
	})
	if err != nil {
		return model.Memory{}, err
	}

	s.logger.Info("memory created",
		zap.String("user_id", userID),
		zap.String("memory_id", created.ID),
		zap.Int("conversation_refs", len(convIDs)),
	)
	return created, nil
}

// List returns the user's memories, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]model.Memory, error) {
	return s.store.ListMemories(ctx, userID)
}
