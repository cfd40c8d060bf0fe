package store

import (
	"context"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
)

// TurnPublisher is notified after a turn has been stored.
type TurnPublisher interface {
	Publish(turn chat.Turn)
}

type publishingStore struct {
	Store
	pub TurnPublisher
}

// WithPublisher decorates s so every successful AppendTurn is published.
func WithPublisher(s Store, pub TurnPublisher) Store {
	if pub == nil {
		return s
	}
	return &publishingStore{Store: s, pub: pub}
}

func (p *publishingStore) AppendTurn(ctx context.Context, draft chat.Draft) (chat.Turn, error) {
	turn, err := p.Store.AppendTurn(ctx, draft)
	if err != nil {
		return chat.Turn{}, err
	}
	p.pub.Publish(turn)
	return turn, nil
}
