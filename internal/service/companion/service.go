// Package companion turns a user's message into a stored, mood-tagged reply.
package companion

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
	"github.com/zhouzirui/anchor/backend/internal/metrics"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

// ErrEmptyMessage rejects blank input before anything is stored.
var ErrEmptyMessage = errors.New("message is required")

// Result is the outcome of one Respond call.
type Result struct {
	Reply  string     `json:"response"`
	Mood   mood.Mood  `json:"mood"`
	Source Source     `json:"source"`
	Turn   *chat.Turn `json:"turn,omitempty"`
}

// Exchange pairs the stored user turn with the companion's answer.
type Exchange struct {
	User  chat.Turn `json:"user"`
	Reply Result    `json:"reply"`
}

// Service 串联上下文构建、回复生成与持久化。
type Service struct {
	store   store.Store
	window  Window
	synth   *Synthesizer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewService wires the exchange flow. contextTimeout bounds the history fetch.
func NewService(s store.Store, synth *Synthesizer, contextTimeout time.Duration, logger *zap.Logger, m *metrics.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("companion")
	return &Service{
		store: s,
		window: Window{
			Turns:       s,
			Limit:       DefaultWindowSize,
			Timeout:     contextTimeout,
			SpeakerName: synth.Persona().Name,
			Logger:      logger,
		},
		synth:   synth,
		logger:  logger,
		metrics: m,
	}
}

// Window exposes the context builder, mainly for the CLI.
func (s *Service) Window() Window {
	return s.window
}

// Respond generates and stores the companion's reply to message.
// The stored turn is tagged with the reply's own mood. When the append fails the
// reply is still returned alongside the *store.Error.
func (s *Service) Respond(ctx context.Context, userID, message string) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, ErrEmptyMessage
	}
	if userID == "" {
		return Result{}, store.Wrap("append turn", store.ErrUserRequired)
	}

	conversation := s.window.Build(ctx, userID)
	reply := s.synth.Generate(ctx, conversation, message)

	draft := chat.NewDraft(userID, reply.Text, chat.SenderCompanion)
	result := Result{Reply: reply.Text, Mood: draft.Mood, Source: reply.Source}

	turn, err := s.store.AppendTurn(ctx, draft)
	if err != nil {
		s.logger.Error("failed to store reply", zap.String("user_id", userID), zap.Error(err))
		return result, err
	}
	s.metrics.ObserveTurn(string(turn.Sender), string(turn.Mood))
	result.Turn = &turn

	s.logger.Debug("reply stored",
		zap.String("user_id", userID),
		zap.String("source", string(reply.Source)),
		zap.String("input_mood", string(reply.InputMood)),
		zap.String("mood", string(turn.Mood)),
	)
	return result, nil
}

// Send stores the user's message and then asks for a reply.
// A failure storing the user turn is returned and no reply is generated.
func (s *Service) Send(ctx context.Context, userID, message string) (Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Exchange{}, ErrEmptyMessage
	}

	userTurn, err := s.store.AppendTurn(ctx, chat.NewDraft(userID, message, chat.SenderUser))
	if err != nil {
		return Exchange{}, err
	}
	s.metrics.ObserveTurn(string(userTurn.Sender), string(userTurn.Mood))

	reply, err := s.Respond(ctx, userID, message)
	return Exchange{User: userTurn, Reply: reply}, err
}

// History returns up to limit turns, oldest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	turns, err := s.store.ListTurns(ctx, userID, limit, store.Descending)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Summary reports the mood distribution of everything the user has said.
func (s *Service) Summary(ctx context.Context, userID string) (mood.Summary, error) {
	turns, err := s.store.ListTurns(ctx, userID, 0, store.Ascending)
	if err != nil {
		return mood.Summary{}, err
	}

	userTurns := make([]chat.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Sender == chat.SenderUser {
			userTurns = append(userTurns, t)
		}
	}
	return mood.Summarize(chat.Moods(userTurns)), nil
}
