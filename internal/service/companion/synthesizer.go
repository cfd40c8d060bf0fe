package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
	"github.com/zhouzirui/anchor/backend/internal/metrics"
	"github.com/zhouzirui/anchor/backend/internal/model/persona"
	"github.com/zhouzirui/anchor/backend/internal/service/ai"
)

// ErrUpstreamUnavailable marks a model failure. It is logged, never returned.
var ErrUpstreamUnavailable = errors.New("language model unavailable")

// Source records where a reply came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Reply is the synthesized text plus how it was produced.
type Reply struct {
	Text      string    `json:"text"`
	Source    Source    `json:"source"`
	InputMood mood.Mood `json:"inputMood"`
}

// SynthesizerConfig 控制回复生成。零值字段使用默认值。
type SynthesizerConfig struct {
	Persona persona.Persona
	Options ai.Options
	Timeout time.Duration
	Table   *mood.FallbackTable
	Random  mood.RandomSource
}

// Synthesizer 优先调用大模型，失败时静默回退到按情绪挑选的预设回复。
type Synthesizer struct {
	generator ai.Generator
	persona   persona.Persona
	opts      ai.Options
	timeout   time.Duration
	table     *mood.FallbackTable
	random    mood.RandomSource
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewSynthesizer accepts a nil generator; every reply then comes from the fallback table.
func NewSynthesizer(gen ai.Generator, cfg SynthesizerConfig, logger *zap.Logger, m *metrics.Collector) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Persona.Name == "" {
		cfg.Persona = persona.Default()
	}
	// 温度 0 是合法配置，只有整组 Options 未设置时才取默认值。
	if cfg.Options == (ai.Options{}) {
		cfg.Options = ai.Options{MaxTokens: 150, Temperature: 0.7}
	}
	if cfg.Options.MaxTokens <= 0 {
		cfg.Options.MaxTokens = 150
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Table == nil {
		cfg.Table = mood.DefaultFallbackTable()
	}
	if cfg.Random == nil {
		cfg.Random = mood.DefaultRandom()
	}

	return &Synthesizer{
		generator: gen,
		persona:   cfg.Persona,
		opts:      cfg.Options,
		timeout:   cfg.Timeout,
		table:     cfg.Table,
		random:    cfg.Random,
		logger:    logger.Named("synthesizer"),
		metrics:   m,
	}
}

// Persona returns the persona used in prompts.
func (s *Synthesizer) Persona() persona.Persona {
	return s.persona
}

// Generate never fails: any model problem yields a canned reply for the message's mood.
func (s *Synthesizer) Generate(ctx context.Context, conversation, message string) Reply {
	inputMood := mood.Classify(message)

	text, err := s.callModel(ctx, conversation, message)
	if err == nil {
		s.metrics.ObserveReply(string(SourceModel))
		return Reply{Text: text, Source: SourceModel, InputMood: inputMood}
	}

	s.logger.Warn("using fallback reply", zap.String("mood", string(inputMood)), zap.Error(err))
	s.metrics.ObserveReply(string(SourceFallback))
	return Reply{
		Text:      s.table.Pick(inputMood, s.random),
		Source:    SourceFallback,
		InputMood: inputMood,
	}
}

func (s *Synthesizer) callModel(ctx context.Context, conversation, message string) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrUpstreamUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.GenerateText(ctx, ai.BuildPrompt(s.persona, conversation, message), s.opts)
	s.metrics.ObserveModelLatency(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, ai.ErrEmptyCompletion)
	}
	return text, nil
}
