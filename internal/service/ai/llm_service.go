package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/config"
)

// ErrEmptyCompletion 表示模型返回了空内容，调用方按不可用处理。
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Prompt is a single-turn request: persona/system instruction plus the user's message.
type Prompt struct {
	System string
	User   string
}

// Options bound a single generation.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Generator is the language model endpoint. Any error means the model is unavailable.
type Generator interface {
	GenerateText(ctx context.Context, p Prompt, opts Options) (string, error)
}

// NewGenerator builds the generator for cfg.Provider, wrapped in a circuit breaker.
// It returns (nil, nil) when no provider is configured.
func NewGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (Generator, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case config.ProviderArk:
		gen, err = NewArkGenerator(ctx, cfg)
	case config.ProviderOpenAI:
		gen, err = NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case config.ProviderGemini:
		gen, err = NewOpenAIGenerator(cfg.GeminiAPIKey, config.GeminiOpenAIBaseURL, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithBreaker(gen, string(cfg.Provider), cfg.BreakerFailures, cfg.BreakerCooldown, logger), nil
}

// ArkGenerator runs a compiled eino chain against a Volcengine Ark chat model.
type ArkGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkGenerator creates the Ark chat model and compiles the prompt chain.
func NewArkGenerator(ctx context.Context, cfg config.AIConfig) (*ArkGenerator, error) {
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   cfg.ArkBaseURL,
		Region:    cfg.ArkRegion,
		APIKey:    cfg.ArkAPIKey,
		AccessKey: cfg.ArkAccessKey,
		SecretKey: cfg.ArkSecretKey,
		Model:     cfg.ArkModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newArkGenerator(ctx, chatModel)
}

func newArkGenerator(ctx context.Context, chatModel model.ChatModel) (*ArkGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &ArkGenerator{chain: runnable}, nil
}

// GenerateText implements Generator.
func (g *ArkGenerator) GenerateText(ctx context.Context, p Prompt, opts Options) (string, error) {
	input := map[string]any{
		"system": p.System,
		"query":  p.User,
	}

	modelOpts := make([]model.Option, 0, 2)
	if opts.MaxTokens > 0 {
		modelOpts = append(modelOpts, model.WithMaxTokens(opts.MaxTokens))
	}
	modelOpts = append(modelOpts, model.WithTemperature(float32(opts.Temperature)))

	response, err := g.chain.Invoke(ctx, input, compose.WithChatModelOption(modelOpts...))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(response.Content), nil
}
