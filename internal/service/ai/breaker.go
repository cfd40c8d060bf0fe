package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type breakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker trips after failures consecutive errors and stays open for cooldown.
// While open, calls fail fast with gobreaker.ErrOpenState.
func WithBreaker(next Generator, name string, failures uint32, cooldown time.Duration, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == 0 {
		failures = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &breakerGenerator{next: next, cb: cb}
}

func (b *breakerGenerator) GenerateText(ctx context.Context, p Prompt, opts Options) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateText(ctx, p, opts)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
