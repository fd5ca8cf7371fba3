package data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/optionrun/internal/domain"
)

// GuardConfig tunes the upstream protection wrapper.
type GuardConfig struct {
	RequestsPerSecond float64
	Burst             int
	BreakerName       string
	FailureThreshold  uint32
	OpenTimeout       time.Duration
}

// DefaultGuardConfig matches typical broker API limits: ten requests a
// second with a small burst allowance.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond: 10,
		Burst:             5,
		BreakerName:       "market-data",
		FailureThreshold:  5,
		OpenTimeout:       30 * time.Second,
	}
}

// GuardedProvider wraps a Provider with a rate limiter and a circuit
// breaker. The limiter smooths request bursts from concurrent scan
// workers; the breaker sheds load when the upstream is failing.
type GuardedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedProvider wraps inner with upstream protection.
func NewGuardedProvider(inner Provider, cfg GuardConfig) *GuardedProvider {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultGuardConfig()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.BreakerName,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("market data breaker state change")
		},
	})
	return &GuardedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
	}
}

func (g *GuardedProvider) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}
	out, err := g.breaker.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, fmt.Errorf("market data upstream unavailable: %w", err)
	}
	return out, err
}

func (g *GuardedProvider) OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error) {
	out, err := g.execute(ctx, func() (any, error) {
		return g.inner.OptionChain(ctx, symbol, strikeCount)
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.OptionChainSnapshot), nil
}

func (g *GuardedProvider) History(ctx context.Context, symbol string, resolution string, days int) ([]domain.Candle, error) {
	out, err := g.execute(ctx, func() (any, error) {
		return g.inner.History(ctx, symbol, resolution, days)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.Candle), nil
}

func (g *GuardedProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	out, err := g.execute(ctx, func() (any, error) {
		return g.inner.Quote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.Quote), nil
}
