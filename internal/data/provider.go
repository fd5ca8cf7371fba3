package data

import (
	"context"

	"github.com/sawpanic/optionrun/internal/domain"
)

// ChainProvider fetches a normalized option-chain snapshot for an
// underlying. Implementations wrap the broker collaborator; the analytics
// core never talks to a broker directly.
type ChainProvider interface {
	OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error)
}

// HistoryProvider fetches recent OHLCV candles, ascending in time.
type HistoryProvider interface {
	History(ctx context.Context, symbol string, resolution string, days int) ([]domain.Candle, error)
}

// QuoteProvider fetches a normalized spot quote.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// Provider bundles the three market-data fetch surfaces.
type Provider interface {
	ChainProvider
	HistoryProvider
	QuoteProvider
}
