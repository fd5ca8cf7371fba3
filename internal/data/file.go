package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sawpanic/optionrun/internal/domain"
)

// FileProvider serves market data from JSON fixtures on disk. It backs
// the offline CLI modes and tests; layout under the root directory:
//
//	chains/<symbol>.json    domain.OptionChainSnapshot
//	history/<symbol>_<resolution>.json  []domain.Candle
//	quotes/<symbol>.json    domain.Quote
//
// Symbol names are sanitized for the filesystem (":" becomes "_").
type FileProvider struct {
	root string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", dir)
	}
	return &FileProvider{root: dir}, nil
}

func sanitizeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, ":", "_")
}

func (f *FileProvider) read(ctx context.Context, rel string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", rel, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse fixture %s: %w", rel, err)
	}
	return nil
}

func (f *FileProvider) OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error) {
	var snap domain.OptionChainSnapshot
	rel := filepath.Join("chains", sanitizeSymbol(symbol)+".json")
	if err := f.read(ctx, rel, &snap); err != nil {
		return nil, err
	}
	// Fixtures may carry more strikes than requested; trim around ATM.
	if strikeCount > 0 && len(snap.Chain) > strikeCount*2+1 {
		atm := 0
		for i := range snap.Chain {
			if snap.Chain[i].Strike == snap.ATMStrike {
				atm = i
				break
			}
		}
		lo := atm - strikeCount
		if lo < 0 {
			lo = 0
		}
		hi := atm + strikeCount + 1
		if hi > len(snap.Chain) {
			hi = len(snap.Chain)
		}
		snap.Chain = snap.Chain[lo:hi]
	}
	return &snap, nil
}

func (f *FileProvider) History(ctx context.Context, symbol string, resolution string, days int) ([]domain.Candle, error) {
	var candles []domain.Candle
	rel := filepath.Join("history", fmt.Sprintf("%s_%s.json", sanitizeSymbol(symbol), resolution))
	if err := f.read(ctx, rel, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func (f *FileProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	var q domain.Quote
	rel := filepath.Join("quotes", sanitizeSymbol(symbol)+".json")
	if err := f.read(ctx, rel, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
