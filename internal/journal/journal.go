package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/scanner"
	"github.com/sawpanic/optionrun/internal/vat"
)

// Journal persists emitted signals and scan outcomes to Postgres for
// later review. Signals only; raw chain snapshots are never stored.
type Journal struct {
	db *sqlx.DB
}

// Open connects to Postgres and verifies connectivity.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the connection pool.
func (j *Journal) Close() error {
	return j.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS vat_signals (
	id           BIGSERIAL PRIMARY KEY,
	symbol       TEXT NOT NULL,
	signal_type  TEXT NOT NULL,
	strike       DOUBLE PRECISION NOT NULL,
	entry_price  DOUBLE PRECISION NOT NULL,
	stop_loss    DOUBLE PRECISION NOT NULL,
	target1      DOUBLE PRECISION NOT NULL,
	target2      DOUBLE PRECISION NOT NULL,
	confidence   INT NOT NULL,
	strength     TEXT NOT NULL,
	risk_reward  DOUBLE PRECISION NOT NULL,
	detail       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_vat_signals_symbol_created
	ON vat_signals (symbol, created_at DESC);

CREATE TABLE IF NOT EXISTS scan_results (
	id           BIGSERIAL PRIMARY KEY,
	scan_id      TEXT NOT NULL,
	scan_type    TEXT NOT NULL,
	symbol_count INT NOT NULL,
	top_symbol   TEXT,
	top_score    DOUBLE PRECISION,
	detail       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scan_results_created
	ON scan_results (created_at DESC);
`

// EnsureSchema creates the journal tables when missing.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// InsertVATSignal records one tradeable signal.
func (j *Journal) InsertVATSignal(ctx context.Context, symbol string, sig *vat.Signal) error {
	detail, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	const q = `
		INSERT INTO vat_signals
			(symbol, signal_type, strike, entry_price, stop_loss, target1, target2,
			 confidence, strength, risk_reward, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = j.db.ExecContext(ctx, q,
		symbol, string(sig.Type), sig.UndervaluedStrike, sig.EntryPrice,
		sig.Trade.StopLoss, sig.Trade.Target1, sig.Trade.Target2,
		sig.Confidence, string(sig.Strength), sig.Trade.RiskReward, detail)
	if err != nil {
		return fmt.Errorf("insert vat signal: %w", err)
	}

	log.Debug().Str("symbol", symbol).Str("signal", string(sig.Type)).
		Int("confidence", sig.Confidence).Msg("signal journaled")
	return nil
}

// InsertVolumeScan records the outcome of one volume scan.
func (j *Journal) InsertVolumeScan(ctx context.Context, res *scanner.VolumeScanResult) error {
	var topSymbol string
	var topScore float64
	if len(res.TopStocks) > 0 {
		topSymbol = res.TopStocks[0].Symbol
		topScore = res.TopStocks[0].CompositeScore
	}
	return j.insertScan(ctx, res.ScanID, "volume", res.TotalScanned, topSymbol, topScore, res)
}

// InsertDeepScan records the outcome of one deep option scan.
func (j *Journal) InsertDeepScan(ctx context.Context, res *scanner.DeepScanResult) error {
	var topSymbol string
	var topScore float64
	if len(res.TopPicks) > 0 {
		topSymbol = res.TopPicks[0].Symbol
		topScore = res.TopPicks[0].CompositeScore
	}
	return j.insertScan(ctx, res.ScanID, "deep", res.TotalScanned, topSymbol, topScore, res)
}

func (j *Journal) insertScan(ctx context.Context, scanID, scanType string, count int, topSymbol string, topScore float64, detail any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}

	const q = `
		INSERT INTO scan_results (scan_id, scan_type, symbol_count, top_symbol, top_score, detail)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	if _, err := j.db.ExecContext(ctx, q, scanID, scanType, count, topSymbol, topScore, raw); err != nil {
		return fmt.Errorf("insert scan result: %w", err)
	}
	return nil
}

// JournaledSignal is one persisted signal row.
type JournaledSignal struct {
	ID         int64           `db:"id" json:"id"`
	Symbol     string          `db:"symbol" json:"symbol"`
	SignalType string          `db:"signal_type" json:"signal_type"`
	Strike     float64         `db:"strike" json:"strike"`
	EntryPrice float64         `db:"entry_price" json:"entry_price"`
	StopLoss   float64         `db:"stop_loss" json:"stop_loss"`
	Target1    float64         `db:"target1" json:"target1"`
	Target2    float64         `db:"target2" json:"target2"`
	Confidence int             `db:"confidence" json:"confidence"`
	Strength   string          `db:"strength" json:"strength"`
	RiskReward float64         `db:"risk_reward" json:"risk_reward"`
	Detail     json.RawMessage `db:"detail" json:"detail"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// RecentSignals returns the latest journaled signals, newest first.
func (j *Journal) RecentSignals(ctx context.Context, symbol string, limit int) ([]JournaledSignal, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []JournaledSignal
	var err error
	if symbol == "" {
		const q = `SELECT * FROM vat_signals ORDER BY created_at DESC LIMIT $1`
		err = j.db.SelectContext(ctx, &out, q, limit)
	} else {
		const q = `SELECT * FROM vat_signals WHERE symbol = $1 ORDER BY created_at DESC LIMIT $2`
		err = j.db.SelectContext(ctx, &out, q, symbol, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query recent signals: %w", err)
	}
	return out, nil
}
