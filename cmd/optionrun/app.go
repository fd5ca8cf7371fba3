package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/optionrun/internal/config"
	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/httpapi"
	"github.com/sawpanic/optionrun/internal/intel"
	"github.com/sawpanic/optionrun/internal/journal"
	"github.com/sawpanic/optionrun/internal/metrics"
	"github.com/sawpanic/optionrun/internal/scanner"
	"github.com/sawpanic/optionrun/internal/universe"
	"github.com/sawpanic/optionrun/internal/vat"
)

// app is the composition root shared by all subcommands.
type app struct {
	runtime  *config.Runtime
	provider data.Provider
	engine   *intel.Engine
	vat      *vat.Scanner
	scans    *scanner.Orchestrator
	universe *universe.Manager
	journal  *journal.Journal
	metrics  *metrics.Set
	registry *prometheus.Registry
	redis    *redis.Client
	cached   bool
}

func buildApp(cmd *cobra.Command) (*app, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return nil, err
	}

	level := rt.LogLevel
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	if err := setLogLevel(level); err != nil {
		return nil, err
	}

	intelCfg := intel.DefaultConfig()
	if rt.IntelConfigFile != "" {
		if intelCfg, err = intel.LoadConfig(rt.IntelConfigFile); err != nil {
			return nil, err
		}
	}

	vatCfg := vat.DefaultConfig()
	if rt.VATConfigFile != "" {
		if vatCfg, err = vat.LoadConfig(rt.VATConfigFile); err != nil {
			return nil, err
		}
	}

	uni := universe.Default()
	if rt.UniverseConfigFile != "" {
		if uni, err = universe.Load(rt.UniverseConfigFile); err != nil {
			return nil, err
		}
	}

	if rt.DataDir == "" {
		return nil, fmt.Errorf("no market data source configured, set OPTIONRUN_DATA_DIR")
	}
	fileProvider, err := data.NewFileProvider(rt.DataDir)
	if err != nil {
		return nil, err
	}
	var provider data.Provider = data.NewGuardedProvider(fileProvider, data.DefaultGuardConfig())

	a := &app{
		runtime:  rt,
		engine:   intel.NewEngine(intelCfg),
		vat:      vat.NewScanner(vatCfg),
		universe: uni,
		registry: prometheus.NewRegistry(),
	}
	a.metrics = metrics.NewSet(a.registry)

	if rt.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: rt.RedisAddr, Password: rt.RedisPassword})
		provider = struct {
			data.ChainProvider
			data.HistoryProvider
			data.QuoteProvider
		}{
			ChainProvider:   data.NewCachedChainProvider(provider, a.redis, rt.ChainCacheTTL),
			HistoryProvider: provider,
			QuoteProvider:   provider,
		}
		a.cached = true
		log.Info().Str("addr", rt.RedisAddr).Msg("chain cache enabled")
	}
	a.provider = provider

	workers := rt.ScanWorkers
	if flagWorkers, _ := cmd.Flags().GetInt("workers"); flagWorkers > 0 {
		workers = flagWorkers
	}
	a.scans = scanner.NewOrchestrator(a.provider, a.engine, a.universe, a.metrics, workers)

	if rt.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		j, err := journal.Open(ctx, rt.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := j.EnsureSchema(ctx); err != nil {
			j.Close()
			return nil, err
		}
		a.journal = j
		log.Info().Msg("signal journal enabled")
	}

	return a, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			log.Warn().Err(err).Msg("journal close failed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Addr = a.runtime.HTTPAddr
	serverCfg.RequestTimeout = a.runtime.RequestTimeout
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		serverCfg.Addr = addr
	}

	server := httpapi.NewServer(serverCfg, httpapi.Deps{
		Provider: a.provider,
		Engine:   a.engine,
		VAT:      a.vat,
		Scans:    a.scans,
		Universe: a.universe,
		Journal:  a.journal,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		Cached:   a.cached,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.runtime.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	symbol := args[0]
	strikes, _ := cmd.Flags().GetInt("strikes")
	bypass, _ := cmd.Flags().GetBool("bypass-time-check")
	summary, _ := cmd.Flags().GetBool("summary")

	snap, err := a.provider.OptionChain(cmd.Context(), symbol, strikes)
	if err != nil {
		return err
	}

	opts := intel.AnalyzeOptions{BypassTimeCheck: bypass}
	if summary {
		out, err := a.engine.Summarize(snap, opts)
		if err != nil {
			return err
		}
		return printJSON(out)
	}
	out, err := a.engine.Analyze(snap, opts)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func runVAT(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	symbol := args[0]
	strikes, _ := cmd.Flags().GetInt("strikes")
	minConfidence, _ := cmd.Flags().GetInt("min-confidence")
	if minConfidence <= 0 {
		minConfidence = a.vat.Config().MediumConfidenceThreshold
	}

	snap, err := a.provider.OptionChain(cmd.Context(), symbol, strikes)
	if err != nil {
		return err
	}
	candles, err := a.provider.History(cmd.Context(), symbol, "5", 1)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("momentum history unavailable")
	}

	result, err := a.vat.Scan(snap, vat.ScanOptions{
		MinConfidence: minConfidence,
		Candles:       candles,
	})
	if err != nil {
		return err
	}

	if result.Best != nil && a.journal != nil {
		if err := a.journal.InsertVATSignal(cmd.Context(), symbol, result.Best); err != nil {
			log.Error().Err(err).Msg("signal journaling failed")
		}
	}
	return printJSON(result)
}

func runVolumeScan(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	timeframe, _ := cmd.Flags().GetString("timeframe")
	top, _ := cmd.Flags().GetInt("top")

	result, err := a.scans.ScanHighVolume(cmd.Context(), scanner.VolumeScanOptions{
		Timeframe: timeframe,
		TopCount:  top,
	})
	if err != nil {
		return err
	}

	if a.journal != nil {
		if err := a.journal.InsertVolumeScan(cmd.Context(), result); err != nil {
			log.Error().Err(err).Msg("scan journaling failed")
		}
	}
	return printJSON(result)
}

func runDeepScan(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	strikes, _ := cmd.Flags().GetInt("strikes")
	top, _ := cmd.Flags().GetInt("top")

	result, err := a.scans.DeepScan(cmd.Context(), scanner.DeepScanOptions{
		StrikeCount: strikes,
		TopCount:    top,
	})
	if err != nil {
		return err
	}

	if a.journal != nil {
		if err := a.journal.InsertDeepScan(cmd.Context(), result); err != nil {
			log.Error().Err(err).Msg("scan journaling failed")
		}
	}
	return printJSON(result)
}
