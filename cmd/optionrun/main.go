package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "optionrun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "NSE F&O option-chain analytics and signal scanner",
		Version: version,
		Long: `OptionRun analyzes NSE index and stock option chains: institutional
flow detection, market-state classification, premium-dislocation (VAT)
signals, and universe-wide volume and deep option scans.

Run 'optionrun serve' for the HTTP API, or use the offline subcommands
against a fixture data directory.`,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analytics HTTP server",
		Long:  "Starts the HTTP API with analysis, VAT, and scan endpoints plus /metrics and the websocket stream",
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "Listen address (overrides OPTIONRUN_HTTP_ADDR)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Analyze one option chain",
		Long:  "Runs the full intelligence pipeline over one symbol's option chain and prints the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Bool("summary", false, "Print the condensed summary instead of the full analysis")
	analyzeCmd.Flags().Bool("bypass-time-check", false, "Ignore session-window restrictions")
	analyzeCmd.Flags().Int("strikes", 20, "Strikes per side to analyze")

	vatCmd := &cobra.Command{
		Use:   "vat <symbol>",
		Short: "Scan equidistant strike pairs for premium dislocation",
		Long:  "Runs the value-at-theta scanner over one symbol and prints scored signals as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runVAT,
	}
	vatCmd.Flags().Int("min-confidence", 0, "Tradeability confidence floor (0 uses the medium threshold)")
	vatCmd.Flags().Int("strikes", 20, "Strikes per side to analyze")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Universe-wide scanning pipelines",
	}

	volumeCmd := &cobra.Command{
		Use:   "volume",
		Short: "Scan the universe for volume anomalies with buying pressure",
		RunE:  runVolumeScan,
	}
	volumeCmd.Flags().String("timeframe", "15", "Candle resolution in minutes (15|60)")

	deepCmd := &cobra.Command{
		Use:   "deep",
		Short: "Run the full option-chain analysis across the universe",
		RunE:  runDeepScan,
	}
	deepCmd.Flags().Int("strikes", 20, "Strikes per side to analyze")

	for _, cmd := range []*cobra.Command{volumeCmd, deepCmd} {
		addScanFlags(cmd.Flags())
	}

	scanCmd.AddCommand(volumeCmd)
	scanCmd.AddCommand(deepCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(vatCmd)
	rootCmd.AddCommand(scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func addScanFlags(fs *pflag.FlagSet) {
	fs.Int("top", 5, "Number of top results to report")
	fs.Int("workers", 0, "Concurrent symbol workers (0 uses the configured default)")
}

func setLogLevel(level string) error {
	if level == "" {
		return nil
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}
