// Command rostrum computes league statistics from debate benchmark
// records. It reads newline-delimited JSON transcripts, runs the
// derived-metrics engine, and writes the resulting DerivedData JSON for
// the dashboard to serve.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-rostrum/infrastructure/ingest"
	"github.com/ahrav/go-rostrum/internal/engine"
	"github.com/ahrav/go-rostrum/sdk/league"
)

const version = "v0.3.0"

var (
	cfgFile     string
	outFile     string
	includeRows bool
	includeCV   bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "rostrum",
	Short: "Derived-metrics engine for LLM debate benchmarks",
	Long: `rostrum turns raw debate transcripts and judge verdicts into league
statistics: Elo ratings, win rates, head-to-head records, topic
breakdowns, judge agreement, and confound-adjusted judge bias.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var deriveCmd = &cobra.Command{
	Use:   "derive <records.ndjson>",
	Short: "Run the metrics pass over an NDJSON record file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg := engine.DefaultConfig()
		if cfgFile != "" {
			var err error
			cfg, err = engine.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
		}

		source := ingest.NewFileSource(args[0])
		records, err := source.Records(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("records loaded", "path", args[0], "count", len(records))

		lg, err := league.New(cfg, league.WithLogger(logger))
		if err != nil {
			return err
		}
		derived := lg.Derive(cmd.Context(), records, engine.Options{
			IncludeRows:   includeRows,
			IncludeBiasCV: includeCV,
		})

		out := os.Stdout
		if outFile != "" {
			f, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outFile, err)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(derived); err != nil {
			return fmt.Errorf("failed to encode derived data: %w", err)
		}
		logger.Info("derive complete", "models", len(derived.Models), "debates_rows", len(derived.DebateRows))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rostrum %s\n", version)
	},
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	deriveCmd.Flags().StringVar(&cfgFile, "config", "", "engine config file (YAML)")
	deriveCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	deriveCmd.Flags().BoolVar(&includeRows, "rows", false, "include flat per-debate and per-decision row tables")
	deriveCmd.Flags().BoolVar(&includeCV, "cv", false, "run the cross-validated bias stability pass")

	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("command failed", "error", err)
		os.Exit(1)
	}
}
