package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OliseNS/FinetuneGemma/internal/config"
	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/logging"
)

var (
	configPath string
	baseDir    string
	verbose    bool
	quiet      bool
	logFormat  string

	logger       *zap.Logger
	loggerFormat string
)

var rootCmd = &cobra.Command{
	Use:   "medclean",
	Short: "Prepare and clean medical instruction-tuning datasets",
	Long: `medclean converts raw CSV question/answer data into instruction-tuning JSONL
and cleans the result: low-quality records are dropped, exact duplicates
collapsed and near-duplicates resolved in favor of the higher quality record.
Every removal is explained in a Markdown report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format := logFormat
		if format == "" {
			format = config.LogFormatConsole
		}
		return useLogFormat(format)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: <base-dir>/.medclean.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Directory relative paths are resolved against (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug events")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Show warnings and errors only")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Event output: console (colored) or json (zap on stderr)")
}

// useLogFormat (re)builds the logger when the format differs from the
// current one. A config file may select json after the flags were parsed.
func useLogFormat(format string) error {
	if logger != nil && format == loggerFormat {
		return nil
	}
	l, err := logging.New(format, logging.Level(verbose, quiet))
	if err != nil {
		return err
	}
	logging.Sync(logger)
	logger, loggerFormat = l, format
	return nil
}

// minSeverity maps the verbosity flags onto the event stream.
func minSeverity() events.EventSeverity {
	switch {
	case verbose:
		return events.SeverityDebug
	case quiet:
		return events.SeverityWarning
	default:
		return events.SeverityInfo
	}
}

// eventSink picks where progress events go for the chosen log format.
func eventSink(format string, out io.Writer) events.Sink {
	if format == config.LogFormatJSON {
		return events.NewZapSink(logger)
	}
	return events.LevelFilter(minSeverity(), newConsoleSink(out))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
