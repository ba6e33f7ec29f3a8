// Command grimm builds an etymology graph from a wiktextract JSON dump
// (spec §6). Flag registration lives here; the actual work is done by
// internal/pipeline.
//
// Grounded on the wider example pack's cobra root-command shape
// (theRebelliousNerd-codenerd/cmd/nerd/main.go): a rootCmd built in
// init(), flags bound to package-level vars, a zap logger built once in
// PersistentPreRunE and threaded down instead of used as a global.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grimmgraph/grimm/internal/config"
	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/pipeline"
)

var (
	serializationPath   string
	turtlePath          string
	embeddingsModel     string
	embeddingsBatchSize int
	embeddingsCacheDir  string
	langReferencePath   string
	logLevel            string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grimm [input-path]",
	Short: "Build an etymology graph from a wiktextract JSON dump",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if lvl, err := zap.ParseAtomicLevel(logLevel); err == nil {
			zapCfg.Level = lvl
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("grimm: building logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Config{
			InputPath:           args[0],
			SerializationPath:   serializationPath,
			TurtlePath:          turtlePath,
			EmbeddingsModel:     embeddingsModel,
			EmbeddingsBatchSize: embeddingsBatchSize,
			EmbeddingsCacheDir:  embeddingsCacheDir,
			LangReferencePath:   langReferencePath,
			LogLevel:            logLevel,
		}

		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		result, err := p.Run()
		if err != nil {
			return err
		}

		logger.Info("run complete",
			zap.Int("items", len(result.Envelope.Items)),
			zap.Int("edges", len(result.Envelope.Edges)),
			zap.Int("skippedRecords", result.SkippedRecords),
			zap.Duration("pass1", result.Pass1Duration),
			zap.Duration("pass2", result.Pass2Duration),
		)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&serializationPath, "serialization-path", "", "output path for the compact JSON graph (.json or .json.gz)")
	rootCmd.Flags().StringVar(&turtlePath, "turtle-path", "", "optional output path for Turtle/RDF serialization")
	rootCmd.Flags().StringVar(&embeddingsModel, "embeddings-model", "hashing-v1", "embedding model identity, stamped into the cache")
	rootCmd.Flags().IntVar(&embeddingsBatchSize, "embeddings-batch-size", 64, "number of pending embed requests per inference batch")
	rootCmd.Flags().StringVar(&embeddingsCacheDir, "embeddings-cache-dir", "", "directory holding the embedding cache (deleted by the user when changing models)")
	rootCmd.Flags().StringVar(&langReferencePath, "lang-reference", "", "path to the tab-delimited language/family reference table")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "zap log level: debug, info, warn, error")

	rootCmd.MarkFlagRequired("serialization-path")
	rootCmd.MarkFlagRequired("embeddings-cache-dir")
	rootCmd.MarkFlagRequired("lang-reference")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to spec §6's exit codes: 1 input/serialization
// error, 2 embedding inference failure, 3 invariant violation. Errors that
// never carry a diagnostics.Kind (flag parsing, usage) also exit 1.
func exitCode(err error) int {
	var diagErr *diagnostics.Error
	if !errors.As(err, &diagErr) {
		return 1
	}
	switch diagErr.Kind {
	case diagnostics.EmbedFailed:
		return 2
	case diagnostics.InvariantViolation:
		return 3
	default:
		return 1
	}
}
