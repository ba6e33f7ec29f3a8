// Package config holds every CLI-derived and defaulted setting the
// pipeline needs, validated once before the run starts (spec §6).
//
// Grounded on the reference codebase's pkg/batch/service.go Config
// struct + IsConfigured() validation method shape: a plain settings
// struct with one method that reports whether it is usable, kept
// entirely separate from the flag-parsing layer that builds it.
package config

import (
	"fmt"
	"strings"
)

// Config is every setting the pipeline needs, already resolved from CLI
// flags and defaults (spec §6's CLI surface).
type Config struct {
	InputPath          string
	SerializationPath  string
	TurtlePath         string // empty disables RDF output
	EmbeddingsModel    string
	EmbeddingsBatchSize int
	EmbeddingsCacheDir string
	LangReferencePath  string
	LogLevel           string
}

// Validate reports the first configuration error found, per spec §6's
// mandatory fields and §7's InvariantViolation-on-bad-config path.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("config: input path is required")
	}
	if strings.TrimSpace(c.SerializationPath) == "" {
		return fmt.Errorf("config: --serialization-path is required")
	}
	if !hasJSONShape(c.SerializationPath) {
		return fmt.Errorf("config: --serialization-path %q must end in .json or .json.gz", c.SerializationPath)
	}
	if strings.TrimSpace(c.EmbeddingsModel) == "" {
		return fmt.Errorf("config: --embeddings-model is required")
	}
	if c.EmbeddingsBatchSize <= 0 {
		return fmt.Errorf("config: --embeddings-batch-size must be positive, got %d", c.EmbeddingsBatchSize)
	}
	if strings.TrimSpace(c.EmbeddingsCacheDir) == "" {
		return fmt.Errorf("config: --embeddings-cache-dir is required")
	}
	if strings.TrimSpace(c.LangReferencePath) == "" {
		return fmt.Errorf("config: --lang-reference is required")
	}
	return nil
}

// WantsTurtle reports whether optional RDF output was requested.
func (c Config) WantsTurtle() bool {
	return strings.TrimSpace(c.TurtlePath) != ""
}

func hasJSONShape(path string) bool {
	return strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".json.gz")
}
