package config

import "testing"

func validConfig() Config {
	return Config{
		InputPath:           "dump.jsonl",
		SerializationPath:   "out.json.gz",
		EmbeddingsModel:     "hashing-v1",
		EmbeddingsBatchSize: 32,
		EmbeddingsCacheDir:  "/tmp/cache",
		LangReferencePath:   "langs.tsv",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingInputPath(t *testing.T) {
	c := validConfig()
	c.InputPath = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing input path")
	}
}

func TestValidateRejectsBadSerializationExtension(t *testing.T) {
	c := validConfig()
	c.SerializationPath = "out.txt"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for bad serialization extension")
	}
}

func TestValidateRejectsNonPositiveBatchSize(t *testing.T) {
	c := validConfig()
	c.EmbeddingsBatchSize = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive batch size")
	}
}

func TestWantsTurtle(t *testing.T) {
	c := validConfig()
	if c.WantsTurtle() {
		t.Fatal("expected no turtle output by default")
	}
	c.TurtlePath = "out.ttl"
	if !c.WantsTurtle() {
		t.Fatal("expected turtle output requested")
	}
}
