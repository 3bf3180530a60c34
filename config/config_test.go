package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.conf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadParsesKnownKeys(t *testing.T) {
	path := writeTemp(t, "generations = 50\nmutation-rate=0.02\n# a comment\nmaze-width = 9\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Generations != 50 {
		t.Fatalf("expected generations=50, got %d", cfg.Generations)
	}
	if cfg.MutationRate != 0.02 {
		t.Fatalf("expected mutation-rate=0.02, got %v", cfg.MutationRate)
	}
	if cfg.MazeWidth != 9 {
		t.Fatalf("expected maze-width=9, got %d", cfg.MazeWidth)
	}
	if !cfg.IsSet("generations") || cfg.IsSet("population") {
		t.Fatalf("IsSet tracking incorrect: %+v", cfg.set)
	}
}

func TestLoadIgnoresBlankAndCommentLines(t *testing.T) {
	path := writeTemp(t, "\n# nothing here\n\nseed = 7\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Seed != 7 {
		t.Fatalf("expected seed=7, got %d", cfg.Seed)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeTemp(t, "bogus = 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadRejectsMissingEquals(t *testing.T) {
	path := writeTemp(t, "generations 50\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}
