package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, level, err := New(Options{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v", level.Level())
	}
	logger.Info("model loaded", zap.Int("n_features", 3))
	_ = logger.Sync()

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("expected log output in file")
	}
}

func TestSetLevel(t *testing.T) {
	level := zap.NewAtomicLevel()
	if err := SetLevel(level, "warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level.Level() != zapcore.WarnLevel {
		t.Fatalf("expected warn, got %v", level.Level())
	}
	if err := SetLevel(level, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if level.Level() != zapcore.WarnLevel {
		t.Fatal("level must not change on parse error")
	}
}
