package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWithoutFilePathWritesToStdoutOnly(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestNewWithFilePathCreatesRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(dir, "node.log")
	logger := New(cfg)
	logger.Printf("hello %s", "world")

	info, err := os.Stat(cfg.FilePath)
	if err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected the log file to contain the written line")
	}
}
