package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stillpoint/internal/platform/logging"
)

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "stillpoint.log")
	logger, err := logging.New("debug", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("session started")
	_ = logger.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"session started"`) {
		t.Fatalf("expected json entry, got %s", b)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	if _, err := logging.New("loud", filepath.Join(t.TempDir(), "x.log")); err == nil {
		t.Fatalf("expected level parse error")
	}
}

func TestNewOffIsNop(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "off.log")
	logger, err := logging.New("off", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("ignored")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no-op logger must not create a file")
	}
}
