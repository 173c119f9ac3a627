package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/config"
)

func TestInitWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := Init(config.LogConfig{Mode: "production", Filename: path})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	zap.L().Info("session expired", zap.Uint64("user_id", 7))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"msg":"session expired"`) || !strings.Contains(string(raw), `"user_id":7`) {
		t.Fatalf("log file = %s", raw)
	}
}
