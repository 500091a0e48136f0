package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sems-converter/internal/config"
)

func TestSetupLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "converter.log")
	logger, err := SetupLogger(config.LogConfig{
		Level:   "warning",
		Format:  "json",
		Outputs: []string{path},
	})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("dropped below level")
	logger.Warn("conversion failed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped below level") {
		t.Fatalf("info line must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"conversion failed"`) {
		t.Fatalf("expected json warn line, got %s", out)
	}
}
