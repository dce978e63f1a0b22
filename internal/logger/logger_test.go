package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("level = %v, want %v", Logger.GetLevel(), log.WarnLevel)
	}

	Debug("habit toggled", "habit", "meditate")
	Info("habit toggled", "habit", "meditate")
	Warn("reminder skipped", "owner", "local")
	Error("store unavailable")

	if _, err := os.Stat(filepath.Join(logDir, "habitlog.log")); err != nil {
		t.Errorf("expected log file to exist after a warning: %v", err)
	}
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{name: "console", cfg: Config{Console: true}, want: log.InfoLevel},
		{name: "debug", cfg: Config{Debug: true}, want: log.DebugLevel},
		{name: "debug wins over console", cfg: Config{Debug: true, Console: true}, want: log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if Logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", Logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
	With("request", "abc").Info("discarded")
}

func TestInitWithInvalidDirectory(t *testing.T) {
	err := Init(Config{ConfigDir: "/nonexistent/path/that/should/not/exist"})
	if err == nil {
		t.Skip("Unable to test invalid directory - path was created or already exists")
	}
}
