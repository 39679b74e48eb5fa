package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestConfigureSetsLevelAndFormat(t *testing.T) {
	logger := log.New()
	if err := Configure(logger, Options{Debug: true, Format: "json"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
}

func TestServiceHookStampsEntries(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.AddHook(serviceHook{name: "recap-api"})

	logger.Info("hello")
	logger.WithField("service", "other").Info("override")

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Data["service"] != "recap-api" {
		t.Fatalf("unexpected service field: %v", entries[0].Data["service"])
	}
	if entries[1].Data["service"] != "other" {
		t.Fatalf("explicit service field should win, got %v", entries[1].Data["service"])
	}
}

func TestConfigureWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")
	logger := log.New()
	if err := Configure(logger, Options{File: path, Format: "json"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	logger.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file missing entry: %s", data)
	}
}
