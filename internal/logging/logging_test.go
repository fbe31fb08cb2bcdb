package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	logger.WithField("version", "v1").Info("exported profile")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug message logged at info level")
	}
	if !strings.Contains(out, "exported profile") || !strings.Contains(out, "version=v1") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestNewDefaultsAndErrors(t *testing.T) {
	logger, err := New("", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("Default level: got %s", logger.GetLevel())
	}

	if _, err := New("loud", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown level")
	}
}
