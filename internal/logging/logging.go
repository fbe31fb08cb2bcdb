// Package logging builds the logrus logger shared by the CLI and the core.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const DefaultLevel = "warn"

// New returns a text logger writing to w at the named level. An empty level
// selects DefaultLevel.
func New(level string, w io.Writer) (*logrus.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: lvl < logrus.DebugLevel,
		FullTimestamp:    true,
	})
	return logger, nil
}

// Discard returns a logger that drops everything. Used where no logger was
// supplied.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
