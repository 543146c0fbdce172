// Package daemonlog configures the one process-wide structured logger every
// other package in elm-pair logs through.
package daemonlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger = logrus.New()
)

// Configure sets the logger's level and output format. Called once from
// cmd/elm-pair after config is loaded; safe to call again in tests.
func Configure(level string, jsonFormat bool) {
	mu.Lock()
	defer mu.Unlock()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger = logrus.New()
	logger.SetLevel(parsed)
	logger.SetOutput(os.Stderr)
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// L returns the process-wide logger. Call sites use
// daemonlog.L().WithField("buffer", id).Info("...").
func L() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
