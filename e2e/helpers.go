//go:build e2e_testing
// +build e2e_testing

// Package e2e runs several stations on a shared simulated wire.
package e2e

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewTestLogger is silent unless TEST_LOGS is set, in which case 2 selects
// debug and 3 trace.
func NewTestLogger() *logrus.Logger {
	l := logrus.New()

	v := os.Getenv("TEST_LOGS")
	if v == "" {
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
		return l
	}

	switch v {
	case "2":
		l.SetLevel(logrus.DebugLevel)
	case "3":
		l.SetLevel(logrus.TraceLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}
