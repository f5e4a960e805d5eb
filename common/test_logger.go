package common

import (
	"testing"

	"github.com/sirupsen/logrus"
)

// testLoggerAdapter maps logger writes into calls to testing.TB.Log, so
// that log output only surfaces for failed tests.
type testLoggerAdapter struct {
	t testing.TB
}

func (a *testLoggerAdapter) Write(d []byte) (int, error) {
	if len(d) > 0 && d[len(d)-1] == '\n' {
		d = d[:len(d)-1]
	}
	a.t.Log(string(d))
	return len(d), nil
}

// NewTestLogger returns a logrus.Logger whose output is routed through
// testing.TB.Log instead of stderr.
func NewTestLogger(t testing.TB) *logrus.Logger {
	logger := logrus.New()
	logger.Out = &testLoggerAdapter{t: t}
	logger.Level = logrus.DebugLevel
	return logger
}
