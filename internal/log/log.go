package log

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger *logrus.Logger
	defaultOnce   sync.Once
)

// New builds a logger configured for agendacal: stderr output, full
// timestamps, debug level when debug is true. Components receive one of
// these rather than reading a process-wide verbosity switch.
func New(debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Default returns the shared process logger, created on first use at info
// level. Prefer passing an explicit logger; this exists for code paths that
// have nothing better.
func Default() *logrus.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(false)
	})
	return defaultLogger
}
