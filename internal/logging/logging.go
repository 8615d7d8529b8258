// Package logging provides the logger interface abstraction and
// implementation for royale. It uses logrus under the hood.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the printf-style surface the rest of the codebase logs
// through. Nakama's runtime logger satisfies it as-is, so everything
// below the transport layer runs unchanged under either host.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type logger struct {
	base *logrus.Logger
}

// Noop returns a Logger that discards everything, for tests and
// defaulted options.
func Noop() Logger {
	return New(io.Discard, logrus.PanicLevel)
}

// New returns a logrus-backed Logger writing to w at the given level.
func New(w io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	return &logger{base: l}
}

func (l *logger) Debug(format string, args ...interface{}) {
	l.base.Debugf(format, args...)
}

func (l *logger) Info(format string, args ...interface{}) {
	l.base.Infof(format, args...)
}

func (l *logger) Warn(format string, args ...interface{}) {
	l.base.Warnf(format, args...)
}

func (l *logger) Error(format string, args ...interface{}) {
	l.base.Errorf(format, args...)
}
