// Package kblog provides the structured logging used across the query
// layer. It is a thin wrapper over logrus, matching the way the rest of
// the codebase's lineage attaches component context to every entry
// rather than logging through a package-level global.
package kblog

import "github.com/sirupsen/logrus"

// Logger is a component-scoped structured logger. The zero value is not
// usable; construct one with New.
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger tagged with the given component name. Callers
// construct one per collaborator (parser, compiler, pool) and pass it
// in explicitly; nothing in this module reaches for a singleton.
func New(component string) *Logger {
	return &Logger{entry: logrus.WithField("component", component)}
}

// With returns a derived Logger with additional structured fields
// attached, leaving the receiver untouched.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Trace logs a low-level diagnostic: heuristic rewrites, fallback
// decisions, and other detail a developer debugging a single query
// would want but that is too noisy for normal operation.
func (l *Logger) Trace(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Warn logs a recoverable anomaly, e.g. a collaborator returning a
// result the caller chooses to fall back from.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Info logs a normal lifecycle event.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}
