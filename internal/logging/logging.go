// Package logging provides the gated, timestamped logger shared by every
// component of the match server.
package logging

import (
	"fmt"
	"log"
	"runtime/debug"
	"time"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

// Logger gates verbose output behind a single flag, reusable across
// packages rather than threaded through a config struct.
type Logger struct {
	Verbose bool
}

func New(verbose bool) *Logger {
	return &Logger{Verbose: verbose}
}

// Logf prints unconditionally (startup banners, fatal conditions).
func (l *Logger) Logf(format string, args ...any) {
	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// Debugf prints only when Verbose is set.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.Verbose {
		return
	}
	l.Logf(format, args...)
}

// Trace logs an unexpected error together with a stack trace, per
// spec.md §7 ("Unexpected exception in a handler... log with stack,
// force-close socket; match continues.").
func (l *Logger) Trace(context string, err error) {
	l.Logf("ERROR: %s: %v\n%s", context, err, debug.Stack())
}

func (l *Logger) Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	l.Logf("ERROR: %v", err)
	return err
}
