package tilescene

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes "[prefix] LEVEL: message" lines, INFO and DEBUG to
// one writer and WARN and ERROR to another. Loggers made by Named share
// the debug switch and writers of their parent.
type DefaultLogger struct {
	state  *loggerState
	prefix string
}

type loggerState struct {
	mu    sync.Mutex
	debug bool
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerTo(os.Stdout, os.Stderr, prefix, debug)
}

func NewLoggerTo(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		prefix: prefix,
		state: &loggerState{
			debug: debug,
			out:   log.New(out, "", flags),
			err:   log.New(errOut, "", flags),
		},
	}
}

// Named returns a logger whose prefix is extended with name.
func (l *DefaultLogger) Named(name string) Logger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &DefaultLogger{state: l.state, prefix: prefix}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return l.state.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.state.mu.Lock()
	l.state.debug = enabled
	l.state.mu.Unlock()
}

func (l *DefaultLogger) line(level string, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		return level + ": " + msg
	}
	return "[" + l.prefix + "] " + level + ": " + msg
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.state.out.Print(l.line("DEBUG", format, args...))
	}
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.state.out.Print(l.line("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.state.err.Print(l.line("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.state.err.Print(l.line("ERROR", format, args...))
}

// named extends the logger's prefix when it supports that.
func named(l Logger, name string) Logger {
	if n, ok := l.(interface{ Named(string) Logger }); ok {
		return n.Named(name)
	}
	return l
}

type nopLogger struct{}

func NewNopLogger() Logger                       { return nopLogger{} }
func (nopLogger) DebugEnabled() bool             { return false }
func (nopLogger) SetDebug(bool)                  {}
func (nopLogger) Debugf(format string, _ ...any) {}
func (nopLogger) Infof(format string, _ ...any)  {}
func (nopLogger) Warnf(format string, _ ...any)  {}
func (nopLogger) Errorf(format string, _ ...any) {}
