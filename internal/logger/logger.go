// Package logger provides named loggers that share a single handler.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cenkalti/log"
)

var handler log.Handler

func init() {
	SetHandler(log.NewFileHandler(os.Stderr))
}

// SetHandler changes the handler shared by all loggers.
func SetHandler(h log.Handler) {
	handler = h
	handler.SetFormatter(formatter{})
}

// SetLevel sets the logging level on the shared handler.
func SetLevel(l log.Level) {
	handler.SetLevel(l)
}

// SetDebug lowers the shared handler to debug level.
func SetDebug() {
	SetLevel(log.DEBUG)
}

// Logger logs messages prefixed with a component name.
type Logger log.Logger

// New returns a new Logger with the given name. The logger forwards every
// level to the shared handler, which does the filtering.
func New(name string) Logger {
	l := log.NewLogger(name)
	l.SetLevel(log.DEBUG)
	l.SetHandler(handler)
	return l
}

type formatter struct{}

// Format renders a record as "2014-02-28 18:15:57 INFO     [session] file.go:42 message".
func (formatter) Format(rec *log.Record) string {
	return fmt.Sprintf("%s %-8s [%s] %s %s",
		fmt.Sprint(rec.Time)[:19],
		rec.Level,
		rec.LoggerName,
		filepath.Base(rec.Filename)+":"+strconv.Itoa(rec.Line),
		rec.Message)
}
