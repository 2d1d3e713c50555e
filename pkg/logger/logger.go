package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the structured key/value logger consumed by the usecases.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

type stdLogger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

func New() Logger {
	return &stdLogger{
		info:  log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime),
		warn:  log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime),
		err:   log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime),
		debug: log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime),
	}
}

func (l *stdLogger) Info(msg string, keysAndValues ...interface{}) {
	l.info.Println(format(msg, keysAndValues))
}

func (l *stdLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.warn.Println(format(msg, keysAndValues))
}

func (l *stdLogger) Error(msg string, keysAndValues ...interface{}) {
	l.err.Println(format(msg, keysAndValues))
}

func (l *stdLogger) Debug(msg string, keysAndValues ...interface{}) {
	if os.Getenv("ENVIRONMENT") == "development" {
		l.debug.Println(format(msg, keysAndValues))
	}
}

func format(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		value := "?"
		if i+1 < len(keysAndValues) {
			value = fmt.Sprintf("%v", keysAndValues[i+1])
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(value)
	}
	return b.String()
}

// Nop discards everything. Used by tests.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
