package authpage

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus logger to Logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

var _ Logger = (*LogrusLogger)(nil)

// NewLogrusLogger wraps l, a nil logger falls back to logrus.StandardLogger.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(l).WithField("module", "authpage")}
}

func (l *LogrusLogger) Debug(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Error(msg)
}

// toFields pairs up key/value args. A dangling value is kept under "extra".
func toFields(args []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, isErr := args[i+1].(error); isErr {
			fields[key] = err.Error()
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}

func defaultLogger() Logger {
	return NewLogrusLogger(nil)
}
