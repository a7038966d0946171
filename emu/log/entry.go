package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

const maxDelayed = 8

// Entry is the printf-style counterpart of EntryZ. Fields are only computed
// when the entry is actually logged, and carry the same context fields.
type Entry struct {
	mod     Module
	delayed [maxDelayed]func() Fields
}

func (entry Entry) log() *logrus.Entry {
	fields := logrus.Fields{"_mod": entry.mod.String()}
	for _, df := range entry.delayed {
		if df == nil {
			break
		}
		for k, v := range df() {
			fields[k] = v
		}
	}
	contextFields(fields)
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) WithFields(fields Fields) Entry {
	return entry.WithDelayedFields(func() Fields { return fields })
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithDelayedFields(func() Fields {
		return Fields{key: value}
	})
}

// WithDelayedFields adds fields computed at log time. Past maxDelayed calls,
// fields are dropped.
func (entry Entry) WithDelayedFields(getfields func() Fields) Entry {
	for idx := range entry.delayed {
		if entry.delayed[idx] == nil {
			entry.delayed[idx] = getfields
			return entry
		}
	}
	return entry
}

func (entry Entry) logf(lvl Level, format string, args ...any) {
	if !entry.mod.Enabled(lvl) {
		return
	}
	e := entry.log()
	switch lvl {
	case DebugLevel:
		e.Debugf(format, args...)
	case InfoLevel:
		e.Infof(format, args...)
	case WarnLevel:
		e.Warnf(format, args...)
	case ErrorLevel:
		e.Errorf(format, args...)
	case FatalLevel:
		e.Fatalf(format, args...)
	case PanicLevel:
		e.Panicf(format, args...)
	}
}

func (entry Entry) Debugf(format string, args ...any) { entry.logf(DebugLevel, format, args...) }
func (entry Entry) Infof(format string, args ...any)  { entry.logf(InfoLevel, format, args...) }
func (entry Entry) Warnf(format string, args ...any)  { entry.logf(WarnLevel, format, args...) }
func (entry Entry) Errorf(format string, args ...any) { entry.logf(ErrorLevel, format, args...) }
func (entry Entry) Fatalf(format string, args ...any) { entry.logf(FatalLevel, format, args...) }
func (entry Entry) Panicf(format string, args ...any) { entry.logf(PanicLevel, format, args...) }
