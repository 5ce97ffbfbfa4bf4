package structlog

import (
	"fmt"
	"time"
)

// Event is a fluent builder for one record. A disabled level yields a nil
// *Event; every method on it is a no-op, so nothing is allocated for
// records below the threshold.
//
//	log.InfoWith().Str("user_id", id).Int("count", 5).Msg("user processed")
type Event struct {
	logger *Logger
	level  Level
	fields Fields
}

func (l *Logger) newEvent(level Level) *Event {
	if !l.Enabled(level) {
		return nil
	}
	return &Event{
		logger: l,
		level:  level,
		fields: make(Fields),
	}
}

func (l *Logger) DebugWith() *Event    { return l.newEvent(DebugLevel) }
func (l *Logger) InfoWith() *Event     { return l.newEvent(InfoLevel) }
func (l *Logger) WarningWith() *Event  { return l.newEvent(WarningLevel) }
func (l *Logger) ErrorWith() *Event    { return l.newEvent(ErrorLevel) }
func (l *Logger) CriticalWith() *Event { return l.newEvent(CriticalLevel) }

func (e *Event) Str(key, val string) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

func (e *Event) Strs(key string, vals []string) *Event {
	if e != nil {
		e.fields[key] = vals
	}
	return e
}

func (e *Event) Int(key string, val int) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

func (e *Event) Int64(key string, val int64) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

func (e *Event) Float64(key string, val float64) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

func (e *Event) Bool(key string, val bool) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

func (e *Event) Time(key string, val time.Time) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

// Dur records d in milliseconds.
func (e *Event) Dur(key string, d time.Duration) *Event {
	if e != nil {
		e.fields[key] = float64(d) / float64(time.Millisecond)
	}
	return e
}

func (e *Event) Any(key string, val any) *Event {
	if e != nil {
		e.fields[key] = val
	}
	return e
}

// Fields merges a whole set into the event.
func (e *Event) Fields(fields Fields) *Event {
	if e != nil {
		for k, v := range fields {
			e.fields[k] = v
		}
	}
	return e
}

// Err attaches err under the reserved exception key, which expands into
// error_type, error_message and stacktrace. A nil err is ignored.
func (e *Event) Err(err error) *Event {
	if e != nil && err != nil {
		e.fields[ExceptionKey] = err
	}
	return e
}

// Msg emits the record.
func (e *Event) Msg(msg string) error {
	if e == nil {
		return nil
	}
	return e.logger.emit(e.level, msg, []Fields{e.fields}, nil)
}

func (e *Event) Msgf(format string, v ...interface{}) error {
	if e == nil {
		return nil
	}
	return e.Msg(fmt.Sprintf(format, v...))
}

// Send emits the record with an empty message.
func (e *Event) Send() error {
	return e.Msg(emptyString)
}
