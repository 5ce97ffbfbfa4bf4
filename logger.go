package structlog

import (
	"bytes"
	"io"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"go.uber.org/atomic"
)

// Fields is a set of record fields keyed by name.
type Fields map[string]any

// Logger emits level-gated JSON records whose fields are merged, lowest
// precedence first, from the global layer, the base layer given at
// creation, the permanent layers added with WithContext, the open scopes
// and finally the fields passed to the call.
//
// A Logger is safe for concurrent use. Scopes assume a single logical
// thread of control per logger since they must close in reverse order.
type Logger struct {
	name  string
	level atomic.Int32
	out   *syncWriter
	now   func() time.Time

	mu        sync.Mutex
	global    Fields
	base      Fields
	permanent []Fields
	scoped    []*Scope
}

// Option configures a Logger built with New.
type Option func(*Logger)

// WithLevel sets the initial threshold.
func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.level.Store(int32(level.orDefault()))
	}
}

// WithOutput sets the sink. Children of the logger share the same lock
// around it.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		if w != nil {
			l.out = newSyncWriter(w)
		}
	}
}

// WithFields sets the base layer.
func WithFields(fields Fields) Option {
	return func(l *Logger) {
		l.base = maps.Clone(fields)
	}
}

// WithClock replaces the record time source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

func withGlobalFields(fields Fields) Option {
	return func(l *Logger) {
		l.global = maps.Clone(fields)
	}
}

// New returns a logger writing to standard output at InfoLevel unless the
// options say otherwise.
func New(name string, opts ...Option) *Logger {
	l := &Logger{
		name: name,
		now:  time.Now,
	}
	l.level.Store(int32(InfoLevel))
	for _, opt := range opts {
		opt(l)
	}
	if l.out == nil {
		l.out = newSyncWriter(os.Stdout)
	}
	return l
}

// Name returns the dotted logger name.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel replaces the threshold. Every holder of l sees it immediately.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level.orDefault()))
}

// Enabled reports whether a record at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return level.Enabled(l.Level())
}

func (l *Logger) Debug(msg string, fields ...Fields) error {
	return l.Log(DebugLevel, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Fields) error {
	return l.Log(InfoLevel, msg, fields...)
}

func (l *Logger) Warning(msg string, fields ...Fields) error {
	return l.Log(WarningLevel, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Fields) error {
	return l.Log(ErrorLevel, msg, fields...)
}

func (l *Logger) Critical(msg string, fields ...Fields) error {
	return l.Log(CriticalLevel, msg, fields...)
}

// Log emits msg at level. Several field sets are merged left to right.
// Below the threshold nothing is built or written. A failed sink write is
// returned to the caller.
func (l *Logger) Log(level Level, msg string, fields ...Fields) error {
	if !l.Enabled(level) {
		return nil
	}
	return l.emit(level, msg, fields, nil)
}

// logFailure emits an error record with an already expanded ErrorInfo.
func (l *Logger) logFailure(level Level, msg string, fields Fields, info *ErrorInfo) error {
	if !l.Enabled(level) {
		return nil
	}
	return l.emit(level, msg, []Fields{fields}, info)
}

func (l *Logger) emit(level Level, msg string, call []Fields, info *ErrorInfo) error {
	const op errors.Op = "structlog.Logger.emit"
	merged := l.merge(call)
	if v, ok := merged[ExceptionKey]; ok {
		delete(merged, ExceptionKey)
		if info == nil {
			info = NewErrorInfo(v, nil)
			if info != nil && len(info.Stacktrace) == 0 {
				info.Stacktrace = callerStack(0)
			}
		}
	}

	rec := Record{
		Time:    l.now(),
		Level:   level,
		Logger:  l.name,
		Message: msg,
		Fields:  merged,
		Error:   info,
	}

	buf := recordPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer recordPool.Put(buf)

	if err := (Formatter{}).encode(buf, rec); err != nil {
		return errors.New(op).Err(err).Msg(errMsgFormat)
	}
	if err := l.out.writeLine(buf.Bytes()); err != nil {
		return errors.New(op).Err(err).Msg(errMsgSinkWrite)
	}
	return nil
}

// merge flattens every layer plus call into a fresh map.
func (l *Logger) merge(call []Fields) Fields {
	l.mu.Lock()
	size := len(l.global) + len(l.base)
	for _, p := range l.permanent {
		size += len(p)
	}
	for _, s := range l.scoped {
		size += len(s.fields)
	}
	out := make(Fields, size)
	maps.Copy(out, l.global)
	maps.Copy(out, l.base)
	for _, p := range l.permanent {
		maps.Copy(out, p)
	}
	for _, s := range l.scoped {
		maps.Copy(out, s.fields)
	}
	l.mu.Unlock()

	for _, f := range call {
		maps.Copy(out, f)
	}
	return out
}

// Context returns a snapshot of the fields every record currently carries.
func (l *Logger) Context() Fields {
	return l.merge(nil)
}

// WithContext appends fields as a permanent layer. It mutates l and stays
// in effect until ClearContext.
func (l *Logger) WithContext(fields Fields) {
	if len(fields) == 0 {
		return
	}
	layer := maps.Clone(fields)
	l.mu.Lock()
	l.permanent = append(l.permanent, layer)
	l.mu.Unlock()
}

// ClearContext drops every layer added with WithContext. Global and base
// fields, and open scopes, are kept.
func (l *Logger) ClearContext() {
	l.mu.Lock()
	l.permanent = nil
	l.mu.Unlock()
}

// Child returns a logger named "<name>.<suffix>" sharing l's threshold
// value, sink and global fields. fields become the child's base layer; the
// child does not see l's permanent or scoped layers.
func (l *Logger) Child(suffix string, fields ...Fields) *Logger {
	name := suffix
	if l.name != emptyString {
		name = l.name + nameSeparator + suffix
	}

	l.mu.Lock()
	global := maps.Clone(l.global)
	l.mu.Unlock()

	child := &Logger{
		name:   name,
		out:    l.out,
		now:    l.now,
		global: global,
		base:   mergeFields(fields...),
	}
	child.level.Store(l.level.Load())
	return child
}

func (l *Logger) setGlobal(fields Fields) {
	l.mu.Lock()
	l.global = fields
	l.mu.Unlock()
}

// mergeFields returns a new map with sets merged left to right, or nil.
func mergeFields(sets ...Fields) Fields {
	var out Fields
	for _, s := range sets {
		if len(s) == 0 {
			continue
		}
		if out == nil {
			out = make(Fields, len(s))
		}
		maps.Copy(out, s)
	}
	return out
}

// syncWriter serialises writes so one record is never interleaved with
// another written to the same sink.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	if sw, ok := w.(*syncWriter); ok {
		return sw
	}
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// writeLine writes one encoded record in a single call.
func (s *syncWriter) writeLine(p []byte) error {
	n, err := s.Write(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}
