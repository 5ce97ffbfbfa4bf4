package structlog

import (
	"io"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/Station-Manager/errors"
	"go.uber.org/atomic"
)

// Config configures a Factory.
type Config struct {
	// DefaultLevel is parsed leniently; empty or unknown names mean INFO.
	DefaultLevel string
	// GlobalFields are seeded into every logger the factory returns.
	GlobalFields Fields `validate:"omitempty,dive,keys,required,endkeys"`
	// Output defaults to standard output.
	Output io.Writer
}

// Factory is a registry holding at most one Logger per name. Create one at
// start-up and pass it to whatever needs loggers.
type Factory struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	level   atomic.Int32
	global  Fields
	out     *syncWriter

	closer io.Closer
	closed atomic.Bool
}

// NewFactory validates cfg and returns an empty registry.
func NewFactory(cfg Config) (*Factory, error) {
	const op errors.Op = "structlog.NewFactory"
	if err := validateConfig(op, &cfg); err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	f := &Factory{
		loggers: make(map[string]*Logger),
		global:  maps.Clone(cfg.GlobalFields),
		out:     newSyncWriter(out),
	}
	f.level.Store(int32(ParseLevel(cfg.DefaultLevel)))
	return f, nil
}

// GetLogger returns the logger registered under name, creating it on first
// use. fields become the base layer of a newly created logger and are
// ignored when name is already registered. Every call with the same name
// returns the same *Logger.
func (f *Factory) GetLogger(name string, fields ...Fields) *Logger {
	f.mu.RLock()
	l, ok := f.loggers[name]
	f.mu.RUnlock()
	if ok {
		return l
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Another caller may have registered it between the two locks.
	if l, ok = f.loggers[name]; ok {
		return l
	}

	l = New(name,
		WithLevel(Level(f.level.Load())),
		WithOutput(f.out),
		withGlobalFields(f.global),
		WithFields(mergeFields(fields...)),
	)
	f.loggers[name] = l
	return l
}

// Level returns the default level for new loggers.
func (f *Factory) Level() Level {
	return Level(f.level.Load())
}

// SetGlobalLevel changes the default level and applies it to every logger
// already registered.
func (f *Factory) SetGlobalLevel(level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.level.Store(int32(level.orDefault()))
	for _, l := range f.loggers {
		l.SetLevel(level)
	}
}

// SetGlobalFields merges fields into the global set and pushes the result
// into the global layer of every registered logger. Children derived with
// Logger.Child keep the global fields they were created with.
func (f *Factory) SetGlobalFields(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()

	global := maps.Clone(f.global)
	if global == nil {
		global = make(Fields, len(fields))
	}
	maps.Copy(global, fields)
	f.global = global

	for _, l := range f.loggers {
		l.setGlobal(maps.Clone(global))
	}
}

// GlobalFields returns a copy of the global set.
func (f *Factory) GlobalFields() Fields {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.global)
}

// Names lists the registered logger names in sorted order.
func (f *Factory) Names() []string {
	f.mu.RLock()
	names := make([]string, 0, len(f.loggers))
	for name := range f.loggers {
		names = append(names, name)
	}
	f.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Close releases an output the factory opened itself (see OpenFactory).
// Caller-supplied outputs are left alone. It is safe to call Close more
// than once.
func (f *Factory) Close() error {
	const op errors.Op = "structlog.Factory.Close"
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	if f.closer == nil {
		return nil
	}
	if err := f.closer.Close(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgCloseOutput)
	}
	return nil
}
