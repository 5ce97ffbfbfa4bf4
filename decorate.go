package structlog

import (
	"reflect"
	"runtime"
	"strings"
	"time"
)

// ExecutionOptions configures LogExecution.
type ExecutionOptions struct {
	// Name overrides the function name taken from the runtime.
	Name string
	// Level of the entry and exit records; zero means INFO.
	Level         Level
	IncludeArgs   bool
	IncludeResult bool
}

// ErrorOptions configures LogErrors.
type ErrorOptions struct {
	Name string
}

// LogExecution wraps fn so that each call emits a function_entry record
// before fn runs and, when fn returns a nil error, a function_exit record
// with status, duration_ms and optionally the result. Errors and panics
// from fn pass through untouched with no exit record; pair with LogErrors
// to record them.
//
// fn must have the shape func(A) (R, error); use LogExecutionFunc for a
// func(A) R. Several arguments are passed as one struct A.
//
// Logging failures never change what the wrapper returns.
func LogExecution[A, R any](l *Logger, fn func(A) (R, error), opts ExecutionOptions) func(A) (R, error) {
	name := funcName(fn, opts.Name)
	level := opts.Level.orDefault()

	return func(arg A) (R, error) {
		if l.Enabled(level) {
			entry := Fields{FunctionKey: name, EventKey: eventFunctionEntry}
			if opts.IncludeArgs {
				entry[ArgsKey] = arg
			}
			_ = l.Log(level, eventFunctionEntry+": "+name, entry)
		}

		start := time.Now()
		res, err := fn(arg)
		if err != nil {
			return res, err
		}

		if l.Enabled(level) {
			exit := Fields{
				FunctionKey:   name,
				EventKey:      eventFunctionExit,
				StatusKey:     statusSuccess,
				DurationMSKey: float64(time.Since(start)) / float64(time.Millisecond),
			}
			if opts.IncludeResult {
				exit[ResultKey] = res
			}
			_ = l.Log(level, eventFunctionExit+": "+name, exit)
		}
		return res, nil
	}
}

// LogErrors wraps fn so that a returned error or a panic is recorded as one
// ERROR record carrying error_type, error_message and stacktrace. The error
// is then returned unchanged, or the panic resumed with its original value.
// fn must have the shape func(A) (R, error); use LogErrorsFunc for a
// func(A) R, where only panics can be recorded.
func LogErrors[A, R any](l *Logger, fn func(A) (R, error), opts ErrorOptions) func(A) (R, error) {
	name := funcName(fn, opts.Name)
	msg := eventFunctionError + ": " + name

	return func(arg A) (res R, err error) {
		defer func() {
			if r := recover(); r != nil {
				info := NewErrorInfo(r, callerStack(1))
				_ = l.logFailure(ErrorLevel, msg, Fields{
					FunctionKey: name,
					EventKey:    eventFunctionError,
					PanicKey:    true,
				}, info)
				panic(r)
			}
		}()

		res, err = fn(arg)
		if err != nil {
			_ = l.logFailure(ErrorLevel, msg, Fields{
				FunctionKey: name,
				EventKey:    eventFunctionError,
			}, NewErrorInfo(err, callerStack(0)))
		}
		return res, err
	}
}

// LogExecutionFunc is LogExecution for a function that cannot fail.
func LogExecutionFunc[A, R any](l *Logger, fn func(A) R, opts ExecutionOptions) func(A) R {
	opts.Name = funcName(fn, opts.Name)
	wrapped := LogExecution(l, infallible(fn), opts)
	return func(arg A) R {
		res, _ := wrapped(arg)
		return res
	}
}

// LogErrorsFunc is LogErrors for a function that cannot return an error;
// it records panics only.
func LogErrorsFunc[A, R any](l *Logger, fn func(A) R, opts ErrorOptions) func(A) R {
	opts.Name = funcName(fn, opts.Name)
	wrapped := LogErrors(l, infallible(fn), opts)
	return func(arg A) R {
		res, _ := wrapped(arg)
		return res
	}
}

func infallible[A, R any](fn func(A) R) func(A) (R, error) {
	return func(arg A) (R, error) {
		return fn(arg), nil
	}
}

// Decorator turns a function into its logged equivalent.
type Decorator[A, R any] func(fn func(A) (R, error)) func(A) (R, error)

// Execution returns LogExecution as a reusable decorator:
//
//	traced := structlog.Execution[string, int](log, structlog.ExecutionOptions{IncludeArgs: true})
//	lookup = traced(lookup)
func Execution[A, R any](l *Logger, opts ExecutionOptions) Decorator[A, R] {
	return func(fn func(A) (R, error)) func(A) (R, error) {
		return LogExecution(l, fn, opts)
	}
}

// Errors returns LogErrors as a reusable decorator.
func Errors[A, R any](l *Logger, opts ErrorOptions) Decorator[A, R] {
	return func(fn func(A) (R, error)) func(A) (R, error) {
		return LogErrors(l, fn, opts)
	}
}

// funcName returns override when set, otherwise fn's name without its
// import path.
func funcName(fn any, override string) string {
	if override != emptyString {
		return override
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
