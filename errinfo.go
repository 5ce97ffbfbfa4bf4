package structlog

import (
	stderrs "errors"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	pkgerrors "github.com/pkg/errors"
)

// ErrorInfo is the expansion of the reserved exception field.
type ErrorInfo struct {
	Type    string
	Message string
	// Chain holds the cause messages, outermost first.
	Chain []string
	// Ops holds the operation of each Chain link, "" for links that are not
	// DetailedErrors. It is nil when no link carries an operation.
	Ops []string
	// RootOp is the innermost non-empty operation.
	RootOp string
	// Stacktrace is ordered outermost call first; the frame where the
	// failure originated is last.
	Stacktrace []string
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

type causer interface {
	Cause() error
}

const maxStackDepth = 64

var pkgPath = reflect.TypeOf((*Logger)(nil)).Elem().PkgPath()

// NewErrorInfo describes v, an error or a recovered panic payload. It
// returns nil for a nil v. When v carries no stack of its own, stack is
// used as-is. An error holding a nil pointer is described by its type
// with the message "<nil>" unless its Error method handles nil itself.
func NewErrorInfo(v any, stack []string) *ErrorInfo {
	if v == nil {
		return nil
	}
	err, ok := v.(error)
	if !ok {
		return &ErrorInfo{
			Type:       typeName(v),
			Message:    coerceString(v),
			Stacktrace: stack,
		}
	}
	if isNilPointer(err) {
		return &ErrorInfo{
			Type:       typeName(err),
			Message:    safeErrorString(err),
			Stacktrace: stack,
		}
	}
	info := &ErrorInfo{
		Type:       typeName(unwrapStackWrappers(err)),
		Message:    safeErrorString(err),
		Stacktrace: stack,
	}
	info.Chain, info.Ops, info.RootOp = buildErrorChain(err)
	if traced := tracedStack(err); len(traced) > 0 {
		info.Stacktrace = traced
	}
	return info
}

// isNilPointer reports whether v is a non-nil interface holding a nil
// pointer.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// typeName reports the Go type name of v without pointer stars. Runtime
// panics (divide by zero, nil dereference, bad index) all report
// runtime.Error.
func typeName(v any) string {
	if _, ok := v.(runtime.Error); ok {
		return "runtime.Error"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// unwrapStackWrappers skips pkg/errors WithStack/Wrap layers so the type
// reported is the one that was raised, not the annotation around it.
func unwrapStackWrappers(err error) error {
	for {
		if isNilPointer(err) {
			return err
		}
		if _, ok := err.(stackTracer); !ok {
			return err
		}
		c, ok := err.(causer)
		if !ok || c.Cause() == nil {
			return err
		}
		err = c.Cause()
	}
}

// buildErrorChain walks an error's cause chain and returns the messages,
// outermost first, the operation of each link ("" for links that are not
// DetailedErrors) and the innermost non-empty operation. ops is nil when
// no link has an operation. DetailedError.Cause() is preferred over
// errors.Unwrap; repeated messages, excessive depth and nil pointers end
// the walk, and a panicking Error or Unwrap method ends it with what was
// collected so far.
func buildErrorChain(err error) (chain []string, ops []string, rootOp string) {
	const maxDepth = 50
	seen := map[string]bool{}
	hasOp := false

	defer func() {
		_ = recover()
		if !hasOp {
			ops = nil
		}
	}()

	for visited := 0; err != nil && visited < maxDepth; visited++ {
		if isNilPointer(err) {
			chain = append(chain, safeErrorString(err))
			ops = append(ops, emptyString)
			break
		}

		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			chain = append(chain, dErr.Error())
			op := string(dErr.Op())
			ops = append(ops, op)
			if op != emptyString {
				hasOp = true
				rootOp = op
			}
			err = dErr.Cause()
			continue
		}

		msg := safeErrorString(err)
		if seen[msg] {
			break
		}
		seen[msg] = true
		chain = append(chain, msg)
		ops = append(ops, emptyString)
		err = stderrs.Unwrap(err)
	}
	return chain, ops, rootOp
}

// tracedStack returns the frames recorded by the deepest pkg/errors stack
// in err's chain, or nil when none carries one.
func tracedStack(err error) []string {
	var deepest pkgerrors.StackTrace
	for e := err; e != nil && !isNilPointer(e); e = stderrs.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			deepest = st.StackTrace()
		}
	}
	if len(deepest) == 0 {
		return nil
	}
	pcs := make([]uintptr, len(deepest))
	for i, f := range deepest {
		pcs[i] = uintptr(f)
	}
	return renderFrames(pcs)
}

// callerStack captures the current goroutine's stack, skipping skip frames
// above the caller of callerStack. Frames of this package's Logger and
// Event methods are dropped so the stack ends at user code.
func callerStack(skip int) []string {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	return renderFrames(pcs[:n])
}

// renderFrames formats program counters innermost first (as runtime
// reports them) into strings ordered outermost first.
func renderFrames(pcs []uintptr) []string {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	var out []string
	for {
		frame, more := frames.Next()
		if !skipFrame(frame.Function) {
			out = append(out, frame.File+":"+strconv.Itoa(frame.Line)+" "+frame.Function)
		}
		if !more {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func skipFrame(function string) bool {
	if function == "" || strings.HasPrefix(function, "runtime.") {
		return true
	}
	return function == pkgPath+".callerStack" ||
		strings.HasPrefix(function, pkgPath+".(*Logger).") ||
		strings.HasPrefix(function, pkgPath+".(*Event).")
}
