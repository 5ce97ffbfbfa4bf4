package structlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(xs []int) (int, error) {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return sum, nil
}

func TestLogExecution(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")

	wrapped := LogExecution(l, add, ExecutionOptions{IncludeArgs: true, IncludeResult: true})
	res, err := wrapped([]int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5, res)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)

	entry, exit := entries[0], entries[1]
	assert.Equal(t, "INFO", entry[LevelKey])
	assert.Equal(t, "function_entry: structlog.add", entry[MessageKey])
	assert.Equal(t, "structlog.add", entry[FunctionKey])
	assert.Equal(t, []any{float64(2), float64(3)}, entry[ArgsKey])
	assert.NotContains(t, entry, ResultKey)

	assert.Equal(t, "function_exit: structlog.add", exit[MessageKey])
	assert.Equal(t, "success", exit[StatusKey])
	assert.Equal(t, float64(5), exit[ResultKey])
	require.Contains(t, exit, DurationMSKey)
	duration, ok := exit[DurationMSKey].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, duration, 0.0)
}

func TestLogExecutionOptions(t *testing.T) {
	l, buf := newCapturedLogger(t, "app", WithLevel(DebugLevel))

	wrapped := LogExecution(l, add, ExecutionOptions{Name: "sum", Level: DebugLevel})
	_, err := wrapped([]int{1})
	require.NoError(t, err)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "DEBUG", e[LevelKey])
		assert.Equal(t, "sum", e[FunctionKey])
		assert.NotContains(t, e, ArgsKey)
		assert.NotContains(t, e, ResultKey)
	}
}

func TestLogExecutionBelowThreshold(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	wrapped := LogExecution(l, add, ExecutionOptions{Level: DebugLevel})

	res, err := wrapped([]int{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 8, res)
	assert.Zero(t, buf.Len())
}

func TestLogExecutionPassesErrorsThrough(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	errBoom := errors.New("boom")

	wrapped := LogExecution(l, func(string) (int, error) { return 0, errBoom }, ExecutionOptions{})
	_, err := wrapped("x")
	assert.Same(t, errBoom, err)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "function_entry", entries[0][EventKey])
}

func TestLogExecutionDoesNotRecoverPanics(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")

	wrapped := LogExecution(l, func(int) (int, error) { panic("boom") }, ExecutionOptions{})
	assert.PanicsWithValue(t, "boom", func() { _, _ = wrapped(1) })

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "function_entry", entries[0][EventKey])
}

func TestLogExecutionIgnoresSinkFailures(t *testing.T) {
	l := New("app", WithOutput(failingWriter{}))
	res, err := LogExecution(l, add, ExecutionOptions{})([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res)
}

func TestLogErrorsReturnedError(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	valueErr := &ValueError{msg: "bad value"}

	wrapped := LogErrors(l, func(s string) (int, error) { return 0, valueErr }, ErrorOptions{Name: "parse"})
	_, err := wrapped("x")
	assert.Same(t, valueErr, err)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "ERROR", e[LevelKey])
	assert.Equal(t, "function_error: parse", e[MessageKey])
	assert.Equal(t, "structlog.ValueError", e[ErrorTypeKey])
	assert.Equal(t, "bad value", e[ErrorMessageKey])
	assert.NotEmpty(t, e[StacktraceKey])
	assert.NotContains(t, e, PanicKey)
}

func TestLogErrorsSuccessIsSilent(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	res, err := LogErrors(l, add, ErrorOptions{})([]int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, res)
	assert.Zero(t, buf.Len())
}

func TestLogErrorsPanicIsLoggedAndResumed(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")

	divide := func(xs []int) (int, error) {
		return xs[0] / xs[1], nil
	}
	wrapped := LogErrors(l, divide, ErrorOptions{})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_, _ = wrapped([]int{1, 0})
	}()

	// The original runtime error is resumed unchanged.
	err, ok := recovered.(error)
	require.True(t, ok)
	assert.Contains(t, err.Error(), "integer divide by zero")

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "ERROR", e[LevelKey])
	assert.Equal(t, true, e[PanicKey])
	assert.Equal(t, "runtime.Error", e[ErrorTypeKey])
	assert.NotContains(t, e, ExceptionKey)
	assert.True(t, strings.HasPrefix(e[MessageKey].(string), "function_error: structlog.TestLogErrorsPanicIsLoggedAndResumed"))

	stack, ok := e[StacktraceKey].([]any)
	require.True(t, ok)
	require.NotEmpty(t, stack)
	// Outermost first: the test body comes before the function that panicked.
	testFrame, panicFrame := -1, -1
	for i, frame := range stack {
		s := frame.(string)
		switch {
		case strings.HasSuffix(s, ".TestLogErrorsPanicIsLoggedAndResumed"):
			testFrame = i
		case strings.HasSuffix(s, ".TestLogErrorsPanicIsLoggedAndResumed.func1"):
			panicFrame = i
		}
	}
	require.NotEqual(t, -1, testFrame, stack)
	require.NotEqual(t, -1, panicFrame, stack)
	assert.Less(t, testFrame, panicFrame)
}

func TestLogErrorsRespectsThreshold(t *testing.T) {
	l, buf := newCapturedLogger(t, "app", WithLevel(CriticalLevel))
	errBoom := errors.New("boom")

	_, err := LogErrors(l, func(int) (int, error) { return 0, errBoom }, ErrorOptions{})(1)
	assert.Same(t, errBoom, err)
	assert.Zero(t, buf.Len())
}

func TestDecoratorsCompose(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	errBoom := errors.New("boom")

	traced := Execution[int, int](l, ExecutionOptions{Name: "work"})
	guarded := Errors[int, int](l, ErrorOptions{Name: "work"})

	fn := guarded(traced(func(n int) (int, error) {
		if n < 0 {
			return 0, errBoom
		}
		return n * 2, nil
	}))

	res, err := fn(21)
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	_, err = fn(-1)
	assert.Same(t, errBoom, err)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 4)
	events := make([]any, 0, len(entries))
	for _, e := range entries {
		events = append(events, e[EventKey])
	}
	assert.Equal(t, []any{"function_entry", "function_exit", "function_entry", "function_error"}, events)
}

func TestLogExecutionFunc(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")

	upper := LogExecutionFunc(l, strings.ToUpper, ExecutionOptions{IncludeResult: true})
	assert.Equal(t, "ABC", upper("abc"))

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "strings.ToUpper", entries[0][FunctionKey])
	assert.Equal(t, "success", entries[1][StatusKey])
	assert.Equal(t, "ABC", entries[1][ResultKey])
}

func TestLogErrorsFuncRecordsPanics(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")

	first := LogErrorsFunc(l, func(xs []int) int { return xs[0] }, ErrorOptions{Name: "first"})
	assert.Equal(t, 7, first([]int{7}))
	assert.Zero(t, buf.Len())

	assert.Panics(t, func() { first(nil) })

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "function_error: first", entries[0][MessageKey])
	assert.Equal(t, "runtime.Error", entries[0][ErrorTypeKey])
	assert.Equal(t, true, entries[0][PanicKey])
}

func TestLogErrorsTypedNilError(t *testing.T) {
	l, buf := newCapturedLogger(t, "app")
	var nilErr *ValueError

	wrapped := LogErrors(l, func(int) (int, error) { return 0, nilErr }, ErrorOptions{Name: "lookup"})

	var err error
	require.NotPanics(t, func() { _, err = wrapped(1) })
	assert.Equal(t, error(nilErr), err)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "structlog.ValueError", entries[0][ErrorTypeKey])
	assert.Equal(t, "<nil>", entries[0][ErrorMessageKey])
}
