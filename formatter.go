package structlog

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Record is one log event, built per emission and discarded after.
type Record struct {
	Time    time.Time
	Level   Level
	Logger  string
	Message string
	Fields  Fields
	Error   *ErrorInfo
}

// errOutputDisabled is returned when zerolog's global level disables output.
var errOutputDisabled = errors.New("structlog: zerolog output is globally disabled")

// Formatter renders records as single-line JSON objects.
//
// Key order is timestamp, level, logger, message, the fields sorted by key,
// then error_type, error_message, error_chain, error_ops, error_root_op and
// stacktrace when the record carries an error.
type Formatter struct{}

// recordPool reuses encode buffers across emissions.
var recordPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Format returns the JSON line for rec without a trailing line break.
func (f Formatter) Format(rec Record) (string, error) {
	buf := recordPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer recordPool.Put(buf)

	if err := f.encode(buf, rec); err != nil {
		return emptyString, err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// encode appends rec to buf followed by a single line break.
func (f Formatter) encode(buf *bytes.Buffer, rec Record) error {
	zl := zerolog.New(buf)
	e := zl.Log()
	if e == nil {
		return errOutputDisabled
	}

	e.Str(TimestampKey, rec.Time.UTC().Format(timestampFormat)).
		Str(LevelKey, rec.Level.String()).
		Str(LoggerKey, rec.Logger).
		Str(MessageKey, rec.Message)

	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		name := k
		if _, reserved := reservedKeys[k]; reserved {
			name = renamedKey(rec.Fields, k)
		}
		appendField(e, name, rec.Fields[k])
	}

	if info := rec.Error; info != nil {
		e.Str(ErrorTypeKey, info.Type).Str(ErrorMessageKey, info.Message)
		if len(info.Chain) > 1 {
			e.Strs(ErrorChainKey, info.Chain)
		}
		if len(info.Ops) > 0 {
			e.Strs(ErrorOpsKey, info.Ops)
		}
		if info.RootOp != emptyString {
			e.Str(ErrorRootOpKey, info.RootOp)
		}
		stack := info.Stacktrace
		if stack == nil {
			stack = []string{}
		}
		e.Strs(StacktraceKey, stack)
	}

	e.Send()
	return nil
}

// renamedKey prefixes a reserved key until it no longer clashes with a
// caller key, so "message" becomes "fields.message" or, if that is taken,
// "fields.fields.message".
func renamedKey(fields Fields, key string) string {
	name := collidingPrefix + key
	for {
		if _, taken := fields[name]; !taken {
			return name
		}
		name = collidingPrefix + name
	}
}

// appendField writes one field. Values that cannot be marshalled are
// coerced to their %+v string so the record is still emitted.
func appendField(e *zerolog.Event, key string, v any) {
	switch val := v.(type) {
	case nil:
		e.RawJSON(key, []byte("null"))
	case string:
		e.Str(key, val)
	case bool:
		e.Bool(key, val)
	case int:
		e.Int(key, val)
	case int8:
		e.Int8(key, val)
	case int16:
		e.Int16(key, val)
	case int32:
		e.Int32(key, val)
	case int64:
		e.Int64(key, val)
	case uint:
		e.Uint(key, val)
	case uint8:
		e.Uint8(key, val)
	case uint16:
		e.Uint16(key, val)
	case uint32:
		e.Uint32(key, val)
	case uint64:
		e.Uint64(key, val)
	case float32:
		e.Float32(key, val)
	case float64:
		e.Float64(key, val)
	case []string:
		e.Strs(key, val)
	case time.Time:
		e.Str(key, val.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		e.Str(key, val.String())
	case error:
		e.Str(key, safeErrorString(val))
	default:
		if b, ok := marshalValue(val); ok {
			e.RawJSON(key, b)
			return
		}
		e.Str(key, coerceString(val))
	}
}

func marshalValue(v any) (b []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b, ok = nil, false
		}
	}()
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return b, true
}

// safeErrorString returns err.Error(), or "<nil>" for a nil pointer whose
// Error method cannot handle a nil receiver.
func safeErrorString(err error) (s string) {
	defer func() {
		if r := recover(); r != nil {
			if isNilPointer(err) {
				s = nilErrorMessage
				return
			}
			s = fmt.Sprintf("%T", err)
		}
	}()
	return err.Error()
}

func coerceString(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("%T", v)
		}
	}()
	return fmt.Sprintf("%+v", v)
}
