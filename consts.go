package structlog

const (
	emptyString = ""

	// ExceptionKey is the reserved field holding an error or panic value.
	// It is never emitted as-is; the formatter expands it into the
	// error_* keys and the stacktrace.
	ExceptionKey = "exception"

	TimestampKey    = "timestamp"
	LevelKey        = "level"
	LoggerKey       = "logger"
	MessageKey      = "message"
	ErrorTypeKey    = "error_type"
	ErrorMessageKey = "error_message"
	ErrorChainKey   = "error_chain"
	ErrorOpsKey     = "error_ops"
	ErrorRootOpKey  = "error_root_op"
	StacktraceKey   = "stacktrace"

	// Decorator field names.
	FunctionKey   = "function"
	EventKey      = "event"
	ArgsKey       = "args"
	ResultKey     = "result"
	StatusKey     = "status"
	DurationMSKey = "duration_ms"
	PanicKey      = "panic"

	// collidingPrefix is prepended to user keys that clash with record keys.
	collidingPrefix = "fields."

	timestampFormat = "2006-01-02T15:04:05.000Z"
	nilErrorMessage = "<nil>"
	nameSeparator   = "."
)

const (
	eventFunctionEntry = "function_entry"
	eventFunctionExit  = "function_exit"
	eventFunctionError = "function_error"
	statusSuccess      = "success"
)

const (
	errMsgNilConfig     = "Logging config is nil."
	errMsgConfigInvalid = "Logging configuration is invalid."
	errMsgSinkWrite     = "Writing log record failed."
	errMsgFormat        = "Formatting log record failed."
	errMsgOpenOutput    = "Opening log output failed."
	errMsgLoadConfig    = "Loading logging configuration failed."
	errMsgCloseOutput   = "Closing log output failed."
)

var reservedKeys = map[string]struct{}{
	TimestampKey:    {},
	LevelKey:        {},
	LoggerKey:       {},
	MessageKey:      {},
	ErrorTypeKey:    {},
	ErrorMessageKey: {},
	ErrorChainKey:   {},
	ErrorOpsKey:     {},
	ErrorRootOpKey:  {},
	StacktraceKey:   {},
}
