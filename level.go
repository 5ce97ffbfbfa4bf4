package structlog

import (
	"strconv"
	"strings"
)

// Level is a record severity. Ranks are fixed and totally ordered.
type Level int

const (
	DebugLevel    Level = 10
	InfoLevel     Level = 20
	WarningLevel  Level = 30
	ErrorLevel    Level = 40
	CriticalLevel Level = 50
)

var levelNames = map[Level]string{
	DebugLevel:    "DEBUG",
	InfoLevel:     "INFO",
	WarningLevel:  "WARNING",
	ErrorLevel:    "ERROR",
	CriticalLevel: "CRITICAL",
}

// Levels returns the known levels in rank order.
func Levels() []Level {
	return []Level{DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel}
}

// ParseLevel maps a level name to its Level, ignoring case and surrounding
// whitespace. Unknown names resolve to InfoLevel; parsing never fails.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARNING":
		return WarningLevel
	case "ERROR":
		return ErrorLevel
	case "CRITICAL":
		return CriticalLevel
	default:
		return InfoLevel
	}
}

// Rank returns the numeric severity.
func (l Level) Rank() int {
	return int(l)
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "LEVEL(" + strconv.Itoa(int(l)) + ")"
}

// Enabled reports whether a record at l passes the given threshold.
func (l Level) Enabled(threshold Level) bool {
	return l.Rank() >= threshold.Rank()
}

// orDefault returns InfoLevel for the zero Level.
func (l Level) orDefault() Level {
	if l == 0 {
		return InfoLevel
	}
	return l
}
