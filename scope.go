package structlog

import (
	"errors"
	"fmt"
	"maps"
)

var (
	// ErrScopeClosed is the panic value for closing a scope twice.
	ErrScopeClosed = errors.New("structlog: scope already closed")
	// ErrScopeOrder is wrapped by the panic value for closing a scope that
	// is not the innermost open scope of its logger.
	ErrScopeOrder = errors.New("structlog: scope closed out of order")
)

// Scope is a temporary context layer. Its fields apply to every record of
// the logger until Close.
type Scope struct {
	logger *Logger
	fields Fields
	closed bool
}

// Scope pushes fields as a temporary layer and returns the handle that
// removes it. Scopes must be closed innermost first, typically with defer:
//
//	s := log.Scope(structlog.Fields{"op": "query"})
//	defer s.Close()
func (l *Logger) Scope(fields Fields) *Scope {
	s := &Scope{
		logger: l,
		fields: maps.Clone(fields),
	}
	l.mu.Lock()
	l.scoped = append(l.scoped, s)
	l.mu.Unlock()
	return s
}

// Close removes the scope's layer. It panics when the scope was already
// closed or is not the innermost open scope; unbalanced use is a bug in
// the caller and is not repaired silently.
func (s *Scope) Close() {
	l := s.logger
	l.mu.Lock()
	defer l.mu.Unlock()

	if s.closed {
		panic(ErrScopeClosed)
	}
	n := len(l.scoped)
	if n == 0 || l.scoped[n-1] != s {
		panic(fmt.Errorf("%w: %d scope(s) opened later are still open on %q", ErrScopeOrder, openAbove(l.scoped, s), l.name))
	}
	l.scoped[n-1] = nil
	l.scoped = l.scoped[:n-1]
	s.closed = true
}

func openAbove(stack []*Scope, s *Scope) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == s {
			return len(stack) - 1 - i
		}
	}
	return len(stack)
}

// WithScope runs fn with fields pushed as a temporary layer. The layer is
// removed on every exit path, a panic in fn included.
func (l *Logger) WithScope(fields Fields, fn func() error) error {
	s := l.Scope(fields)
	defer s.Close()
	return fn()
}
