// internal/state/errors.go
package state

import "errors"

var (
	// ErrEmptyKind - фабрика регистрируется без вида.
	ErrEmptyKind = errors.New("state kind is empty")
	// ErrNilFactory - регистрируется nil-фабрика.
	ErrNilFactory = errors.New("state factory is nil")
	// ErrDuplicateKind - у вида уже есть фабрика.
	ErrDuplicateKind = errors.New("state kind already registered")
)
