// internal/script/errors.go
package script

import "errors"

var (
	// ErrCompile оборачивает синтаксические ошибки Lua и ошибки загрузки.
	ErrCompile = errors.New("script: compile failed")
	// ErrNoDefinition - скрипт не вернул таблицу.
	ErrNoDefinition = errors.New("script: script must return a table")
	// ErrBadHook - поле хука задано не функцией.
	ErrBadHook = errors.New("script: hook is not a function")
	// ErrEmptyKind - скрипт загружается без вида.
	ErrEmptyKind = errors.New("script: empty kind")
	// ErrClosed - рантайм уже закрыт.
	ErrClosed = errors.New("script: runtime closed")
	// ErrUnsupportedValue - значение не может перейти между Lua и Go (таблицы,
	// функции, userdata).
	ErrUnsupportedValue = errors.New("script: unsupported value")
)
