// internal/event/errors.go
package event

import "errors"

var (
	// ErrEventNotFound - на имя с такой сигнатурой аргументов никто не подписан.
	ErrEventNotFound = errors.New("event not found")
	// ErrSignatureMismatch оборачивается вместе с ErrEventNotFound, когда имя
	// есть, но подписано с другими типами аргументов.
	ErrSignatureMismatch = errors.New("event signature mismatch")
	// ErrSubscriberPanic - подписчики паниковали во время рассылки с изоляцией
	// паник.
	ErrSubscriberPanic = errors.New("event subscriber panicked")
	// ErrInvalidSubscriber - объект подписчика не ненулевой указатель.
	ErrInvalidSubscriber = errors.New("event subscriber must be a non-nil pointer")
	// ErrNilCallback - подписывается nil-колбэк.
	ErrNilCallback = errors.New("event callback is nil")
	// ErrEmptyName - подписка без имени события.
	ErrEmptyName = errors.New("event name is empty")
	// ErrClosed - реестр уже закрыт.
	ErrClosed = errors.New("event registry is closed")
)
