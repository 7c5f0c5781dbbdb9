// internal/event/event.go
package event

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"runtime/debug"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// key - адрес одного списка рассылки: имя события и сигнатура аргументов.
type key struct {
	name string
	sig  Signature
}

// identity - сравнимая форма объекта-подписчика.
type identity struct {
	typ reflect.Type
	ptr uintptr
}

// callback - сравнимая форма колбэка. Значения-методы сравниваются только по
// указателю на код: свежий o.Method совпадает с прежним, получателей
// различает подписчик. Замыкания и свободные функции несут еще и контекст
// замыкания: два замыкания из одного литерала - два разных колбэка.
type callback struct {
	code uintptr
	ctx  uintptr
}

type binding struct {
	owner   identity
	fn      callback
	call    any // func(), func(A), func(A, B), ...
	removed atomic.Bool
}

type entry struct {
	bindings []*binding
}

// Registry - шина публикации и подписки по имени, общая для всей игры.
// Подписчики регистрируют колбэк любой поддерживаемой арности под именем.
// Типы аргументов входят в ключ, поэтому Trigger доходит только до колбэков с
// подходящей сигнатурой.
//
// Доставка синхронная, в порядке подписки, в горутине вызывающего. Реестр
// безопасен для конкурентного использования, колбэки могут подписываться,
// отписываться и публиковать повторно.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*entry
	closed  bool

	logger  *slog.Logger
	isolate bool
}

// Option настраивает Registry.
type Option func(*Registry)

// WithLogger задает логгер для сообщений о ненайденных событиях и паниках.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPanicIsolation определяет поведение при панике подписчика. Включено (по
// умолчанию): паника перехватывается и пишется в лог, остальные подписчики
// все равно получают событие. Выключено: паника доходит до вызвавшего Trigger
// и прерывает рассылку.
func WithPanicIsolation(enabled bool) Option {
	return func(r *Registry) {
		r.isolate = enabled
	}
}

// NewRegistry создает пустой реестр.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[key]*entry),
		logger:  slog.Default(),
		isolate: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close снимает все подписки. Подписки после Close дают ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked(func(key, *binding) bool { return true })
	r.closed = true
}

func identify(sub any) (identity, error) {
	if sub == nil {
		return identity{}, nil
	}
	v := reflect.ValueOf(sub)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return identity{}, ErrInvalidSubscriber
	}
	return identity{typ: v.Type(), ptr: v.Pointer()}, nil
}

var methodValues sync.Map // code pointer -> bool

// isMethodValue - является ли code оберткой значения-метода. Компилятор gc
// называет такие обертки с суффиксом "-fm".
func isMethodValue(code uintptr) bool {
	if v, ok := methodValues.Load(code); ok {
		return v.(bool)
	}
	f := runtime.FuncForPC(code)
	is := f != nil && strings.HasSuffix(f.Name(), "-fm")
	methodValues.Store(code, is)
	return is
}

func callbackOf(fn any) (callback, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return callback{}, ErrNilCallback
	}
	cb := callback{code: v.Pointer()}
	if !isMethodValue(cb.code) {
		// Функция хранится в интерфейсе как указатель на замыкание
		cb.ctx = uintptr((*[2]unsafe.Pointer)(unsafe.Pointer(&fn))[1])
	}
	return cb, nil
}

func (r *Registry) register(name string, sig Signature, sub any, fn any) error {
	if name == "" {
		return ErrEmptyName
	}
	owner, err := identify(sub)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	cb, err := callbackOf(fn)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	k := key{name: name, sig: sig}
	e, ok := r.entries[k]
	if !ok {
		e = &entry{}
		r.entries[k] = e
	}
	for _, b := range e.bindings {
		if b.owner == owner && b.fn == cb {
			// Повторная регистрация той же пары ничего не меняет
			return nil
		}
	}
	e.bindings = append(e.bindings, &binding{owner: owner, fn: cb, call: fn})
	return nil
}

func (r *Registry) unregister(name string, sig Signature, sub any, fn any) {
	owner, err := identify(sub)
	if err != nil {
		return
	}
	cb, err := callbackOf(fn)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{name: name, sig: sig}
	e, ok := r.entries[k]
	if !ok {
		return
	}
	for i, b := range e.bindings {
		if b.owner == owner && b.fn == cb {
			b.removed.Store(true)
			// Delete сдвинул бы общий массив под снимком, который сейчас
			// рассылается, поэтому строим новый срез.
			rest := make([]*binding, 0, len(e.bindings)-1)
			rest = append(rest, e.bindings[:i]...)
			rest = append(rest, e.bindings[i+1:]...)
			e.bindings = rest
			break
		}
	}
	if len(e.bindings) == 0 {
		delete(r.entries, k)
	}
}

func (r *Registry) trigger(name string, sig Signature, invoke func(call any)) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	e, ok := r.entries[key{name: name, sig: sig}]
	var snapshot []*binding
	var others []Signature
	if ok {
		snapshot = slices.Clone(e.bindings)
	} else {
		others = r.signaturesLocked(name)
	}
	r.mu.RUnlock()

	if !ok {
		if len(others) > 0 {
			r.logger.Warn("event not found: signature mismatch",
				"event", name, "signature", sig.String(), "registered", others[0].String())
			return fmt.Errorf("%w: %q triggered with %s, registered with %s: %w",
				ErrEventNotFound, name, sig, others[0], ErrSignatureMismatch)
		}
		r.logger.Warn("event not found", "event", name, "signature", sig.String())
		return fmt.Errorf("%w: %q", ErrEventNotFound, name)
	}

	panicked := 0
	for _, b := range snapshot {
		if b.removed.Load() {
			continue
		}
		if !r.isolate {
			invoke(b.call)
			continue
		}
		if !r.deliver(name, b, invoke) {
			panicked++
		}
	}
	if panicked > 0 {
		return fmt.Errorf("%w: %d subscriber(s) of %q", ErrSubscriberPanic, panicked, name)
	}
	return nil
}

func (r *Registry) deliver(name string, b *binding, invoke func(call any)) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			r.logger.Error("event: panic in subscriber",
				"event", name, "error", rec, "stack", string(debug.Stack()))
		}
	}()
	invoke(b.call)
	return true
}

func (r *Registry) signaturesLocked(name string) []Signature {
	var sigs []Signature
	for k := range r.entries {
		if k.name == name {
			sigs = append(sigs, k.sig)
		}
	}
	return sigs
}

// dropLocked снимает подписки, подходящие под drop, и чистит пустые записи.
func (r *Registry) dropLocked(drop func(key, *binding) bool) {
	for k, e := range r.entries {
		kept := make([]*binding, 0, len(e.bindings))
		for _, b := range e.bindings {
			if drop(k, b) {
				b.removed.Store(true)
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) == 0 {
			delete(r.entries, k)
			continue
		}
		e.bindings = kept
	}
}

// RemoveAllForName снимает все подписки на name с любой сигнатурой.
func (r *Registry) RemoveAllForName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked(func(k key, _ *binding) bool { return k.name == name })
}

// RemoveAllForSubscriber снимает все подписки sub. Так состояния и владельцы
// прибирают за собой перед уходом.
func (r *Registry) RemoveAllForSubscriber(sub any) {
	owner, err := identify(sub)
	if err != nil || sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked(func(_ key, b *binding) bool { return b.owner == owner })
}

// RemoveAll снимает все подписки.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked(func(key, *binding) bool { return true })
}

// HasSubscribers - есть ли подписки на name.
func (r *Registry) HasSubscribers(name string) bool {
	return r.SubscriberCount(name) > 0
}

// SubscriberCount - число подписок на name по всем сигнатурам.
func (r *Registry) SubscriberCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for k, e := range r.entries {
		if k.name == name {
			n += len(e.bindings)
		}
	}
	return n
}

// Signatures возвращает сигнатуры, подписанные на name.
func (r *Registry) Signatures(name string) []Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.signaturesLocked(name)
}

// Names возвращает отсортированные имена событий, на которые есть подписки.
func (r *Registry) Names() []string {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.entries))
	for k := range r.entries {
		seen[k.name] = struct{}{}
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
