// internal/event/arity.go
package event

// Register0 подписывает fn на name для событий без аргументов. sub - объект,
// которому принадлежит колбэк (указатель), или nil для свободной функции.
// Пара (sub, fn) определяет подписку для Unregister0.
func Register0(r *Registry, name string, sub any, fn func()) error {
	return r.register(name, SignatureOf0(), sub, fn)
}

// Unregister0 снимает подписку Register0. Неизвестные подписки игнорируются.
func Unregister0(r *Registry, name string, sub any, fn func()) {
	r.unregister(name, SignatureOf0(), sub, fn)
}

// Trigger0 доставляет событие без аргументов.
func Trigger0(r *Registry, name string) error {
	return r.trigger(name, SignatureOf0(), func(call any) {
		call.(func())()
	})
}

func Register1[A any](r *Registry, name string, sub any, fn func(A)) error {
	return r.register(name, SignatureOf1[A](), sub, fn)
}

func Unregister1[A any](r *Registry, name string, sub any, fn func(A)) {
	r.unregister(name, SignatureOf1[A](), sub, fn)
}

func Trigger1[A any](r *Registry, name string, a A) error {
	return r.trigger(name, SignatureOf1[A](), func(call any) {
		call.(func(A))(a)
	})
}

func Register2[A, B any](r *Registry, name string, sub any, fn func(A, B)) error {
	return r.register(name, SignatureOf2[A, B](), sub, fn)
}

func Unregister2[A, B any](r *Registry, name string, sub any, fn func(A, B)) {
	r.unregister(name, SignatureOf2[A, B](), sub, fn)
}

func Trigger2[A, B any](r *Registry, name string, a A, b B) error {
	return r.trigger(name, SignatureOf2[A, B](), func(call any) {
		call.(func(A, B))(a, b)
	})
}

func Register3[A, B, C any](r *Registry, name string, sub any, fn func(A, B, C)) error {
	return r.register(name, SignatureOf3[A, B, C](), sub, fn)
}

func Unregister3[A, B, C any](r *Registry, name string, sub any, fn func(A, B, C)) {
	r.unregister(name, SignatureOf3[A, B, C](), sub, fn)
}

func Trigger3[A, B, C any](r *Registry, name string, a A, b B, c C) error {
	return r.trigger(name, SignatureOf3[A, B, C](), func(call any) {
		call.(func(A, B, C))(a, b, c)
	})
}

func Register4[A, B, C, D any](r *Registry, name string, sub any, fn func(A, B, C, D)) error {
	return r.register(name, SignatureOf4[A, B, C, D](), sub, fn)
}

func Unregister4[A, B, C, D any](r *Registry, name string, sub any, fn func(A, B, C, D)) {
	r.unregister(name, SignatureOf4[A, B, C, D](), sub, fn)
}

func Trigger4[A, B, C, D any](r *Registry, name string, a A, b B, c C, d D) error {
	return r.trigger(name, SignatureOf4[A, B, C, D](), func(call any) {
		call.(func(A, B, C, D))(a, b, c, d)
	})
}
