// internal/state/state.go
package state

import "weak"

// Kind - имя реализации состояния. Пустой Kind значит "нет состояния".
type Kind string

// State - один режим поведения владельца типа O. Конкретные состояния
// встраивают Base[O] с пустыми хуками и ссылкой на машину и переопределяют
// только нужные хуки.
//
// На каждую активацию машина вызывает Enter ровно один раз до первого тика и
// Exit ровно один раз при уходе. Exit предыдущего состояния всегда
// завершается до начала Enter следующего.
type State[O any] interface {
	// Initialize вызывается один раз сразу после создания экземпляра.
	Initialize(owner *O)
	Enter()
	Exit()
	Update(dt float64)
	LateUpdate(dt float64)
	FixedUpdate(dt float64)

	base() *Base[O]
}

// Disposer реализуют состояния с ресурсами (подписки на события, таймеры),
// которые надо освободить, когда машина бросает экземпляр.
type Disposer interface {
	Dispose()
}

// Base хранит ссылку на машину и владельца. Ни одна не держит цель живой:
// владелец хранится слабо, обе ссылки сбрасываются при освобождении
// экземпляра.
type Base[O any] struct {
	machine *Machine[O]
	owner   weak.Pointer[O]
	kind    Kind
}

func (b *Base[O]) base() *Base[O] { return b }

func (b *Base[O]) attach(m *Machine[O], kind Kind, owner weak.Pointer[O]) {
	b.machine = m
	b.kind = kind
	b.owner = owner
}

func (b *Base[O]) detach() {
	b.machine = nil
	b.owner = weak.Pointer[O]{}
}

// Machine возвращает машину или nil, если экземпляр уже брошен.
func (b *Base[O]) Machine() *Machine[O] { return b.machine }

// Owner возвращает владельца или nil, если его больше нет.
func (b *Base[O]) Owner() *O { return b.owner.Value() }

// Kind возвращает вид, для которого создан экземпляр.
func (b *Base[O]) Kind() Kind { return b.kind }

// Active - является ли экземпляр текущим состоянием машины.
func (b *Base[O]) Active() bool {
	if b.machine == nil || b.machine.current == nil {
		return false
	}
	return b.machine.current.base() == b
}

// Blackboard возвращает доску машины или nil после отвязки.
func (b *Base[O]) Blackboard() *Blackboard {
	if b.machine == nil {
		return nil
	}
	return b.machine.board
}

// CheckTransition просит машину перейти в target. Переход может запросить
// только текущее состояние: устаревшие колбэки неактивного или брошенного
// экземпляра отклоняются. Возвращает, случился ли переход.
func (b *Base[O]) CheckTransition(target Kind, reenterIfCurrent bool) bool {
	if !b.Active() {
		return false
	}
	return b.machine.ChangeState(target, reenterIfCurrent)
}

func (b *Base[O]) Initialize(owner *O)    {}
func (b *Base[O]) Enter()                 {}
func (b *Base[O]) Exit()                  {}
func (b *Base[O]) Update(dt float64)      {}
func (b *Base[O]) LateUpdate(dt float64)  {}
func (b *Base[O]) FixedUpdate(dt float64) {}
