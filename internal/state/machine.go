// internal/state/machine.go
package state

import (
	"context"
	"log/slog"
	"sort"
	"weak"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "go-gameframe/internal/state"

// Machine управляет поведением одного владельца. Хранит текущее состояние,
// лениво заполняемый кэш экземпляров по видам (при общем использовании
// состояний) и общую доску.
//
// Машиной управляют из одной горутины: владелец передает тики и запрашивает
// переходы из своего игрового цикла. Снаружи можно трогать только доску.
type Machine[O any] struct {
	name    string
	catalog *Catalog[O]
	logger  *slog.Logger
	tracer  trace.Tracer

	owner   weak.Pointer[O]
	current State[O]
	kind    Kind
	cache   map[Kind]State[O]
	board   *Blackboard

	initialized bool
	running     bool
	sharing     bool
	destroyed   bool
	exiting     bool
}

// Option настраивает Machine.
type Option func(*machineOptions)

type machineOptions struct {
	name   string
	logger *slog.Logger
	tracer trace.Tracer
}

// WithName - метка машины в логах и трассировке.
func WithName(name string) Option {
	return func(o *machineOptions) { o.name = name }
}

// WithLogger задает логгер для ошибок конфигурации и переходов.
func WithLogger(logger *slog.Logger) Option {
	return func(o *machineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer задает трассировщик, который пишет по спану на переход. По
// умолчанию глобальный трассировщик OpenTelemetry, пустой до установки
// провайдера.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *machineOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewMachine создает неинициализированную машину с состояниями из catalog.
func NewMachine[O any](catalog *Catalog[O], opts ...Option) *Machine[O] {
	o := machineOptions{
		name:   "state-machine",
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if catalog == nil {
		catalog = NewCatalog[O]()
	}
	return &Machine[O]{
		name:    o.name,
		catalog: catalog,
		logger:  o.logger,
		tracer:  o.tracer,
		cache:   make(map[Kind]State[O]),
		board:   NewBlackboard(),
	}
}

// Initialize привязывает машину к owner и запускает ее без входа в состояние.
// nil-владелец - ошибка конфигурации: она пишется в лог, возвращается false.
func (m *Machine[O]) Initialize(owner *O, enableStateSharing bool) bool {
	if m.destroyed {
		m.logger.Warn("initialize on destroyed state machine", "machine", m.name)
		return false
	}
	if owner == nil {
		m.logger.Error("state machine initialized without owner", "machine", m.name)
		return false
	}
	m.owner = weak.Make(owner)
	m.sharing = enableStateSharing
	m.initialized = true
	m.running = true
	return true
}

// InitializeWithState - Initialize, затем ChangeState(initial).
func (m *Machine[O]) InitializeWithState(initial Kind, owner *O, enableStateSharing bool) bool {
	if !m.Initialize(owner, enableStateSharing) {
		return false
	}
	return m.ChangeState(initial, false)
}

// ChangeState переводит машину в target. Запрос текущего вида ничего не
// делает и возвращает false, если не задан reenterIfCurrent. Иначе текущее
// состояние выходит, целевой экземпляр берется из кэша (при общем
// использовании) или строится заново, становится текущим и входит.
//
// Через эту функцию идут все переходы, и опрашиваемые, и событийные. Вызовы
// обрабатываются строго по порядку, побеждает последний. Переход, запрошенный
// из Enter, завершается до возврата внешнего вызова. Запросы из Exit и на
// остановленной машине отклоняются.
func (m *Machine[O]) ChangeState(target Kind, reenterIfCurrent bool) bool {
	switch {
	case m.destroyed:
		return false
	case !m.initialized:
		m.logger.Error("change state on uninitialized state machine", "machine", m.name, "to", string(target))
		return false
	case !m.running:
		m.logger.Debug("change state on stopped state machine", "machine", m.name, "to", string(target))
		return false
	case m.exiting:
		m.logger.Warn("change state requested during exit", "machine", m.name, "to", string(target))
		return false
	case target == "":
		m.logger.Error("change state to empty kind", "machine", m.name)
		return false
	}
	if m.current != nil && target == m.kind && !reenterIfCurrent {
		return false
	}
	if !m.resolvable(target) {
		m.logger.Error("unknown state kind", "machine", m.name, "kind", string(target))
		return false
	}

	from := m.kind
	_, span := m.tracer.Start(context.Background(), "state.ChangeState",
		trace.WithAttributes(
			attribute.String("state.machine", m.name),
			attribute.String("state.from", string(from)),
			attribute.String("state.to", string(target)),
			attribute.Bool("state.reenter", from == target),
		))
	defer span.End()

	if prev := m.current; prev != nil {
		m.exiting = true
		prev.Exit()
		m.exiting = false
		if m.destroyed {
			return false
		}
		m.current, m.kind = nil, ""
		if !m.sharing {
			m.dispose(prev)
		}
	}

	next := m.getOrCreate(target)
	if next == nil {
		m.logger.Error("state factory returned nil", "machine", m.name, "kind", string(target))
		return false
	}
	m.current, m.kind = next, target
	m.logger.Debug("state changed", "machine", m.name, "from", string(from), "to", string(target))
	next.Enter()
	return true
}

func (m *Machine[O]) resolvable(kind Kind) bool {
	if m.sharing {
		if _, ok := m.cache[kind]; ok {
			return true
		}
	}
	return m.catalog.Has(kind)
}

func (m *Machine[O]) getOrCreate(kind Kind) State[O] {
	if m.sharing {
		if s, ok := m.cache[kind]; ok {
			return s
		}
	}
	s := m.catalog.New(kind)
	if s == nil {
		return nil
	}
	s.base().attach(m, kind, m.owner)
	s.Initialize(m.owner.Value())
	if m.sharing {
		m.cache[kind] = s
	}
	return s
}

func (m *Machine[O]) dispose(s State[O]) {
	if d, ok := s.(Disposer); ok {
		d.Dispose()
	}
	s.base().detach()
}

// CurrentState возвращает активное состояние или nil.
func (m *Machine[O]) CurrentState() State[O] { return m.current }

// CurrentKind возвращает активный вид или "", если состояния нет.
func (m *Machine[O]) CurrentKind() Kind { return m.kind }

// Owner возвращает владельца или nil: до Initialize, после Destroy и после
// сборки владельца.
func (m *Machine[O]) Owner() *O { return m.owner.Value() }

// Name возвращает метку из WithName.
func (m *Machine[O]) Name() string { return m.name }

func (m *Machine[O]) IsRunning() bool   { return m.running }
func (m *Machine[O]) IsSharing() bool   { return m.sharing }
func (m *Machine[O]) IsDestroyed() bool { return m.destroyed }

// CachedKinds - отсортированные виды, у которых есть экземпляр в кэше.
func (m *Machine[O]) CachedKinds() []Kind {
	kinds := make([]Kind, 0, len(m.cache))
	for k := range m.cache {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Stop останавливает тики. Текущее состояние остается, Exit не вызывается.
func (m *Machine[O]) Stop() {
	m.running = false
}

// Resume возобновляет тики после Stop. Не работает для машин без Initialize
// и разрушенных.
func (m *Machine[O]) Resume() bool {
	if !m.initialized || m.destroyed {
		return false
	}
	m.running = true
	return true
}

// Destroy разрушает машину насовсем: экземпляры освобождаются, кэш и доска
// очищаются, владелец отвязывается. Exit не вызывается. Повторный вызов
// ничего не делает.
func (m *Machine[O]) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.running = false

	current := m.current
	m.current, m.kind = nil, ""
	if current != nil && !m.sharing {
		m.dispose(current)
	}
	for _, s := range m.cache {
		m.dispose(s)
	}
	clear(m.cache)
	m.board.seal()
	m.owner = weak.Pointer[O]{}
}

// Blackboard возвращает общее хранилище данных.
func (m *Machine[O]) Blackboard() *Blackboard { return m.board }

// SetSharedData кладет value на доску под key.
func (m *Machine[O]) SetSharedData(key string, value any) { m.board.Set(key, value) }

// SharedData читает key с доски.
func (m *Machine[O]) SharedData(key string) (any, bool) { return m.board.Get(key) }

// RemoveSharedData удаляет key с доски.
func (m *Machine[O]) RemoveSharedData(key string) { m.board.Remove(key) }

// SharedAs читает key с доски m как T.
func SharedAs[T any, O any](m *Machine[O], key string) (T, bool) {
	return Value[T](m.board, key)
}

func (m *Machine[O]) tickable() State[O] {
	if !m.running || m.destroyed {
		return nil
	}
	return m.current
}

func clampDelta(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	return dt
}

// Update передает тик кадра текущему состоянию.
func (m *Machine[O]) Update(dt float64) {
	if s := m.tickable(); s != nil {
		s.Update(clampDelta(dt))
	}
}

// LateUpdate передает поздний тик текущему состоянию.
func (m *Machine[O]) LateUpdate(dt float64) {
	if s := m.tickable(); s != nil {
		s.LateUpdate(clampDelta(dt))
	}
}

// FixedUpdate передает фиксированный тик текущему состоянию.
func (m *Machine[O]) FixedUpdate(dt float64) {
	if s := m.tickable(); s != nil {
		s.FixedUpdate(clampDelta(dt))
	}
}
