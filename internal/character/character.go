// internal/character/character.go
package character

import (
	"log/slog"
	"maps"
	"math"

	"go-gameframe/internal/component"
	"go-gameframe/internal/config"
	"go-gameframe/internal/defs"
	"go-gameframe/internal/entity"
	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
	"go-gameframe/internal/timer"
	"go-gameframe/internal/utils"
)

// Character - управляемое игроком тело под машиной состояний передвижения.
// Состояния читают намерение и тело, пишут целевую горизонтальную скорость и
// запрашивают переходы. Персонаж превращает целевую скорость в скорость тела,
// остальное делает физика.
type Character struct {
	Name   string
	ID     entity.EntityID
	Pos    *component.Position
	Vel    *component.Velocity
	Body   *component.Body
	Intent component.Intent
	Tuning defs.Movement

	Machine *state.Machine[Character]
	Events  *event.Registry
	Timers  *timer.Manager

	// Age - время жизни персонажа в секундах.
	Age float64
	// TargetSpeed - горизонтальная скорость, разрешенная текущим состоянием.
	TargetSpeed float64
	// Health падает через Damage; на нуле любое состояние уходит в Dead.
	Health float64
	// Facing - направление взгляда по X: 1 или -1.
	Facing float64

	// lastAttackAt - Age начала последней атаки.
	lastAttackAt float64

	ecs    *entity.ECS
	logger *slog.Logger
}

// Option настраивает Character.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	spawn    component.Position
	grounded bool
	catalog  *state.Catalog[Character]
}

// WithLogger задает логгер персонажа и его машины.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSpawn задает точку появления. grounded - стоит ли персонаж на земле.
func WithSpawn(pos component.Position, grounded bool) Option {
	return func(o *options) {
		o.spawn = pos
		o.grounded = grounded
	}
}

// WithCatalog заменяет каталог состояний, например чтобы добавить свои.
func WithCatalog(catalog *state.Catalog[Character]) Option {
	return func(o *options) { o.catalog = catalog }
}

// New создает тело персонажа в ecs и его машину. Первое состояние включает
// Start.
func New(name string, ecs *entity.ECS, events *event.Registry, timers *timer.Manager, tuning defs.Movement, opts ...Option) *Character {
	o := options{logger: slog.Default(), grounded: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = Catalog()
	}

	id := ecs.Spawn(name, o.spawn, component.Body{
		Width:        config.PlayerWidth,
		Height:       config.PlayerHeight,
		Gravity:      tuning.Gravity,
		MaxFallSpeed: tuning.MaxFallSpeed,
		Grounded:     o.grounded,
	})
	c := &Character{
		Name:   name,
		ID:     id,
		Pos:    ecs.Positions[id],
		Vel:    ecs.Velocities[id],
		Body:   ecs.Bodies[id],
		Tuning: tuning,
		Health: tuning.MaxHealth,
		Facing: 1,
		Events: events,

		lastAttackAt: math.Inf(-1),

		Timers: timers,
		ecs:    ecs,
		logger: o.logger.With("character", name),
	}
	c.Machine = state.NewMachine(o.catalog,
		state.WithName("character:"+name),
		state.WithLogger(c.logger),
	)
	return c
}

// Start инициализирует машину и входит в Idle.
func (c *Character) Start(sharing bool) bool {
	return c.Machine.InitializeWithState(KindIdle, c, sharing)
}

// State возвращает текущее состояние.
func (c *Character) State() state.Kind { return c.Machine.CurrentKind() }

// SetIntent сохраняет ввод текущего кадра.
func (c *Character) SetIntent(in component.Intent) {
	in.MoveX = utils.Clamp(in.MoveX, -1, 1)
	c.Intent = in
}

// RequestJump публикует запрос прыжка. false - никто не слушает, например
// в DoubleJumping или Dead.
func (c *Character) RequestJump() bool {
	return c.publish(event.JumpRequested)
}

// ReleaseJump публикует отпускание прыжка.
func (c *Character) ReleaseJump() bool {
	return c.publish(event.JumpReleased)
}

// RequestAttack публикует запрос атаки. Слушают только наземные состояния.
func (c *Character) RequestAttack() bool {
	return c.publish(event.AttackRequested)
}

// IsAlive сообщает, осталось ли здоровье.
func (c *Character) IsAlive() bool { return c.Health > 0 }

// Damage снимает здоровье и возвращает остаток. Переход в Dead делает
// следующий Update текущего состояния.
func (c *Character) Damage(amount float64) float64 {
	if amount > 0 {
		c.Health = math.Max(0, c.Health-amount)
	}
	return c.Health
}

// CanDoubleJump - жив и второй прыжок с последнего касания земли не тратился.
func (c *Character) CanDoubleJump() bool {
	used, _ := state.SharedAs[bool](c.Machine, KeyDoubleJumped)
	return c.IsAlive() && !used
}

// CanAttack - жив и перезарядка с начала прошлой атаки прошла.
func (c *Character) CanAttack() bool {
	return c.IsAlive() && c.Age-c.lastAttackAt >= c.Tuning.AttackCooldown
}

// Restore восстанавливает машину из снимка. Пока состояние входит заново, на
// доске лежит KeyRestoring: входы не повторяют импульсы и события.
func (c *Character) Restore(snap state.Snapshot) bool {
	data := maps.Clone(snap.Data)
	if data == nil {
		data = make(map[string]any)
	}
	data[KeyRestoring] = true
	ok := c.Machine.Restore(state.Snapshot{Kind: snap.Kind, Data: data})
	c.Machine.RemoveSharedData(KeyRestoring)
	return ok
}

func (c *Character) publish(name string) bool {
	if !c.Events.HasSubscribers(name) {
		return false
	}
	if err := event.Trigger1(c.Events, name, c.Name); err != nil {
		c.logger.Warn("publish failed", "event", name, "error", err)
		return false
	}
	return true
}

// TimeInState - сколько активно текущее состояние.
func (c *Character) TimeInState() float64 {
	at, ok := state.SharedAs[float64](c.Machine, KeyEnteredAt)
	if !ok {
		return 0
	}
	return c.Age - at
}

func (c *Character) Update(dt float64) {
	if dt > 0 {
		c.Age += dt
	}
	c.Machine.Update(dt)
}

func (c *Character) LateUpdate(dt float64) {
	c.Machine.LateUpdate(dt)
}

// FixedUpdate выполняет фиксированный шаг состояния и подводит
// горизонтальную скорость к целевой.
func (c *Character) FixedUpdate(dt float64) {
	c.Machine.FixedUpdate(dt)
	if !c.Machine.IsRunning() || dt <= 0 {
		return
	}
	accel := c.Tuning.Acceleration
	if !c.Body.Grounded {
		accel *= c.Tuning.AirControl
	}
	if s := utils.Sign(c.Intent.MoveX); s != 0 && c.TargetSpeed > 0 {
		c.Facing = s
	}
	target := c.Intent.MoveX * c.TargetSpeed
	c.Vel.X = utils.Approach(c.Vel.X, target, accel*dt)
}

// Destroy разрушает машину и удаляет тело. Состояния снимают свои подписки
// при освобождении.
func (c *Character) Destroy() {
	c.Machine.Destroy()
	c.ecs.Remove(c.ID)
}

// groundedKind выбирает наземное состояние по текущему намерению.
func (c *Character) groundedKind() state.Kind {
	switch {
	case math.Abs(c.Intent.MoveX) <= c.Tuning.MoveDeadzone:
		return KindIdle
	case c.Intent.Sprint:
		return KindRunning
	}
	return KindWalking
}

func (c *Character) airSpeed() float64 {
	if c.Intent.Sprint {
		return c.Tuning.RunSpeed
	}
	return c.Tuning.WalkSpeed
}
