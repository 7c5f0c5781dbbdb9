// internal/drone/drone.go
package drone

import (
	"embed"
	"fmt"
	"log/slog"
	"math"

	lua "github.com/yuin/gopher-lua"

	"go-gameframe/internal/component"
	"go-gameframe/internal/config"
	"go-gameframe/internal/event"
	"go-gameframe/internal/script"
	"go-gameframe/internal/state"
	"go-gameframe/internal/utils"
)

//go:embed scripts/*.lua
var defaultScripts embed.FS

// Состояния дрона из встроенных скриптов.
const (
	KindHover  state.Kind = "Hover"
	KindFollow state.Kind = "Follow"
	KindAlert  state.Kind = "Alert"
)

// KeyAlerts - сколько раз дрон терял игрока.
const KeyAlerts = "alerts"

// Acceleration - предел ускорения к скорости, которую просит скрипт, в
// пикселях в секунду за секунду.
const Acceleration = 1200.0

// Поворот корпуса: TurnRate - скорость сглаживания, ниже HeadingMinSpeed
// дрон держит прежний курс.
const (
	TurnRate        = 8.0
	HeadingMinSpeed = 30.0
)

// Drone - летающий спутник. Поведение живет в Lua: скрипты читают таблицу
// owner и вызывают steer, выбирая скорость. Скорость дрон интегрирует сам,
// гравитация и земля его не касаются.
type Drone struct {
	Name   string
	Pos    component.Position
	Vel    component.Velocity
	Target *component.Position
	// Heading - курс в радианах, 0 смотрит вправо, диапазон [-π, π].
	Heading float64

	Machine *state.Machine[Drone]

	runtime *script.Runtime[Drone]
	logger  *slog.Logger
	steerX  float64
	steerY  float64
}

// Option настраивает Drone.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	scriptsDir string
	spawn      *component.Position
}

// WithLogger задает логгер дрона, его машины и скриптов.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScriptsDir загружает *.lua из dir поверх встроенных скриптов, так что
// каталог может заменить вид или добавить новые.
func WithScriptsDir(dir string) Option {
	return func(o *options) { o.scriptsDir = dir }
}

// WithSpawn задает точку появления. По умолчанию - точка привязки.
func WithSpawn(pos component.Position) Option {
	return func(o *options) { o.spawn = &pos }
}

// New создает дрон, следующий за target.
func New(name string, target *component.Position, events *event.Registry, opts ...Option) (*Drone, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Drone{
		Name:   name,
		Target: target,
		logger: o.logger.With("drone", name),
	}
	if o.spawn != nil {
		d.Pos = *o.spawn
	} else {
		d.Pos.X, d.Pos.Y = d.anchor()
	}

	d.runtime = script.NewRuntime(
		script.WithLogger[Drone](d.logger),
		script.WithRegistry[Drone](events),
		script.WithOwnerTable(ownerTable),
		script.WithCommand("steer", func(dr *Drone, L *lua.LState) int {
			dr.steerX = float64(L.CheckNumber(1))
			dr.steerY = float64(L.CheckNumber(2))
			return 0
		}),
	)
	if err := d.runtime.LoadFS(defaultScripts, "scripts"); err != nil {
		d.runtime.Close()
		return nil, fmt.Errorf("load embedded drone scripts: %w", err)
	}
	if o.scriptsDir != "" {
		if err := d.runtime.LoadDir(o.scriptsDir); err != nil {
			d.runtime.Close()
			return nil, fmt.Errorf("load drone scripts from %s: %w", o.scriptsDir, err)
		}
	}
	catalog := state.NewCatalog[Drone]()
	if err := d.runtime.Register(catalog); err != nil {
		d.runtime.Close()
		return nil, err
	}
	d.Machine = state.NewMachine(catalog,
		state.WithName("drone:"+name),
		state.WithLogger(d.logger),
	)
	return d, nil
}

func ownerTable(d *Drone) map[string]lua.LValue {
	ax, ay := d.anchor()
	return map[string]lua.LValue{
		"name":     lua.LString(d.Name),
		"x":        lua.LNumber(d.Pos.X),
		"y":        lua.LNumber(d.Pos.Y),
		"vx":       lua.LNumber(d.Vel.X),
		"vy":       lua.LNumber(d.Vel.Y),
		"target_x": lua.LNumber(ax),
		"target_y": lua.LNumber(ay),
		"distance": lua.LNumber(d.Distance()),
	}
}

// anchor - точка рядом с целью, которую дрон старается держать.
func (d *Drone) anchor() (float64, float64) {
	if d.Target == nil {
		return d.Pos.X, d.Pos.Y
	}
	return d.Target.X + config.DroneOffsetX, d.Target.Y + config.DroneOffsetY
}

// Distance - расстояние от дрона до точки привязки.
func (d *Drone) Distance() float64 {
	ax, ay := d.anchor()
	return utils.Distance(d.Pos.X, d.Pos.Y, ax, ay)
}

// Start инициализирует машину и входит в Hover.
func (d *Drone) Start(sharing bool) bool {
	return d.Machine.InitializeWithState(KindHover, d, sharing)
}

// State возвращает текущее состояние.
func (d *Drone) State() state.Kind { return d.Machine.CurrentKind() }

// Alerts - сколько раз дрон входил в Alert.
func (d *Drone) Alerts() int {
	n, _ := state.SharedAs[float64](d.Machine, KeyAlerts)
	return int(n)
}

func (d *Drone) Update(dt float64) {
	d.Machine.Update(dt)
}

func (d *Drone) LateUpdate(dt float64) {
	d.Machine.LateUpdate(dt)
}

// FixedUpdate выполняет фиксированный хук скрипта и двигает дрон.
func (d *Drone) FixedUpdate(dt float64) {
	d.Machine.FixedUpdate(dt)
	if !d.Machine.IsRunning() || dt <= 0 {
		return
	}
	step := Acceleration * dt
	d.Vel.X = utils.Approach(d.Vel.X, d.steerX, step)
	d.Vel.Y = utils.Approach(d.Vel.Y, d.steerY, step)
	d.Pos.X += d.Vel.X * dt
	d.Pos.Y += d.Vel.Y * dt
	d.turn(dt)
}

// turn поворачивает курс к направлению полета кратчайшим путем.
func (d *Drone) turn(dt float64) {
	if math.Hypot(d.Vel.X, d.Vel.Y) < HeadingMinSpeed {
		return
	}
	want := math.Atan2(d.Vel.Y, d.Vel.X)
	d.Heading = utils.LerpAngle(d.Heading, want, 1-math.Exp(-TurnRate*dt))
}

// Close разрушает машину и рантайм Lua.
func (d *Drone) Close() {
	d.Machine.Destroy()
	d.runtime.Close()
}
