// internal/app/game.go
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"go-gameframe/internal/camera"
	"go-gameframe/internal/character"
	"go-gameframe/internal/component"
	"go-gameframe/internal/config"
	"go-gameframe/internal/defs"
	"go-gameframe/internal/drone"
	"go-gameframe/internal/entity"
	"go-gameframe/internal/event"
	"go-gameframe/internal/savegame"
	"go-gameframe/internal/state"
	"go-gameframe/internal/system"
	"go-gameframe/internal/timer"
	"go-gameframe/internal/utils"
)

const (
	PlayerName = "player"
	DroneName  = "drone"
)

// ErrNoStore возвращают Quicksave и Quickload, если игра идет без хранилища
// сохранений.
var ErrNoStore = errors.New("app: no save store configured")

// Game хранит состояние и логику игры. Ни отрисовки, ни устройств: хост
// передает кадры через Tick.
type Game struct {
	ECS     *entity.ECS
	Events  *event.Registry
	Timers  *timer.Manager
	Physics *system.PhysicsSystem
	Rng     *utils.PRNGService

	Player  *character.Character
	Drone   *drone.Drone
	Camera  *camera.Rig
	Screens *state.Machine[Game]

	// Status - последнее сообщение для HUD.
	Status string

	cfg         config.Config
	logger      *slog.Logger
	store       *savegame.Store
	input       Input
	accumulator float64
	gameTime    float64
}

// Option настраивает Game.
type Option func(*options)

type options struct {
	logger *slog.Logger
	store  *savegame.Store
	tuning *defs.Movement
}

// WithLogger задает логгер, общий для всех подсистем.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStore включает quicksave и quickload.
func WithStore(store *savegame.Store) Option {
	return func(o *options) { o.store = store }
}

// WithTuning заменяет настройки передвижения игрока.
func WithTuning(m defs.Movement) Option {
	return func(o *options) { o.tuning = &m }
}

// NewGame инициализирует новый экземпляр игры.
func NewGame(cfg config.Config, opts ...Option) (*Game, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	tuning := defs.DefaultMovement()
	if o.tuning != nil {
		tuning = *o.tuning
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}

	ecs := entity.NewECS()
	events := event.NewRegistry(
		event.WithLogger(o.logger),
		event.WithPanicIsolation(cfg.PanicIsolation),
	)
	timers := timer.NewManager()
	g := &Game{
		ECS:     ecs,
		Events:  events,
		Timers:  timers,
		Physics: system.NewPhysicsSystem(ecs, events, config.GroundY, o.logger),
		Rng:     utils.NewPRNGService(cfg.Seed),
		cfg:     cfg,
		logger:  o.logger,
		store:   o.store,
	}

	g.Player = character.New(PlayerName, ecs, events, timers, tuning,
		character.WithLogger(o.logger),
		character.WithSpawn(component.Position{X: config.PlayerSpawnX, Y: config.GroundY}, true),
	)
	d, err := drone.New(DroneName, g.Player.Pos, events,
		drone.WithLogger(o.logger),
		drone.WithScriptsDir(cfg.ScriptsDir),
	)
	if err != nil {
		g.Player.Destroy()
		return nil, fmt.Errorf("create drone: %w", err)
	}
	g.Drone = d

	g.Camera = camera.NewRig(events, g.Rng, o.logger)
	g.Camera.Follow(PlayerName, g.Player.Pos, g.Player.Vel)
	g.Camera.Snap()

	if err := event.Register2(events, event.DroneAlerted, g, g.onDroneAlerted); err != nil {
		return nil, err
	}
	if err := event.Register1(events, event.PlayerDied, g, g.onPlayerDied); err != nil {
		return nil, err
	}

	if !g.Player.Start(cfg.StateSharing) || !g.Drone.Start(cfg.StateSharing) {
		return nil, errors.New("app: gameplay state machines failed to start")
	}
	g.Screens = state.NewMachine(screenCatalog(),
		state.WithName("screens"),
		state.WithLogger(o.logger),
	)
	if !g.Screens.InitializeWithState(KindPlaying, g, true) {
		return nil, errors.New("app: screen state machine failed to start")
	}
	return g, nil
}

// Tick продвигает игру на кадр: обновление кадра, позднее обновление
// (камера), затем столько фиксированных шагов, сколько позволяет накопленное
// время.
func (g *Game) Tick(deltaTime float64, in Input) {
	deltaTime = utils.Clamp(deltaTime, 0, config.MaxDeltaTime)
	g.input = in

	g.Screens.Update(deltaTime)
	g.Screens.LateUpdate(deltaTime)

	steps := 0
	for g.accumulator >= config.FixedStep && steps < config.MaxFixedSteps {
		g.Screens.FixedUpdate(config.FixedStep)
		g.accumulator -= config.FixedStep
		steps++
	}
	if steps == config.MaxFixedSteps {
		// Не догоняем: лишнее время просто теряется
		g.accumulator = 0
	}
}

// Paused - активен ли экран паузы.
func (g *Game) Paused() bool { return g.Screens.CurrentKind() == KindPaused }

// Screen возвращает активный экран.
func (g *Game) Screen() state.Kind { return g.Screens.CurrentKind() }

// GameTime - сыгранное время без пауз, в секундах.
func (g *Game) GameTime() float64 { return g.gameTime }

// Config возвращает конфигурацию, с которой создана игра.
func (g *Game) Config() config.Config { return g.cfg }

// Close разрушает все машины и подписки.
func (g *Game) Close() {
	g.Screens.Destroy()
	g.Camera.Close()
	g.Drone.Close()
	g.Player.Destroy()
	g.Events.Close()
}

func (g *Game) onDroneAlerted(who string, distance float64) {
	g.Status = fmt.Sprintf("%s lost the player (%.0f px)", who, distance)
}

func (g *Game) onPlayerDied(who string) {
	g.Status = who + " died, F9 to load"
	g.logger.Info("player died", "who", who)
}

// publish0 публикует событие без аргументов, если его кто-то слушает.
func (g *Game) publish0(name string) {
	if !g.Events.HasSubscribers(name) {
		return
	}
	if err := event.Trigger0(g.Events, name); err != nil {
		g.logger.Warn("publish failed", "event", name, "error", err)
	}
}
