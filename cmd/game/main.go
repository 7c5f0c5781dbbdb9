// cmd/game/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"go-gameframe/internal/app"
	"go-gameframe/internal/config"
	"go-gameframe/internal/defs"
	"go-gameframe/internal/logging"
	"go-gameframe/internal/savegame"
	"go-gameframe/internal/system"
	"go-gameframe/internal/telemetry"
	"go-gameframe/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/font/basicfont"
)

type AppGame struct {
	game           *app.Game
	hud            *ui.HUD
	render         *system.RenderSystem
	cfg            config.Config
	lastUpdateTime time.Time
}

func (a *AppGame) Update() error {
	now := time.Now()
	deltaTime := now.Sub(a.lastUpdateTime).Seconds()
	if deltaTime > config.MaxDeltaTime {
		deltaTime = config.MaxDeltaTime
	}
	a.lastUpdateTime = now
	a.game.Tick(deltaTime, readInput())
	a.hud.Update(a.game.GameTime())
	return nil
}

func (a *AppGame) Draw(screen *ebiten.Image) {
	screen.Fill(config.BackgroundColor)
	camX, camY := a.game.Camera.View()

	tint := map[string]color.RGBA{}
	if c, ok := config.StateColors[string(a.game.Player.State())]; ok {
		tint[a.game.Player.Name] = c
	}
	a.render.Dimmed = a.game.Paused()
	a.render.Draw(screen, camX, camY, tint)
	a.render.DrawMarker(screen, a.game.Drone.Pos.X, a.game.Drone.Pos.Y, config.DroneRadius, camX, camY, config.DroneColor)
	a.render.DrawHeading(screen, a.game.Drone.Pos.X, a.game.Drone.Pos.Y, a.game.Drone.Heading, config.DroneRadius+6, camX, camY, config.DroneColor)
	p := a.game.Player
	a.render.DrawHeading(screen, p.Pos.X, p.Pos.Y-config.PlayerHeight/2, math.Atan2(0, p.Facing), config.PlayerWidth, camX, camY, config.TextLightColor)
	a.hud.Draw(screen, a.game.Status)
}

func (a *AppGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.cfg.ScreenWidth, a.cfg.ScreenHeight
}

// readInput переводит клавиши в кадр ввода
func readInput() app.Input {
	var in app.Input
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		in.MoveX--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		in.MoveX++
	}
	in.Sprint = ebiten.IsKeyPressed(ebiten.KeyShift)
	in.JumpPressed = inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyW)
	in.JumpReleased = inpututil.IsKeyJustReleased(ebiten.KeySpace) || inpututil.IsKeyJustReleased(ebiten.KeyW)
	in.Attack = inpututil.IsKeyJustPressed(ebiten.KeyJ) || inpututil.IsKeyJustPressed(ebiten.KeyX)
	in.Pause = inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeyEscape)
	in.Quicksave = inpututil.IsKeyJustPressed(ebiten.KeyF5)
	in.Quickload = inpututil.IsKeyJustPressed(ebiten.KeyF9)
	return in
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, "gameframe", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	if cfg.PprofAddr != "" {
		go func() {
			logger.Info("pprof listening", "addr", cfg.PprofAddr)
			if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("pprof stopped", "error", err)
			}
		}()
	}

	tuning, err := defs.LoadMovement(cfg.TuningFile)
	if err != nil {
		return err
	}

	opts := []app.Option{app.WithLogger(logger), app.WithTuning(tuning)}
	store, err := savegame.Open(cfg.SavePath)
	if err != nil {
		// Без сохранений игра всё равно запускается
		logger.Error("save store unavailable", "path", cfg.SavePath, "error", err)
	} else {
		defer store.Close()
		opts = append(opts, app.WithStore(store))
	}

	game, err := app.NewGame(cfg, opts...)
	if err != nil {
		return err
	}
	defer game.Close()

	hud := ui.NewHUD(game.Events, basicfont.Face7x13, app.PlayerName, cfg.ScreenWidth, logger)
	defer hud.Close()
	hud.SetKind(string(game.Player.State()))

	a := &AppGame{
		game:           game,
		hud:            hud,
		render:         system.NewRenderSystem(game.ECS, config.GroundY, cfg.ScreenWidth, cfg.ScreenHeight),
		cfg:            cfg,
		lastUpdateTime: time.Now(),
	}
	ebiten.SetWindowSize(cfg.ScreenWidth, cfg.ScreenHeight)
	ebiten.SetWindowTitle(cfg.WindowTitle)
	ebiten.SetTPS(cfg.TPS)
	return ebiten.RunGame(a)
}
