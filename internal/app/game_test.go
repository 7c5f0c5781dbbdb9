package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"go-gameframe/internal/character"
	"go-gameframe/internal/config"
	"go-gameframe/internal/defs"
	"go-gameframe/internal/drone"
	"go-gameframe/internal/event"
	"go-gameframe/internal/savegame"
)

const frame = 1.0 / 60

func testConfig() config.Config {
	return config.Config{
		ScreenWidth:    1200,
		ScreenHeight:   900,
		TPS:            60,
		StateSharing:   true,
		PanicIsolation: true,
		SaveSlot:       "quicksave",
	}
}

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger)}, opts...)
	g, err := NewGame(testConfig(), opts...)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func withTestStore(t *testing.T) Option {
	t.Helper()
	store, err := savegame.Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return WithStore(store)
}

func run(g *Game, n int, in Input) {
	for range n {
		g.Tick(frame, in)
	}
}

type counter struct{ paused, resumed int }

func (c *counter) onPaused()  { c.paused++ }
func (c *counter) onResumed() { c.resumed++ }

func TestNewGameStartsPlaying(t *testing.T) {
	g := newTestGame(t)

	if g.Screen() != KindPlaying {
		t.Fatalf("Screen() = %q, want %q", g.Screen(), KindPlaying)
	}
	if g.Player.State() != character.KindIdle {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindIdle)
	}
	if g.Drone.State() != drone.KindHover {
		t.Fatalf("drone = %q, want %q", g.Drone.State(), drone.KindHover)
	}
}

func TestWalkThenJump(t *testing.T) {
	g := newTestGame(t)

	run(g, 30, Input{MoveX: 1})
	if g.Player.State() != character.KindWalking {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindWalking)
	}
	if g.Player.Pos.X <= config.PlayerSpawnX {
		t.Fatalf("player x = %v, want > %v", g.Player.Pos.X, config.PlayerSpawnX)
	}

	g.Tick(frame, Input{JumpPressed: true})
	if g.Player.State() != character.KindJumping {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindJumping)
	}

	run(g, 120, Input{})
	if g.Player.State() != character.KindIdle {
		t.Fatalf("after landing player = %q, want %q", g.Player.State(), character.KindIdle)
	}
	if !g.Player.Body.Grounded {
		t.Fatal("player should be grounded after landing")
	}
}

func TestPauseFreezesGameplay(t *testing.T) {
	g := newTestGame(t)
	c := &counter{}
	if err := event.Register0(g.Events, event.GamePaused, c, c.onPaused); err != nil {
		t.Fatal(err)
	}
	if err := event.Register0(g.Events, event.GameResumed, c, c.onResumed); err != nil {
		t.Fatal(err)
	}

	run(g, 10, Input{MoveX: 1})
	g.Tick(frame, Input{Pause: true})
	if !g.Paused() {
		t.Fatalf("Screen() = %q, want %q", g.Screen(), KindPaused)
	}
	if g.Player.Machine.IsRunning() || g.Drone.Machine.IsRunning() {
		t.Fatal("gameplay machines should be stopped while paused")
	}

	x, played := g.Player.Pos.X, g.GameTime()
	run(g, 30, Input{MoveX: 1})
	if g.Player.Pos.X != x {
		t.Fatalf("player moved while paused: %v -> %v", x, g.Player.Pos.X)
	}
	if g.GameTime() != played {
		t.Fatalf("GameTime() = %v, want %v", g.GameTime(), played)
	}

	g.Tick(frame, Input{Pause: true})
	if g.Screen() != KindPlaying {
		t.Fatalf("Screen() = %q, want %q", g.Screen(), KindPlaying)
	}
	if !g.Player.Machine.IsRunning() {
		t.Fatal("player machine should resume")
	}
	if c.paused != 1 || c.resumed != 1 {
		t.Fatalf("paused/resumed = %d/%d, want 1/1", c.paused, c.resumed)
	}
}

func TestQuicksaveQuickload(t *testing.T) {
	g := newTestGame(t, withTestStore(t))
	ctx := context.Background()

	run(g, 30, Input{MoveX: 1})
	g.Player.Machine.SetSharedData(character.KeyJumps, 2.0)
	if err := g.Quicksave(ctx); err != nil {
		t.Fatalf("Quicksave: %v", err)
	}
	savedX := g.Player.Pos.X

	g.Player.Machine.SetSharedData(character.KeyJumps, 5.0)
	run(g, 30, Input{MoveX: -1, Sprint: true})
	if g.Player.Pos.X == savedX {
		t.Fatal("player should have moved after saving")
	}

	if err := g.Quickload(ctx); err != nil {
		t.Fatalf("Quickload: %v", err)
	}
	if g.Player.Pos.X != savedX {
		t.Fatalf("player x = %v, want %v", g.Player.Pos.X, savedX)
	}
	if g.Player.State() != character.KindWalking {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindWalking)
	}
	if jumps, _ := g.Player.Machine.SharedData(character.KeyJumps); jumps != 2.0 {
		t.Fatalf("jumps = %v, want 2", jumps)
	}
	if _, ok := g.Player.Machine.SharedData(keyPosX); ok {
		t.Fatal("save position key leaked into the blackboard")
	}
	if !strings.HasPrefix(g.Status, "loaded") {
		t.Fatalf("Status = %q", g.Status)
	}
}

func TestQuickloadMidJumpKeepsArc(t *testing.T) {
	g := newTestGame(t, withTestStore(t))
	ctx := context.Background()

	g.Tick(frame, Input{JumpPressed: true})
	run(g, 5, Input{})
	if g.Player.State() != character.KindJumping {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindJumping)
	}
	if err := g.Quicksave(ctx); err != nil {
		t.Fatalf("Quicksave: %v", err)
	}
	y, vy := g.Player.Pos.Y, g.Player.Vel.Y

	run(g, 120, Input{})
	if g.Player.State() != character.KindIdle {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindIdle)
	}

	if err := g.Quickload(ctx); err != nil {
		t.Fatalf("Quickload: %v", err)
	}
	if g.Player.State() != character.KindJumping {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindJumping)
	}
	if g.Player.Pos.Y != y || g.Player.Vel.Y != vy {
		t.Fatalf("body = (%v, %v), want the saved (%v, %v)", g.Player.Pos.Y, g.Player.Vel.Y, y, vy)
	}
	if jumps, _ := g.Player.Machine.SharedData(character.KeyJumps); jumps != 1.0 {
		t.Fatalf("jumps = %v, want 1", jumps)
	}
	if _, ok := g.Player.Machine.SharedData(keyVelY); ok {
		t.Fatal("save velocity key leaked into the blackboard")
	}
}

func TestDeathAndQuickload(t *testing.T) {
	g := newTestGame(t, withTestStore(t))
	ctx := context.Background()
	if err := g.Quicksave(ctx); err != nil {
		t.Fatalf("Quicksave: %v", err)
	}

	g.Player.Damage(g.Player.Health)
	g.Tick(frame, Input{})
	if g.Player.State() != character.KindDead {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindDead)
	}
	if !strings.Contains(g.Status, "died") {
		t.Fatalf("Status = %q, want a death message", g.Status)
	}

	g.Tick(frame, Input{Quickload: true})
	if !g.Player.IsAlive() || g.Player.Health != g.Player.Tuning.MaxHealth {
		t.Fatalf("Health = %v, want restored", g.Player.Health)
	}
	if g.Player.State() != character.KindIdle {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindIdle)
	}
}

func TestAttackFromInput(t *testing.T) {
	g := newTestGame(t)
	g.Tick(frame, Input{Attack: true})
	if g.Player.State() != character.KindAttacking {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindAttacking)
	}
	run(g, 40, Input{})
	if g.Player.State() != character.KindIdle {
		t.Fatalf("player = %q, want %q", g.Player.State(), character.KindIdle)
	}
}

func TestQuicksaveFromInput(t *testing.T) {
	g := newTestGame(t, withTestStore(t))

	g.Tick(frame, Input{Quicksave: true})
	if !strings.HasPrefix(g.Status, "saved") {
		t.Fatalf("Status = %q, want saved message", g.Status)
	}
	g.Tick(frame, Input{Quickload: true})
	if !strings.HasPrefix(g.Status, "loaded") {
		t.Fatalf("Status = %q, want loaded message", g.Status)
	}
}

func TestSaveErrors(t *testing.T) {
	ctx := context.Background()

	g := newTestGame(t)
	if err := g.Quicksave(ctx); !errors.Is(err, ErrNoStore) {
		t.Fatalf("Quicksave without store = %v, want ErrNoStore", err)
	}
	if err := g.Quickload(ctx); !errors.Is(err, ErrNoStore) {
		t.Fatalf("Quickload without store = %v, want ErrNoStore", err)
	}

	g = newTestGame(t, withTestStore(t))
	if err := g.Quickload(ctx); !errors.Is(err, savegame.ErrNotFound) {
		t.Fatalf("Quickload empty slot = %v, want ErrNotFound", err)
	}
	if err := g.Quicksave(ctx); err != nil {
		t.Fatalf("Quicksave: %v", err)
	}
	g.Tick(frame, Input{Pause: true})
	if err := g.Quickload(ctx); err == nil {
		t.Fatal("Quickload while paused should fail")
	}
}

func TestTickClampsDelta(t *testing.T) {
	g := newTestGame(t)

	g.Tick(-1, Input{})
	if g.GameTime() != 0 {
		t.Fatalf("GameTime() = %v after negative delta, want 0", g.GameTime())
	}
	g.Tick(5, Input{})
	if g.GameTime() != config.MaxDeltaTime {
		t.Fatalf("GameTime() = %v, want %v", g.GameTime(), config.MaxDeltaTime)
	}
}

func TestDroneAlertUpdatesStatus(t *testing.T) {
	g := newTestGame(t)

	if err := event.Trigger2(g.Events, event.DroneAlerted, "drone", 512.0); err != nil {
		t.Fatalf("Trigger2: %v", err)
	}
	if !strings.Contains(g.Status, "drone") || !strings.Contains(g.Status, "512") {
		t.Fatalf("Status = %q", g.Status)
	}
}

func TestNewGameRejectsBadTuning(t *testing.T) {
	bad := defs.DefaultMovement()
	bad.Gravity = -1
	if _, err := NewGame(testConfig(), WithTuning(bad)); err == nil {
		t.Fatal("NewGame should reject invalid tuning")
	}
}
