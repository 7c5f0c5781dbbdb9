// internal/app/screens.go
package app

import (
	"context"

	"go-gameframe/internal/component"
	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
)

// Экраны приложения.
const (
	KindPlaying state.Kind = "Playing"
	KindPaused  state.Kind = "Paused"
)

func screenCatalog() *state.Catalog[Game] {
	return state.NewCatalog[Game]().
		MustRegister(KindPlaying, func() state.State[Game] { return &Playing{} }).
		MustRegister(KindPaused, func() state.State[Game] { return &Paused{} })
}

// Playing передает ввод игроку и тикает мир.
type Playing struct {
	state.Base[Game]
}

func (s *Playing) Update(dt float64) {
	g := s.Owner()
	if g == nil {
		return
	}
	in := g.input
	if in.Pause {
		s.CheckTransition(KindPaused, false)
		return
	}
	if in.Quicksave {
		if err := g.Quicksave(context.Background()); err != nil {
			g.logger.Error("quicksave failed", "error", err)
			g.Status = "quicksave failed"
		}
	}
	if in.Quickload {
		if err := g.Quickload(context.Background()); err != nil {
			g.logger.Error("quickload failed", "error", err)
			g.Status = "quickload failed"
		}
	}

	g.Player.SetIntent(component.Intent{MoveX: in.MoveX, Sprint: in.Sprint})
	if in.JumpPressed {
		g.Player.RequestJump()
	}
	if in.JumpReleased {
		g.Player.ReleaseJump()
	}
	if in.Attack {
		g.Player.RequestAttack()
	}

	g.Timers.Advance(dt)
	g.Player.Update(dt)
	g.Drone.Update(dt)
	g.accumulator += dt
	g.gameTime += dt
}

func (s *Playing) LateUpdate(dt float64) {
	g := s.Owner()
	if g == nil {
		return
	}
	g.Player.LateUpdate(dt)
	g.Drone.LateUpdate(dt)
	g.Camera.Update(dt)
}

func (s *Playing) FixedUpdate(dt float64) {
	g := s.Owner()
	if g == nil {
		return
	}
	g.Player.FixedUpdate(dt)
	g.Drone.FixedUpdate(dt)
	g.Physics.Update(dt)
}

// Paused замораживает игровые машины до повторного нажатия паузы.
type Paused struct {
	state.Base[Game]
}

func (s *Paused) Enter() {
	g := s.Owner()
	if g == nil {
		return
	}
	g.Player.Machine.Stop()
	g.Drone.Machine.Stop()
	g.accumulator = 0
	g.Status = "paused"
	g.publish0(event.GamePaused)
}

func (s *Paused) Exit() {
	g := s.Owner()
	if g == nil {
		return
	}
	g.Player.Machine.Resume()
	g.Drone.Machine.Resume()
	g.Status = ""
	g.publish0(event.GameResumed)
}

func (s *Paused) Update(dt float64) {
	g := s.Owner()
	if g != nil && g.input.Pause {
		s.CheckTransition(KindPlaying, false)
	}
}
