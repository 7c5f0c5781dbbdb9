// internal/system/render.go
package system

import (
	"image/color"
	"math"

	"go-gameframe/internal/config"
	"go-gameframe/internal/entity"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// RenderSystem рисует мир относительно камеры
type RenderSystem struct {
	ecs     *entity.ECS
	GroundY float64
	Width   float64
	Height  float64
	// Dimmed затемняет мир, например под оверлеем паузы.
	Dimmed bool
}

func NewRenderSystem(ecs *entity.ECS, groundY float64, width, height int) *RenderSystem {
	return &RenderSystem{
		ecs:     ecs,
		GroundY: groundY,
		Width:   float64(width),
		Height:  float64(height),
	}
}

// ToScreen переводит точку мира в экранные координаты для камеры с центром в
// (camX, camY).
func (s *RenderSystem) ToScreen(x, y, camX, camY float64) (float32, float32) {
	return float32(x - camX + s.Width/2), float32(y - camY + s.Height/2)
}

// Draw рисует землю и все тела. tint переопределяет цвет тела по имени
// сущности.
func (s *RenderSystem) Draw(screen *ebiten.Image, camX, camY float64, tint map[string]color.RGBA) {
	_, groundY := s.ToScreen(0, s.GroundY, camX, camY)
	if groundY < float32(s.Height) {
		vector.DrawFilledRect(screen, 0, groundY, float32(s.Width), float32(s.Height)-groundY, s.shade(config.GroundColor), false)
	}

	// Позиция тела: середина нижней грани
	for _, id := range s.ecs.BodyIDs() {
		pos, body := s.ecs.Positions[id], s.ecs.Bodies[id]
		if pos == nil || body == nil {
			continue
		}
		x, y := s.ToScreen(pos.X-body.Width/2, pos.Y-body.Height, camX, camY)
		w, h := float32(body.Width), float32(body.Height)
		clr := config.PlayerColor
		if c, ok := tint[s.ecs.Names[id]]; ok {
			clr = c
		}
		vector.DrawFilledRect(screen, x, y, w, h, s.shade(clr), true)
		vector.StrokeRect(screen, x, y, w, h, float32(config.StrokeWidth), config.IndicatorStroke, true)
	}
}

// DrawMarker рисует круглый объект вне ECS.
func (s *RenderSystem) DrawMarker(screen *ebiten.Image, x, y, radius, camX, camY float64, clr color.RGBA) {
	sx, sy := s.ToScreen(x, y, camX, camY)
	vector.DrawFilledCircle(screen, sx, sy, float32(radius)+2, config.IndicatorStroke, true)
	vector.DrawFilledCircle(screen, sx, sy, float32(radius), s.shade(clr), true)
}

// DrawHeading рисует отрезок длины length из точки в направлении heading.
func (s *RenderSystem) DrawHeading(screen *ebiten.Image, x, y, heading, length, camX, camY float64, clr color.RGBA) {
	sx, sy := s.ToScreen(x, y, camX, camY)
	ex, ey := s.ToScreen(x+math.Cos(heading)*length, y+math.Sin(heading)*length, camX, camY)
	vector.StrokeLine(screen, sx, sy, ex, ey, 2, s.shade(clr), true)
}

func (s *RenderSystem) shade(c color.RGBA) color.RGBA {
	if !s.Dimmed {
		return c
	}
	return DarkenColor(c)
}

// DarkenColor уменьшает яркость цвета.
func DarkenColor(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * 0.5),
		G: uint8(float64(c.G) * 0.5),
		B: uint8(float64(c.B) * 0.5),
		A: c.A,
	}
}
