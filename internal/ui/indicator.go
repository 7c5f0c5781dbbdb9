// internal/ui/indicator.go
package ui

import (
	"image/color"
	"math"

	"go-gameframe/internal/config"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// StateIndicator - цветная точка с состоянием передвижения игрока. При смене
// состояния ненадолго раздувается.
type StateIndicator struct {
	X, Y    float32
	Radius  float32
	pulseAt float64
	pulsed  bool
}

func NewStateIndicator(x, y, radius float32) *StateIndicator {
	return &StateIndicator{
		X:      x,
		Y:      y,
		Radius: radius,
	}
}

// Pulse запускает раздувание в игровое время now.
func (i *StateIndicator) Pulse(now float64) {
	i.pulseAt = now
	i.pulsed = true
}

// Scale возвращает множитель радиуса в игровое время now.
func (i *StateIndicator) Scale(now float64) float64 {
	if !i.pulsed {
		return 1
	}
	elapsed := math.Max(now-i.pulseAt, 0)
	return 1.0 + 0.3*math.Exp(-elapsed*8)
}

// Draw отрисовывает индикатор
func (i *StateIndicator) Draw(screen *ebiten.Image, stateColor color.RGBA, now float64) {
	r := i.Radius * float32(i.Scale(now))
	vector.DrawFilledCircle(screen, i.X, i.Y, r, stateColor, true)
	vector.StrokeCircle(screen, i.X, i.Y, r, float32(config.StrokeWidth), config.IndicatorStroke, true)
}
