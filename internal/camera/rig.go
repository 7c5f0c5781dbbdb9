// internal/camera/rig.go
package camera

import (
	"log/slog"
	"math"

	"go-gameframe/internal/component"
	"go-gameframe/internal/config"
	"go-gameframe/internal/event"
	"go-gameframe/internal/utils"
)

// Rig - камера слежения. Плавно идет к цели с экспоненциальным затуханием,
// забегает вперед по скорости цели и трясется на жестких приземлениях
// отслеживаемой сущности. Обновляется в LateUpdate, когда геймплей уже
// сдвинул цель.
type Rig struct {
	// X, Y - сглаженный центр без тряски.
	X, Y float64

	Damping          float64
	LookAhead        float64
	OffsetY          float64
	ShakeImpactScale float64
	MaxShake         float64
	ShakeDuration    float64

	events *event.Registry
	rng    *utils.PRNGService

	target string
	pos    *component.Position
	vel    *component.Velocity

	shakeAmp  float64
	shakeLeft float64
	jitterX   float64
	jitterY   float64
}

// NewRig создает камеру, слушающую Landed в events. rng управляет тряской.
func NewRig(events *event.Registry, rng *utils.PRNGService, logger *slog.Logger) *Rig {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Rig{
		Damping:          config.CameraDamping,
		LookAhead:        config.CameraLookAhead,
		OffsetY:          config.CameraOffsetY,
		ShakeImpactScale: config.ShakeImpactScale,
		MaxShake:         config.MaxShake,
		ShakeDuration:    config.ShakeDuration,
		events:           events,
		rng:              rng,
	}
	if err := event.Register2(events, event.Landed, r, r.onLanded); err != nil {
		logger.Error("camera: subscribe to landings", "error", err)
	}
	return r
}

// Follow заставляет камеру следить за сущностью с именем name.
func (r *Rig) Follow(name string, pos *component.Position, vel *component.Velocity) {
	r.target, r.pos, r.vel = name, pos, vel
}

// Snap перескакивает к цели без сглаживания.
func (r *Rig) Snap() {
	if r.pos == nil {
		return
	}
	r.X, r.Y = r.goal()
}

func (r *Rig) goal() (float64, float64) {
	x := r.pos.X
	if r.vel != nil {
		x += r.vel.X * r.LookAhead
	}
	return x, r.pos.Y + r.OffsetY
}

// Update ведет камеру к цели и продвигает тряску.
func (r *Rig) Update(dt float64) {
	if r.pos == nil || dt <= 0 {
		return
	}
	gx, gy := r.goal()
	r.X = utils.Damp(r.X, gx, r.Damping, dt)
	r.Y = utils.Damp(r.Y, gy, r.Damping, dt)

	if r.shakeLeft <= 0 {
		r.jitterX, r.jitterY = 0, 0
		return
	}
	r.shakeLeft = math.Max(r.shakeLeft-dt, 0)
	amp := r.shakeAmp * r.shakeLeft / r.ShakeDuration
	r.jitterX = r.rng.Signed(amp)
	r.jitterY = r.rng.Signed(amp)
}

// View возвращает центр камеры с тряской.
func (r *Rig) View() (x, y float64) {
	return r.X + r.jitterX, r.Y + r.jitterY
}

// Shaking - идет ли тряска.
func (r *Rig) Shaking() bool { return r.shakeLeft > 0 }

// Close перестает слушать приземления.
func (r *Rig) Close() {
	r.events.RemoveAllForSubscriber(r)
}

func (r *Rig) onLanded(who string, impact float64) {
	if who != r.target || r.ShakeImpactScale <= 0 {
		return
	}
	amp := math.Min(impact/r.ShakeImpactScale, r.MaxShake)
	if amp < 0.5 {
		return
	}
	r.shakeAmp = math.Max(amp, r.shakeAmp*r.shakeLeft/r.ShakeDuration)
	r.shakeLeft = r.ShakeDuration
}
